package n64

import "math"

// fpuState is COP1: 32 logical 32-bit registers, presented as 32 or 16
// 64-bit-wide registers depending on Status.FR (spec.md §3 "COP1 32/16-
// register dual view per Status.FR"), plus the FP control/status register.
type fpuState struct {
	regs [32]uint64
	fcr31 uint32
}

const fcr31FS = 1 << 24 // flush-subnormals, read back but not modeled

func (c *VR4300) fprIndex(n uint32) uint32 {
	if c.cop0.status&(1<<26) != 0 { // Status.FR
		return n
	}
	return n &^ 1
}

func (c *VR4300) readFPRWord(n uint32) uint32 {
	return uint32(c.fpu.regs[c.fprIndex(n)])
}

func (c *VR4300) writeFPRWord(n uint32, v uint32) {
	idx := c.fprIndex(n)
	c.fpu.regs[idx] = (c.fpu.regs[idx] &^ 0xFFFFFFFF) | uint64(v)
}

func (c *VR4300) readFPRFloat32(n uint32) float32 {
	return math.Float32frombits(c.readFPRWord(n))
}

func (c *VR4300) writeFPRFloat32(n uint32, v float32) {
	c.writeFPRWord(n, math.Float32bits(v))
}

// readFPRDWord/writeFPRDWord give the double-format (D, L) ops the full
// 64-bit register rather than the fprIndex-folded 32-bit view: a COP1
// instruction naming fmt=D or fmt=L always addresses the register directly,
// independent of Status.FR.
func (c *VR4300) readFPRDWord(n uint32) uint64 {
	return c.fpu.regs[n]
}

func (c *VR4300) writeFPRDWord(n uint32, v uint64) {
	c.fpu.regs[n] = v
}

func (c *VR4300) readFPRFloat64(n uint32) float64 {
	return math.Float64frombits(c.readFPRDWord(n))
}

func (c *VR4300) writeFPRFloat64(n uint32, v float64) {
	c.writeFPRDWord(n, math.Float64bits(v))
}

// FPU compute formats (COP1 fmt field, the generic decode's rs) and funct
// codes (the low 6 bits of the instruction word), per the MIPS III COP1
// encoding spec.md §3 references for FCR31 and the register file.
const (
	fpuFmtS = 16
	fpuFmtD = 17
	fpuFmtW = 20
	fpuFmtL = 21

	fpuFnAdd    = 0x00
	fpuFnSub    = 0x01
	fpuFnMul    = 0x02
	fpuFnDiv    = 0x03
	fpuFnSqrt   = 0x04
	fpuFnAbs    = 0x05
	fpuFnMov    = 0x06
	fpuFnNeg    = 0x07
	fpuFnTruncL = 0x09
	fpuFnTruncW = 0x0D
	fpuFnCvtS   = 0x20
	fpuFnCvtD   = 0x21
	fpuFnCvtW   = 0x24
	fpuFnCvtL   = 0x25
	fpuFnCEq    = 0x32
	fpuFnCLt    = 0x3C
	fpuFnCLe    = 0x3E
)

const fcr31CondBit = 1 << 23

// fpuCompare implements the three comparison predicates this model
// recognizes (EQ/LT/LE); NaN-aware ordered/unordered distinctions from the
// full IEEE 754 predicate set are not modeled.
func fpuCompare(funct uint32, a, b float64) bool {
	switch funct {
	case fpuFnCEq:
		return a == b
	case fpuFnCLt:
		return a < b
	case fpuFnCLe:
		return a <= b
	default:
		return false
	}
}

func (c *VR4300) setFPUCond(v bool) {
	if v {
		c.fpu.fcr31 |= fcr31CondBit
	} else {
		c.fpu.fcr31 &^= fcr31CondBit
	}
}

func (c *VR4300) fpuCondTaken(rtField uint32) bool {
	tf := rtField&1 != 0
	cond := c.fpu.fcr31&fcr31CondBit != 0
	return cond == tf
}

// execFPUCompute runs the COP1 arithmetic/convert/compare ops that fall
// through decode's generic mOpFPUCompute case: the single instruction word
// carries fmt in rs, the second operand register in rt, the source register
// in rd (fs) and the destination register in sa (fd), matching the COP1
// RR-format layout the rest of decode already extracts for MFC1/MTC1.
func (c *VR4300) execFPUCompute(d decodedInstr) {
	fs, ft, fd := d.rd, d.rt, d.sa
	funct := d.raw & 0x3F

	switch d.rs {
	case fpuFmtS:
		a := c.readFPRFloat32(fs)
		switch funct {
		case fpuFnAdd:
			c.writeFPRFloat32(fd, a+c.readFPRFloat32(ft))
		case fpuFnSub:
			c.writeFPRFloat32(fd, a-c.readFPRFloat32(ft))
		case fpuFnMul:
			c.writeFPRFloat32(fd, a*c.readFPRFloat32(ft))
		case fpuFnDiv:
			c.writeFPRFloat32(fd, a/c.readFPRFloat32(ft))
		case fpuFnSqrt:
			c.writeFPRFloat32(fd, float32(math.Sqrt(float64(a))))
		case fpuFnAbs:
			c.writeFPRFloat32(fd, float32(math.Abs(float64(a))))
		case fpuFnMov:
			c.writeFPRFloat32(fd, a)
		case fpuFnNeg:
			c.writeFPRFloat32(fd, -a)
		case fpuFnCvtD:
			c.writeFPRFloat64(fd, float64(a))
		case fpuFnCvtW:
			c.writeFPRWord(fd, uint32(int32(math.Round(float64(a)))))
		case fpuFnCvtL:
			c.writeFPRDWord(fd, uint64(int64(math.Round(float64(a)))))
		case fpuFnTruncW:
			c.writeFPRWord(fd, uint32(int32(a)))
		case fpuFnTruncL:
			c.writeFPRDWord(fd, uint64(int64(a)))
		case fpuFnCEq, fpuFnCLt, fpuFnCLe:
			c.setFPUCond(fpuCompare(funct, float64(a), float64(c.readFPRFloat32(ft))))
		}
	case fpuFmtD:
		a := c.readFPRFloat64(fs)
		switch funct {
		case fpuFnAdd:
			c.writeFPRFloat64(fd, a+c.readFPRFloat64(ft))
		case fpuFnSub:
			c.writeFPRFloat64(fd, a-c.readFPRFloat64(ft))
		case fpuFnMul:
			c.writeFPRFloat64(fd, a*c.readFPRFloat64(ft))
		case fpuFnDiv:
			c.writeFPRFloat64(fd, a/c.readFPRFloat64(ft))
		case fpuFnSqrt:
			c.writeFPRFloat64(fd, math.Sqrt(a))
		case fpuFnAbs:
			c.writeFPRFloat64(fd, math.Abs(a))
		case fpuFnMov:
			c.writeFPRFloat64(fd, a)
		case fpuFnNeg:
			c.writeFPRFloat64(fd, -a)
		case fpuFnCvtS:
			c.writeFPRFloat32(fd, float32(a))
		case fpuFnCvtW:
			c.writeFPRWord(fd, uint32(int32(math.Round(a))))
		case fpuFnCvtL:
			c.writeFPRDWord(fd, uint64(int64(math.Round(a))))
		case fpuFnTruncW:
			c.writeFPRWord(fd, uint32(int32(a)))
		case fpuFnTruncL:
			c.writeFPRDWord(fd, uint64(int64(a)))
		case fpuFnCEq, fpuFnCLt, fpuFnCLe:
			c.setFPUCond(fpuCompare(funct, a, c.readFPRFloat64(ft)))
		}
	case fpuFmtW:
		v := int32(c.readFPRWord(fs))
		switch funct {
		case fpuFnCvtS:
			c.writeFPRFloat32(fd, float32(v))
		case fpuFnCvtD:
			c.writeFPRFloat64(fd, float64(v))
		}
	case fpuFmtL:
		v := int64(c.readFPRDWord(fs))
		switch funct {
		case fpuFnCvtS:
			c.writeFPRFloat32(fd, float32(v))
		case fpuFnCvtD:
			c.writeFPRFloat64(fd, float64(v))
		}
	}
}
