package n64

import "encoding/binary"

const (
	rspMemSize  = 0x2000 // 4KiB DMEM + 4KiB IMEM
	rspDMEMSize = 0x1000
	rspIMEMSize = 0x1000
)

// RSP is the Reality Signal Processor: a MIPS I/II scalar core plus an
// 8-lane 16-bit vector unit, sharing a 4 KiB DMEM and 4 KiB IMEM (spec.md
// §2 component C, §4.6 item (ii)). It halts after reset until the VR4300
// starts it via the SP status register, and signals completion back with
// BREAK or an explicit halt bit.
type RSP struct {
	dmem [rspDMEMSize]byte
	imem [rspIMEMSize]byte

	gpr [32]uint32
	pc  uint32

	vu vectorUnit

	halted    bool
	singleStep bool
	intrOnBreak bool

	dmaDMEMAddr uint32
	dmaDRAMAddr uint32
	dmaRdLen    uint32
	dmaWrLen    uint32

	semaphore bool

	bus *Bus
	mi  *MI
}

func newRSP(mi *MI) *RSP { return &RSP{mi: mi, halted: true} }

func (r *RSP) attach(b *Bus) { r.bus = b }

func (r *RSP) Halted() bool { return r.halted }

// readDMEM / writeDMEM give other devices (the RDP's XBUS path, SI/PI-style
// DMA) byte access into the RSP's 4 KiB data memory.
func (r *RSP) readDMEM(off uint32, width int) uint64 {
	return readBEu32(r.dmem[:], off&(rspDMEMSize-1), width, rspDMEMSize)
}

func (r *RSP) writeDMEM(off uint32, width int, v uint64) {
	writeBEBuf(r.dmem[:], off&(rspDMEMSize-1), width, v)
}

func writeBEBuf(buf []byte, off uint32, width int, v uint64) {
	for i := 0; i < width; i++ {
		shift := uint(8 * (width - 1 - i))
		idx := int(off) + i
		if idx >= 0 && idx < len(buf) {
			buf[idx] = byte(v >> shift)
		}
	}
}

// spMemRead/spMemWrite serve the SP_DMEM/SP_IMEM bus window: bit 12 of the
// physical offset selects DMEM vs IMEM, mirroring the real memory map
// where DMEM occupies 0x04000000-0x04000FFF and IMEM 0x04001000-0x04001FFF.
func spMemRead(b *Bus, addr uint32, width int) uint64 {
	rsp := b.RSP
	off := addr & (rspMemSize - 1)
	if off < rspDMEMSize {
		return readBEu32(rsp.dmem[:], off, width, rspDMEMSize)
	}
	return readBEu32(rsp.imem[:], off-rspDMEMSize, width, rspIMEMSize)
}

func spMemWrite(b *Bus, addr uint32, width int, value uint64) {
	rsp := b.RSP
	off := addr & (rspMemSize - 1)
	if off < rspDMEMSize {
		writeBEBuf(rsp.dmem[:], off, width, value)
	} else {
		writeBEBuf(rsp.imem[:], off-rspDMEMSize, width, value)
	}
}

const (
	spMemAddrOffset  = 0x00
	spDramAddrOffset = 0x04
	spRdLenOffset    = 0x08
	spWrLenOffset    = 0x0C
	spStatusOffset   = 0x10
	spPCOffset       = 0x40000 // SP_PC's offset from the sp-regs base; not decoded by spRegRead/spRegWrite
)

const (
	spStatusHalt       = 1 << 0
	spStatusBroke      = 1 << 1
	spStatusDMABusy    = 1 << 2
	spStatusDMAFull    = 1 << 3
	spStatusIOFull     = 1 << 4
	spStatusSingleStep = 1 << 5
	spStatusIntrOnBreak = 1 << 6
)

// spRegRead/spRegWrite serve the SP control registers at 0x04040000.
func spRegRead(b *Bus, addr uint32, width int) uint64 {
	rsp := b.RSP
	switch addr & 0xFF {
	case spMemAddrOffset:
		return uint64(rsp.dmaDMEMAddr)
	case spDramAddrOffset:
		return uint64(rsp.dmaDRAMAddr)
	case spStatusOffset:
		return uint64(rsp.statusBits())
	default:
		return 0
	}
}

func (r *RSP) statusBits() uint32 {
	v := uint32(0)
	if r.halted {
		v |= spStatusHalt
	}
	if r.intrOnBreak {
		v |= spStatusIntrOnBreak
	}
	if r.singleStep {
		v |= spStatusSingleStep
	}
	return v
}

func spRegWrite(b *Bus, addr uint32, width int, value uint64) {
	rsp := b.RSP
	v := uint32(value)
	switch addr & 0xFF {
	case spMemAddrOffset:
		rsp.dmaDMEMAddr = v & 0x1FFF
	case spDramAddrOffset:
		rsp.dmaDRAMAddr = v & 0x00FFFFFF
	case spRdLenOffset:
		rsp.dma(b, v, false)
	case spWrLenOffset:
		rsp.dma(b, v, true)
	case spStatusOffset:
		if v&(1<<0) != 0 {
			rsp.halted = false
		}
		if v&(1<<1) != 0 {
			rsp.halted = true
		}
		if v&(1<<2) != 0 {
			rsp.bus.MI.clear(miIntrSP)
		}
		if v&(1<<3) != 0 {
			rsp.bus.MI.raise(miIntrSP)
		}
		if v&(1<<6) != 0 {
			rsp.intrOnBreak = false
		}
		if v&(1<<7) != 0 {
			rsp.intrOnBreak = true
		}
	}
}

// dma performs an SP<->RDRAM DMA (the count/stride-encoded MEM_ADDR/DRAM_ADDR
// transfer real software uses to stage microcode and vertex/audio data).
// toRDRAM selects direction; the length word encodes count-1 in its low 12
// bits, a per-row skip in bits 12-19, and row count-1 in bits 20-27.
func (r *RSP) dma(b *Bus, lenWord uint32, toRDRAM bool) {
	count := (lenWord & 0xFFF) + 1
	skip := (lenWord >> 12) & 0xFF
	rows := ((lenWord >> 20) & 0xFF) + 1

	dmemAddr := r.dmaDMEMAddr & 0x1FFF
	dramAddr := r.dmaDRAMAddr

	for row := uint32(0); row < rows; row++ {
		for i := uint32(0); i < count; i++ {
			if toRDRAM {
				var v byte
				if dmemAddr < rspDMEMSize {
					v = r.dmem[dmemAddr]
				} else if dmemAddr < rspMemSize {
					v = r.imem[dmemAddr-rspDMEMSize]
				}
				b.RDRAM.writeBytes(dramAddr, 1, uint64(v))
			} else {
				v := byte(b.RDRAM.readBytes(dramAddr, 1))
				if dmemAddr < rspDMEMSize {
					r.dmem[dmemAddr] = v
				} else if dmemAddr < rspMemSize {
					r.imem[dmemAddr-rspDMEMSize] = v
				}
			}
			dmemAddr++
			dramAddr++
		}
		dramAddr += skip
	}

	if r.mi != nil {
		r.mi.raise(miIntrSP)
	}
}

func readBEu32(buf []byte, off uint32, width, size int) uint64 {
	if int(off)+width > size || int(off) < 0 {
		return 0
	}
	switch width {
	case 1:
		return uint64(buf[off])
	case 2:
		return uint64(binary.BigEndian.Uint16(buf[off:]))
	case 4:
		return uint64(binary.BigEndian.Uint32(buf[off:]))
	case 8:
		return binary.BigEndian.Uint64(buf[off:])
	default:
		return 0
	}
}

// Step executes exactly one instruction if the RSP is running, per spec.md
// §4.6 item (ii) "RSP one cycle if SP not halted".
func (r *RSP) Step() {
	if r.halted {
		return
	}

	word := binary.BigEndian.Uint32(r.imem[r.pc&(rspIMEMSize-1):])
	r.execute(word)
}

func (r *RSP) fetch(pc uint32) uint32 {
	return binary.BigEndian.Uint32(r.imem[pc&(rspIMEMSize-1):])
}

func (r *RSP) execute(word uint32) {
	op := word >> 26
	rs := (word >> 21) & 0x1F
	rt := (word >> 16) & 0x1F
	rd := (word >> 11) & 0x1F
	sa := (word >> 6) & 0x1F
	funct := word & 0x3F
	imm16 := uint32(int32(int16(word)))
	target := word & 0x03FFFFFF

	nextPC := r.pc + 4

	switch op {
	case 0x00: // SPECIAL
		switch funct {
		case 0x00:
			r.setGPR(rd, r.gpr[rt]<<sa)
		case 0x02:
			r.setGPR(rd, r.gpr[rt]>>sa)
		case 0x03:
			r.setGPR(rd, uint32(int32(r.gpr[rt])>>sa))
		case 0x04:
			r.setGPR(rd, r.gpr[rt]<<(r.gpr[rs]&0x1F))
		case 0x06:
			r.setGPR(rd, r.gpr[rt]>>(r.gpr[rs]&0x1F))
		case 0x07:
			r.setGPR(rd, uint32(int32(r.gpr[rt])>>(r.gpr[rs]&0x1F)))
		case 0x08: // JR
			r.pc = r.gpr[rs]
			r.executeDelay(nextPC)
			return
		case 0x09: // JALR
			r.setGPR(rd, nextPC+4)
			target := r.gpr[rs]
			r.executeDelay(nextPC)
			r.pc = target
			return
		case 0x0D: // BREAK
			r.halted = true
			if r.intrOnBreak && r.mi != nil {
				r.mi.raise(miIntrSP)
			}
			r.pc = nextPC
			return
		case 0x20, 0x21:
			r.setGPR(rd, r.gpr[rs]+r.gpr[rt])
		case 0x22, 0x23:
			r.setGPR(rd, r.gpr[rs]-r.gpr[rt])
		case 0x24:
			r.setGPR(rd, r.gpr[rs]&r.gpr[rt])
		case 0x25:
			r.setGPR(rd, r.gpr[rs]|r.gpr[rt])
		case 0x26:
			r.setGPR(rd, r.gpr[rs]^r.gpr[rt])
		case 0x27:
			r.setGPR(rd, ^(r.gpr[rs] | r.gpr[rt]))
		case 0x2A:
			if int32(r.gpr[rs]) < int32(r.gpr[rt]) {
				r.setGPR(rd, 1)
			} else {
				r.setGPR(rd, 0)
			}
		case 0x2B:
			if r.gpr[rs] < r.gpr[rt] {
				r.setGPR(rd, 1)
			} else {
				r.setGPR(rd, 0)
			}
		}
	case 0x02: // J
		r.executeDelay(nextPC)
		r.pc = (nextPC & 0xF0000000) | (target << 2)
		return
	case 0x03: // JAL
		r.setGPR(31, nextPC+4)
		dest := (nextPC & 0xF0000000) | (target << 2)
		r.executeDelay(nextPC)
		r.pc = dest
		return
	case 0x04: // BEQ
		if r.gpr[rs] == r.gpr[rt] {
			r.branch(nextPC, imm16)
			return
		}
	case 0x05: // BNE
		if r.gpr[rs] != r.gpr[rt] {
			r.branch(nextPC, imm16)
			return
		}
	case 0x06: // BLEZ
		if int32(r.gpr[rs]) <= 0 {
			r.branch(nextPC, imm16)
			return
		}
	case 0x07: // BGTZ
		if int32(r.gpr[rs]) > 0 {
			r.branch(nextPC, imm16)
			return
		}
	case 0x08, 0x09:
		r.setGPR(rt, r.gpr[rs]+imm16)
	case 0x0A:
		if int32(r.gpr[rs]) < int32(imm16) {
			r.setGPR(rt, 1)
		} else {
			r.setGPR(rt, 0)
		}
	case 0x0B:
		if r.gpr[rs] < imm16 {
			r.setGPR(rt, 1)
		} else {
			r.setGPR(rt, 0)
		}
	case 0x0C:
		r.setGPR(rt, r.gpr[rs]&uint32(uint16(word)))
	case 0x0D:
		r.setGPR(rt, r.gpr[rs]|uint32(uint16(word)))
	case 0x0E:
		r.setGPR(rt, r.gpr[rs]^uint32(uint16(word)))
	case 0x0F:
		r.setGPR(rt, uint32(uint16(word))<<16)
	case 0x10: // COP0
		switch rs {
		case 0x00: // MFC0
			r.setGPR(rt, r.cop0Read(rd))
		case 0x04: // MTC0
			r.cop0Write(rd, r.gpr[rt])
		}
	case 0x12: // COP2
		r.execVector(word, rs, rt, rd, funct)
	case 0x20:
		v := uint32(int32(int8(r.loadByte(rs, imm16))))
		r.setGPR(rt, v)
	case 0x21:
		v := uint32(int32(int16(r.loadHalf(rs, imm16))))
		r.setGPR(rt, v)
	case 0x23:
		r.setGPR(rt, r.loadWord(rs, imm16))
	case 0x24:
		r.setGPR(rt, uint32(r.loadByte(rs, imm16)))
	case 0x25:
		r.setGPR(rt, uint32(r.loadHalf(rs, imm16)))
	case 0x28:
		r.storeByte(rs, imm16, byte(r.gpr[rt]))
	case 0x29:
		r.storeHalf(rs, imm16, uint16(r.gpr[rt]))
	case 0x2B:
		r.storeWord(rs, imm16, r.gpr[rt])
	case 0x32: // LQV
		r.loadVector(rs, rt, imm16)
	case 0x36: // SQV
		r.storeVector(rs, rt, imm16)
	}

	r.pc = nextPC
}

// executeDelay runs the delay-slot instruction for a taken branch/jump
// before the target takes effect, the way MIPS branch delay slots require.
func (r *RSP) executeDelay(delaySlotPC uint32) {
	word := r.fetch(delaySlotPC)
	saved := r.pc
	r.pc = delaySlotPC
	r.execute(word)
	r.pc = saved
}

func (r *RSP) branch(nextPC uint32, imm16 uint32) {
	target := nextPC + (imm16 << 2)
	r.executeDelay(nextPC)
	r.pc = target
}

func (r *RSP) setGPR(i uint32, v uint32) {
	if i != 0 {
		r.gpr[i] = v
	}
}

func (r *RSP) dmemAddr(rs uint32, off uint32) uint32 {
	return (r.gpr[rs] + off) & (rspDMEMSize - 1)
}

func (r *RSP) loadByte(rs uint32, off uint32) byte  { return r.dmem[r.dmemAddr(rs, off)] }
func (r *RSP) loadHalf(rs uint32, off uint32) uint16 {
	a := r.dmemAddr(rs, off) &^ 1
	return binary.BigEndian.Uint16(r.dmem[a:])
}
func (r *RSP) loadWord(rs uint32, off uint32) uint32 {
	a := r.dmemAddr(rs, off) &^ 3
	return binary.BigEndian.Uint32(r.dmem[a:])
}
func (r *RSP) storeByte(rs uint32, off uint32, v byte) { r.dmem[r.dmemAddr(rs, off)] = v }
func (r *RSP) storeHalf(rs uint32, off uint32, v uint16) {
	a := r.dmemAddr(rs, off) &^ 1
	binary.BigEndian.PutUint16(r.dmem[a:], v)
}
func (r *RSP) storeWord(rs uint32, off uint32, v uint32) {
	a := r.dmemAddr(rs, off) &^ 3
	binary.BigEndian.PutUint32(r.dmem[a:], v)
}

// cop0Read/cop0Write expose the SP/DP DMA and status registers through the
// MFC0/MTC0 instructions, which is how RSP microcode polls DMA completion
// and the semaphore lock without leaving the vector pipeline.
func (r *RSP) cop0Read(reg uint32) uint32 {
	switch {
	case reg == 4:
		return r.statusBits()
	case reg == 7:
		if r.semaphore {
			return 1
		}
		return 0
	case r.bus == nil:
		return 0
	case reg < 8:
		return uint32(spRegRead(r.bus, reg*4, 4))
	case reg < 16:
		return uint32(dpCmdRegRead(r.bus, (reg-8)*4, 4))
	default:
		return 0
	}
}

func (r *RSP) cop0Write(reg uint32, v uint32) {
	switch {
	case reg == 7:
		r.semaphore = v != 0
	case r.bus == nil:
	case reg < 8:
		spRegWrite(r.bus, reg*4, 4, uint64(v))
	case reg < 16:
		dpCmdRegWrite(r.bus, (reg-8)*4, 4, uint64(v))
	}
}
