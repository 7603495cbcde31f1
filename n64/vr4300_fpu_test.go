package n64

import "testing"

func cop1Word(fmt, ft, fs, fd, funct uint32) uint32 {
	return 0x11<<26 | fmt<<21 | ft<<16 | fs<<11 | fd<<6 | funct
}

// TestFPUAddSMatchesIEEEAddition exercises ADD.S: the single-precision
// arithmetic ops this model implements must route through ordinary Go
// float32 arithmetic on the operand registers named by fs/ft and land in fd.
func TestFPUAddSMatchesIEEEAddition(t *testing.T) {
	cpu := newVR4300(&Bus{})
	// Status.FR is clear at reset, so single-precision fs/ft/fd must be
	// even-numbered: an odd index folds onto the preceding even register.
	cpu.writeFPRFloat32(0, 1.5)
	cpu.writeFPRFloat32(2, 2.25)

	word := cop1Word(fpuFmtS, 2, 0, 4, fpuFnAdd)
	d := decode(word, 0)
	cpu.execute(pipelineLatch{d: d})

	if got, want := cpu.readFPRFloat32(4), float32(3.75); got != want {
		t.Errorf("f4 = %v, want %v", got, want)
	}
}

// TestFPUCvtWSRoundsToNearest exercises CVT.W.S rounding a single-precision
// source register to the nearest integer in the 32-bit integer view of the
// destination register.
func TestFPUCvtWSRoundsToNearest(t *testing.T) {
	cpu := newVR4300(&Bus{})
	cpu.writeFPRFloat32(4, 3.6)

	word := cop1Word(fpuFmtS, 0, 4, 6, fpuFnCvtW)
	d := decode(word, 0)
	cpu.execute(pipelineLatch{d: d})

	if got := int32(cpu.readFPRWord(6)); got != 4 {
		t.Errorf("f6 (as word) = %d, want 4", got)
	}
}

// TestFPUCompareAndBranchTakenOnTrue exercises C.LT.S followed by BC1T: the
// comparison latches FCR31's condition bit, and a subsequent BC1 with tf=1
// must branch exactly when that bit is set.
func TestFPUCompareAndBranchTakenOnTrue(t *testing.T) {
	cpu := newVR4300(&Bus{})
	cpu.writeFPRFloat32(0, 1.0)
	cpu.writeFPRFloat32(2, 2.0)

	cmp := decode(cop1Word(fpuFmtS, 2, 0, 0, fpuFnCLt), 0)
	cpu.execute(pipelineLatch{d: cmp})
	if cpu.fpu.fcr31&fcr31CondBit == 0 {
		t.Fatal("expected FCR31 condition bit set after C.LT.S with a true result")
	}

	const bc1t = 0x11<<26 | 0x08<<21 | 0x1<<16 | 4 // BC1T, offset 4
	branch := decode(bc1t, 0x1000)
	l := cpu.execute(pipelineLatch{d: branch})
	if !l.branchTaken {
		t.Error("expected BC1T to branch when the condition bit is set")
	}
	if want := uint64(0x1000) + 4 + 4<<2; l.branchTarget != want {
		t.Errorf("branchTarget = %#x, want %#x", l.branchTarget, want)
	}
}

// TestFPUMTC1MFC1RoundTrip exercises the register-transfer ops alongside the
// new compute path to confirm they still share the same register file.
func TestFPUMTC1MFC1RoundTrip(t *testing.T) {
	cpu := newVR4300(&Bus{})

	mtc1 := decode(0x11<<26|0x04<<21|0x5<<16|0x3<<11, 0) // MTC1 $5, $f3
	mtc1.rtVal = 0xCAFEBABE
	cpu.execute(pipelineLatch{d: mtc1})

	mfc1 := decode(0x11<<26|0x00<<21|0x6<<16|0x3<<11, 0) // MFC1 $6, $f3
	l := cpu.execute(pipelineLatch{d: mfc1})

	if want := uint64(int64(int32(0xCAFEBABE))); l.aluResult != want {
		t.Errorf("aluResult = %#x, want %#x", l.aluResult, want)
	}
}
