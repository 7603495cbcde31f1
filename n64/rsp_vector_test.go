package n64

import "testing"

// TestRSPVMULFMatchesHardwareFormula exercises testable property S5/6: the
// accumulator and clamped VD result of a VMULF must match the hardware
// formula acc = (VS*VT)<<1 + 0x8000; VD = clamp_signed(acc >> 16), per lane.
func TestRSPVMULFMatchesHardwareFormula(t *testing.T) {
	r := newRSP(newMI())

	const vs, vt, vd = 1, 2, 3
	r.vu.regs[vs] = [8]uint16{1000, 2000, 0x7FFF, 0x8000, 1, 0xFFFF, 100, 0}
	r.vu.regs[vt] = [8]uint16{10, 20, 0x7FFF, 0x8000, 1, 2, 0xFFFF, 0}

	const funct = 0x00 // VMULF
	e := uint32(0)
	word := uint32(0x12<<26) | (0x10|e)<<21 | uint32(vt)<<16 | uint32(vs)<<11 | uint32(vd)<<6 | funct

	rs := (word >> 21) & 0x1F
	rt := (word >> 16) & 0x1F
	rd := (word >> 11) & 0x1F
	r.execVector(word, rs, rt, rd, funct)

	for i := 0; i < 8; i++ {
		vsLane := int64(int16(r.vu.regs[vs][i]))
		vtLane := int64(int16(r.vu.regs[vt][i]))
		wantAcc := vsLane*vtLane*2 + 0x8000
		wantVD := clampSigned(int32(wantAcc >> 16))

		gotAcc := r.vu.acc(i)
		if gotAcc != wantAcc {
			t.Errorf("lane %d: acc = %#x, want %#x", i, gotAcc, wantAcc)
		}
		if got := r.vu.regs[vd][i]; got != wantVD {
			t.Errorf("lane %d: vd = %#04x, want %#04x", i, got, wantVD)
		}
	}
}

func TestRSPGPRZeroIsHardwired(t *testing.T) {
	r := newRSP(newMI())
	r.setGPR(0, 0xDEADBEEF)
	if r.gpr[0] != 0 {
		t.Errorf("gpr[0] = %#x, want 0", r.gpr[0])
	}
}
