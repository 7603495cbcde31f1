package n64

import "testing"

// TestVR4300BranchRedirectHonorsSingleDelaySlot exercises testable property
// S1: a tight "branch to self" loop with one delay-slot instruction must
// never execute anything past that delay slot, no matter how many cycles
// run, because MIPS allows exactly one instruction after a taken branch
// before the target takes effect.
func TestVR4300BranchRedirectHonorsSingleDelaySlot(t *testing.T) {
	d := NewDevice(nil)

	const base = 0xFFFFFFFFA0000000 // KSEG1, direct-mapped onto physical 0

	const (
		beqSelf    = 0x1000FFFF // BEQ $0, $0, -1  (branches to itself)
		addiuR2    = 0x24420001 // ADDIU $2, $2, 1 (the one legal delay-slot instruction)
		poisonR3_1 = 0x24630001 // ADDIU $3, $3, 1 (must never execute)
		poisonR3_2 = 0x24630001
	)

	d.bus.Write(0x00000000, 4, beqSelf)
	d.bus.Write(0x00000004, 4, addiuR2)
	d.bus.Write(0x00000008, 4, poisonR3_1)
	d.bus.Write(0x0000000C, 4, poisonR3_2)

	d.CPU.pc = base

	for i := 0; i < 60; i++ {
		d.CPU.Step()
	}

	if got := d.CPU.readGPR(3); got != 0 {
		t.Fatalf("instruction past the delay slot executed: r3 = %d, want 0", got)
	}
	if got := d.CPU.readGPR(2); got == 0 {
		t.Error("expected the delay-slot instruction to have executed at least once: r2 = 0")
	}
}

func TestVR4300ResetBootsFromPIFROM(t *testing.T) {
	cpu := newVR4300(&Bus{})
	if cpu.pc != 0xFFFFFFFFBFC00000 {
		t.Errorf("pc = %#x, want PIF boot vector %#x", cpu.pc, uint64(0xFFFFFFFFBFC00000))
	}
	if cpu.cop0.status&statusBEV == 0 {
		t.Error("expected Status.BEV set at reset")
	}
}
