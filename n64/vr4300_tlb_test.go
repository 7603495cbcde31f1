package n64

import "testing"

// TestTLBRefillThenTranslate exercises testable property S3: a load through
// an unmapped useg page raises a TLB-miss fault carrying the faulting
// address, and once software installs the matching entry the same virtual
// address translates to the expected physical page.
func TestTLBRefillThenTranslate(t *testing.T) {
	cpu := newVR4300(&Bus{})

	const vaddr = 0x0000000010000004 // vpn2 0x8000, matches spec.md S3

	if _, fault := cpu.translate(vaddr, false); fault == nil {
		t.Fatal("expected a TLB miss fault before any entry is installed")
	} else if fault.code != excTLBL {
		t.Errorf("fault.code = %d, want excTLBL (%d)", fault.code, excTLBL)
	} else if fault.badVAddr != vaddr {
		t.Errorf("fault.badVAddr = %#x, want %#x", fault.badVAddr, uint64(vaddr))
	}

	cpu.cop0.entryHi = (uint64(vaddr) >> 13) << 13 // VPN2 | ASID 0
	cpu.cop0.entryLo0 = uint64(0x10)<<6 | 1<<1      // PFN 0x10, valid
	cpu.cop0.entryLo1 = uint64(0x11)<<6 | 1<<1
	cpu.execTLBWI()

	paddr, fault := cpu.translate(vaddr, false)
	if fault != nil {
		t.Fatalf("unexpected fault after TLB install: %+v", fault)
	}
	if want := uint32(0x00010004); paddr != want {
		t.Errorf("paddr = %#x, want %#x", paddr, want)
	}
}

// TestTLBProbeLowestIndexMatch exercises testable property 5: TLBP must
// report the lowest-indexed entry matching VPN2/ASID/G, even when a later
// entry also matches.
func TestTLBProbeLowestIndexMatch(t *testing.T) {
	cpu := newVR4300(&Bus{})

	e := tlbEntry{vpn2: 0x8000 << 1, asid: 5, valid0: true, valid1: true}
	cpu.tlb.write(3, e)
	cpu.tlb.write(7, e)

	cpu.cop0.entryHi = uint64(0x8000)<<13 | 5
	cpu.execTLBP()

	if cpu.cop0.index != 3 {
		t.Errorf("index = %d, want 3 (lowest matching entry)", cpu.cop0.index)
	}
}

func TestTLBProbeNoMatchSetsSignBit(t *testing.T) {
	cpu := newVR4300(&Bus{})
	cpu.cop0.entryHi = uint64(0x1234) << 13
	cpu.execTLBP()
	if cpu.cop0.index&(1<<31) == 0 {
		t.Errorf("index = %#x, want sign bit set on no-match", cpu.cop0.index)
	}
}
