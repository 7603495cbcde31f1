package n64

// tlbEntry is one of the VR4300's 32 joint TLB entries: a pair of 4 KiB
// physical pages mapped from one even/odd virtual page pair, tagged by ASID
// unless global. The pageMask field is never filled in by entryFromCop0 and
// lookup/probe do not read it, so page sizes larger than 4 KiB are not
// modeled.
type tlbEntry struct {
	vpn2     uint64
	pageMask uint32
	asid     uint32
	global   bool
	valid0, dirty0 bool
	pfn0     uint32
	valid1, dirty1 bool
	pfn1     uint32
}

// tlb is the 32-entry software-managed TLB (spec.md §3 "TLB-mapped virtual
// memory", testable property 5's "lowest-index-match invariant").
type tlb struct {
	entries [32]tlbEntry
}

// lookup returns the physical page number and dirty/valid bits for vaddr,
// scanning index 0 upward and returning the first (lowest-index) match —
// software is responsible for not installing overlapping entries, but if it
// does, hardware always picks the lowest index.
func (t *tlb) lookup(vaddr uint64, asid uint32) (pfn uint32, valid bool, dirty bool, hit bool) {
	vpn2 := (vaddr >> 13) << 1 // 4KiB-page VPN2, ignoring pageMask-driven larger pages
	odd := (vaddr>>12)&1 != 0

	for i := range t.entries {
		e := &t.entries[i]
		if e.vpn2>>1 != vpn2>>1 {
			continue
		}
		if !e.global && e.asid != asid {
			continue
		}
		if odd {
			if !e.valid1 {
				return 0, false, false, true
			}
			return e.pfn1, true, e.dirty1, true
		}
		if !e.valid0 {
			return 0, false, false, true
		}
		return e.pfn0, true, e.dirty0, true
	}
	return 0, false, false, false
}

func (t *tlb) write(index uint32, e tlbEntry) {
	if index < uint32(len(t.entries)) {
		t.entries[index] = e
	}
}

func (t *tlb) read(index uint32) tlbEntry {
	if index < uint32(len(t.entries)) {
		return t.entries[index]
	}
	return tlbEntry{}
}

// probe implements TLBP: returns the lowest matching index, or -1 with the
// TLB Index register's "no match" sign bit semantics left to the caller.
func (t *tlb) probe(vaddr uint64, asid uint32) int {
	vpn2 := (vaddr >> 13)
	for i := range t.entries {
		e := &t.entries[i]
		if e.vpn2>>1 != vpn2 {
			continue
		}
		if !e.global && e.asid != asid {
			continue
		}
		return i
	}
	return -1
}

func (c *VR4300) entryFromCop0() tlbEntry {
	co := &c.cop0
	return tlbEntry{
		vpn2:   (co.entryHi >> 13) << 1,
		asid:   uint32(co.entryHi) & 0xFF,
		global: co.entryLo0&1 != 0 && co.entryLo1&1 != 0,
		valid0: co.entryLo0&2 != 0,
		dirty0: co.entryLo0&4 != 0,
		pfn0:   uint32(co.entryLo0>>6) & 0xFFFFF,
		valid1: co.entryLo1&2 != 0,
		dirty1: co.entryLo1&4 != 0,
		pfn1:   uint32(co.entryLo1>>6) & 0xFFFFF,
	}
}

func (c *VR4300) execTLBWI() { c.tlb.write(c.cop0.index&0x1F, c.entryFromCop0()) }

func (c *VR4300) execTLBWR() { c.tlb.write(c.cop0.random&0x1F, c.entryFromCop0()) }

func (c *VR4300) execTLBR() {
	e := c.tlb.read(c.cop0.index & 0x1F)
	co := &c.cop0
	co.entryHi = (e.vpn2 << 13) | uint64(e.asid)
	var g0, g1 uint64
	if e.global {
		g0, g1 = 1, 1
	}
	co.entryLo0 = uint64(e.pfn0)<<6 | b2u64(e.dirty0)<<2 | b2u64(e.valid0)<<1 | g0
	co.entryLo1 = uint64(e.pfn1)<<6 | b2u64(e.dirty1)<<2 | b2u64(e.valid1)<<1 | g1
}

func b2u64(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (c *VR4300) execTLBP() {
	idx := c.tlb.probe(c.cop0.entryHi, uint32(c.cop0.entryHi)&0xFF)
	if idx < 0 {
		c.cop0.index = 1 << 31
	} else {
		c.cop0.index = uint32(idx)
	}
}

// translate resolves a virtual address per the N64's fixed memory segments:
// kseg0/kseg1 (0x80000000/0xA0000000, +2GB) are unmapped direct windows onto
// the first 512MB of physical space; everything else goes through the TLB.
func (c *VR4300) translate(vaddr uint64, forStore bool) (paddr uint32, fault *guestFault) {
	v32 := uint32(vaddr)
	switch {
	case vaddr >= 0xFFFFFFFF80000000 && vaddr < 0xFFFFFFFFA0000000:
		return v32 - 0x80000000, nil
	case vaddr >= 0xFFFFFFFFA0000000 && vaddr < 0xFFFFFFFFC0000000:
		return v32 - 0xA0000000, nil
	default:
		asid := uint32(c.cop0.entryHi) & 0xFF
		pfn, valid, dirty, hit := c.tlb.lookup(vaddr, asid)
		excCodeMiss := excTLBL
		if forStore {
			excCodeMiss = excTLBS
		}
		if !hit || !valid {
			return 0, &guestFault{code: excCodeMiss, badVAddr: vaddr}
		}
		if forStore && !dirty {
			return 0, &guestFault{code: excMod, badVAddr: vaddr}
		}
		paddr = pfn<<12 | uint32(vaddr)&0xFFF
		return paddr, nil
	}
}
