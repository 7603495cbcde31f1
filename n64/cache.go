package n64

// cacheLines / cacheLineBytes follow spec.md §3 "Cache line": 512 direct
// mapped lines of 16 bytes each, 8KiB total, for both I-cache and D-cache.
const (
	cacheLines     = 512
	cacheLineBytes = 16
	cacheIndexMask = cacheLines - 1
)

// cacheLine packs {tag, dirty, valid} into one metadata word exactly as
// original_source/vr4300/dcache.c does: metadata = tag<<12 | dirty<<1 | valid.
// The I-cache never sets the dirty bit (vr4300_dcache_init is a no-op on
// real hardware and the I-cache is never written back), but shares the same
// layout so both caches can use the same probe/fill machinery.
type cacheLine struct {
	data     [cacheLineBytes]byte
	metadata uint32
}

func (l *cacheLine) tag() uint32    { return l.metadata >> 12 }
func (l *cacheLine) dirty() bool    { return l.metadata&0x2 == 0x2 }
func (l *cacheLine) valid() bool    { return l.metadata&0x1 == 0x1 }
func (l *cacheLine) setClean()      { l.metadata &^= 0x2 }
func (l *cacheLine) setDirty()      { l.metadata |= 0x2 }
func (l *cacheLine) invalidate()    { l.metadata &^= 0x1 }
func (l *cacheLine) setTag(tag uint32) {
	l.metadata = tag<<12 | l.metadata&0x1
}
func (l *cacheLine) validate(tag uint32) {
	l.metadata = tag<<12 | 0x1
}

// vcache is a direct-mapped, virtually-indexed-physically-tagged cache:
// index = (vaddr>>4)&0x1FF, tag = paddr>>4 (spec.md §4.3).
type vcache struct {
	lines [cacheLines]cacheLine
	// writeback is nil for the I-cache (read-only, never dirty).
	writeback func(paddr uint32, data []byte)
}

func newICache() *vcache {
	return &vcache{}
}

func newDCache(writeback func(paddr uint32, data []byte)) *vcache {
	return &vcache{writeback: writeback}
}

func cacheIndex(vaddr uint64) uint32 {
	return uint32(vaddr>>4) & cacheIndexMask
}

func (c *vcache) line(vaddr uint64) *cacheLine {
	return &c.lines[cacheIndex(vaddr)]
}

// probe returns the line for (vaddr, paddr) on a hit, or nil on a miss. It
// is virtually indexed (the index never touches paddr) and physically
// tagged (the comparison does), per spec.md §4.3.
func (c *vcache) probe(vaddr uint64, paddr uint32) *cacheLine {
	l := c.line(vaddr)
	if l.valid() && l.tag() == paddr>>4 {
		return l
	}
	return nil
}

// fill installs data, replacing whatever occupied the slot. If the evicted
// line was dirty and valid, it is written back first — spec.md §3's
// invariant that "a dirty valid line must be written back before its
// successor occupies the slot".
func (c *vcache) fill(vaddr uint64, paddr uint32, data []byte) {
	l := c.line(vaddr)
	if flush := c.shouldFlush(vaddr); flush != nil {
		c.writeback(uint32(flush.tag())<<4, flush.data[:])
	}
	copy(l.data[:], data)
	l.validate(paddr >> 4)
	l.setClean()
}

func (c *vcache) invalidate(vaddr uint64) {
	c.line(vaddr).invalidate()
}

// invalidateHit invalidates only on a tag match (spec.md §4.3
// "hit-invalidate").
func (c *vcache) invalidateHit(vaddr uint64, paddr uint32) {
	l := c.line(vaddr)
	if l.valid() && l.tag() == paddr>>4 {
		l.invalidate()
	}
}

func (c *vcache) setTag(vaddr uint64, tag uint32) {
	c.line(vaddr).setTag(tag)
}

// shouldFlush reports the line at vaddr if it is dirty and valid, so the
// caller can write it back before replacement.
func (c *vcache) shouldFlush(vaddr uint64) *cacheLine {
	l := c.line(vaddr)
	if l.dirty() && l.valid() {
		return l
	}
	return nil
}

// wbInvalidate writes back a dirty line then invalidates it regardless,
// satisfying testable property 3: after this call, probe(vaddr, paddr)
// always misses.
func (c *vcache) wbInvalidate(vaddr uint64) {
	l := c.line(vaddr)
	if l.valid() && l.dirty() && c.writeback != nil {
		c.writeback(uint32(l.tag())<<4, l.data[:])
	}
	l.invalidate()
}

func (c *vcache) markDirty(vaddr uint64) {
	c.line(vaddr).setDirty()
}
