package n64

import "encoding/binary"

const rdramSize = 8 * 1024 * 1024

// RDRAM is the backing store for main memory (spec.md §3 "RDRAM model").
// Real hardware ships 4MiB expandable to 8MiB via the expansion pak; the
// core always allocates the expanded size so software that probes for it
// behaves consistently.
type RDRAM struct {
	data []byte

	// riMode/riConfig/riRefresh model the handful of RI registers software
	// pokes during boot to configure refresh timing. They are read back
	// faithfully but never affect timing — spec.md §3 calls this a "stub".
	riMode    uint32
	riConfig  uint32
	riRefresh uint32
}

func newRDRAM() *RDRAM {
	return &RDRAM{data: make([]byte, rdramSize)}
}

// View returns a bounded, read-only-by-convention slice into RDRAM. Per the
// Design Notes §9 "pointer-into-memory-block" flag, callers never hold a
// reference longer than the Device that owns it; the slice aliases RDRAM's
// backing array so VI's framebuffer publish can read it without a copy.
func (r *RDRAM) View(offset, length uint32) []byte {
	if int(offset) >= len(r.data) {
		return nil
	}
	end := offset + length
	if end > uint32(len(r.data)) {
		end = uint32(len(r.data))
	}
	return r.data[offset:end]
}

func (r *RDRAM) readBytes(addr uint32, width int) uint64 {
	off := addr % rdramSize
	switch width {
	case 1:
		return uint64(r.data[off])
	case 2:
		return uint64(binary.BigEndian.Uint16(r.data[off:]))
	case 4:
		return uint64(binary.BigEndian.Uint32(r.data[off:]))
	case 8:
		return binary.BigEndian.Uint64(r.data[off:])
	default:
		return 0
	}
}

func (r *RDRAM) writeBytes(addr uint32, width int, value uint64) {
	off := addr % rdramSize
	switch width {
	case 1:
		r.data[off] = byte(value)
	case 2:
		binary.BigEndian.PutUint16(r.data[off:], uint16(value))
	case 4:
		binary.BigEndian.PutUint32(r.data[off:], uint32(value))
	case 8:
		binary.BigEndian.PutUint64(r.data[off:], value)
	}
}

func rdramRead(b *Bus, addr uint32, width int) uint64 {
	return b.RDRAM.readBytes(addr-0x00000000, width)
}

func rdramWrite(b *Bus, addr uint32, width int, value uint64) {
	b.RDRAM.writeBytes(addr-0x00000000, width, value)
}

// riRegRead/riRegWrite serve the 0x03F00000 RI register window (distinct
// from the RI device's own control window at 0x04700000, which real
// hardware also exposes — software rarely uses this alias but the map must
// still route it rather than fault).
func riRegRead(b *Bus, addr uint32, width int) uint64 {
	switch addr & 0xFFFFFF {
	case 0x04:
		return uint64(b.RDRAM.riMode)
	case 0x08:
		return uint64(b.RDRAM.riConfig)
	case 0x10:
		return uint64(b.RDRAM.riRefresh)
	default:
		return 0
	}
}

func riRegWrite(b *Bus, addr uint32, width int, value uint64) {
	switch addr & 0xFFFFFF {
	case 0x04:
		b.RDRAM.riMode = uint32(value)
	case 0x08:
		b.RDRAM.riConfig = uint32(value)
	case 0x10:
		b.RDRAM.riRefresh = uint32(value)
	}
}
