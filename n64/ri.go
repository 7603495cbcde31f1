package n64

// RI models the RDRAM-interface control registers at 0x04700000, the
// memory-controller-facing half of spec.md §3's RI register block (the
// refresh-stub registers RDRAM itself exposes at 0x03F00000 are the other
// half — real hardware aliases both windows to the same controller, the
// core keeps them logically separate for clarity).
type RI struct {
	mode     uint32
	config   uint32
	current  uint32
	select_  uint32
	refresh  uint32
	latency  uint32
	rerror   uint32
	werror   uint32
}

func newRI() *RI { return &RI{} }

const (
	riModeOffset    = 0x00
	riConfigOffset  = 0x04
	riCurrentOffset = 0x08
	riSelectOffset  = 0x0C
	riRefreshOffset = 0x10
	riLatencyOffset = 0x14
	riRerrorOffset  = 0x18
	riWerrorOffset  = 0x1C
)

func riCtrlRegRead(b *Bus, addr uint32, width int) uint64 {
	ri := b.RI
	switch addr & 0x1F {
	case riModeOffset:
		return uint64(ri.mode)
	case riConfigOffset:
		return uint64(ri.config)
	case riCurrentOffset:
		return uint64(ri.current)
	case riSelectOffset:
		return uint64(ri.select_)
	case riRefreshOffset:
		return uint64(ri.refresh)
	case riLatencyOffset:
		return uint64(ri.latency)
	case riRerrorOffset:
		return uint64(ri.rerror)
	case riWerrorOffset:
		return uint64(ri.werror)
	default:
		return 0
	}
}

func riCtrlRegWrite(b *Bus, addr uint32, width int, value uint64) {
	ri := b.RI
	switch addr & 0x1F {
	case riModeOffset:
		ri.mode = uint32(value)
	case riConfigOffset:
		ri.config = uint32(value)
	case riCurrentOffset:
		ri.current = uint32(value)
	case riSelectOffset:
		ri.select_ = uint32(value)
	case riRefreshOffset:
		ri.refresh = uint32(value)
	case riLatencyOffset:
		ri.latency = uint32(value)
	case riRerrorOffset:
		ri.rerror = 0
	case riWerrorOffset:
		ri.werror = 0
	}
}
