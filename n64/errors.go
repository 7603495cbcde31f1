package n64

import "fmt"

// BusError is returned by Bus.TryRead only for accesses the address map
// genuinely cannot route (outside any region). Bus.Read and Bus.Write never
// return it: they serve such accesses as open-bus zero reads and dropped
// writes, which is what the VR4300 and RSP memory-access paths see. It
// exists so bus-level callers (tests, tooling) can tell "routed, returned
// open-bus zero" from "address map has a hole here".
type BusError struct {
	Addr  uint32
	Width int
	Write bool
}

func (e *BusError) Error() string {
	dir := "read from"
	if e.Write {
		dir = "write to"
	}
	return fmt.Sprintf("bus: %s unmapped address %#08x (width %d)", dir, e.Addr, e.Width)
}

// excCode is a COP0 Cause.ExcCode value, MIPS III numbering.
type excCode uint32

const (
	excInt   excCode = 0  // Interrupt
	excMod   excCode = 1  // TLB modification
	excTLBL  excCode = 2  // TLB miss, load/fetch
	excTLBS  excCode = 3  // TLB miss, store
	excAdEL  excCode = 4  // Address error, load/fetch
	excAdES  excCode = 5  // Address error, store
	excIBE   excCode = 6  // Bus error, instruction fetch
	excDBE   excCode = 7  // Bus error, data
	excSys   excCode = 8  // Syscall
	excBp    excCode = 9  // Breakpoint
	excRI    excCode = 10 // Reserved instruction
	excCpU   excCode = 11 // Coprocessor unusable
	excOv    excCode = 12 // Arithmetic overflow
	excTrap  excCode = 13 // Trap
	excFPE   excCode = 15 // Floating point
	excWatch excCode = 23 // Watchpoint
)

// faultPriority orders simultaneous faults per spec.md §4.2: "Reset > NMI >
// AddressError-I > TLBRefill-I > CacheError-I > BusError-I > Interrupt > ...".
// Lower value wins. Faults not listed keep program order (EX before DC).
var faultPriority = map[excCode]int{
	excAdEL: 10,
	excTLBL: 20,
	excIBE:  40,
	excInt:  50,
	excAdES: 60,
	excTLBS: 61,
	excDBE:  62,
	excMod:  63,
	excRI:   70,
	excCpU:  71,
	excSys:  72,
	excBp:   72,
	excTrap: 72,
	excOv:   73,
	excFPE:  74,
	excWatch: 75,
}

// guestFault carries a detected VR4300 exception from the stage that
// detected it to the pipeline's dispatch step. It is never surfaced as a Go
// error: per spec.md §7, guest-level failures are part of normal operation
// and are reflected to the guest through EPC/Cause/BadVAddr.
type guestFault struct {
	code     excCode
	badVAddr uint64
	inBranch bool // detected fault was in a branch-delay slot
	ce       uint32 // coprocessor number, for excCpU
}

func (f *guestFault) rank() int {
	if r, ok := faultPriority[f.code]; ok {
		return r
	}
	return 1000
}

// lowestFault returns the highest-priority fault among candidates, or nil.
func lowestFault(candidates ...*guestFault) *guestFault {
	var best *guestFault
	for _, f := range candidates {
		if f == nil {
			continue
		}
		if best == nil || f.rank() < best.rank() {
			best = f
		}
	}
	return best
}
