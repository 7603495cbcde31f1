package n64

// cop0State is the VR4300's system control coprocessor register file
// (spec.md §3 "a coprocessor-0 control register file that governs
// interrupts, exceptions, and mode"). Only the registers this simulation
// exercises are named individually; there is no storage for the rest of the
// 32-register file (see cop0Read/cop0Write).
type cop0State struct {
	index    uint32
	random   uint32
	entryLo0 uint64
	entryLo1 uint64
	context  uint64
	pageMask uint32
	wired    uint32
	badVAddr uint64
	count    uint32
	entryHi  uint64
	compare  uint32
	status   uint32
	cause    uint32
	epc      uint64
	prid     uint32
	config   uint32
	llAddr   uint32
	watchLo  uint32
	watchHi  uint32
	xcontext uint64
	errorEPC uint64

	// countPhase toggles every TickTimer call; Count only advances on the
	// second half of the toggle, since real VR4300 hardware increments
	// Count once every two CPU cycles (spec.md §4.2).
	countPhase bool
}

// Status register bit positions this model reads/writes.
const (
	statusIE  = 1 << 0
	statusEXL = 1 << 1
	statusERL = 1 << 2
	statusBEV = 1 << 22
)

func (c *cop0State) resetState() {
	c.status = statusERL | statusBEV
	c.prid = 0x00000B00
	c.config = 0x00006460
	c.random = 31
	c.wired = 0
}

func (c *cop0State) interruptsEnabled() bool {
	return c.status&statusIE != 0 && c.status&statusEXL == 0 && c.status&statusERL == 0
}

// exceptionVector picks the PC to resume at, per spec.md §4.2's "resumes at
// the vector chosen by {exception class, Status.BEV, boot-time-exception-
// vector bits}". A TLBL/TLBS fault while !EXL gets the dedicated offset-0
// refill vector; everything else uses the common 0x180 vector, all relative
// to KSEG1 or KSEG0 depending on BEV. Reset and NMI are not dispatched
// through here: newVR4300 sets the reset PC directly.
func (c *cop0State) exceptionVector(code excCode, tlbRefill bool) uint64 {
	base := uint64(0xFFFFFFFF80000000)
	if c.status&statusBEV != 0 {
		base = 0xFFFFFFFFBFC00200
	}
	switch {
	case tlbRefill && c.status&statusEXL == 0:
		return base + 0x000
	default:
		return base + 0x180
	}
}

func (c *VR4300) dispatchException(f guestFault, pc uint64, inDelaySlot bool) {
	cop0 := &c.cop0

	if cop0.status&statusEXL == 0 {
		if inDelaySlot {
			cop0.epc = pc - 4
			cop0.cause |= 1 << 31 // Cause.BD
		} else {
			cop0.epc = pc
			cop0.cause &^= 1 << 31
		}
	}

	cop0.cause = (cop0.cause &^ 0x7C) | (uint32(f.code) << 2)
	cop0.badVAddr = f.badVAddr
	if f.code == excCpU {
		cop0.cause = (cop0.cause &^ (0x3 << 28)) | (f.ce << 28)
	}

	tlbRefill := f.code == excTLBL || f.code == excTLBS
	cop0.status |= statusEXL

	c.pc = cop0.exceptionVector(f.code, tlbRefill)
}

// cop0Read/cop0Write implement MFC0/MTC0 (and their 64-bit DMFC0/DMTC0
// counterparts) for the register numbers this simulation models; any other
// register number reads as 0, and writes to it are ignored.
func (c *VR4300) cop0Read(reg uint32) uint64 {
	co := &c.cop0
	switch reg {
	case 0:
		return uint64(co.index)
	case 1:
		return uint64(co.random)
	case 2:
		return co.entryLo0
	case 3:
		return co.entryLo1
	case 4:
		return co.context
	case 5:
		return uint64(co.pageMask)
	case 6:
		return uint64(co.wired)
	case 8:
		return co.badVAddr
	case 9:
		return uint64(co.count)
	case 10:
		return co.entryHi
	case 11:
		return uint64(co.compare)
	case 12:
		return uint64(co.status)
	case 13:
		return uint64(co.cause)
	case 14:
		return co.epc
	case 15:
		return uint64(co.prid)
	case 16:
		return uint64(co.config)
	case 17:
		return uint64(co.llAddr)
	case 30:
		return co.errorEPC
	default:
		return 0
	}
}

func (c *VR4300) cop0Write(reg uint32, v uint64) {
	co := &c.cop0
	switch reg {
	case 0:
		co.index = uint32(v) & 0x3F
	case 2:
		co.entryLo0 = v
	case 3:
		co.entryLo1 = v
	case 4:
		co.context = v
	case 5:
		co.pageMask = uint32(v)
	case 6:
		co.wired = uint32(v) & 0x3F
	case 9:
		co.count = uint32(v)
	case 10:
		co.entryHi = v
	case 11:
		co.compare = uint32(v)
		co.cause &^= 1 << (8 + ip7)
	case 12:
		co.status = uint32(v)
	case 13:
		co.cause = (co.cause &^ 0x300) | (uint32(v) & 0x300)
	case 14:
		co.epc = v
	case 16:
		co.config = uint32(v)
	case 30:
		co.errorEPC = v
	}
}

// TickTimer advances COP0's free-running Count register and raises IP7 when
// it matches Compare, the VR4300's built-in periodic timer. Count advances
// by 1 every two calls (every two CPU cycles), not every call, per
// spec.md §4.2.
func (c *VR4300) TickTimer() {
	c.cop0.countPhase = !c.cop0.countPhase
	if c.cop0.countPhase {
		return
	}
	c.cop0.count++
	if c.cop0.count == c.cop0.compare {
		c.setInterruptPending(ip7)
	}
}

// ERET returns from an exception: EXL clears, and PC resumes from EPC
// (or ErrorEPC if ERL was set, which this model does not use after reset).
func (c *VR4300) execERET() {
	c.cop0.status &^= statusEXL
	c.pc = c.cop0.epc
	c.flushYounger()
}
