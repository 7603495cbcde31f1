package n64

// VR4300 is the N64's scalar CPU core: an in-order 5-stage pipeline
// (IC/RF/EX/DC/WB) over 64-bit general registers, backed by split I/D
// caches, a 32-entry TLB, COP0, and COP1 (spec.md §3 "VR4300 pipeline
// latches", §4.2). Each stage is a latch that holds at most one in-flight
// instruction; Step advances every non-empty stage by one slot per call,
// the way spec.md §4.2's "each cycle each non-empty stage attempts to
// advance" describes.
type VR4300 struct {
	gpr   [32]uint64
	hi, lo uint64
	pc    uint64

	cop0 cop0State
	tlb  tlb
	fpu  fpuState

	icache *vcache
	dcache *vcache

	ic, rf, ex, dc, wb pipelineLatch

	stall bool

	bus *Bus
}

// pipelineLatch is one stage's record: the decoded instruction plus
// whatever that stage has computed so far (ALU result, branch resolution,
// memory value, fault). A zero-value latch is empty.
type pipelineLatch struct {
	valid bool
	d     decodedInstr

	aluResult    uint64
	branchTarget uint64
	branchTaken  bool
	annulled     bool
	inBranchDelay bool

	memVal uint64
	fault  *guestFault
}

func newVR4300(bus *Bus) *VR4300 {
	cpu := &VR4300{bus: bus}
	cpu.icache = newICache()
	cpu.dcache = newDCache(cpu.cacheWriteback)
	cpu.cop0.resetState()
	cpu.pc = 0xFFFFFFFFBFC00000 // PIF boot ROM, KSEG1
	return cpu
}

func (c *VR4300) cacheWriteback(paddr uint32, data []byte) {
	for i, b := range data {
		c.bus.Write(paddr+uint32(i), 1, uint64(b))
	}
}

// MIPS hardware interrupt lines, Cause.IP2..IP6 map to external sources;
// IP2 is the one the N64's MI register block drives (spec.md §4.6's "MI...
// asserts the VR4300's IP2 line").
const (
	ip0 = 0
	ip1 = 1
	ip2 = 2
	ip7 = 7 // timer (Count == Compare)
)

func (c *VR4300) setInterruptPending(line int)   { c.cop0.cause |= 1 << (8 + line) }
func (c *VR4300) clearInterruptPending(line int) { c.cop0.cause &^= 1 << (8 + line) }

// Step advances the pipeline by one cycle: retire WB, then shift DC->WB,
// EX->DC, RF->EX, IC->RF, and fetch a new instruction into IC, unless a
// hazard holds the front of the pipe (spec.md §4.2's stall sources).
//
// A taken branch's target is applied to PC as soon as it resolves in EX —
// not deferred to WB — because MIPS's single architectural delay slot
// means the fetch immediately following EX's resolution (the one that
// happens later this same Step) must already come from the target. Only
// register/COP0 writes and fault dispatch wait for WB, which is what keeps
// exceptions precise: nothing younger has committed by the time a fault
// reaches WB, so flushing IC/RF/EX there discards it cleanly.
func (c *VR4300) Step() {
	c.retireWB()

	c.wb = c.dc
	c.dc = pipelineLatch{}
	if c.ex.valid {
		c.dc = c.runDC(c.ex)
	}

	c.ex = pipelineLatch{}
	if c.rf.valid {
		c.ex = c.runEX(c.rf)
		if c.ex.fault == nil {
			if c.ex.branchTaken {
				c.pc = c.ex.branchTarget
			}
			if c.ex.annulled {
				c.ic = pipelineLatch{}
			}
		}
	}

	if c.loadUseHazard() {
		c.stall = true
		return
	}
	c.stall = false

	c.rf = pipelineLatch{}
	if c.ic.valid {
		c.rf = c.runRF(c.ic)
	}

	c.maybeDispatchInterrupt()

	c.ic = c.runIC()
}

// loadUseHazard implements spec.md §4.2's "load-use hazard on the
// immediately following instruction": if the instruction currently in EX is
// a load and RF's instruction needs that same destination register, RF (and
// everything behind it) holds for one cycle.
func (c *VR4300) loadUseHazard() bool {
	if !c.ex.valid || !c.rf.valid {
		return false
	}
	prodInfo := c.ex.d.info
	if prodInfo&mInfoLoad == 0 {
		return false
	}
	dest := c.ex.d.destReg
	if dest == 0 {
		return false
	}
	cons := c.rf.d
	if cons.info&mInfoNeedRS != 0 && cons.rs == dest {
		return true
	}
	if cons.info&mInfoNeedRT != 0 && cons.rt == dest {
		return true
	}
	return false
}

func (c *VR4300) runIC() pipelineLatch {
	if c.stall {
		return c.ic
	}
	pc := c.pc
	word, fault := c.fetch(pc)
	if fault != nil {
		return pipelineLatch{valid: true, d: decodedInstr{pc: pc}, fault: fault}
	}
	c.pc += 4
	return pipelineLatch{valid: true, d: decode(word, pc)}
}

func (c *VR4300) runRF(l pipelineLatch) pipelineLatch {
	if l.fault != nil {
		return l
	}
	l.d.rsVal = c.readGPR(l.d.rs)
	l.d.rtVal = c.readGPR(l.d.rt)
	return l
}

func (c *VR4300) runEX(l pipelineLatch) pipelineLatch {
	if l.fault != nil {
		return l
	}
	return c.execute(l)
}

func (c *VR4300) runDC(l pipelineLatch) pipelineLatch {
	if l.fault != nil {
		return l
	}
	return c.memoryAccess(l)
}

// retireWB commits WB's result: a register write, or a trapped fault.
// Branch PC redirection already happened back in EX (see Step); WB only
// writes back values and dispatches faults, so EPC reflects the faulting
// instruction's PC (or its branch, with Cause.BD set, if it sat in a delay
// slot) per spec.md §4.2.
func (c *VR4300) retireWB() {
	l := c.wb
	if !l.valid {
		return
	}

	if l.fault != nil {
		c.dispatchException(*l.fault, l.d.pc, l.inBranchDelay)
		c.flushYounger()
		return
	}

	if l.annulled {
		return
	}

	if l.d.info&mInfoStore == 0 && l.d.destReg != 0 {
		if l.d.info&mInfoLoad != 0 {
			c.writeGPR(l.d.destReg, l.memVal)
		} else {
			c.writeGPR(l.d.destReg, l.aluResult)
		}
	}
}

func (c *VR4300) flushYounger() {
	c.ic = pipelineLatch{}
	c.rf = pipelineLatch{}
	c.ex = pipelineLatch{}
}

func (c *VR4300) readGPR(i uint32) uint64 {
	if i == 0 {
		return 0
	}
	return c.gpr[i]
}

func (c *VR4300) writeGPR(i uint32, v uint64) {
	if i != 0 {
		c.gpr[i] = v
	}
}

// maybeDispatchInterrupt checks Cause.IP & Status.IM once per cycle; a
// pending, unmasked interrupt with interrupts enabled becomes an EX-stage
// fault on the instruction currently in RF (entering EX next), which is the
// earliest point that hasn't committed state yet.
func (c *VR4300) maybeDispatchInterrupt() {
	if !c.cop0.interruptsEnabled() {
		return
	}
	pending := uint32(c.cop0.cause>>8) & uint32(c.cop0.status>>8) & 0xFF
	if pending == 0 {
		return
	}
	if c.rf.valid && c.rf.fault == nil {
		c.rf.fault = &guestFault{code: excInt}
	}
}
