package n64

// Stepper is the single-threaded cooperative scheduler over the device's
// components (spec.md §4.6 "Device Stepper"). It is the Go-native
// counterpart to the teacher's Console.StepFrame loop, generalized from "run
// until the PPU completes a frame" to the N64's multi-core cycle budget:
// every outer iteration is exactly one VR4300 cycle, with the RSP, RDP and
// AI sub-stepped at their own rates and the VI line counter advanced once
// off of that same tick.
type Stepper struct {
	dev *Device

	cycle uint64

	// dmaBytesPerTick bounds how much of an in-flight PI DMA drains per
	// outer iteration, so a PI DMA never completes all at once. SI DMAs are
	// not drained here: SI.start copies the whole 64-byte PIF block in the
	// register write that starts it.
	dmaBytesPerTick uint32

	running bool

	// OnFrame is called on the emulation thread whenever VI completes a
	// frame, spec.md §4.6's "external frame callback" so an optional video
	// surface can pull the framebuffer without polling.
	OnFrame func()
}

func NewStepper(dev *Device) *Stepper {
	return &Stepper{dev: dev, dmaBytesPerTick: 8}
}

// Run drives outer iterations until Stop is called (or the caller's context
// does its own bookkeeping around repeated Step calls); it returns once the
// current outer iteration completes after running goes false, matching
// spec.md §5's "the stepper returns within one outer iteration" cancellation
// bound.
func (s *Stepper) Run() {
	s.running = true
	for s.running {
		s.Step()
	}
}

func (s *Stepper) Stop() { s.running = false }

// Step advances every component by one VR4300 cycle's worth of work.
func (s *Stepper) Step() {
	d := s.dev

	d.CPU.Step()
	d.CPU.TickTimer()

	if !d.RSP.Halted() {
		d.RSP.Step()
	}

	if s.cycle%3 == 0 {
		d.RDP.Step()
	}

	d.AI.Tick()

	framePending := d.VI.ready
	d.VI.Tick()
	if !framePending && d.VI.ready && s.OnFrame != nil {
		s.OnFrame()
	}

	d.PI.Step(s.dmaBytesPerTick)

	s.cycle++
}
