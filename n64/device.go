package n64

import (
	"image"
	"io"
)

// Device is the top-level aggregate owning exactly one of each modeled
// component, the Go-native analogue of the teacher's nes.Console (§3's
// "Device owns one instance of every modeled component"). Construction
// wires every component's cross-references (MI's interrupt fan-in, the bus
// region table, the PIF's controller/pak/EEPROM slots) once, up front, so
// nothing downstream has to nil-check a forward reference.
type Device struct {
	CPU *VR4300

	RDRAM *RDRAM
	Cart  *Cart
	RSP   *RSP
	RDP   *RDP
	MI    *MI
	PI    *PI
	SI    *SI
	AI    *AI
	VI    *VI
	RI    *RI
	PIF   *PIF

	bus *Bus
	log LogSink

	controllers [4]*ControllerState
	running     bool

	openFiles []io.Closer
}

// NewDevice builds every component and wires them together; a nil log is
// replaced by a sink that discards records. No cart is attached yet: the
// caller prepares a Cart (ROM and PIF ROM loaded, save media and 64DD
// attached via its Attach* methods) and hands it to Load.
func NewDevice(log LogSink) *Device {
	if log == nil {
		log = nopSink{}
	}

	d := &Device{log: log}

	d.RDRAM = newRDRAM()
	d.MI = newMI()
	d.RI = newRI()
	d.PIF = newPIF(d.MI)
	d.SI = newSI(d.MI, d.PIF)
	d.PI = newPI(d.MI)
	d.AI = newAI(d.MI)
	d.VI = newVI(d.MI)
	d.RSP = newRSP(d.MI)
	d.RDP = newRDP(d.MI)

	for i := range d.controllers {
		d.controllers[i] = &ControllerState{}
		if i == 0 {
			d.controllers[i].Configure(DeviceStandard, false)
		}
		d.PIF.AttachController(i, d.controllers[i])
	}

	d.bus = newBus(d)
	d.RSP.attach(d.bus)
	d.RDP.bus = d.bus
	d.PI.bus = d.bus
	d.SI.bus = d.bus
	d.AI.bus = d.bus
	d.VI.bus = d.bus

	d.CPU = newVR4300(d.bus)
	d.MI.cpu = d.CPU

	return d
}

// Load attaches a fully-prepared cart (ROM and PIF ROM loaded, save media
// and 64DD images attached as desired) and resets the device to boot from
// it. This mirrors the teacher's Console.load/LoadPath split: NewDevice
// never touches a filesystem path itself, callers build the Cart.
func (d *Device) Load(cart *Cart) {
	d.Cart = cart
	d.bus.Cart = cart
	d.PI.sram = cart.sram
	d.PI.flash = cart.flash
	if cart.eeprom != nil {
		d.PIF.AttachEEPROM(cart.eeprom)
	}
	for i, pak := range cart.mempaks {
		if pak != nil {
			d.PIF.AttachMempak(i, pak)
		}
	}
	d.Reset()
}

// Reset restores the VR4300 to its power-on pipeline state and boots from
// the PIF ROM at KSEG1, per spec.md §4.2.
func (d *Device) Reset() {
	d.CPU = newVR4300(d.bus)
	d.MI.cpu = d.CPU
	d.RSP.halted = true
}

// Press/Release publish a button edit to one of the four controller slots;
// per spec.md §5, this is the presentation thread's only write into shared
// state, the "input snapshot" release point PIF's command dispatch acquires.
func (d *Device) Press(i int, b Button) {
	if i >= 0 && i < len(d.controllers) {
		d.controllers[i].Press(b)
	}
}

func (d *Device) Release(i int, b Button) {
	if i >= 0 && i < len(d.controllers) {
		d.controllers[i].Release(b)
	}
}

func (d *Device) SetStick(i int, x, y int8) {
	if i >= 0 && i < len(d.controllers) {
		d.controllers[i].SetStick(x, y)
	}
}

// ConfigureController sets slot i's reported device kind and pak presence,
// driven by the CLI's --controller N=type:pak flag.
func (d *Device) ConfigureController(i int, kind DeviceKind, pakPresent bool) {
	if i >= 0 && i < len(d.controllers) {
		d.controllers[i].Configure(kind, pakPresent)
	}
}

// Frame returns the most recently completed frame, and whether a new one is
// ready since the last call — the release/acquire handoff spec.md §5
// requires between the emulation and presentation threads.
func (d *Device) Frame() (*image.RGBA, bool) {
	return d.VI.Frame()
}

// AudioChannel exposes the AI's sample stream to the presentation thread.
func (d *Device) AudioChannel() <-chan float32 {
	return d.AI.Samples()
}

// Read/Write expose the physical bus directly, for tooling and tests that
// want to poke the device without driving the CPU pipeline.
func (d *Device) Read(addr uint32, width int) uint64         { return d.bus.Read(addr, width) }
func (d *Device) Write(addr uint32, width int, value uint64) { d.bus.Write(addr, width, value) }

// Close flushes and releases every open save file and ROM backing.
func (d *Device) Close() error {
	var err error
	if d.Cart != nil {
		if e := d.Cart.Close(); e != nil {
			err = e
		}
		for _, s := range []*SaveFile{d.Cart.sram, d.Cart.flash, d.Cart.eeprom} {
			if e := s.Close(); e != nil {
				err = e
			}
		}
		for _, s := range d.Cart.mempaks {
			if e := s.Close(); e != nil {
				err = e
			}
		}
	}
	for _, f := range d.openFiles {
		if e := f.Close(); e != nil {
			err = e
		}
	}
	if e := d.log.Close(); e != nil {
		err = e
	}
	return err
}
