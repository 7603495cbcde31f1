package n64

// Button identifies one digital input on a standard N64 controller.
type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonZ
	ButtonStart
	ButtonDUp
	ButtonDDown
	ButtonDLeft
	ButtonDRight
	ButtonL
	ButtonR
	ButtonCUp
	ButtonCDown
	ButtonCLeft
	ButtonCRight
)

var buttonBit = map[Button]uint16{
	ButtonDRight: 1 << 0,
	ButtonDLeft:  1 << 1,
	ButtonDDown:  1 << 2,
	ButtonDUp:    1 << 3,
	ButtonStart:  1 << 4,
	ButtonZ:      1 << 5,
	ButtonB:      1 << 6,
	ButtonA:      1 << 7,
	ButtonCRight: 1 << 8,
	ButtonCLeft:  1 << 9,
	ButtonCDown:  1 << 10,
	ButtonCUp:    1 << 11,
	ButtonR:      1 << 13,
	ButtonL:      1 << 14,
}

// DeviceKind selects what pifDevice 0x00 (identify) reports and which pak,
// if any, is slotted.
type DeviceKind int

const (
	DeviceNone DeviceKind = iota
	DeviceStandard
	DeviceMouse
)

// ControllerState is the published snapshot a PIF status command reads.
// Per spec.md §5, it is written only by the presentation thread (controller
// input polling) and read only by the PIF's controller-read path; that
// boundary is the "input snapshot" release/acquire point.
type ControllerState struct {
	kind       DeviceKind
	buttons    uint16
	stickX     int8
	stickY     int8
	pakPresent bool
}

// Configure sets what this slot reports to the identify command and whether
// a controller pak is slotted, driven by the CLI's --controller flag.
func (c *ControllerState) Configure(kind DeviceKind, pakPresent bool) {
	c.kind = kind
	c.pakPresent = pakPresent
}

func (c *ControllerState) Press(b Button)   { c.buttons |= buttonBit[b] }
func (c *ControllerState) Release(b Button) { c.buttons &^= buttonBit[b] }
func (c *ControllerState) SetStick(x, y int8) {
	c.stickX, c.stickY = x, y
}

// statusBytes returns the 3-byte identify reply: {0x05, 0x00, pak-present}
// for a standard controller, matching the real PIF protocol.
func (c *ControllerState) statusBytes() [3]byte {
	if c.kind == DeviceNone {
		return [3]byte{0xFF, 0xFF, 0xFF} // no device connected
	}
	present := byte(0x00)
	if c.pakPresent {
		present = 0x01
	}
	return [3]byte{0x05, 0x00, present}
}

// readBytes returns the 4-byte controller-read reply: buttons (big-endian)
// followed by signed stick X/Y.
func (c *ControllerState) readBytes() [4]byte {
	return [4]byte{
		byte(c.buttons >> 8),
		byte(c.buttons),
		byte(c.stickX),
		byte(c.stickY),
	}
}
