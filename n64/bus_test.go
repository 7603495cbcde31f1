package n64

import "testing"

func TestBusRDRAMReadWrite(t *testing.T) {
	d := NewDevice(nil)

	d.bus.Write(0x100, 4, 0xDEADBEEF)
	if got := d.bus.Read(0x100, 4); got != 0xDEADBEEF {
		t.Errorf("rdram read = %#x, want %#x", got, 0xDEADBEEF)
	}
}

func TestBusOpenBusRead(t *testing.T) {
	d := NewDevice(nil)

	// 0x1FD00000 falls in the hole between pif-ram and the cart-domain-2
	// wraparound; no region claims it.
	if got := d.bus.Read(0x1FD00000, 4); got != 0 {
		t.Errorf("open-bus read = %#x, want 0", got)
	}

	if _, err := d.bus.TryRead(0x1FD00000, 4); err == nil {
		t.Error("TryRead on an unmapped hole should report an error")
	}
}

func TestBusTryReadMappedRegion(t *testing.T) {
	d := NewDevice(nil)

	if _, err := d.bus.TryRead(0x00000100, 4); err != nil {
		t.Errorf("TryRead on rdram should not error, got %v", err)
	}
}

func TestBusRegionsNonOverlapping(t *testing.T) {
	d := NewDevice(nil)

	for i, a := range d.bus.regions {
		for j, b := range d.bus.regions {
			if i == j {
				continue
			}
			if a.contains(b.base) {
				t.Errorf("region %s overlaps region %s at base %#08x", a.name, b.name, b.base)
			}
		}
	}
}

func TestBusFindDispatchesToViRegs(t *testing.T) {
	d := NewDevice(nil)

	d.bus.Write(0x04400008, 4, 320) // VI_WIDTH
	if d.VI.width != 320 {
		t.Errorf("VI.width = %d, want 320", d.VI.width)
	}
}
