package n64

import "testing"

// TestVIRasterInterruptRaisesMIPendingAndIP2 exercises testable property S4:
// configuring VI_INTR and ticking the line counter up to that line raises
// the MI pending bit for VI and, once unmasked, the VR4300's Cause.IP2 line.
func TestVIRasterInterruptRaisesMIPendingAndIP2(t *testing.T) {
	d := NewDevice(nil)

	d.VI.vSync = 525
	d.VI.vIntr = 0x200

	for i := 0; i < 0x200; i++ {
		d.VI.Tick()
	}

	if d.MI.pending&miIntrVI == 0 {
		t.Fatal("expected MI pending VI bit set after reaching the programmed line")
	}

	d.MI.mask |= miIntrVI
	d.MI.refreshCause()
	if d.CPU.cop0.cause&(1<<(8+ip2)) == 0 {
		t.Error("expected Cause.IP2 set once VI's pending bit is unmasked")
	}

	d.VI.mi.clear(miIntrVI)
	d.MI.refreshCause()
	if d.MI.pending&miIntrVI != 0 {
		t.Error("expected MI pending VI bit cleared after acknowledgement")
	}
	if d.CPU.cop0.cause&(1<<(8+ip2)) != 0 {
		t.Error("expected Cause.IP2 cleared once no MI source is pending")
	}
}

// TestVITickPublishesFrameOnWrap exercises the end-of-frame publish that
// spec.md §5 requires as the only release point for the shared framebuffer.
func TestVITickPublishesFrameOnWrap(t *testing.T) {
	d := NewDevice(nil)
	d.VI.vSync = 4

	for i := 0; i < 3; i++ {
		if _, ready := d.Frame(); ready {
			t.Fatalf("frame published too early at tick %d", i)
		}
		d.VI.Tick()
	}
	d.VI.Tick()

	if _, ready := d.Frame(); !ready {
		t.Fatal("expected a frame to be published after the line counter wraps")
	}
	if _, ready := d.Frame(); ready {
		t.Fatal("Frame() must not report ready twice for the same publish")
	}
}
