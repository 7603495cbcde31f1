package n64

import "testing"

func TestPIDMACartToDRAM(t *testing.T) {
	d := NewDevice(nil)
	rom := make([]byte, 0x1000)
	for i := range rom {
		rom[i] = byte(i)
	}
	d.Load(&Cart{romData: rom})

	d.bus.Write(0x04600000, 4, 0x1000)        // PI_DRAM_ADDR
	d.bus.Write(0x04600004, 4, 0x10000020)    // PI_CART_ADDR, cart-dom1 offset 0x20
	d.bus.Write(0x0460000C, 4, 0x0F)          // PI_WR_LEN: 16 bytes, cart -> RDRAM

	if !d.PI.busy {
		t.Fatal("expected PI to be busy after starting a transfer")
	}

	d.PI.Step(16)

	if d.PI.busy {
		t.Error("expected PI to have completed the transfer within one tick")
	}
	for i := 0; i < 16; i++ {
		got := d.bus.RDRAM.readBytes(0x1000+uint32(i), 1)
		if got != uint64(rom[0x20+i]) {
			t.Errorf("rdram[%#x] = %#x, want %#x", 0x1000+i, got, rom[0x20+i])
		}
	}
	if d.MI.pending&miIntrPI == 0 {
		t.Error("expected PI interrupt to be raised on DMA completion")
	}
}

func TestPIDMABusyDropsRestart(t *testing.T) {
	d := NewDevice(nil)
	d.Load(&Cart{romData: make([]byte, 0x100)})

	d.bus.Write(0x0460000C, 4, 0xFF) // start a long transfer
	remaining := d.PI.remaining

	d.bus.Write(0x0460000C, 4, 0x01) // would-be restart while busy
	if d.PI.remaining != remaining {
		t.Error("a write to the length register while busy must be ignored")
	}
}

func TestPIDMAStepBoundedPerTick(t *testing.T) {
	d := NewDevice(nil)
	d.Load(&Cart{romData: make([]byte, 0x100)})

	d.bus.Write(0x0460000C, 4, 63) // 64 bytes total
	d.PI.Step(8)

	if !d.PI.busy {
		t.Fatal("transfer should still be in flight after a partial tick")
	}
	if d.PI.remaining != 56 {
		t.Errorf("remaining = %d, want 56", d.PI.remaining)
	}
}
