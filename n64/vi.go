package n64

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// VI is the video interface: a line counter driving the raster interrupt and
// the end-of-frame framebuffer publish (spec.md §4.6 item (v), §5 "external
// frame callback"). Frame() hands out the last completed frame; ownership
// passes to the caller for that call the way the teacher's ppu.go publishes
// its completed NES frame under a release/acquire handshake.
type VI struct {
	ctrl      uint32
	originAddr uint32
	width     uint32
	vIntr     uint32
	burst     uint32
	vSync     uint32
	hSync     uint32
	leap      uint32
	hStart    uint32
	vStart    uint32
	vBurst    uint32
	xScale    uint32
	yScale    uint32

	line uint32

	front *image.RGBA
	back  *image.RGBA
	ready bool

	mi  *MI
	bus *Bus
}

const (
	viModeBPP16 = 2
	viModeBPP32 = 3
)

func newVI(mi *MI) *VI {
	return &VI{
		mi:     mi,
		vSync:  0x20D, // NTSC default total scanlines
		front:  image.NewRGBA(image.Rect(0, 0, 320, 240)),
		back:   image.NewRGBA(image.Rect(0, 0, 320, 240)),
	}
}

const (
	viCtrlOffset   = 0x00
	viOriginOffset = 0x04
	viWidthOffset  = 0x08
	viVIntrOffset  = 0x0C
	viVCurrentOffset = 0x10
	viBurstOffset  = 0x14
	viVSyncOffset  = 0x18
	viHSyncOffset  = 0x1C
	viLeapOffset   = 0x20
	viHStartOffset = 0x24
	viVStartOffset = 0x28
	viVBurstOffset = 0x2C
	viXScaleOffset = 0x30
	viYScaleOffset = 0x34
)

func viRegRead(b *Bus, addr uint32, width int) uint64 {
	vi := b.VI
	switch addr & 0xFF {
	case viCtrlOffset:
		return uint64(vi.ctrl)
	case viOriginOffset:
		return uint64(vi.originAddr)
	case viWidthOffset:
		return uint64(vi.width)
	case viVIntrOffset:
		return uint64(vi.vIntr)
	case viVCurrentOffset:
		return uint64(vi.line)
	case viVSyncOffset:
		return uint64(vi.vSync)
	default:
		return 0
	}
}

func viRegWrite(b *Bus, addr uint32, width int, value uint64) {
	vi := b.VI
	v := uint32(value)
	switch addr & 0xFF {
	case viCtrlOffset:
		vi.ctrl = v
	case viOriginOffset:
		vi.originAddr = v & 0x00FFFFFF
		vi.bus = b
	case viWidthOffset:
		vi.width = v & 0xFFF
	case viVIntrOffset:
		vi.vIntr = v & 0x3FF
	case viVCurrentOffset:
		vi.mi.clear(miIntrVI)
	case viBurstOffset:
		vi.burst = v
	case viVSyncOffset:
		vi.vSync = v & 0x3FF
	case viHSyncOffset:
		vi.hSync = v
	case viLeapOffset:
		vi.leap = v
	case viHStartOffset:
		vi.hStart = v
	case viVStartOffset:
		vi.vStart = v
	case viVBurstOffset:
		vi.vBurst = v
	case viXScaleOffset:
		vi.xScale = v
	case viYScaleOffset:
		vi.yScale = v
	}
}

// Tick advances the raster line counter by one scanline's worth of work.
// The stepper calls this once per outer iteration, so each VR4300 cycle
// advances one line; there is no cycles-per-line divider. When the counter
// reaches vSync it wraps, and the framebuffer is snapshotted and handed
// to front, matching spec.md §5's "publish exactly once per frame" rule.
func (vi *VI) Tick() {
	vi.line++
	if vi.line == vi.vIntr {
		vi.mi.raise(miIntrVI)
	}
	if vi.line >= vi.vSync {
		vi.line = 0
		vi.renderFrame()
		vi.front, vi.back = vi.back, vi.front
		vi.ready = true
	}
}

// renderFrame rasterizes the configured color-image region of RDRAM into
// vi.back, converting from either 16bpp (5-5-5-1 RGBA, alpha bit ignored) or 32bpp source pixels
// depending on the control register's mode field.
func (vi *VI) renderFrame() {
	if vi.bus == nil || vi.width == 0 {
		return
	}
	mode := vi.ctrl & 0x3
	h := uint32(vi.back.Bounds().Dy())
	w := vi.width
	if int(w) != vi.back.Bounds().Dx() {
		vi.back = image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	}

	switch mode {
	case viModeBPP32:
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				off := vi.originAddr + (y*w+x)*4
				px := uint32(vi.bus.RDRAM.readBytes(off, 4))
				r := byte(px >> 24)
				g := byte(px >> 16)
				bch := byte(px >> 8)
				vi.back.SetRGBA(int(x), int(y), color.RGBA{r, g, bch, 0xFF})
			}
		}
	case viModeBPP16:
		for y := uint32(0); y < h; y++ {
			for x := uint32(0); x < w; x++ {
				off := vi.originAddr + (y*w+x)*2
				px := uint16(vi.bus.RDRAM.readBytes(off, 2))
				r := byte((px>>11)&0x1F) << 3
				g := byte((px>>6)&0x1F) << 3
				bch := byte((px>>1)&0x1F) << 3
				vi.back.SetRGBA(int(x), int(y), color.RGBA{r, g, bch, 0xFF})
			}
		}
	}
}

// Frame reports whether a new frame has been published since the last call
// and, if so, returns it. The caller must not retain the image across the
// next call that returns ready=true, mirroring the single-buffered handoff
// of flga/nes's ppu frame output.
func (vi *VI) Frame() (*image.RGBA, bool) {
	if !vi.ready {
		return nil, false
	}
	vi.ready = false
	return vi.front, true
}

// DumpFrame scales the last-published frame to w×h without consuming the
// ready flag, for debug tooling (trace dumps, thumbnailing) that runs
// alongside the normal Frame()/presentation handoff rather than in place of
// it.
func (vi *VI) DumpFrame(w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), vi.front, vi.front.Bounds(), draw.Over, nil)
	return dst
}
