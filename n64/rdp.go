package n64

// RDP command identifiers: the top 6 bits of the first 64-bit word of each
// command, per spec.md §4.7.
const (
	rdpCmdFillTriangle    = 0x08
	rdpCmdShadeTriangle   = 0x0C
	rdpCmdTexTriangle     = 0x0A
	rdpCmdShadeTexTriangle = 0x0E
	rdpCmdZBufTriangle    = 0x09
	rdpCmdTexRect         = 0x24
	rdpCmdTexRectFlip     = 0x25
	rdpCmdSyncLoad        = 0x26
	rdpCmdSyncPipe        = 0x27
	rdpCmdSyncTile        = 0x28
	rdpCmdSyncFull        = 0x29
	rdpCmdSetKeyGB        = 0x2A
	rdpCmdSetKeyR         = 0x2B
	rdpCmdSetConvert      = 0x2C
	rdpCmdSetScissor      = 0x2D
	rdpCmdSetPrimDepth    = 0x2E
	rdpCmdSetOtherModes   = 0x2F
	rdpCmdLoadTLUT        = 0x30
	rdpCmdSetTileSize     = 0x32
	rdpCmdLoadBlock       = 0x33
	rdpCmdLoadTile        = 0x34
	rdpCmdSetTile         = 0x35
	rdpCmdFillRect        = 0x36
	rdpCmdSetFillColor    = 0x37
	rdpCmdSetFogColor     = 0x38
	rdpCmdSetBlendColor   = 0x39
	rdpCmdSetPrimColor    = 0x3A
	rdpCmdSetEnvColor     = 0x3B
	rdpCmdSetCombine      = 0x3C
	rdpCmdSetColorImage   = 0x3D
	rdpCmdSetZImage       = 0x3E
	rdpCmdSetTextureImage = 0x3F
)

const tmemSize = 4096

// tileDescriptor mirrors one of the RDP's 8 texture-tile slots: format,
// size, TMEM address/line stride, palette, clamp/mirror/mask per axis, and
// the S/T coordinate window the texture is loaded into, per spec.md §4.7.
type tileDescriptor struct {
	format, size    uint32
	line, tmemAddr  uint32
	palette         uint32
	maskS, maskT    uint32
	shiftS, shiftT  uint32
	clampS, clampT  bool
	mirrorS, mirrorT bool
	slo, shi, tlo, thi uint32
}

type scissorRect struct {
	xl, yl, xh, yh uint32
}

type colorImage struct {
	format, size uint32
	width        uint32
	dramAddr     uint32
}

// RDP is the command-list rasterizer (spec.md §3 "RDP command state", §4.7).
// It owns a FIFO of pending 64-bit words, the persistent pipe state those
// commands mutate, and a 4 KiB texture memory.
type RDP struct {
	fifo []uint64

	status uint32

	start, end, current uint32

	tiles   [8]tileDescriptor
	scissor scissorRect
	color   colorImage
	zImage  uint32

	// textureImage is the last SET_TEXTURE_IMAGE source address: the
	// framebuffer target named by colorImage and the texel source LOAD_TILE/
	// LOAD_BLOCK copy from are distinct RDRAM regions.
	textureImage uint32

	fillColor  uint32
	fogColor   uint32
	blendColor uint32
	primColor  uint32
	envColor   uint32
	combine    [2]uint64

	tmem [tmemSize]byte

	bus *Bus
	mi  *MI
}

const (
	dpStatusDMABusy  = 1 << 2
	dpStatusPipeBusy = 1 << 1
	dpStatusXBus     = 1 << 0
)

func newRDP(mi *MI) *RDP { return &RDP{mi: mi} }

const (
	dpStartOffset   = 0x00
	dpEndOffset     = 0x04
	dpCurrentOffset = 0x08
	dpStatusOffset  = 0x0C
)

func dpCmdRegRead(b *Bus, addr uint32, width int) uint64 {
	r := b.RDP
	switch addr & 0xFF {
	case dpStartOffset:
		return uint64(r.start)
	case dpEndOffset:
		return uint64(r.end)
	case dpCurrentOffset:
		return uint64(r.current)
	case dpStatusOffset:
		return uint64(r.status)
	default:
		return 0
	}
}

func dpCmdRegWrite(b *Bus, addr uint32, width int, value uint64) {
	r := b.RDP
	v := uint32(value)
	switch addr & 0xFF {
	case dpStartOffset:
		r.start = v
		r.current = v
	case dpEndOffset:
		r.end = v
		r.bus = b
		r.ingest()
	case dpStatusOffset:
		if v&(1<<0) != 0 {
			r.status &^= dpStatusXBus
		}
		if v&(1<<1) != 0 {
			r.status |= dpStatusXBus
		}
	}
}

func dpSpanRegRead(b *Bus, addr uint32, width int) uint64  { return 0 }
func dpSpanRegWrite(b *Bus, addr uint32, width int, value uint64) {}

// ingest copies [current, end) out of RDRAM (or RSP DMEM when XBUS_DMEM_DMA
// is set) into the command FIFO, per spec.md §4.7's "consumes 64-bit
// commands from either RDRAM or RSP DMEM as selected by the DP status
// register".
func (r *RDP) ingest() {
	if r.end <= r.current {
		return
	}
	r.status |= dpStatusDMABusy
	for r.current+8 <= r.end {
		var word uint64
		if r.status&dpStatusXBus != 0 && r.bus.RSP != nil {
			word = r.bus.RSP.readDMEM(r.current&0xFFF, 8)
		} else {
			word = r.bus.RDRAM.readBytes(r.current, 8)
		}
		r.fifo = append(r.fifo, word)
		r.current += 8
	}
}

// Step processes at most one command from the FIFO per call, matching the
// stepper's "one RDP command-processor cycle" granularity from spec.md §4.6.
// A partially available command (spec.md §3's documented invariant) simply
// waits for the next ingest.
func (r *RDP) Step() {
	if len(r.fifo) == 0 {
		r.status &^= dpStatusDMABusy
		return
	}

	header := r.fifo[0]
	cmd := uint32(header>>56) & 0x3F
	nwords := rdpCmdLength(cmd)
	if len(r.fifo) < nwords {
		return // incomplete command, wait for more words
	}

	args := r.fifo[:nwords]
	r.fifo = r.fifo[nwords:]
	r.execute(cmd, args)

	if len(r.fifo) == 0 {
		r.status &^= dpStatusDMABusy
		r.status |= dpStatusPipeBusy
		r.status &^= dpStatusPipeBusy
		if r.mi != nil {
			r.mi.raise(miIntrDP)
		}
	}
}

// rdpCmdLength is the number of 64-bit words a command occupies, per the
// real RDP's fixed per-opcode encoding length.
func rdpCmdLength(cmd uint32) int {
	switch cmd {
	case rdpCmdShadeTexTriangle:
		return 20
	case rdpCmdShadeTriangle, rdpCmdTexTriangle:
		return 12
	case rdpCmdZBufTriangle:
		return 6
	case rdpCmdFillTriangle:
		return 4
	case rdpCmdTexRect, rdpCmdTexRectFlip:
		return 2
	case rdpCmdSetCombine, rdpCmdSetOtherModes:
		return 1
	default:
		return 1
	}
}

func (r *RDP) execute(cmd uint32, w []uint64) {
	switch cmd {
	case rdpCmdSetScissor:
		r.scissor = scissorRect{
			xl: uint32(w[0]>>44) & 0xFFF,
			yl: uint32(w[0]>>32) & 0xFFF,
			xh: uint32(w[0]>>12) & 0xFFF,
			yh: uint32(w[0]>>0) & 0xFFF,
		}
	case rdpCmdSetFillColor:
		r.fillColor = uint32(w[0])
	case rdpCmdSetFogColor:
		r.fogColor = uint32(w[0])
	case rdpCmdSetBlendColor:
		r.blendColor = uint32(w[0])
	case rdpCmdSetPrimColor:
		r.primColor = uint32(w[0])
	case rdpCmdSetEnvColor:
		r.envColor = uint32(w[0])
	case rdpCmdSetCombine:
		r.combine[0] = w[0]
	case rdpCmdSetOtherModes:
		r.combine[1] = w[0]
	case rdpCmdSetTile:
		r.setTile(w[0])
	case rdpCmdSetTileSize:
		i := (w[0] >> 24) & 0x7
		t := &r.tiles[i]
		t.slo = uint32(w[0]>>44) & 0xFFF
		t.tlo = uint32(w[0]>>32) & 0xFFF
		t.shi = uint32(w[0]>>12) & 0xFFF
		t.thi = uint32(w[0]>>0) & 0xFFF
	case rdpCmdSetColorImage:
		r.color = colorImage{
			format:   uint32(w[0]>>53) & 0x7,
			size:     uint32(w[0]>>51) & 0x3,
			width:    uint32(w[0]>>32)&0x3FF + 1,
			dramAddr: uint32(w[0]) & 0x00FFFFFF,
		}
	case rdpCmdSetZImage:
		r.zImage = uint32(w[0]) & 0x00FFFFFF
	case rdpCmdSetTextureImage:
		r.textureImage = uint32(w[0]) & 0x00FFFFFF
	case rdpCmdLoadBlock, rdpCmdLoadTile, rdpCmdLoadTLUT:
		r.loadTMEM(cmd, w[0])
	case rdpCmdFillRect:
		r.fillRect(w[0])
	case rdpCmdTexRect, rdpCmdTexRectFlip:
		r.texRect(w)
	case rdpCmdFillTriangle, rdpCmdShadeTriangle, rdpCmdTexTriangle,
		rdpCmdShadeTexTriangle, rdpCmdZBufTriangle:
		r.triangle(cmd, w)
	case rdpCmdSyncFull:
		if r.mi != nil {
			r.mi.raise(miIntrDP)
		}
	case rdpCmdSyncLoad, rdpCmdSyncPipe, rdpCmdSyncTile:
		// pipeline hazard barriers: no rasterizer state to track in this model
	}
}

func (r *RDP) setTile(w uint64) {
	i := (w >> 24) & 0x7
	t := &r.tiles[i]
	t.format = uint32(w>>53) & 0x7
	t.size = uint32(w>>51) & 0x3
	t.line = uint32(w>>41) & 0x1FF
	t.tmemAddr = uint32(w>>32) & 0x1FF
	t.palette = uint32(w>>20) & 0xF
	t.clampT = w&(1<<19) != 0
	t.mirrorT = w&(1<<18) != 0
	t.maskT = uint32(w>>14) & 0xF
	t.shiftT = uint32(w>>10) & 0xF
	t.clampS = w&(1<<9) != 0
	t.mirrorS = w&(1<<8) != 0
	t.maskS = uint32(w>>4) & 0xF
	t.shiftS = uint32(w>>0) & 0xF
}

// loadTMEM copies the raw texel bytes named by the LOAD_TILE/LOAD_BLOCK
// command's S/T window out of the last SET_TEXTURE_IMAGE source into TMEM.
// This model treats every load as a flat byte copy sized off the tile's S
// range, which is sufficient for the fixed-function rect/triangle paths this
// emulator exercises without aiming to reproduce every TMEM addressing mode.
func (r *RDP) loadTMEM(cmd uint32, w uint64) {
	if r.bus == nil {
		return
	}
	i := (w >> 24) & 0x7
	t := &r.tiles[i]
	slo := uint32(w>>44) & 0xFFF >> 2
	shi := uint32(w>>12) & 0xFFF >> 2
	n := shi - slo + 1
	if n == 0 || n > tmemSize {
		return
	}
	src := r.textureImage
	dst := t.tmemAddr * 8
	for i := uint32(0); i < n && dst+i < tmemSize; i++ {
		r.tmem[dst+i] = byte(r.bus.RDRAM.readBytes(src+i, 1))
	}
}

// fillRect rasterizes a solid-color axis-aligned rectangle, the simplest of
// the RDP's primitives, writing fillColor into every pixel inside both the
// command bounds and the scissor rectangle.
func (r *RDP) fillRect(w uint64) {
	xh := uint32(w>>44) & 0xFFF >> 2
	yh := uint32(w>>32) & 0xFFF >> 2
	xl := uint32(w>>12) & 0xFFF >> 2
	yl := uint32(w>>0) & 0xFFF >> 2
	r.clipToScissor(&xl, &yl, &xh, &yh)
	if r.bus == nil || r.color.width == 0 {
		return
	}
	for y := yl; y <= yh; y++ {
		for x := xl; x <= xh; x++ {
			r.writePixel(x, y, r.fillColor)
		}
	}
}

// texRect rasterizes a textured rectangle by sampling TMEM for the tile
// named in the command, without perspective correction (matching the
// non-perspective "copy mode" span path the fixed-function pipe supports).
func (r *RDP) texRect(w []uint64) {
	header := w[0]
	xh := uint32(header>>44) & 0xFFF >> 2
	yh := uint32(header>>32) & 0xFFF >> 2
	tileIdx := (header >> 24) & 0x7
	xl := uint32(header>>12) & 0xFFF >> 2
	yl := uint32(header>>0) & 0xFFF >> 2
	r.clipToScissor(&xl, &yl, &xh, &yh)

	t := &r.tiles[tileIdx]
	if r.bus == nil || t.line == 0 {
		return
	}
	for y := yl; y <= yh; y++ {
		for x := xl; x <= xh; x++ {
			sOff := (x - xl) + (y-yl)*t.line
			if sOff >= tmemSize {
				continue
			}
			texel := uint32(r.tmem[sOff])
			rgba := texel<<24 | texel<<16 | texel<<8 | 0xFF
			r.writePixel(x, y, rgba)
		}
	}
}

// triangle rasterizes the edge-walked span list for one of the five
// triangle command variants. A real triangle command carries two edges: the
// "high" edge (xh/DxHDy) spans the whole yl..yh height, while the other
// boundary is split at ym into a "low" segment (xl/DxLDy, yl..ym) and a
// "mid" segment (xm/DxMDy, ym..yh) — w[1]/w[2]/w[3] each pack one edge's
// base x (top 32 bits, 16.16 fixed) and its per-scanline slope (bottom 32
// bits, 16.16 fixed). Header bit 55 (lft) says whether the high edge is the
// left or right boundary of the span. This model still fills spans with the
// flat fill color rather than running the per-pixel color combiner/blender,
// which spec.md §4.7 otherwise describes in detail.
func (r *RDP) triangle(cmd uint32, w []uint64) {
	if r.bus == nil || r.color.width == 0 {
		return
	}
	header := w[0]
	yl := int32(uint32(header>>0) & 0x3FFF >> 2)
	ym := int32(uint32(header>>16) & 0x3FFF >> 2)
	yh := int32(uint32(header>>32) & 0x3FFF >> 2)
	lft := header&(1<<55) != 0

	xl, dxlDy := int64(int32(w[1]>>32)), int64(int32(w[1]))
	xh, dxhDy := int64(int32(w[2]>>32)), int64(int32(w[2]))
	xm, dxmDy := int64(int32(w[3]>>32)), int64(int32(w[3]))

	if ym < yl {
		ym = yl
	}
	if yh < ym {
		yh = ym
	}

	for y := yl; y <= yh; y++ {
		highX := xh + dxhDy*int64(y-yl)

		var otherX int64
		if y < ym {
			otherX = xl + dxlDy*int64(y-yl)
		} else {
			otherX = xm + dxmDy*int64(y-ym)
		}

		leftFixed, rightFixed := otherX, highX
		if lft {
			leftFixed, rightFixed = highX, otherX
		}
		left := int32(leftFixed >> 16)
		right := int32(rightFixed >> 16)
		left, right = minI32(left, right), maxI32(left, right)
		if left < 0 {
			left = 0
		}

		xu, xhu, yu := uint32(left), uint32(right), uint32(y)
		if xu > xhu {
			continue
		}
		ylu := yu
		r.clipToScissor(&xu, &ylu, &xhu, &yu)
		for x := xu; x <= xhu; x++ {
			r.writePixel(x, yu, r.fillColor)
		}
	}
}

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

func (r *RDP) clipToScissor(xl, yl, xh, yh *uint32) {
	if r.scissor.xh == 0 && r.scissor.yh == 0 {
		return
	}
	if *xl < r.scissor.xl {
		*xl = r.scissor.xl
	}
	if *yl < r.scissor.yl {
		*yl = r.scissor.yl
	}
	if *xh > r.scissor.xh {
		*xh = r.scissor.xh
	}
	if *yh > r.scissor.yh {
		*yh = r.scissor.yh
	}
}

func (r *RDP) writePixel(x, y, rgba uint32) {
	if x >= r.color.width {
		return
	}
	switch r.color.size {
	case 3: // 32bpp
		off := r.color.dramAddr + (y*r.color.width+x)*4
		r.bus.RDRAM.writeBytes(off, 4, uint64(rgba))
	default: // 16bpp
		px := uint16(rgba>>16)&0xF800 | uint16(rgba>>13)&0x7C0 | uint16(rgba>>11)&0x3E | 1
		off := r.color.dramAddr + (y*r.color.width+x)*2
		r.bus.RDRAM.writeBytes(off, 2, uint64(px))
	}
}
