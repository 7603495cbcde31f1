package n64

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// AI is the audio-interface DMA engine and sample clock (spec.md §4.6 (iv)
// "AI sample tick at its configured rate"). It owns a small ring of two DMA
// buffers (real hardware double-buffers so software can queue the next
// block before the current one drains) and republishes the DAC output
// through Samples() for a presentation layer, optionally mixing down to a
// WAV file the way the teacher's APU recording path does.
type AI struct {
	dramAddr [2]uint32
	length   [2]uint32
	queued   int // 0, 1, or 2 buffers queued

	dacRate    uint32
	bitRate    uint32
	cyclesPerSample float64
	cycleAccum float64

	samples chan float32

	recorder  *wav.Encoder
	recording bool
	recFile   *os.File

	mi  *MI
	bus *Bus
}

const (
	aiCPUFreq = 93750000.0 // VR4300 reference clock AI derives its DAC rate from
)

func newAI(mi *MI) *AI {
	return &AI{mi: mi, samples: make(chan float32, 1<<14), cyclesPerSample: aiCPUFreq / 44100}
}

func (a *AI) Samples() <-chan float32 { return a.samples }

// StartRecording mixes every subsequently-produced sample down to a 16-bit
// mono WAV file, mirroring nes/apu.go's mixer.startRecording.
func (a *AI) StartRecording(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("ai: start recording: %w", err)
	}
	enc := wav.NewEncoder(f, 44100, 16, 1, 1)
	a.recFile = f
	a.recorder = enc
	a.recording = true
	return nil
}

func (a *AI) StopRecording() error {
	if !a.recording {
		return nil
	}
	a.recording = false
	err := a.recorder.Close()
	a.recFile.Close()
	a.recorder = nil
	a.recFile = nil
	return err
}

func (a *AI) pushSample(v float32) {
	select {
	case a.samples <- v:
	default:
	}
	if a.recording && a.recorder != nil {
		buf := &audio.IntBuffer{
			Format: &audio.Format{NumChannels: 1, SampleRate: 44100},
			Data:   []int{int(v * 32767)},
		}
		a.recorder.Write(buf)
	}
}

const (
	aiDramAddrOffset = 0x00
	aiLenOffset      = 0x04
	aiControlOffset  = 0x08
	aiStatusOffset   = 0x0C
	aiDacrateOffset  = 0x10
	aiBitrateOffset  = 0x14
)

func aiRegRead(b *Bus, addr uint32, width int) uint64 {
	ai := b.AI
	switch addr & 0xFF {
	case aiStatusOffset:
		status := uint32(0)
		if ai.queued > 0 {
			status |= 1 << 30 // DMA busy
		}
		if ai.queued >= 2 {
			status |= 1 << 31 // FIFO full
		}
		return uint64(status)
	case aiDacrateOffset:
		return uint64(ai.dacRate)
	case aiBitrateOffset:
		return uint64(ai.bitRate)
	default:
		return 0
	}
}

func aiRegWrite(b *Bus, addr uint32, width int, value uint64) {
	ai := b.AI
	v := uint32(value)
	switch addr & 0xFF {
	case aiDramAddrOffset:
		if ai.queued < 2 {
			ai.dramAddr[ai.queued] = v & 0x00FFFFF8
		}
	case aiLenOffset:
		if ai.queued < 2 {
			ai.length[ai.queued] = v & 0x3FFF8
			ai.queued++
			ai.bus = b
		}
	case aiStatusOffset:
		ai.mi.clear(miIntrAI)
	case aiDacrateOffset:
		ai.dacRate = v & 0x3FFF
		ai.cyclesPerSample = aiCPUFreq / (float64(ai.dacRate) + 1)
	case aiBitrateOffset:
		ai.bitRate = v & 0xF
	}
}

// Tick advances the sample clock by one VR4300 cycle, per spec.md §4.6's
// "AI sample tick at its configured rate". When enough cycles have elapsed
// for one stereo sample, it is pulled from the active DMA buffer (silence
// if none is queued) and published.
func (a *AI) Tick() {
	a.cycleAccum++
	if a.cycleAccum < a.cyclesPerSample {
		return
	}
	a.cycleAccum -= a.cyclesPerSample

	if a.queued == 0 {
		a.pushSample(0)
		return
	}

	if a.length[0] >= 4 {
		lo := a.bus.RDRAM.readBytes(a.dramAddr[0], 4)
		sampleL := int16(lo >> 16)
		a.pushSample(float32(sampleL) / 32768)
		a.dramAddr[0] += 4
		a.length[0] -= 4
	}

	if a.length[0] < 4 {
		a.queued--
		a.dramAddr[0] = a.dramAddr[1]
		a.length[0] = a.length[1]
		a.length[1] = 0
		if a.mi != nil {
			a.mi.raise(miIntrAI)
		}
	}
}
