package main

import (
	"fmt"

	"github.com/flga/n64/cmd/internal/errors"
	"github.com/gordonklaus/portaudio"
)

// audioEngine plays the AI's sample stream through the host's default audio
// device, the same portaudio-backed shape as the teacher's cmd/vnes
// audioEngine, generalized from the NES APU's 44.1kHz mono channel to the
// AI's channel that the Device.AudioChannel exposes.
type audioEngine struct {
	audioChan <-chan float32

	streamParams portaudio.StreamParameters
	stream       *portaudio.Stream
}

func (a *audioEngine) init(lowLatency bool) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("audioEngine.init: unable to initialize portaudio: %s", err)
	}

	host, err := portaudio.DefaultHostApi()
	if err != nil {
		return fmt.Errorf("audioEngine.init: unable to get default host api: %s", err)
	}

	if lowLatency {
		a.streamParams = portaudio.LowLatencyParameters(nil, host.DefaultOutputDevice)
	} else {
		a.streamParams = portaudio.HighLatencyParameters(nil, host.DefaultOutputDevice)
	}
	a.streamParams.FramesPerBuffer = 512

	stream, err := portaudio.OpenStream(a.streamParams, a.audioCallback)
	if err != nil {
		return fmt.Errorf("audioEngine.init: unable to open stream: %s", err)
	}
	a.stream = stream

	return nil
}

func (a *audioEngine) audioCallback(out []float32) {
	channels := a.streamParams.Output.Channels

	for i := 0; i < len(out); i += channels {
		var f float32
		select {
		case f = <-a.audioChan:
		default:
		}
		for c := 0; c < channels; c++ {
			out[i+c] = f
		}
	}
}

func (a *audioEngine) play() error {
	if err := a.stream.Start(); err != nil {
		return fmt.Errorf("audioEngine.play: unable to start stream: %s", err)
	}
	return nil
}

func (a *audioEngine) quit() error {
	err := errors.NewList(
		a.stream.Stop(),
		a.stream.Close(),
		portaudio.Terminate(),
	)
	if err != nil {
		return fmt.Errorf("audioEngine.quit: %s", err)
	}
	return nil
}
