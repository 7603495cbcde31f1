package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/flga/n64/cmd/internal/meter"
	"github.com/flga/n64/internal/exitcode"
	"github.com/flga/n64/n64"

	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	runtime.LockOSThread()
}

// controllerSpec accumulates repeated --controller N=type[:mempak] flags.
type controllerSpec struct {
	index int
	kind  n64.DeviceKind
	pak   string
}

type controllerFlags []controllerSpec

func (f *controllerFlags) String() string { return "" }

func (f *controllerFlags) Set(v string) error {
	idxPart, rest, ok := strings.Cut(v, "=")
	if !ok {
		return fmt.Errorf("--controller: expected N=type[:pak], got %q", v)
	}
	idx, err := strconv.Atoi(idxPart)
	if err != nil {
		return fmt.Errorf("--controller: bad index %q: %w", idxPart, err)
	}
	kindPart, pakPart, _ := strings.Cut(rest, ":")
	var kind n64.DeviceKind
	switch kindPart {
	case "none":
		kind = n64.DeviceNone
	case "standard":
		kind = n64.DeviceStandard
	case "mouse":
		kind = n64.DeviceMouse
	default:
		return fmt.Errorf("--controller: unknown type %q", kindPart)
	}
	*f = append(*f, controllerSpec{index: idx, kind: kind, pak: pakPart})
	return nil
}

var keymap = map[sdl.Keycode]n64.Button{
	sdl.K_UP:           n64.ButtonDUp,
	sdl.K_DOWN:         n64.ButtonDDown,
	sdl.K_LEFT:         n64.ButtonDLeft,
	sdl.K_RIGHT:        n64.ButtonDRight,
	sdl.K_RETURN:       n64.ButtonStart,
	sdl.K_a:            n64.ButtonA,
	sdl.K_s:            n64.ButtonB,
	sdl.K_z:            n64.ButtonZ,
	sdl.K_w:            n64.ButtonCUp,
	sdl.K_x:            n64.ButtonCDown,
	sdl.K_q:            n64.ButtonCLeft,
	sdl.K_e:            n64.ButtonCRight,
	sdl.K_LEFTBRACKET:  n64.ButtonL,
	sdl.K_RIGHTBRACKET: n64.ButtonR,
}

func buildCart(pifromPath, cartPath, ddIPL, ddROM, eepromPath, sramPath, flashPath string, strictPIF bool, log n64.LogSink) (*n64.Cart, error) {
	cart, err := n64.LoadCart(cartPath)
	if err != nil {
		return nil, exitcode.Wrap(exitcode.CartLoad, "load cart", err)
	}
	if err := cart.LoadPIFROM(pifromPath, strictPIF, log); err != nil {
		return nil, exitcode.Wrap(exitcode.PIFROMLoad, "load pifrom", err)
	}
	if ddIPL != "" || ddROM != "" {
		if err := cart.AttachDD(ddIPL, ddROM); err != nil {
			return nil, exitcode.Wrap(exitcode.CartLoad, "attach 64dd", err)
		}
	}

	var sram, flash, eeprom *n64.SaveFile
	if sramPath != "" {
		sram, err = n64.OpenSRAM(sramPath)
		if err != nil {
			return nil, exitcode.Wrap(exitcode.SaveLoad, "open sram", err)
		}
	}
	if flashPath != "" {
		flash, err = n64.OpenFlashRAM(flashPath)
		if err != nil {
			return nil, exitcode.Wrap(exitcode.SaveLoad, "open flashram", err)
		}
	}
	if eepromPath != "" {
		eeprom, err = n64.OpenEEPROM(eepromPath, false)
		if err != nil {
			return nil, exitcode.Wrap(exitcode.SaveLoad, "open eeprom", err)
		}
	}
	var mempaks [4]*n64.SaveFile
	cart.AttachSave(sram, flash, eeprom, mempaks)

	return cart, nil
}

func run() error {
	ddipl := flag.String("ddipl", "", "64DD IPL ROM path")
	ddrom := flag.String("ddrom", "", "64DD disk image path")
	eeprom := flag.String("eeprom", "", "EEPROM save file path")
	sram := flag.String("sram", "", "SRAM save file path")
	flashram := flag.String("flashram", "", "FlashRAM save file path")
	noAudio := flag.Bool("no-audio", false, "disable audio output")
	noVideo := flag.Bool("no-video", false, "disable video output (headless)")
	multithread := flag.Bool("multithread", false, "accepted for compatibility; the emulation thread always runs separately from presentation per spec.md §5")
	logPath := flag.String("log", "", "write a CSV diagnostic log to this path")
	strictPIF := flag.Bool("strict-pifrom", false, "fail startup on a PIF ROM checksum mismatch instead of warning")

	var controllers controllerFlags
	flag.Var(&controllers, "controller", "N=type[:mempakPath], type is none|standard|mouse")

	flag.Parse()
	_ = multithread

	if flag.NArg() < 2 {
		return exitcode.Wrap(exitcode.BadArgs, "args", fmt.Errorf("usage: n64 [flags] pifrom_path cart_path"))
	}
	pifromPath := flag.Arg(0)
	cartPath := flag.Arg(1)

	var log n64.LogSink
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			return exitcode.Wrap(exitcode.BadArgs, "open log", err)
		}
		log = n64.NewCSVSink(f)
	}

	dev := n64.NewDevice(log)
	defer dev.Close()

	cart, err := buildCart(pifromPath, cartPath, *ddipl, *ddrom, *eeprom, *sram, *flashram, *strictPIF, log)
	if err != nil {
		return err
	}

	for _, c := range controllers {
		var pak *n64.SaveFile
		if c.pak != "" {
			pak, err = n64.OpenControllerPak(c.pak)
			if err != nil {
				return exitcode.Wrap(exitcode.SaveLoad, "open controller pak", err)
			}
		}
		dev.ConfigureController(c.index, c.kind, pak != nil)
	}

	dev.Load(cart)

	if log != nil {
		id, region, desc, hi, lo := cart.Header()
		log.Emit(n64.RomRecord(id, region, desc, hi, lo))
	}

	stepper := n64.NewStepper(dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigch
		cancel()
	}()

	var audio *audioEngine
	if !*noAudio {
		audio = &audioEngine{audioChan: dev.AudioChannel()}
		if err := audio.init(true); err != nil {
			return exitcode.Wrap(exitcode.DeviceInit, "init audio", err)
		}
		defer audio.quit()
		if err := audio.play(); err != nil {
			return exitcode.Wrap(exitcode.DeviceInit, "start audio", err)
		}
	}

	go stepper.Run()
	defer stepper.Stop()

	if *noVideo {
		<-ctx.Done()
		return nil
	}

	return runPresentation(ctx, dev)
}

func runPresentation(ctx context.Context, dev *n64.Device) error {
	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		return exitcode.Wrap(exitcode.DeviceInit, "init sdl", fmt.Errorf("%s", sdl.GetError()))
	}
	defer sdl.Quit()

	const zoom = 2
	window, err := sdl.CreateWindow("n64", sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		320*zoom, 240*zoom, sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		return exitcode.Wrap(exitcode.DeviceInit, "create window", err)
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		return exitcode.Wrap(exitcode.DeviceInit, "create renderer", err)
	}
	defer renderer.Destroy()

	var texture *sdl.Texture
	var texW, texH int32

	fpsMeter := meter.New(30)
	lastTick := time.Now()
	nextTitleUpdate := lastTick

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		now := time.Now()
		fpsMeter.Record(now.Sub(lastTick))
		lastTick = now
		if now.After(nextTitleUpdate) {
			window.SetTitle(fmt.Sprintf("n64 - %d fps", fpsMeter.Tps()))
			nextTitleUpdate = now.Add(500 * time.Millisecond)
		}

		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch evt := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				b, ok := keymap[evt.Keysym.Sym]
				if !ok {
					continue
				}
				if evt.Type == sdl.KEYDOWN {
					dev.Press(0, b)
				} else if evt.Type == sdl.KEYUP {
					dev.Release(0, b)
				}
			}
		}

		if frame, ready := dev.Frame(); ready {
			w, h := int32(frame.Bounds().Dx()), int32(frame.Bounds().Dy())
			if texture == nil || w != texW || h != texH {
				if texture != nil {
					texture.Destroy()
				}
				texture, err = renderer.CreateTexture(sdl.PIXELFORMAT_ABGR8888, sdl.TEXTUREACCESS_STREAMING, w, h)
				if err != nil {
					return exitcode.Wrap(exitcode.Runtime, "create texture", err)
				}
				texW, texH = w, h
			}
			texture.Update(nil, frame.Pix, frame.Stride)
		}

		if texture != nil {
			renderer.Clear()
			renderer.Copy(texture, nil, nil)
			renderer.Present()
		}

		sdl.Delay(1)
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(int(exitcode.Of(err)))
	}
}
