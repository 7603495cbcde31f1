// Package exitcode maps host-level initialization failures to the process
// exit codes described in spec.md §6.
package exitcode

import (
	"errors"
	"fmt"
)

// Code distinguishes the phase that failed during host-level initialization.
// Guest-level failures (bus errors, TLB refills, ...) never reach this far;
// they stay inside the VR4300 exception dispatcher.
type Code int

const (
	OK Code = iota
	BadArgs
	PIFROMLoad
	CartLoad
	SaveLoad
	DeviceInit
	Runtime
)

// Phase wraps err so the caller can recover the failing Code with As.
type Phase struct {
	Code Code
	Op   string
	Err  error
}

func (p *Phase) Error() string {
	return fmt.Sprintf("%s: %s", p.Op, p.Err)
}

func (p *Phase) Unwrap() error { return p.Err }

func Wrap(code Code, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Phase{Code: code, Op: op, Err: err}
}

// Of extracts the Code carried by err, defaulting to Runtime for plain errors
// that never went through Wrap.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	var p *Phase
	if errors.As(err, &p) {
		return p.Code
	}
	return Runtime
}
