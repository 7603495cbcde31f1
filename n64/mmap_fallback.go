//go:build !linux && !darwin

package n64

import "os"

func mapROM(f *os.File, size int) (*romBacking, error) {
	return mapROMFallback(f, size)
}

func lockSaveFile(f *os.File) (func(), error) {
	return func() {}, nil
}
