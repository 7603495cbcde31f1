//go:build linux || darwin

package n64

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapROM(f *os.File, size int) (*romBacking, error) {
	if size == 0 {
		return &romBacking{}, nil
	}

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return mapROMFallback(f, size)
	}

	return &romBacking{
		data:   data,
		closer: func() error { return unix.Munmap(data) },
	}, nil
}

// lockSaveFile holds an advisory lock on a save-media file for the process
// lifetime, so two Device instances never corrupt the same backing (spec.md
// §3 "Save files"). The lock is released when the returned func is called.
func lockSaveFile(f *os.File) (func(), error) {
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return nil, err
	}
	return func() { unix.Flock(int(f.Fd()), unix.LOCK_UN) }, nil
}
