//go:build !windows

package backend

import (
	"os"

	"golang.org/x/sys/unix"
)

// acquireLock takes an exclusive advisory lock on path, blocking until the
// holder releases it. The lock file itself is left in place; only the flock
// is released.
func acquireLock(path string) (release func(), err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, nil
}
