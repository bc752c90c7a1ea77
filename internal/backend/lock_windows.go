//go:build windows

package backend

import (
	"os"
	"time"
)

// acquireLock emulates an exclusive lock with an O_EXCL lock file, polling
// until the holder removes it.
func acquireLock(path string) (release func(), err error) {
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return func() { _ = os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, err
		}
		time.Sleep(100 * time.Millisecond)
	}
}
