//go:build windows

package serve

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/windows"
)

// GetExitCodeProcess reports this pseudo exit code while the process runs.
const stillActive = 259

// acquireFileLockTimeout locks the first byte of the .academy port file
// exclusively, retrying with backoff until the timeout. Windows has no
// flock; LockFileEx over a one-byte range gives the same mutual exclusion
// the unix build gets from flock.
func acquireFileLockTimeout(f *os.File, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	const maxBackoff = 50 * time.Millisecond
	backoff := 5 * time.Millisecond

	for {
		ol := new(windows.Overlapped)
		flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
		if windows.LockFileEx(windows.Handle(f.Fd()), flags, 0, 1, 0, ol) == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout after %v waiting for port file lock", timeout)
		}

		time.Sleep(backoff)
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// releaseFileLock unlocks the byte range taken by acquireFileLockTimeout.
func releaseFileLock(f *os.File) {
	if f == nil {
		return
	}
	ol := new(windows.Overlapped)
	windows.UnlockFileEx(windows.Handle(f.Fd()), 0, 1, 0, ol)
}

// isProcessAlive reports whether the pid recorded in the port file still
// belongs to a running process, so a stale entry from a crashed server
// can be reclaimed.
func isProcessAlive(pid int) bool {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return false
	}
	defer windows.CloseHandle(h)

	var code uint32
	if err := windows.GetExitCodeProcess(h, &code); err != nil {
		return false
	}
	return code == stillActive
}
