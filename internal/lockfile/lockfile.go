// Package lockfile provides the daemon's single-instance guarantee: an
// exclusive advisory lock on a file whose content is the owner's PID.
package lockfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

var (
	// ErrUnavailable is returned when another live process holds the lock.
	ErrUnavailable = errors.New("lock file held by another process")

	// ErrInvalidPID is returned when the lock file content is not a positive PID.
	ErrInvalidPID = errors.New("invalid PID in lock file")
)

// Handle is a held lock. Only the process that acquired it may release it.
type Handle struct {
	path string
	pid  int
	lock *flock.Flock
}

// Acquire takes the exclusive lock at path without blocking and replaces the
// file content with pid. Stale content left by a dead process does not
// prevent acquisition; only a live conflicting hold does.
func Acquire(path string, pid int) (*Handle, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("lock file path is empty")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create lock directory %q: %w", dir, err)
		}
	}

	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("lock %s: %w", path, ErrUnavailable)
	}

	if err := writePID(path, pid); err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	return &Handle{path: path, pid: pid, lock: lock}, nil
}

func writePID(path string, pid int) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return fmt.Errorf("open lock file for write: %w", err)
	}
	if _, err := file.WriteString(strconv.Itoa(pid)); err != nil {
		file.Close()
		return fmt.Errorf("write pid to lock file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		return fmt.Errorf("sync lock file: %w", err)
	}
	return file.Close()
}

// Path returns the lock file location.
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// PID returns the PID written at acquisition.
func (h *Handle) PID() int {
	if h == nil {
		return 0
	}
	return h.pid
}

// Release drops the lock. The file and its content are left in place.
func (h *Handle) Release() error {
	if h == nil || h.lock == nil {
		return nil
	}
	err := h.lock.Unlock()
	h.lock = nil
	if err != nil {
		return fmt.Errorf("unlock %s: %w", h.path, err)
	}
	return nil
}

// ReadPID parses the PID stored in the lock file.
func ReadPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	raw := strings.TrimSpace(string(data))
	pid, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPID, raw)
	}
	if pid <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	return pid, nil
}

// Info describes the observed state of a lock file.
type Info struct {
	Path   string
	Exists bool
	Held   bool
	PID    int
}

// Probe reports whether some process currently holds the lock at path and
// which PID the file names. A missing file is reported as not held. See
// lockHeld for whether probing can disturb a concurrent Acquire.
func Probe(path string) (Info, error) {
	info := Info{Path: path}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return info, nil
		}
		return info, fmt.Errorf("stat lock file: %w", err)
	}
	info.Exists = true

	held, err := lockHeld(path)
	if err != nil {
		return info, fmt.Errorf("probe lock %s: %w", path, err)
	}
	info.Held = held

	if pid, err := ReadPID(path); err == nil {
		info.PID = pid
	}
	return info, nil
}

// tryLockHeld probes by taking the lock and dropping it at once. While it
// holds the lock, a concurrent Acquire fails with ErrUnavailable.
func tryLockHeld(path string) (bool, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return false, err
	}
	if ok {
		_ = lock.Unlock()
	}
	return !ok, nil
}
