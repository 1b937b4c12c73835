package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"daemonizer/internal/lockfile"
)

// ErrDaemonNotRunning indicates no live process holds the lock file.
var ErrDaemonNotRunning = errors.New("daemon not running")

const pollInterval = 100 * time.Millisecond

// Status describes what the lock file says about the daemon.
type Status struct {
	LockPath string
	Running  bool
	PID      int
	// Stale is set when the file names a PID but nobody holds the lock.
	Stale bool
}

// Inspect probes the lock file at lockPath.
func Inspect(lockPath string) (Status, error) {
	info, err := lockfile.Probe(lockPath)
	if err != nil {
		return Status{LockPath: lockPath}, err
	}
	return Status{
		LockPath: lockPath,
		Running:  info.Held,
		PID:      info.PID,
		Stale:    info.Exists && !info.Held && info.PID > 0,
	}, nil
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// Stop sends SIGTERM to the daemon named by the lock file and waits up to
// grace for the lock to be released. When force is set and the daemon is
// still alive after grace, it is killed.
func Stop(lockPath string, grace time.Duration, force bool) (StopResult, error) {
	status, err := Inspect(lockPath)
	if err != nil {
		return StopResult{}, err
	}
	if !status.Running {
		return StopResult{}, ErrDaemonNotRunning
	}
	if status.PID <= 0 {
		return StopResult{}, fmt.Errorf("lock file %s does not name a daemon pid", lockPath)
	}
	result := StopResult{PID: status.PID}

	if err := signalProcess(status.PID, unix.SIGTERM); err != nil {
		return result, err
	}
	if err := WaitForRelease(lockPath, grace); err == nil {
		return result, nil
	} else if !force {
		return result, err
	}

	if err := ForceKillProcess(status.PID); err != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", err)
	}
	result.ForcedKill = true
	if err := WaitForRelease(lockPath, grace); err != nil {
		return result, err
	}
	return result, nil
}

// WaitForRelease polls until nobody holds the lock at lockPath.
func WaitForRelease(lockPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		info, err := lockfile.Probe(lockPath)
		if err != nil {
			return err
		}
		if !info.Held {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("daemon did not stop within %s", timeout)
		}
		time.Sleep(pollInterval)
	}
}

// ForceKillProcess sends SIGKILL to pid.
func ForceKillProcess(pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid daemon pid %d", pid)
	}
	return signalProcess(pid, unix.SIGKILL)
}

// Alive reports whether a process with pid exists.
func Alive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

func signalProcess(pid int, sig syscall.Signal) error {
	if pid == os.Getpid() {
		return fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	if err := unix.Kill(pid, sig); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	return nil
}
