package daemon

import (
	"errors"

	"daemonizer/internal/lockfile"
	"daemonizer/internal/signals"
	"daemonizer/internal/worker"
)

var (
	// ErrFork reports that the daemon or a worker process could not be created.
	ErrFork = worker.ErrFork

	// ErrSignalInstall reports that signal handlers could not be registered.
	ErrSignalInstall = signals.ErrSignalInstall

	// ErrDirectoryChange reports a missing or inaccessible running directory.
	ErrDirectoryChange = errors.New("directory change failure")

	// ErrSessionCreate reports that the daemon could not detach into a new session.
	ErrSessionCreate = errors.New("session create failure")

	// ErrRedirect reports that a standard stream could not be redirected.
	ErrRedirect = errors.New("stdio redirect failure")

	// ErrLockUnavailable reports that another live daemon holds the lock file.
	ErrLockUnavailable = lockfile.ErrUnavailable

	// ErrStartTimeout reports that the daemon did not confirm startup in time.
	ErrStartTimeout = errors.New("daemon start timed out")

	errNotRunning = errors.New("daemon pid unknown")
)

// failure kinds carried over the readiness pipe.
var failureKinds = []struct {
	kind string
	err  error
}{
	{"fork", ErrFork},
	{"signal", ErrSignalInstall},
	{"chdir", ErrDirectoryChange},
	{"session", ErrSessionCreate},
	{"redirect", ErrRedirect},
	{"lock", ErrLockUnavailable},
}

func failureKind(err error) string {
	for _, fk := range failureKinds {
		if errors.Is(err, fk.err) {
			return fk.kind
		}
	}
	return "other"
}

func failureError(kind string) error {
	for _, fk := range failureKinds {
		if fk.kind == kind {
			return fk.err
		}
	}
	return nil
}
