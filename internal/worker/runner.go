package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"runtime/debug"
	"strconv"
	"syscall"

	"golang.org/x/sys/unix"

	"daemonizer/internal/logging"
	"daemonizer/internal/task"
)

// ErrFork reports that a child process could not be created.
var ErrFork = errors.New("fork failure")

// Launcher starts the child for a background slot and returns its PID.
type Launcher interface {
	Launch(slot int) (int, error)
}

// LauncherFunc adapts a function to Launcher.
type LauncherFunc func(slot int) (int, error)

// Launch calls f(slot).
func (f LauncherFunc) Launch(slot int) (int, error) { return f(slot) }

// ExecLauncher re-invokes an executable with worker markers set.
type ExecLauncher struct {
	// Path defaults to the running executable.
	Path string
	Args []string
	// Env defaults to the current environment.
	Env       []string
	SessionID string
	// TaskName names the task registered at a slot. The name travels with
	// the slot so a worker can confirm it runs what the daemon scheduled.
	TaskName func(slot int) string
}

// Launch starts the worker for slot. The process handle is released
// immediately; the caller tracks the child by PID only.
func (l ExecLauncher) Launch(slot int) (int, error) {
	path := l.Path
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			return 0, fmt.Errorf("%w: resolve executable: %v", ErrFork, err)
		}
		path = exe
	}
	base := l.Env
	if base == nil {
		base = os.Environ()
	}

	markers := []string{
		EnvRole, RoleWorker,
		EnvSlot, strconv.Itoa(slot),
		EnvSession, l.SessionID,
	}
	if l.TaskName != nil {
		markers = append(markers, EnvTask, l.TaskName(slot))
	}

	cmd := exec.Command(path, l.Args...)
	cmd.Env = ChildEnv(base, markers...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w: start worker for slot %d: %v", ErrFork, slot, err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()
	return pid, nil
}

// Reaper reports whether pid has terminated, collecting it if so.
type Reaper func(pid int) (bool, error)

// Exited is the default Reaper: a non-blocking wait4. A PID that is not our
// child (ECHILD) counts as exited.
func Exited(pid int) (bool, error) {
	if pid <= 0 {
		return true, nil
	}
	var status unix.WaitStatus
	for {
		got, err := unix.Wait4(pid, &status, unix.WNOHANG, nil)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			return true, nil
		case err != nil:
			return false, fmt.Errorf("wait4 %d: %w", pid, err)
		}
		return got == pid, nil
	}
}

// Sender delivers a signal to a process.
type Sender func(pid int, sig syscall.Signal) error

// Runner enforces at most one live child per background slot.
type Runner struct {
	launcher Launcher
	reap     Reaper
	send     Sender
	log      *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithReaper replaces the wait4-based exit check.
func WithReaper(reap Reaper) RunnerOption {
	return func(r *Runner) {
		if reap != nil {
			r.reap = reap
		}
	}
}

// WithSender replaces kill(2) for signal delivery.
func WithSender(send Sender) RunnerOption {
	return func(r *Runner) {
		if send != nil {
			r.send = send
		}
	}
}

// NewRunner returns a Runner that starts children through launcher.
func NewRunner(launcher Launcher, logger *slog.Logger, opts ...RunnerOption) *Runner {
	r := &Runner{
		launcher: launcher,
		reap:     Exited,
		send:     unix.Kill,
		log:      logging.NewComponentLogger(logger, "worker"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LaunchIfIdle launches a child for slot unless priorPID is still alive, in
// which case priorPID is returned and nothing is launched.
func (r *Runner) LaunchIfIdle(slot, priorPID int) (int, error) {
	if priorPID != 0 && !r.Exited(priorPID) {
		r.log.Debug("background task still running",
			logging.Int(logging.FieldSlot, slot),
			logging.Int(logging.FieldPID, priorPID),
		)
		return priorPID, nil
	}
	if r.launcher == nil {
		return 0, fmt.Errorf("%w: no launcher configured", ErrFork)
	}
	pid, err := r.launcher.Launch(slot)
	if err != nil {
		if !errors.Is(err, ErrFork) {
			err = fmt.Errorf("%w: %v", ErrFork, err)
		}
		return 0, err
	}
	r.log.Debug("background task launched",
		logging.Int(logging.FieldSlot, slot),
		logging.Int(logging.FieldPID, pid),
	)
	return pid, nil
}

// Exited reports whether pid has terminated. A reap error is logged and the
// child is assumed alive so a second one is never started alongside it.
func (r *Runner) Exited(pid int) bool {
	exited, err := r.reap(pid)
	if err != nil {
		logging.WarnWithContext(r.log, "child status check failed", "child_reap_failed",
			logging.Int(logging.FieldPID, pid),
			logging.Error(err),
			logging.String(logging.FieldImpact, "background task skipped this iteration"),
		)
		return false
	}
	return exited
}

// Signal sends sig to pid. Non-positive PIDs are ignored so a cleared slot can
// never address a process group.
func (r *Runner) Signal(pid int, sig os.Signal) error {
	if pid <= 0 {
		return nil
	}
	num, ok := sig.(syscall.Signal)
	if !ok {
		return fmt.Errorf("signal %v is not a POSIX signal", sig)
	}
	if err := r.send(pid, num); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return nil
		}
		return fmt.Errorf("signal %d with %s: %w", pid, sig, err)
	}
	return nil
}

// RunChild executes the main phase of t inside a worker process and returns
// the process exit code: 0 on success, 1 on error or panic.
func RunChild(ctx context.Context, t *task.Task, logger *slog.Logger) (code int) {
	logger = logging.NewComponentLogger(logger, "worker")
	if t == nil {
		logger.Error("no task for worker slot")
		return 1
	}
	logger = logger.With(logging.String(logging.FieldTask, t.Name()))
	defer func() {
		if rec := recover(); rec != nil {
			logging.ErrorWithContext(logger, "background task panicked", "task_panic",
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())),
			)
			code = 1
		}
	}()
	if err := t.RunMain(ctx); err != nil {
		logging.ErrorWithContext(logger, "background task failed", "task_failed", logging.Error(err))
		return 1
	}
	return 0
}
