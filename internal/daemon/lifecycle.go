package daemon

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"syscall"

	sddaemon "github.com/coreos/go-systemd/v22/daemon"
	"golang.org/x/sys/unix"

	"daemonizer/internal/lockfile"
	"daemonizer/internal/logging"
	"daemonizer/internal/task"
)

// serve runs init, loop, and shutdown in the current process.
func (d *Daemon) serve() error {
	if err := d.init(); err != nil {
		d.reportFailure(err)
		logging.ErrorWithContext(d.log, "daemon startup failed", "daemon_start_failed", logging.Error(err))
		d.state.Store(int32(StateTerminated))
		d.cancel()
		d.exit(1)
		return err
	}
	d.reportReady()
	d.notifyManager(sddaemon.SdNotifyReady)

	if err := d.loop(); err != nil {
		logging.ErrorWithContext(d.log, "daemon loop aborted", "daemon_loop_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "daemon stopped; background tasks signalled"),
		)
		d.terminate(1)
		return err
	}
	d.shutdown()
	return nil
}

func (d *Daemon) init() error {
	d.state.Store(int32(StateInit))
	if d.detach {
		if _, err := unix.Setsid(); err != nil {
			return fmt.Errorf("setsid: %w: %w", ErrSessionCreate, err)
		}
	}

	dir := strings.TrimSpace(d.cfg.RunningDir)
	if dir == "" {
		dir = "."
	}
	if err := unix.Access(dir, unix.X_OK); err != nil {
		return fmt.Errorf("access %s: %w: %w", dir, ErrDirectoryChange, err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("chdir: %w: %w", ErrDirectoryChange, err)
	}

	if d.detach {
		if err := redirectStdio(d.cfg.Stdin, d.cfg.Stdout, d.cfg.Stderr); err != nil {
			return err
		}
	}

	d.pid = os.Getpid()
	lock, err := lockfile.Acquire(d.cfg.LockFile, d.pid)
	if err != nil {
		return fmt.Errorf("acquire lock file: %w", err)
	}
	d.lock = lock

	if err := d.router.Install(); err != nil {
		_ = lock.Release()
		d.lock = nil
		return fmt.Errorf("install signal handlers: %w", err)
	}

	now := d.clock.Now()
	for i := range d.fgRuns {
		d.fgRuns[i].Reset(now)
	}
	for i := range d.bgRuns {
		d.bgRuns[i].Reset(now)
	}
	d.running = true
	d.state.Store(int32(StateRunning))
	d.log.Info("daemon running",
		logging.Int(logging.FieldPID, d.pid),
		logging.String("lock_file", lock.Path()),
		logging.String("running_dir", dir),
		logging.Duration("interval", d.interval()),
		logging.Int("foreground_tasks", len(d.foreground)),
		logging.Int("background_tasks", len(d.background)),
	)
	return nil
}

// loop runs iterations until a stop is requested. It returns an error only
// when a background task cannot be launched.
func (d *Daemon) loop() error {
	interval := d.interval()
	for d.running {
		started := d.clock.Now()
		if d.checkpoint() {
			return nil
		}
		if err := d.backgroundPass(); err != nil {
			return err
		}
		if d.checkpoint() {
			return nil
		}
		d.foregroundPass()
		if d.checkpoint() {
			return nil
		}
		if remaining := interval - d.clock.Now().Sub(started); remaining > 0 {
			d.sleep(remaining)
		}
		if d.checkpoint() {
			return nil
		}
	}
	return nil
}

// checkpoint dispatches queued signals and reports whether an immediate
// shutdown has already happened.
func (d *Daemon) checkpoint() bool {
	d.router.Dispatch()
	return d.terminated
}

func (d *Daemon) backgroundPass() error {
	for i, t := range d.background {
		run := &d.bgRuns[i]
		if !run.Ready(d.clock.Now(), t.Interval()) {
			continue
		}
		pid, err := d.runner.LaunchIfIdle(i, run.ChildPID)
		if err != nil {
			return fmt.Errorf("background task %s: %w", t.Name(), err)
		}
		run.ChildPID = pid
		run.MarkRun(d.clock.Now())
	}
	return nil
}

func (d *Daemon) foregroundPass() {
	for i, t := range d.foreground {
		run := &d.fgRuns[i]
		if !run.Ready(d.clock.Now(), t.Interval()) {
			continue
		}
		d.runForeground(i, t)
		run.MarkRun(d.clock.Now())
	}
}

// runForeground executes t inline. Failures are logged and the loop keeps
// going.
func (d *Daemon) runForeground(slot int, t *task.Task) {
	logger := d.log.With(
		logging.String(logging.FieldTask, t.Name()),
		logging.Int(logging.FieldSlot, slot),
		logging.String(logging.FieldKind, task.Foreground.String()),
	)
	defer func() {
		if rec := recover(); rec != nil {
			logging.ErrorWithContext(logger, "foreground task panicked", "task_panic",
				logging.Any("panic", rec),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()
	if err := t.RunMain(d.ctx); err != nil {
		logging.ErrorWithContext(logger, "foreground task failed", "task_failed", logging.Error(err))
	}
}

// propagate forwards sig to every live background child. Exited children
// are reaped and their slots cleared.
func (d *Daemon) propagate(sig os.Signal) {
	for i := range d.bgRuns {
		pid := d.bgRuns[i].ChildPID
		if pid == 0 {
			continue
		}
		if d.runner.Exited(pid) {
			d.bgRuns[i].ChildPID = 0
			continue
		}
		if err := d.runner.Signal(pid, sig); err != nil {
			logging.WarnWithContext(d.log, "signal propagation failed", "signal_propagation_failed",
				logging.Int(logging.FieldPID, pid),
				logging.String(logging.FieldSignal, sig.String()),
				logging.Error(err),
			)
		}
	}
}

func (d *Daemon) onTerminate(sig os.Signal) {
	d.log.Info("stop requested; finishing current iteration",
		logging.String(logging.FieldSignal, sig.String()),
	)
	d.running = false
}

func (d *Daemon) onInterrupt(sig os.Signal) {
	d.log.Info("interrupt received; shutting down now",
		logging.String(logging.FieldSignal, sig.String()),
	)
	d.running = false
	d.shutdown()
}

// shutdown stops the daemon with exit status 0.
func (d *Daemon) shutdown() {
	d.terminate(0)
}

// terminate runs at most once: children get SIGTERM, the lock is released,
// and the process exits with code.
func (d *Daemon) terminate(code int) {
	d.stopOnce.Do(func() {
		d.state.Store(int32(StateStopping))
		d.notifyManager(sddaemon.SdNotifyStopping)
		d.running = false
		d.propagate(syscall.SIGTERM)
		d.router.Uninstall()
		if d.lock != nil {
			if err := d.lock.Release(); err != nil {
				logging.WarnWithContext(d.log, "lock release failed", "lock_release_failed",
					logging.String("lock_file", d.lock.Path()),
					logging.Error(err),
				)
			}
		}
		d.cancel()
		d.terminated = true
		d.state.Store(int32(StateTerminated))
		d.log.Info("daemon stopped", logging.Int("exit_code", code))
		d.exit(code)
	})
}

func (d *Daemon) reportReady() {
	if d.ready == nil {
		return
	}
	if err := writeReady(d.ready, d.pid); err != nil {
		d.log.Warn("readiness report failed", logging.Error(err))
	}
	_ = d.ready.Close()
	d.ready = nil
}

func (d *Daemon) reportFailure(cause error) {
	if d.ready == nil {
		return
	}
	if err := writeFailure(d.ready, cause); err != nil {
		d.log.Warn("failure report failed", logging.Error(err))
	}
	_ = d.ready.Close()
	d.ready = nil
}
