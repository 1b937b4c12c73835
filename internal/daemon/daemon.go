package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"daemonizer/internal/config"
	"daemonizer/internal/lockfile"
	"daemonizer/internal/logging"
	"daemonizer/internal/schedule"
	"daemonizer/internal/signals"
	"daemonizer/internal/task"
	"daemonizer/internal/worker"
)

const (
	defaultInterval     = time.Second
	defaultStartTimeout = 5 * time.Second
)

// Daemon supervises foreground and background tasks on fixed intervals.
// Tasks must be registered before Start or Run.
type Daemon struct {
	cfg       config.Daemon
	log       *slog.Logger
	clock     schedule.Clock
	launcher  worker.Launcher
	reaper    worker.Reaper
	sender    worker.Sender
	sleep     func(time.Duration) bool
	exit      func(code int)
	notify    func(state string) error
	role      string
	execPath  string
	args      []string
	sessionID string

	foreground []*task.Task
	fgRuns     []schedule.RunState
	background []*task.Task
	bgRuns     []schedule.RunState

	state      atomic.Int32
	pid        int
	running    bool
	terminated bool
	detach     bool
	stopOnce   sync.Once

	lock   *lockfile.Handle
	router *signals.Router
	runner *worker.Runner
	ready  *os.File
	ctx    context.Context
	cancel context.CancelFunc
}

// Option configures a Daemon.
type Option func(*Daemon)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Daemon) { d.log = logger }
}

// WithClock replaces the wall clock used for readiness and loop timing.
func WithClock(clock schedule.Clock) Option {
	return func(d *Daemon) { d.clock = clock }
}

// WithLauncher replaces the re-exec launcher used for background tasks.
func WithLauncher(launcher worker.Launcher) Option {
	return func(d *Daemon) { d.launcher = launcher }
}

// WithReaper replaces the non-blocking child exit check.
func WithReaper(reaper worker.Reaper) Option {
	return func(d *Daemon) { d.reaper = reaper }
}

// WithSender replaces kill(2) for signals sent to children and by Stop.
func WithSender(sender worker.Sender) Option {
	return func(d *Daemon) { d.sender = sender }
}

// WithSleep replaces the end-of-iteration sleep. The function reports
// whether it was cut short by a signal.
func WithSleep(sleep func(time.Duration) bool) Option {
	return func(d *Daemon) { d.sleep = sleep }
}

// WithExit replaces os.Exit.
func WithExit(exit func(code int)) Option {
	return func(d *Daemon) { d.exit = exit }
}

// WithNotifier replaces the systemd notification sent by Run.
func WithNotifier(notify func(state string) error) Option {
	return func(d *Daemon) { d.notify = notify }
}

// WithRole overrides the role read from the environment.
func WithRole(role string) Option {
	return func(d *Daemon) { d.role = role }
}

// WithExecutable sets the binary re-invoked for the daemon and its workers.
// It defaults to the running executable.
func WithExecutable(path string) Option {
	return func(d *Daemon) { d.execPath = path }
}

// WithArgs sets the arguments passed to re-invoked processes. They must lead
// back to the same task registration and a call to Start (or Run for workers).
func WithArgs(args ...string) Option {
	return func(d *Daemon) { d.args = append([]string(nil), args...) }
}

// WithSessionID sets the session shared by the daemon and its workers.
func WithSessionID(id string) Option {
	return func(d *Daemon) { d.sessionID = id }
}

// New returns a daemon for cfg. The configuration is copied.
func New(cfg config.Daemon, opts ...Option) *Daemon {
	d := &Daemon{
		cfg:    cfg,
		clock:  schedule.SystemClock{},
		exit:   os.Exit,
		notify: sdNotify,
		role:   worker.Role(),
		args:   os.Args[1:],
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.sessionID == "" {
		d.sessionID = worker.SessionID()
	}
	if d.sessionID == "" {
		d.sessionID = uuid.NewString()
	}
	d.log = logging.NewComponentLogger(d.log, "daemon")
	if d.launcher == nil {
		d.launcher = worker.ExecLauncher{
			Path:      d.execPath,
			Args:      d.args,
			SessionID: d.sessionID,
			TaskName:  d.backgroundName,
		}
	}
	if d.sender == nil {
		d.sender = unix.Kill
	}
	d.runner = worker.NewRunner(d.launcher, d.log, worker.WithReaper(d.reaper), worker.WithSender(d.sender))

	d.router = signals.NewRouter(signals.PropagatorFunc(d.propagate), d.log)
	d.router.Handle(syscall.SIGHUP, d.onTerminate)
	d.router.Handle(syscall.SIGTERM, d.onTerminate)
	d.router.Handle(syscall.SIGINT, d.onInterrupt)
	if d.sleep == nil {
		d.sleep = d.router.Sleep
	}
	d.ctx, d.cancel = context.WithCancel(context.Background())
	return d
}

// Task registers a foreground task and returns it for configuration.
func (d *Daemon) Task() *task.Task {
	t := task.New()
	d.foreground = append(d.foreground, t)
	d.fgRuns = append(d.fgRuns, schedule.RunState{})
	return t
}

// BackgroundTask registers a background task and returns it for
// configuration. Its slot is its registration order.
func (d *Daemon) BackgroundTask() *task.Task {
	t := task.New()
	d.background = append(d.background, t)
	d.bgRuns = append(d.bgRuns, schedule.RunState{})
	return t
}

// Start launches the daemon and returns its PID once it reports readiness.
//
// The calling process remains the daemon's parent and reaps it in the
// background once it exits.
//
// In a re-invoked daemon process Start runs the supervisor and does not
// return unless the exit function does; in a worker process it runs one
// background task and exits.
func (d *Daemon) Start() (int, error) {
	if err := d.validateTasks(); err != nil {
		return 0, err
	}
	switch d.role {
	case worker.RoleDaemon:
		d.ready = openReadyPipe()
		d.detach = true
		return 0, d.serve()
	case worker.RoleWorker:
		return 0, d.runWorker()
	}
	return d.launch()
}

// Run supervises in the calling process: no detach, no stdio redirection.
// It suits service managers that track the process themselves.
func (d *Daemon) Run() error {
	if err := d.validateTasks(); err != nil {
		return err
	}
	if d.role == worker.RoleWorker {
		return d.runWorker()
	}
	if !d.state.CompareAndSwap(int32(StateNew), int32(StateStarting)) {
		return errors.New("daemon already started")
	}
	return d.serve()
}

// Stop asks the daemon to shut down gracefully and does not wait. Without a
// PID from Start, the PID is read from the lock file, and only while some
// process holds the lock: a stale PID may belong to an unrelated process.
func (d *Daemon) Stop() error {
	pid := d.pid
	if pid <= 0 {
		info, err := lockfile.Probe(d.cfg.LockFile)
		if err != nil {
			return fmt.Errorf("%w: %w", errNotRunning, err)
		}
		if !info.Held {
			return fmt.Errorf("%w: lock file %s is not held", errNotRunning, d.cfg.LockFile)
		}
		if info.PID <= 0 {
			return fmt.Errorf("%w: lock file %s names no pid", errNotRunning, d.cfg.LockFile)
		}
		pid = info.PID
	}
	if err := d.sender(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("signal daemon %d: %w", pid, err)
	}
	return nil
}

// PID returns the daemon's PID once known.
func (d *Daemon) PID() int { return d.pid }

// State returns the current lifecycle state.
func (d *Daemon) State() State { return State(d.state.Load()) }

// SessionID returns the session shared with workers.
func (d *Daemon) SessionID() string { return d.sessionID }

func (d *Daemon) validateTasks() error {
	for _, group := range [][]*task.Task{d.foreground, d.background} {
		for _, t := range group {
			if !t.HasMain() {
				return fmt.Errorf("register task %s: main: %w", t.Name(), task.ErrUnconfiguredPhase)
			}
		}
	}
	return nil
}

// launch re-invokes the executable as the daemon and waits for its report.
func (d *Daemon) launch() (int, error) {
	if !d.state.CompareAndSwap(int32(StateNew), int32(StateStarting)) {
		return 0, errors.New("daemon already started")
	}
	path := d.execPath
	if path == "" {
		exe, err := os.Executable()
		if err != nil {
			d.state.Store(int32(StateTerminated))
			return 0, fmt.Errorf("resolve executable: %w: %w", ErrFork, err)
		}
		path = exe
	}
	r, w, err := os.Pipe()
	if err != nil {
		d.state.Store(int32(StateTerminated))
		return 0, fmt.Errorf("create readiness pipe: %w: %w", ErrFork, err)
	}
	defer r.Close()

	cmd := exec.Command(path, d.args...)
	cmd.Env = worker.ChildEnv(os.Environ(),
		worker.EnvRole, worker.RoleDaemon,
		worker.EnvSession, d.sessionID,
		worker.EnvReady, strconv.Itoa(readyFD),
	)
	cmd.ExtraFiles = []*os.File{w}
	err = cmd.Start()
	_ = w.Close()
	if err != nil {
		d.state.Store(int32(StateTerminated))
		return 0, fmt.Errorf("start daemon: %w: %w", ErrFork, err)
	}

	if _, err := readReady(r, d.startTimeout()); err != nil {
		if errors.Is(err, ErrStartTimeout) {
			_ = cmd.Process.Kill()
		}
		_ = cmd.Wait()
		d.state.Store(int32(StateTerminated))
		return 0, err
	}
	d.pid = cmd.Process.Pid
	// The daemon stays our child after setsid; reap it on exit so a
	// long-lived caller is not left holding a zombie.
	go func() { _ = cmd.Wait() }()
	d.state.Store(int32(StateRunning))
	d.log.Info("daemon started",
		logging.Int(logging.FieldPID, d.pid),
		logging.String("lock_file", d.cfg.LockFile),
	)
	return d.pid, nil
}

func (d *Daemon) runWorker() error {
	t, slot, err := d.workerTask()
	if err != nil {
		logging.ErrorWithContext(d.log, "worker start failed", "worker_start_failed", logging.Error(err))
		d.exit(1)
		return err
	}
	logger := d.log.With(
		logging.Int(logging.FieldSlot, slot),
		logging.String(logging.FieldTask, t.Name()),
	)
	code := worker.RunChild(d.ctx, t, logger)
	d.exit(code)
	return nil
}

// workerTask returns the background task the daemon scheduled for this
// worker. The worker rebuilds its registration independently, so a slot whose
// name differs from the one the daemon recorded is resolved by name instead.
func (d *Daemon) workerTask() (*task.Task, int, error) {
	slot, err := worker.Slot()
	if err != nil {
		return nil, 0, err
	}
	name := worker.TaskName()
	if slot < len(d.background) && (name == "" || d.background[slot].Name() == name) {
		return d.background[slot], slot, nil
	}
	if name == "" {
		return nil, slot, fmt.Errorf("worker slot %d out of range (%d background tasks)", slot, len(d.background))
	}
	for i, t := range d.background {
		if t.Name() == name {
			logging.WarnWithContext(d.log, "worker slot moved; running task by name", "worker_slot_moved",
				logging.String(logging.FieldTask, name),
				logging.Int(logging.FieldSlot, slot),
				logging.Int("registered_slot", i),
			)
			return t, slot, nil
		}
	}
	return nil, slot, fmt.Errorf("worker slot %d: task %q is not registered", slot, name)
}

// backgroundName names the task at slot for the worker environment.
func (d *Daemon) backgroundName(slot int) string {
	if slot < 0 || slot >= len(d.background) {
		return ""
	}
	return d.background[slot].Name()
}

func (d *Daemon) interval() time.Duration {
	if iv := d.cfg.Interval(); iv > 0 {
		return iv
	}
	return defaultInterval
}

func (d *Daemon) startTimeout() time.Duration {
	if timeout := d.cfg.StartTimeout(); timeout > 0 {
		return timeout
	}
	return defaultStartTimeout
}
