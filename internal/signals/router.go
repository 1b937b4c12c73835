package signals

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"daemonizer/internal/logging"
)

// ErrSignalInstall reports that handlers could not be registered.
var ErrSignalInstall = errors.New("signal handler install failure")

const rawBuffer = 16

// Handler runs on the loop goroutine for one dispatched signal.
type Handler func(sig os.Signal)

// Propagator forwards a dispatched signal to child processes before the
// local handler runs.
type Propagator interface {
	Propagate(sig os.Signal)
}

// PropagatorFunc adapts a function to Propagator.
type PropagatorFunc func(sig os.Signal)

// Propagate calls f(sig).
func (f PropagatorFunc) Propagate(sig os.Signal) { f(sig) }

// Router owns the signal queue and handler table.
type Router struct {
	raw  chan os.Signal
	prop Propagator
	log  *slog.Logger

	handlers map[os.Signal]Handler
	order    []os.Signal

	mu        sync.Mutex
	queue     []os.Signal
	installed bool
}

// NewRouter returns an uninstalled router. prop may be nil.
func NewRouter(prop Propagator, logger *slog.Logger) *Router {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Router{
		raw:      make(chan os.Signal, rawBuffer),
		prop:     prop,
		log:      logger,
		handlers: make(map[os.Signal]Handler),
	}
}

// Handle registers h for sig, replacing any earlier handler. It must be
// called before Install.
func (r *Router) Handle(sig os.Signal, h Handler) {
	if _, ok := r.handlers[sig]; !ok {
		r.order = append(r.order, sig)
	}
	r.handlers[sig] = h
}

// Install subscribes every handled signal with the runtime.
func (r *Router) Install() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.installed {
		return nil
	}
	if len(r.order) == 0 {
		return fmt.Errorf("%w: no handlers registered", ErrSignalInstall)
	}
	for _, sig := range r.order {
		if sig == syscall.SIGKILL || sig == syscall.SIGSTOP {
			return fmt.Errorf("%w: %s cannot be caught", ErrSignalInstall, sig)
		}
		if r.handlers[sig] == nil {
			return fmt.Errorf("%w: nil handler for %s", ErrSignalInstall, sig)
		}
	}
	signal.Notify(r.raw, r.order...)
	r.installed = true
	return nil
}

// Uninstall stops runtime delivery. Queued signals are kept.
func (r *Router) Uninstall() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.installed {
		return
	}
	signal.Stop(r.raw)
	r.installed = false
}

// Installed reports whether runtime delivery is active.
func (r *Router) Installed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.installed
}

// Deliver appends sig to the queue as if it had just arrived.
func (r *Router) Deliver(sig os.Signal) {
	r.mu.Lock()
	r.queue = append(r.queue, sig)
	r.mu.Unlock()
}

// Pending returns the number of queued, undispatched signals.
func (r *Router) Pending() int {
	r.collect()
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Router) collect() {
	for {
		select {
		case sig := <-r.raw:
			r.Deliver(sig)
		default:
			return
		}
	}
}

func (r *Router) pop() (os.Signal, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil, false
	}
	sig := r.queue[0]
	r.queue[0] = nil
	r.queue = r.queue[1:]
	return sig, true
}

// Dispatch drains runtime deliveries into the queue, then handles every
// queued signal in arrival order: propagate to children first, then run the
// local handler. It returns the number of signals dispatched.
func (r *Router) Dispatch() int {
	r.collect()
	dispatched := 0
	for {
		sig, ok := r.pop()
		if !ok {
			return dispatched
		}
		dispatched++
		r.log.Debug("dispatching signal", logging.String(logging.FieldSignal, sig.String()))
		if r.prop != nil {
			r.prop.Propagate(sig)
		}
		handler := r.handlers[sig]
		if handler == nil {
			r.log.Warn("no handler for signal",
				logging.String(logging.FieldSignal, sig.String()),
				logging.String(logging.FieldEventType, "signal_unhandled"),
			)
			continue
		}
		handler(sig)
	}
}

// Sleep waits for d, returning early (true) when a signal is already queued
// or arrives meanwhile. An arriving signal is queued, not handled.
func (r *Router) Sleep(d time.Duration) bool {
	if r.Pending() > 0 {
		return true
	}
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return false
	case sig := <-r.raw:
		r.Deliver(sig)
		return true
	}
}
