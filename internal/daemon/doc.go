// Package daemon owns the supervisor lifecycle: detaching from the invoking
// process, preparing the daemon's environment, running the scheduling loop,
// and shutting down in order.
//
// A single executable plays three roles, selected by worker.EnvRole. The
// invoking process launches the daemon and waits for it to report readiness
// over an inherited pipe, so startup failures (lock held, missing working
// directory, and so on) surface from Start as errors. The daemon process
// creates a new session, changes directory, redirects its standard streams,
// takes the lock file, installs signal handlers, and then loops. Worker
// processes run the main phase of one background task and exit.
//
// All daemon state is owned by the loop goroutine. Signals are queued by the
// signals package and handled only at the loop's dispatch checkpoints.
package daemon
