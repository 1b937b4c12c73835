// Package worker launches and tracks the child processes that execute
// background tasks.
//
// A background task runs in a fresh invocation of the daemon's own
// executable, selected by marker environment variables (see EnvRole and
// EnvSlot). The child inherits the daemon's working directory and its
// redirected standard streams. The daemon keeps only the child's PID and
// checks for termination without blocking, so at most one child per task is
// ever alive.
package worker
