// Package signals defers POSIX signal handling to safe points chosen by the
// daemon loop.
//
// Raw delivery is left to the Go runtime, whose handler only forwards the
// signal to a buffered channel. The Router moves those deliveries into an
// ordered queue and, when the loop calls Dispatch, forwards each signal to
// the daemon's worker processes before running the registered handler. No
// task code ever runs from the delivery path itself.
package signals
