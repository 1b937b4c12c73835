// Package main hosts the daemonizer CLI entrypoint and command graph.
//
// The Cobra-based command tree starts the daemon detached (start), runs it
// under a service manager (run), stops it through its lock file (stop),
// reports lock and task state (status), and scaffolds configuration (config).
// The same binary is re-invoked for the daemon and its background workers;
// those invocations carry role markers in the environment and reach the
// daemon package through the start or run command they were given.
//
// Task registration lives in tasks.go and must stay deterministic: workers
// find their task by registration slot.
package main
