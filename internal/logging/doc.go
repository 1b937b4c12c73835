// Package logging builds the structured slog loggers used by the daemon, its
// worker processes, and the CLI.
//
// It owns the console and JSON handlers, level parsing, and output routing
// (stdout, stderr, or files), and defines the field keys every component uses
// so daemon and worker log lines can be correlated by session and task.
package logging
