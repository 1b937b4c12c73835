package preflight

import (
	"daemonizer/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every path check that applies to cfg.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Running directory", cfg.Daemon.RunningDir),
		CheckReadable("Stdin", cfg.Daemon.Stdin),
		CheckWritable("Stdout", cfg.Daemon.Stdout),
		CheckWritable("Stderr", cfg.Daemon.Stderr),
		CheckWritable("Lock file", cfg.Daemon.LockFile),
	}

	// Log file (when configured)
	if cfg.Logging.Path != "" {
		results = append(results, CheckWritable("Log file", cfg.Logging.Path))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
