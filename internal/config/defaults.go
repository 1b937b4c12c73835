package config

const (
	defaultRunningDir     = "."
	defaultStdin          = "/dev/null"
	defaultStdout         = "/dev/null"
	defaultStderr         = "/dev/null"
	defaultLockFile       = "daemon.lock"
	defaultIntervalMS     = 1000
	defaultStartTimeoutMS = 5000
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Daemon: Daemon{
			RunningDir:     defaultRunningDir,
			Stdin:          defaultStdin,
			Stdout:         defaultStdout,
			Stderr:         defaultStderr,
			LockFile:       defaultLockFile,
			IntervalMS:     defaultIntervalMS,
			StartTimeoutMS: defaultStartTimeoutMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Tasks: map[string]Task{},
	}
}
