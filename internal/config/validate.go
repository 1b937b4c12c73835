package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDaemon(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateTasks()
}

func (c *Config) validateDaemon() error {
	if c.Daemon.IntervalMS <= 0 {
		return errors.New("daemon.interval_ms must be positive")
	}
	if c.Daemon.StartTimeoutMS <= 0 {
		return errors.New("daemon.start_timeout_ms must be positive")
	}
	if strings.TrimSpace(c.Daemon.LockFile) == "" {
		return errors.New("daemon.lock_file must be set")
	}
	if strings.TrimSpace(c.Daemon.RunningDir) == "" {
		return errors.New("daemon.running_dir must be set")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (use console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateTasks() error {
	for name, task := range c.Tasks {
		if name == "" {
			return errors.New("tasks: task name must not be empty")
		}
		if task.IntervalMS < 0 {
			return fmt.Errorf("tasks.%s.interval_ms must not be negative", name)
		}
	}
	return nil
}
