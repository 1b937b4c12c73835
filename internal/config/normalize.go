package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeLogging()
	if err := c.normalizeLogPath(); err != nil {
		return err
	}
	c.normalizeTasks()
	return nil
}

func (c *Config) normalizeDaemon() error {
	d := &c.Daemon
	fields := []struct {
		key   string
		value *string
		def   string
	}{
		{"daemon.running_dir", &d.RunningDir, defaultRunningDir},
		{"daemon.stdin", &d.Stdin, defaultStdin},
		{"daemon.stdout", &d.Stdout, defaultStdout},
		{"daemon.stderr", &d.Stderr, defaultStderr},
		{"daemon.lock_file", &d.LockFile, defaultLockFile},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.def
		}
		expanded, err := expandPath(*field.value)
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	if d.StartTimeoutMS == 0 {
		d.StartTimeoutMS = defaultStartTimeoutMS
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if value, ok := os.LookupEnv("DAEMONIZER_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func (c *Config) normalizeLogPath() error {
	if strings.TrimSpace(c.Logging.Path) == "" {
		c.Logging.Path = ""
		return nil
	}
	expanded, err := expandPath(c.Logging.Path)
	if err != nil {
		return fmt.Errorf("logging.path: %w", err)
	}
	c.Logging.Path = expanded
	return nil
}

func (c *Config) normalizeTasks() {
	if c.Tasks == nil {
		c.Tasks = map[string]Task{}
		return
	}
	normalized := make(map[string]Task, len(c.Tasks))
	for name, task := range c.Tasks {
		normalized[strings.TrimSpace(name)] = task
	}
	c.Tasks = normalized
}
