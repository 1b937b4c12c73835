package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Daemon holds the process-level settings consumed once before start.
type Daemon struct {
	RunningDir     string `toml:"running_dir"`
	Stdin          string `toml:"stdin"`
	Stdout         string `toml:"stdout"`
	Stderr         string `toml:"stderr"`
	LockFile       string `toml:"lock_file"`
	IntervalMS     int    `toml:"interval_ms"`
	StartTimeoutMS int    `toml:"start_timeout_ms"`
}

// Interval returns the base loop tick.
func (d Daemon) Interval() time.Duration {
	return time.Duration(d.IntervalMS) * time.Millisecond
}

// StartTimeout bounds how long Start waits for the daemon to report readiness.
func (d Daemon) StartTimeout() time.Duration {
	return time.Duration(d.StartTimeoutMS) * time.Millisecond
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// Path, when empty, logs to the daemon's (redirected) standard output.
	Path string `toml:"path"`
}

// Task overrides the registration-time settings of a named task.
type Task struct {
	IntervalMS int   `toml:"interval_ms"`
	Enabled    *bool `toml:"enabled,omitempty"`
}

// Config encapsulates all configuration values.
//
// Sections:
//   - Daemon: working directory, stdio targets, lock file, loop tick
//   - Logging: log format, level, and optional file path
//   - Tasks: per-task interval overrides and enable switches, keyed by task name
type Config struct {
	Daemon  Daemon          `toml:"daemon"`
	Logging Logging         `toml:"logging"`
	Tasks   map[string]Task `toml:"tasks"`
}

// TaskInterval returns the configured interval for name, or fallback when the
// task has no override.
func (c *Config) TaskInterval(name string, fallback time.Duration) time.Duration {
	if c == nil {
		return fallback
	}
	if override, ok := c.Tasks[name]; ok && override.IntervalMS > 0 {
		return time.Duration(override.IntervalMS) * time.Millisecond
	}
	return fallback
}

// TaskEnabled reports whether name is enabled. Tasks are enabled unless
// explicitly switched off.
func (c *Config) TaskEnabled(name string) bool {
	if c == nil {
		return true
	}
	if override, ok := c.Tasks[name]; ok && override.Enabled != nil {
		return *override.Enabled
	}
	return true
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/daemonizer/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether the file existed; defaults are used when it did not.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("daemonizer.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the parent directories of every file the daemon
// writes. The running directory is deliberately not created: a missing
// working directory is a startup failure.
func (c *Config) EnsureDirectories() error {
	for _, file := range []string{c.Daemon.LockFile, c.Daemon.Stdout, c.Daemon.Stderr, c.Logging.Path} {
		if strings.TrimSpace(file) == "" || strings.HasPrefix(file, "/dev/") {
			continue
		}
		dir := filepath.Dir(file)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
