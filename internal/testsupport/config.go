package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"daemonizer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config rooted in a unique temp directory per test.
// The running directory exists; stdio targets and the lock file live under
// it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	runDir := filepath.Join(base, "run")
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("mkdir run dir: %v", err)
	}
	cfgVal := config.Default()
	cfgVal.Daemon.RunningDir = runDir
	cfgVal.Daemon.Stdin = os.DevNull
	cfgVal.Daemon.Stdout = filepath.Join(base, "logs", "stdout.log")
	cfgVal.Daemon.Stderr = filepath.Join(base, "logs", "stderr.log")
	cfgVal.Daemon.LockFile = filepath.Join(base, "daemon.pid")
	cfgVal.Daemon.IntervalMS = 50

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithInterval sets the base loop tick in milliseconds.
func WithInterval(ms int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.IntervalMS = ms
	}
}

// WithTask adds a per-task override.
func WithTask(name string, intervalMS int, enabled bool) ConfigOption {
	return func(b *configBuilder) {
		if b.cfg.Tasks == nil {
			b.cfg.Tasks = map[string]config.Task{}
		}
		b.cfg.Tasks[name] = config.Task{IntervalMS: intervalMS, Enabled: &enabled}
	}
}

// WithLogging sets the logging format and level.
func WithLogging(format, level string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Format = format
		b.cfg.Logging.Level = level
	}
}

// BaseDir returns the temp directory that roots the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Daemon.LockFile)
}

// WriteConfigFile encodes cfg as TOML into the config's base directory and
// returns the file path.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
