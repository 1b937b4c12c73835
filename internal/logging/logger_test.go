package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"daemonizer/internal/config"
	"daemonizer/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Debug("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}, SessionID: "sess-1"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.NewComponentLogger(logger, "scheduler").Info("task launched",
		logging.String(logging.FieldTask, "sweep"),
		logging.Int(logging.FieldPID, 42),
		logging.String("note", "two words"),
	)

	content := readLog(t, logPath)
	for _, want := range []string{"INFO scheduler: task launched", "task=sweep", "pid=42", `note="two words"`, "session_id=sess-1"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, "component=") {
		t.Fatalf("component should be rendered as prefix, got %q", content)
	}
}

func TestJSONLoggerShape(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("lock busy", logging.Error(errors.New("held")))

	var record map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, logPath))), &record); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if record["level"] != "warn" || record["msg"] != "lock busy" || record["error"] != "held" {
		t.Fatalf("unexpected record %v", record)
	}
	if _, ok := record["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"invalid": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewFromConfigUsesLogPath(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Path = filepath.Join(t.TempDir(), "logs", "daemon.log")

	logger, err := logging.NewFromConfig(&cfg, "abc")
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello")

	if content := readLog(t, cfg.Logging.Path); !strings.Contains(content, "session_id=abc") {
		t.Fatalf("expected session id in %q", content)
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "child still running", "launch_skipped",
		logging.String(logging.FieldImpact, "run deferred"))

	content := readLog(t, logPath)
	for _, want := range []string{"event_type=launch_skipped", "error_hint=", `impact="run deferred"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestErrorWithContextKeepsCallerAttrs(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "error.log")
	logger, err := logging.New(logging.Options{OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.ErrorWithContext(logger, "worker start failed", "worker_start_failed",
		logging.Error(errors.New("slot out of range")),
		logging.Duration("elapsed", 1500*time.Millisecond),
		logging.String(logging.FieldErrorHint, "check the task list"))

	content := readLog(t, logPath)
	for _, want := range []string{
		"event_type=worker_start_failed",
		`error="slot out of range"`,
		"elapsed=1.5s",
		`error_hint="check the task list"`,
	} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, "check logs for details") {
		t.Fatalf("default hint should not override caller hint: %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should be disabled")
	}
}
