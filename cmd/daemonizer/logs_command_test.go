package main

import (
	"os"
	"strings"
	"testing"

	"daemonizer/internal/testsupport"
)

func TestLogsShowsLastLines(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteConfigFile(t, cfg)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	if err := os.WriteFile(cfg.Daemon.Stdout, []byte("one\ntwo\nthree\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Daemon.Stderr, []byte("boom\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, path)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "two\nthree\n" {
		t.Fatalf("stdout logs = %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "--stderr"}, path)
	if err != nil {
		t.Fatalf("logs --stderr: %v", err)
	}
	if out != "boom\n" {
		t.Fatalf("stderr logs = %q", out)
	}
}

func TestLogsEmpty(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteConfigFile(t, cfg)

	out, _, err := runCLI(t, []string{"logs"}, path)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No log entries available")
}

func TestLogsRejectsDeviceTarget(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t)
	cfg.Daemon.Stdout = os.DevNull
	path := testsupport.WriteConfigFile(t, cfg)

	_, _, err := runCLI(t, []string{"logs"}, path)
	if err == nil || !strings.Contains(err.Error(), "nothing to show") {
		t.Fatalf("expected device target error, got %v", err)
	}
}
