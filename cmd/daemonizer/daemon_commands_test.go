package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"daemonizer/internal/lockfile"
	"daemonizer/internal/testsupport"
)

func TestStatusNotRunning(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t, testsupport.WithTask("sweep", 7000, false))
	path := testsupport.WriteConfigFile(t, cfg)

	out, _, err := runCLI(t, []string{"status"}, path)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "== Daemon Status ==")
	requireContains(t, out, "Not running")
	requireContains(t, out, cfg.Daemon.LockFile)
	requireContains(t, out, "heartbeat")
	requireContains(t, out, "Foreground")
	requireContains(t, out, "Background")
	requireContains(t, out, "7s")
	requireContains(t, out, "== Preflight ==")
	requireContains(t, out, "Running directory:")
}

func TestStatusRunningAndStale(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteConfigFile(t, cfg)

	if err := os.WriteFile(cfg.Daemon.LockFile, []byte("99999999"), 0o644); err != nil {
		t.Fatalf("write stale lock: %v", err)
	}
	out, _, err := runCLI(t, []string{"status"}, path)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "stale pid 99999999")

	handle, err := lockfile.Acquire(cfg.Daemon.LockFile, os.Getpid())
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer handle.Release()
	out, _, err = runCLI(t, []string{"status"}, path)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid "+strconv.Itoa(os.Getpid())+")")
}

func TestStopWhenNotRunning(t *testing.T) {
	isolateHome(t)
	cfg := testsupport.NewConfig(t)
	path := testsupport.WriteConfigFile(t, cfg)

	out, _, err := runCLI(t, []string{"stop"}, path)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestStartStatusStop(t *testing.T) {
	if testing.Short() {
		t.Skip("spawns a daemon")
	}
	isolateHome(t)
	cfg := testsupport.NewConfig(t,
		testsupport.WithTask("heartbeat", 100, true),
		testsupport.WithTask("sweep", 200, true),
	)
	path := testsupport.WriteConfigFile(t, cfg)

	out, _, err := runCLI(t, []string{"start"}, path)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Daemon started with pid")
	t.Cleanup(func() {
		_, _, _ = runCLI(t, []string{"stop", "--force"}, path)
	})

	if _, _, err := runCLI(t, []string{"start"}, path); err == nil || !strings.Contains(err.Error(), "already running") {
		t.Fatalf("second start: expected already running error, got %v", err)
	}

	out, _, err = runCLI(t, []string{"status"}, path)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")

	deadline := time.Now().Add(10 * time.Second)
	for {
		data, _ := os.ReadFile(cfg.Daemon.Stdout)
		if strings.Contains(string(data), "Task 1 Running...") && strings.Contains(string(data), "Background Task 1 Running...") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("task output never reached %s: %q", filepath.Base(cfg.Daemon.Stdout), data)
		}
		time.Sleep(50 * time.Millisecond)
	}

	out, _, err = runCLI(t, []string{"stop", "--grace", "10s"}, path)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Daemon stopped")
}
