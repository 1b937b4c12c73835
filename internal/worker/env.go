package worker

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Environment markers that select the role of a re-invoked executable.
const (
	EnvRole    = "DAEMONIZER_ROLE"
	EnvSlot    = "DAEMONIZER_SLOT"
	EnvTask    = "DAEMONIZER_TASK"
	EnvSession = "DAEMONIZER_SESSION"
	EnvReady   = "DAEMONIZER_READY_FD"
)

// Role values carried in EnvRole.
const (
	RoleDaemon = "daemon"
	RoleWorker = "worker"
)

// Role returns the role requested by the environment, or "" for the
// invoking (parent) process.
func Role() string {
	return strings.TrimSpace(os.Getenv(EnvRole))
}

// Slot returns the background slot requested by the environment.
func Slot() (int, error) {
	raw := strings.TrimSpace(os.Getenv(EnvSlot))
	if raw == "" {
		return 0, fmt.Errorf("%s is not set", EnvSlot)
	}
	slot, err := strconv.Atoi(raw)
	if err != nil || slot < 0 {
		return 0, fmt.Errorf("%s: invalid slot %q", EnvSlot, raw)
	}
	return slot, nil
}

// TaskName returns the name of the task the daemon scheduled for this
// worker, or "" when the launcher did not record one.
func TaskName() string {
	return strings.TrimSpace(os.Getenv(EnvTask))
}

// SessionID returns the session carried in the environment, if any.
func SessionID() string {
	return strings.TrimSpace(os.Getenv(EnvSession))
}

// ChildEnv returns base with every marker removed and the given markers
// appended. Pairs are name/value in order.
func ChildEnv(base []string, pairs ...string) []string {
	env := make([]string, 0, len(base)+len(pairs)/2)
	for _, kv := range base {
		if isMarker(kv) {
			continue
		}
		env = append(env, kv)
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		env = append(env, pairs[i]+"="+pairs[i+1])
	}
	return env
}

func isMarker(kv string) bool {
	for _, name := range []string{EnvRole, EnvSlot, EnvTask, EnvSession, EnvReady} {
		if strings.HasPrefix(kv, name+"=") {
			return true
		}
	}
	return false
}
