package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"daemonizer/internal/config"
	"daemonizer/internal/daemon"
	"daemonizer/internal/logging"
	"daemonizer/internal/worker"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// newDaemon builds a daemon for the named command with the built-in tasks
// registered. Re-invoked processes get the same command and an absolute
// config path; workers are matched to their task by name, so edits to the
// config file after start cannot swap one task for another.
func (c *commandContext) newDaemon(command string, quietParent bool) (*daemon.Daemon, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	sessionID := worker.SessionID()
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	var logger *slog.Logger
	if quietParent && worker.Role() == "" {
		logger = logging.NewNop()
	} else {
		logger, err = logging.NewFromConfig(cfg, sessionID)
		if err != nil {
			return nil, err
		}
	}

	d := daemon.New(cfg.Daemon,
		daemon.WithLogger(logger),
		daemon.WithSessionID(sessionID),
		daemon.WithArgs(command, "--config", c.configPath),
	)
	registerTasks(d, cfg, builtinTasks, worker.Role() == worker.RoleWorker)
	return d, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
