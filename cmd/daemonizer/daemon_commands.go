package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"daemonizer/internal/daemon"
	"daemonizer/internal/daemonctl"
	"daemonizer/internal/preflight"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.newDaemon("start", true)
			if err != nil {
				return err
			}
			pid, err := d.Start()
			if err != nil {
				if errors.Is(err, daemon.ErrLockUnavailable) {
					return fmt.Errorf("daemon already running: %w", err)
				}
				return fmt.Errorf("start daemon: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Daemon started with pid %d\n", pid)
			return nil
		},
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the daemon in the foreground (for service managers)",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := ctx.newDaemon("run", false)
			if err != nil {
				return err
			}
			if err := d.Run(); err != nil {
				return fmt.Errorf("run daemon: %w", err)
			}
			return nil
		},
	}

	var grace time.Duration
	var force bool
	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the daemon named by the lock file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.Stop(cfg.Daemon.LockFile, grace, force)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(stdout, "Daemon did not stop within %s; killed pid %d\n", grace, result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}
	stopCmd.Flags().DurationVar(&grace, "grace", 5*time.Second, "How long to wait for a graceful stop")
	stopCmd.Flags().BoolVar(&force, "force", false, "Kill the daemon if it does not stop within the grace period")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and task status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := daemonctl.Inspect(cfg.Daemon.LockFile)
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			statusSection{
				title: "Daemon Status",
				rows:  daemonStatusRows(status, ctx.configPath),
			}.render(stdout, colorize)
			fmt.Fprintln(stdout)

			statusSection{
				title: "Preflight",
				rows:  preflightRows(preflight.RunAll(cfg)),
			}.render(stdout, colorize)
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Tasks", colorize) {
				fmt.Fprintln(stdout, line)
			}
			tasks := resolveTasks(cfg, builtinTasks)
			if len(tasks) == 0 {
				fmt.Fprintln(stdout, "No tasks registered")
				return nil
			}
			table := tableSpec{
				headers: []string{"Task", "Kind", "Interval", "Enabled"},
				rows:    buildTaskRows(tasks),
				aligns:  []columnAlignment{alignLeft, alignLeft, alignRight, alignLeft},
				footer:  taskSummary(tasks),
			}.render()
			fmt.Fprintln(stdout, table)
			return nil
		},
	}

	return []*cobra.Command{startCmd, runCmd, stopCmd, statusCmd}
}
