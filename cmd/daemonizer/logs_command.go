package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"daemonizer/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var lines int
	var stderr bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display the daemon's redirected output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stream, path := "stdout", cfg.Daemon.Stdout
			if stderr {
				stream, path = "stderr", cfg.Daemon.Stderr
			}
			if strings.HasPrefix(path, "/dev/") {
				return fmt.Errorf("daemon %s goes to %s, nothing to show", stream, path)
			}

			runCtx := cmd.Context()
			if follow {
				var stop context.CancelFunc
				runCtx, stop = signal.NotifyContext(runCtx, os.Interrupt, syscall.SIGTERM)
				defer stop()
			}

			out := cmd.OutOrStdout()
			printed, err := logs.Stream(runCtx, path, logs.StreamOptions{Lines: lines, Follow: follow}, func(line string) {
				fmt.Fprintln(out, line)
			})
			if err != nil {
				return err
			}
			if !printed && !follow {
				fmt.Fprintln(out, "No log entries available")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow log output")
	cmd.Flags().IntVarP(&lines, "lines", "n", 10, "Number of lines to show (0 for all)")
	cmd.Flags().BoolVar(&stderr, "stderr", false, "Show the stderr file instead of stdout")
	return cmd
}
