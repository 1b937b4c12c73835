package main

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"daemonizer/internal/daemonctl"
	"daemonizer/internal/preflight"
)

var titleCaser = cases.Title(language.Und)

func daemonStatusRows(status daemonctl.Status, configPath string) []statusRow {
	rows := make([]statusRow, 0, 3)
	switch {
	case status.Running:
		rows = append(rows, statusRow{"Daemon", statusOK, fmt.Sprintf("Running (pid %d)", status.PID)})
	case status.Stale:
		rows = append(rows, statusRow{"Daemon", statusWarn, fmt.Sprintf("Not running (stale pid %d in lock file)", status.PID)})
	default:
		rows = append(rows, statusRow{"Daemon", statusInfo, "Not running"})
	}
	rows = append(rows, statusRow{"Lock file", statusInfo, status.LockPath})
	if configPath != "" {
		rows = append(rows, statusRow{"Config", statusInfo, configPath})
	}
	return rows
}

func preflightRows(results []preflight.Result) []statusRow {
	rows := make([]statusRow, 0, len(results))
	for _, r := range results {
		kind := statusOK
		if !r.Passed {
			kind = statusError
		}
		rows = append(rows, statusRow{r.Name, kind, r.Detail})
	}
	return rows
}

func buildTaskRows(tasks []resolvedTask) [][]string {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			t.Name,
			titleCaser.String(t.Kind.String()),
			t.Interval.String(),
			yesNo(t.Enabled),
		})
	}
	return rows
}

func taskSummary(tasks []resolvedTask) []string {
	enabled := 0
	for _, t := range tasks {
		if t.Enabled {
			enabled++
		}
	}
	return []string{fmt.Sprintf("%d tasks", len(tasks)), "", "", fmt.Sprintf("%d enabled", enabled)}
}
