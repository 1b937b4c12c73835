package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const statusIndent = "  "

// statusRow is one "Label: [KIND] message" line.
type statusRow struct {
	label   string
	kind    statusKind
	message string
}

// statusSection is a titled block of rows whose labels line up.
type statusSection struct {
	title string
	rows  []statusRow
}

func (s statusSection) render(w io.Writer, colorize bool) {
	for _, line := range renderSectionHeader(s.title, colorize) {
		fmt.Fprintln(w, line)
	}
	width := labelWidth(s.rows)
	for _, row := range s.rows {
		fmt.Fprintln(w, renderStatusLine(row, width, colorize))
	}
}

// labelWidth is the padded width of the longest "Label:" in rows.
func labelWidth(rows []statusRow) int {
	width := 0
	for _, row := range rows {
		width = max(width, len(row.label)+1)
	}
	return width
}

// renderStatusLine pads the label to width and colors only the status tag.
func renderStatusLine(row statusRow, width int, colorize bool) string {
	tag := "[" + statusKindLabel(row.kind) + "]"
	if colorize {
		if color := statusKindColor(row.kind); color != "" {
			tag = color + tag + ansiReset
		}
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, width, row.label+":", tag)
	if row.message != "" {
		line += " " + row.message
	}
	return line
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "OK"
	case statusWarn:
		return "WARN"
	case statusError:
		return "ERROR"
	default:
		return "INFO"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

func renderSectionHeader(title string, colorize bool) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	rule := strings.Repeat("-", len(line))
	if colorize {
		line = ansiBlue + line + ansiReset
		rule = ansiBlue + rule + ansiReset
	}
	return []string{line, rule}
}

// shouldColorize reports whether writer is a terminal and NO_COLOR is unset.
func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
