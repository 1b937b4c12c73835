package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const pollInterval = 250 * time.Millisecond

// TailOptions controls a single Tail call.
type TailOptions struct {
	// Offset is the byte position to resume from. A negative offset starts
	// from the last Limit lines instead.
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads complete lines from path. With Follow set and nothing new to
// report, it polls for up to Wait before returning an empty result.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}
	if opts.Wait < 0 {
		opts.Wait = 0
	}
	follow := opts.Follow && opts.Wait > 0

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if follow {
				return waitForLines(ctx, path, 0, opts.Wait)
			}
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}

	var lines []string
	offset := opts.Offset
	if offset < 0 {
		lines, offset, err = lastLines(path, opts.Limit)
	} else {
		if offset > info.Size() {
			offset = 0
		}
		lines, offset, err = linesFrom(path, offset)
	}
	if err != nil {
		return result, err
	}
	result.Lines = lines
	result.Offset = offset

	if follow && len(lines) == 0 {
		return waitForLines(ctx, path, offset, opts.Wait)
	}
	return result, nil
}

// StreamOptions selects how much history to deliver and whether to keep
// delivering appended lines.
type StreamOptions struct {
	// Lines is the number of trailing lines to start with; zero or less
	// delivers the whole file.
	Lines  int
	Follow bool
	// Wait bounds each follow poll; it defaults to one second.
	Wait time.Duration
}

// Stream delivers lines from path to onLine until the history is exhausted
// or, when following, until ctx is cancelled. It reports whether any line
// was delivered.
func Stream(ctx context.Context, path string, opts StreamOptions, onLine func(string)) (bool, error) {
	offset := int64(-1)
	limit := opts.Lines
	if limit <= 0 {
		offset = 0
		limit = 0
	}
	wait := opts.Wait
	if wait <= 0 {
		wait = time.Second
	}

	printed := false
	for {
		result, err := Tail(ctx, path, TailOptions{
			Offset: offset,
			Limit:  limit,
			Follow: opts.Follow,
			Wait:   wait,
		})
		if err != nil {
			if ctx.Err() != nil {
				return printed, nil
			}
			return printed, fmt.Errorf("tail %s: %w", path, err)
		}
		for _, line := range result.Lines {
			if onLine != nil {
				onLine(line)
			}
			printed = true
		}
		offset = result.Offset
		limit = 0
		if !opts.Follow {
			return printed, nil
		}
		select {
		case <-ctx.Done():
			return printed, nil
		default:
		}
	}
}

func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		offset, err := scanLines(file, 0, func(string) {})
		if err != nil {
			return nil, 0, fmt.Errorf("read log file: %w", err)
		}
		return nil, offset, nil
	}

	ring := make([]string, limit)
	count := 0
	idx := 0
	offset, err := scanLines(file, 0, func(line string) {
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, offset, nil
}

func linesFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}
	var lines []string
	next, err := scanLines(file, offset, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	return lines, next, nil
}

// scanLines hands each newline-terminated line in r to keep and returns the
// offset just past the last newline. base is the offset r starts at.
func scanLines(r io.Reader, base int64, keep func(string)) (int64, error) {
	reader := bufio.NewReader(r)
	offset := base
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return offset, nil
			}
			return offset, err
		}
		offset += int64(len(line))
		keep(strings.TrimRight(line, "\r\n"))
	}
}

func waitForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		if info, err := os.Stat(path); err == nil && info.Size() < offset {
			offset = 0
		}
		lines, next, err := linesFrom(path, offset)
		if err != nil {
			return result, err
		}
		result.Offset = next
		if len(lines) > 0 {
			result.Lines = lines
			return result, nil
		}
		if time.Now().After(deadline) {
			return result, nil
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
