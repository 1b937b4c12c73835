package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"daemonizer/internal/worker"
)

// readyFD is where the daemon process finds the write end of the readiness
// pipe (the first entry of exec.Cmd.ExtraFiles).
const readyFD = 3

// startupError carries a failure reported by the daemon process back to the
// invoking process, keeping its sentinel visible to errors.Is.
type startupError struct {
	msg  string
	kind error
}

func (e *startupError) Error() string { return e.msg }

func (e *startupError) Unwrap() error { return e.kind }

func openReadyPipe() *os.File {
	raw := strings.TrimSpace(os.Getenv(worker.EnvReady))
	if raw == "" {
		return nil
	}
	fd, err := strconv.Atoi(raw)
	if err != nil || fd < readyFD {
		return nil
	}
	return os.NewFile(uintptr(fd), "daemon-ready")
}

func writeReady(w io.Writer, pid int) error {
	_, err := fmt.Fprintf(w, "ok %d\n", pid)
	return err
}

func writeFailure(w io.Writer, cause error) error {
	msg := strings.NewReplacer("\n", " ", "\t", " ").Replace(cause.Error())
	_, err := fmt.Fprintf(w, "fail %s\t%s\n", failureKind(cause), msg)
	return err
}

// readReady waits for the daemon's single status line.
func readReady(r *os.File, timeout time.Duration) (int, error) {
	if timeout > 0 {
		if err := r.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return 0, fmt.Errorf("set readiness deadline: %w", err)
		}
	}
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil {
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			return 0, fmt.Errorf("no readiness report after %s: %w", timeout, ErrStartTimeout)
		case errors.Is(err, io.EOF) && strings.TrimSpace(line) == "":
			return 0, errors.New("daemon exited before reporting readiness")
		case !errors.Is(err, io.EOF):
			return 0, fmt.Errorf("read readiness: %w", err)
		}
	}
	return parseReady(strings.TrimRight(line, "\n"))
}

func parseReady(line string) (int, error) {
	status, rest, _ := strings.Cut(line, " ")
	switch status {
	case "ok":
		pid, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || pid <= 0 {
			return 0, fmt.Errorf("malformed readiness report %q", line)
		}
		return pid, nil
	case "fail":
		kind, msg, _ := strings.Cut(rest, "\t")
		return 0, &startupError{msg: msg, kind: failureError(kind)}
	default:
		return 0, fmt.Errorf("malformed readiness report %q", line)
	}
}
