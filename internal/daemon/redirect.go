package daemon

import (
	"fmt"
	"os"
)

const outputFlags = os.O_WRONLY | os.O_CREATE | os.O_APPEND

// redirectStdio points descriptors 0, 1, and 2 at the configured files. The
// *os.File values for the standard streams keep working and now reach the
// new targets.
func redirectStdio(stdin, stdout, stderr string) error {
	targets := []struct {
		name string
		path string
		flag int
		fd   int
	}{
		{"stdin", stdin, os.O_RDONLY, int(os.Stdin.Fd())},
		{"stdout", stdout, outputFlags, int(os.Stdout.Fd())},
		{"stderr", stderr, outputFlags, int(os.Stderr.Fd())},
	}
	for _, target := range targets {
		file, err := os.OpenFile(target.path, target.flag, 0o644)
		if err != nil {
			return fmt.Errorf("open %s target: %w: %w", target.name, ErrRedirect, err)
		}
		err = dupOnto(int(file.Fd()), target.fd)
		_ = file.Close()
		if err != nil {
			return fmt.Errorf("redirect %s to %s: %w: %w", target.name, target.path, ErrRedirect, err)
		}
	}
	return nil
}
