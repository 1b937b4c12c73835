package lockfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const procLocks = "/proc/locks"

// lockHeld reports whether any flock(2) lock is held on path by reading the
// kernel lock table, so probing never takes the lock itself. Without
// /proc/locks it falls back to tryLockHeld.
func lockHeld(path string) (bool, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}
	f, err := os.Open(procLocks)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return tryLockHeld(path)
		}
		return false, err
	}
	defer f.Close()

	dev := uint64(st.Dev)
	match, err := flockListed(f, unix.Major(dev), unix.Minor(dev), st.Ino)
	if err != nil {
		return false, err
	}
	switch match {
	case matchExact:
		return true, nil
	case matchInode:
		// Stacked filesystems such as overlayfs report a different device
		// from stat than the lock table does.
		return tryLockHeld(path)
	default:
		return false, nil
	}
}

type lockMatch int

const (
	matchNone lockMatch = iota
	matchInode
	matchExact
)

// flockListed scans a /proc/locks table for a granted FLOCK entry on the
// given inode. Lines look like:
//
//	1: FLOCK  ADVISORY  WRITE 4242 08:01:1835011 0 EOF
//
// Waiting requests are prefixed with "->" and do not count.
func flockListed(r io.Reader, major, minor uint32, ino uint64) (lockMatch, error) {
	best := matchNone
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 || fields[1] != "FLOCK" {
			continue
		}
		if m := lockMatches(fields[5], major, minor, ino); m > best {
			best = m
			if best == matchExact {
				return best, nil
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return matchNone, fmt.Errorf("read %s: %w", procLocks, err)
	}
	return best, nil
}

// lockMatches parses "MAJ:MIN:INODE" with hex device numbers.
func lockMatches(field string, major, minor uint32, ino uint64) lockMatch {
	parts := strings.Split(field, ":")
	if len(parts) != 3 {
		return matchNone
	}
	inode, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil || inode != ino {
		return matchNone
	}
	devMajor, err := strconv.ParseUint(parts[0], 16, 32)
	if err != nil {
		return matchNone
	}
	devMinor, err := strconv.ParseUint(parts[1], 16, 32)
	if err != nil {
		return matchNone
	}
	if uint32(devMajor) == major && uint32(devMinor) == minor {
		return matchExact
	}
	return matchInode
}
