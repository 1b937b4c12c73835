// Package daemonctl controls a running daemon from outside it, using only the
// lock file: the lock's hold state says whether a daemon is alive and the
// file content names its PID.
package daemonctl
