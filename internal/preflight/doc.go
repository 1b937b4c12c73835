// Package preflight provides readiness checks for the filesystem paths the
// daemon touches while starting.
//
// Start performs chdir, stdio redirection and locking inside the detached
// child, so a bad path only surfaces as a startup failure after the fork.
// The CLI "daemonizer status" command runs these checks up front and shows
// which path would break a start.
package preflight
