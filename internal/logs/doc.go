// Package logs tails the files the daemon's stdout and stderr are redirected
// to.
//
// Only complete lines are returned; a trailing partial write stays unread
// until its newline arrives, so a follower never splits a line in two.
// Offsets let callers resume where the previous read stopped, and a file
// that shrank below the saved offset is read again from the start.
package logs
