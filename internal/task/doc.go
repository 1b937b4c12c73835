// Package task defines the schedulable unit of work run by the daemon.
//
// A Task carries a run interval and up to three phases (start, main, stop)
// configured through chained setters. The task itself performs no
// scheduling: the daemon decides when a task is ready and whether its main
// phase runs inline (foreground) or in a worker process (background).
package task
