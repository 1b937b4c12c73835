package daemon

import "fmt"

// State is a lifecycle position of a Daemon.
type State int32

const (
	StateNew State = iota
	StateStarting
	StateInit
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateStarting:
		return "starting"
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
