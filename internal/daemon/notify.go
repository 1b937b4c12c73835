package daemon

import (
	sddaemon "github.com/coreos/go-systemd/v22/daemon"

	"daemonizer/internal/logging"
)

// sdNotify reports state to systemd. Without NOTIFY_SOCKET it does nothing.
func sdNotify(state string) error {
	_, err := sddaemon.SdNotify(false, state)
	return err
}

// notifyManager tells a supervising service manager about lifecycle changes.
// Only Run mode notifies; a detached daemon reports through the readiness
// pipe instead.
func (d *Daemon) notifyManager(state string) {
	if d.detach || d.notify == nil {
		return
	}
	if err := d.notify(state); err != nil {
		logging.WarnWithContext(d.log, "service manager notification failed", "sd_notify_failed",
			logging.String(logging.FieldState, state),
			logging.Error(err),
		)
	}
}
