package logging

const (
	// FieldComponent names the emitting component (daemon, scheduler, worker, ...).
	FieldComponent = "component"
	// FieldTask is the task's display name.
	FieldTask = "task"
	// FieldSlot is the task's registration slot index.
	FieldSlot = "slot"
	// FieldKind is foreground or background.
	FieldKind = "kind"
	// FieldPID is an operating-system process ID.
	FieldPID = "pid"
	// FieldSignal is a signal name such as "terminated".
	FieldSignal = "signal"
	// FieldSessionID correlates the daemon with the workers it launched.
	FieldSessionID = "session_id"
	// FieldState is a lifecycle state name.
	FieldState = "state"
	// FieldEventType tags a log line with a stable machine-readable event name.
	FieldEventType = "event_type"
	// FieldErrorHint tells the operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact describes the user-facing consequence of a warning.
	FieldImpact = "impact"
)
