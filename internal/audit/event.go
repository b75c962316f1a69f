package audit

import "time"

// Actions recorded in the audit trail.
const (
	ActionCommand         = "PLC_COMMAND"
	ActionCommandError    = "PLC_COMMAND_ERROR"
	ActionParameterUpdate = "PLC_PARAMETER_UPDATE"
)

// Event is one immutable audit trail line. Events are appended
// regardless of the outcome of the action they describe and are only
// correlated with command records by user and timestamp, never by key:
// a failed audit write must not taint the command record and vice versa.
type Event struct {
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail,omitempty"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
	SourceIP  string    `json:"sourceIP,omitempty"`
	Command   any       `json:"command,omitempty"`
	Result    string    `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
}
