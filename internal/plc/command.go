package plc

import "strings"

const (
	CommandRead  = "read"
	CommandWrite = "write"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PlcCommand is one operator-issued device instruction.
type PlcCommand struct {
	Command string `json:"command"`
	Value   string `json:"value"`
	Area    string `json:"area,omitempty"`
	Address string `json:"address,omitempty"`
}

// Validate rejects incomplete commands before any downstream call.
func (c PlcCommand) Validate() error {
	if strings.TrimSpace(c.Command) == "" {
		return &ValidationError{Reason: "command is required"}
	}
	if strings.TrimSpace(c.Value) == "" {
		return &ValidationError{Reason: "value is required"}
	}
	if c.Command != CommandRead && c.Command != CommandWrite {
		return &ValidationError{Reason: `command must be "read" or "write"`}
	}
	return nil
}

// Principal identifies the authenticated caller for one request. It is
// derived once from the verified token claims and the peer address and
// never changes for the request's lifetime.
type Principal struct {
	UserID        string
	Email         string
	SourceAddress string
}

// SecureParameters address the physical device. Request-scoped: fetched
// fresh, never persisted, never written to the audit trail.
type SecureParameters struct {
	DeviceAddress string
	Topic         string
	GatewayID     string
}
