package plc

import (
	"fmt"
	"strings"
)

// The gateway terminates a request with exactly one of these error
// types. Validation failures never reach the audit trail; the other
// three are audited best-effort before being surfaced to the caller.

// ValidationError rejects bad or missing input before any downstream call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// ConfigurationError means the secret device parameters could not be
// resolved.
type ConfigurationError struct {
	Missing []string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if len(e.Missing) > 0 {
		return "missing secure parameters: " + strings.Join(e.Missing, ", ")
	}
	return fmt.Sprintf("secure parameter resolution failed: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ExecutionError means the device call failed or timed out.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("device command failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// PersistenceError means the command record could not be written. It is
// a primary-operation failure, unlike an audit delivery failure.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist command record: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
