package plc

import (
	"context"
	"log/slog"
	"time"
)

// ExecResult is the device's report for one executed command.
type ExecResult struct {
	Status    string
	Value     string
	Message   string
	Timestamp time.Time
}

// Executor talks to the PLC. Implementations must be safe for
// concurrent use; the gateway calls Execute at most once per request,
// so a write is never silently retried against the device.
type Executor interface {
	Execute(ctx context.Context, params SecureParameters, cmd PlcCommand) (ExecResult, error)
}

// SimulatedExecutor stands in for a real fieldbus transport and always
// reports success. Swap it out behind the Executor interface when a
// real protocol client lands.
type SimulatedExecutor struct{}

func (SimulatedExecutor) Execute(ctx context.Context, params SecureParameters, cmd PlcCommand) (ExecResult, error) {
	if err := ctx.Err(); err != nil {
		return ExecResult{}, err
	}

	slog.Info("simulated device call",
		"gateway_id", params.GatewayID,
		"topic", params.Topic,
		"command", cmd.Command,
		"area", cmd.Area,
		"address", cmd.Address,
	)

	return ExecResult{
		Status:    StatusSuccess,
		Value:     "OK",
		Message:   "Command executed successfully",
		Timestamp: time.Now().UTC(),
	}, nil
}
