package plc

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/yuu551/plc-control/internal/audit"
	"github.com/yuu551/plc-control/internal/ids"
	"github.com/yuu551/plc-control/internal/models"
	"github.com/yuu551/plc-control/internal/obs"
	"gorm.io/datatypes"
)

// SecretResolver yields the device connection parameters for one request.
type SecretResolver interface {
	Resolve(ctx context.Context) (SecureParameters, error)
}

// RecordWriter durably persists a command record.
type RecordWriter interface {
	Write(ctx context.Context, record *models.CommandRecord) error
}

// AuditSink appends one audit event. The gateway treats delivery as
// best-effort: the returned error is logged and deliberately discarded.
type AuditSink interface {
	Append(ctx context.Context, ev audit.Event) error
}

// Gateway sequences one command: validate, resolve parameters, execute
// against the device exactly once, persist the record, audit. Stateless;
// safe for any number of concurrent in-flight requests.
type Gateway struct {
	resolver SecretResolver
	executor Executor
	records  RecordWriter
	sink     AuditSink
	timeout  time.Duration
}

func NewGateway(resolver SecretResolver, executor Executor, records RecordWriter, sink AuditSink, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Gateway{
		resolver: resolver,
		executor: executor,
		records:  records,
		sink:     sink,
		timeout:  timeout,
	}
}

// Submit runs one command for an authenticated principal. On success
// the persisted record is returned; on failure the caller gets exactly
// one of ValidationError, ConfigurationError, ExecutionError or
// PersistenceError. Every post-validation failure is audited before it
// is surfaced.
func (g *Gateway) Submit(ctx context.Context, p Principal, cmd PlcCommand) (*models.CommandRecord, error) {
	// Invalid input is rejected before any downstream call and is not
	// audited: nothing was attempted against the device yet.
	if err := cmd.Validate(); err != nil {
		obs.CommandsTotal.WithLabelValues("validation_error").Inc()
		return nil, err
	}

	start := time.Now()

	params, err := g.resolver.Resolve(ctx)
	if err != nil {
		var cerr *ConfigurationError
		if !errors.As(err, &cerr) {
			err = &ConfigurationError{Err: err}
		}
		g.auditFailure(ctx, p, cmd, err)
		obs.CommandsTotal.WithLabelValues("configuration_error").Inc()
		return nil, err
	}

	// Exactly one execution attempt. A retried write could double-apply
	// a physical actuation, so retries belong to the caller.
	execCtx, cancel := context.WithTimeout(ctx, g.timeout)
	result, err := g.executor.Execute(execCtx, params, cmd)
	cancel()
	if err != nil {
		eerr := &ExecutionError{Err: err}
		g.auditFailure(ctx, p, cmd, eerr)
		obs.CommandsTotal.WithLabelValues("execution_error").Inc()
		return nil, eerr
	}

	record := buildRecord(p, cmd, result)
	if err := g.records.Write(ctx, record); err != nil {
		var perr *PersistenceError
		if !errors.As(err, &perr) {
			err = &PersistenceError{Err: err}
		}
		g.auditFailure(ctx, p, cmd, err)
		obs.CommandsTotal.WithLabelValues("persistence_error").Inc()
		return nil, err
	}

	g.append(ctx, audit.Event{
		UserID:    p.UserID,
		UserEmail: p.Email,
		Action:    audit.ActionCommand,
		Timestamp: time.Now().UTC(),
		SourceIP:  p.SourceAddress,
		Command:   cmd,
		Result:    result.Status,
	})

	obs.CommandsTotal.WithLabelValues(result.Status).Inc()
	obs.CommandDuration.Observe(time.Since(start).Seconds())
	return record, nil
}

func buildRecord(p Principal, cmd PlcCommand, result ExecResult) *models.CommandRecord {
	ts := result.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	payload, _ := json.Marshal(map[string]string{
		"value":   result.Value,
		"message": result.Message,
	})

	return &models.CommandRecord{
		ID:        ids.New(),
		UserID:    p.UserID,
		Timestamp: ts,
		Command:   cmd.Command,
		Value:     cmd.Value,
		Area:      cmd.Area,
		Address:   cmd.Address,
		Status:    result.Status,
		Result:    datatypes.JSON(payload),
		Owner:     p.UserID,
	}
}

func (g *Gateway) auditFailure(ctx context.Context, p Principal, cmd PlcCommand, failure error) {
	g.append(ctx, audit.Event{
		UserID:    p.UserID,
		UserEmail: p.Email,
		Action:    audit.ActionCommandError,
		Timestamp: time.Now().UTC(),
		SourceIP:  p.SourceAddress,
		Command:   cmd,
		Error:     failure.Error(),
	})
}

// append delivers one audit event best-effort. The command outcome is
// never a function of whether the audit write succeeded.
func (g *Gateway) append(ctx context.Context, ev audit.Event) {
	if err := g.sink.Append(ctx, ev); err != nil {
		slog.Error("audit append failed", "action", ev.Action, "user", ev.UserID, "error", err)
		obs.AuditAppendsTotal.WithLabelValues("dropped").Inc()
		return
	}
	obs.AuditAppendsTotal.WithLabelValues("delivered").Inc()
}
