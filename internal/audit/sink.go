package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuu551/plc-control/internal/ids"
	"github.com/yuu551/plc-control/internal/models"
)

var (
	// ErrStreamNotFound is returned by a Journal when a day partition
	// has not been created yet.
	ErrStreamNotFound = errors.New("audit stream not found")
	// ErrStreamExists is returned by a Journal when another request won
	// the creation race for the same day partition.
	ErrStreamExists = errors.New("audit stream already exists")
)

// Journal is the storage surface behind the sink and the query service.
type Journal interface {
	FindStream(ctx context.Context, group, name string) (uuid.UUID, error)
	CreateStream(ctx context.Context, stream *models.AuditStream) error
	InsertEntry(ctx context.Context, entry *models.AuditEntry) error
	ListEntries(ctx context.Context, group string, start, end *time.Time, afterID string, limit int) ([]models.AuditEntry, error)
}

// Sink appends events to a day-partitioned stream, creating the
// partition lazily. Callers that must not fail on audit delivery wrap
// Append and discard the error after logging it.
type Sink struct {
	journal Journal
	group   string
}

func NewSink(journal Journal, group string) *Sink {
	return &Sink{journal: journal, group: group}
}

// StreamName derives the partition name for t: the UTC calendar date.
func StreamName(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

func (s *Sink) Append(ctx context.Context, ev Event) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	streamID, err := s.ensureStream(ctx, StreamName(ev.Timestamp))
	if err != nil {
		return fmt.Errorf("ensure audit stream: %w", err)
	}

	msg, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	entry := &models.AuditEntry{
		ID:        ids.New(),
		StreamID:  streamID,
		Timestamp: ev.Timestamp,
		Message:   string(msg),
	}
	if err := s.journal.InsertEntry(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

// ensureStream finds or creates the day partition. Losing the creation
// race to a concurrent request is expected and treated as success.
func (s *Sink) ensureStream(ctx context.Context, name string) (uuid.UUID, error) {
	id, err := s.journal.FindStream(ctx, s.group, name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrStreamNotFound) {
		return uuid.Nil, err
	}

	stream := &models.AuditStream{ID: uuid.New(), LogGroup: s.group, Name: name}
	err = s.journal.CreateStream(ctx, stream)
	if err == nil {
		return stream.ID, nil
	}
	if errors.Is(err, ErrStreamExists) {
		return s.journal.FindStream(ctx, s.group, name)
	}
	return uuid.Nil, err
}
