package audit

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/yuu551/plc-control/internal/models"
)

// fakeJournal is shared by the sink and query tests.
type fakeJournal struct {
	streams      map[string]uuid.UUID
	entries      []models.AuditEntry
	raceOnCreate bool // a concurrent request wins the create between find and create

	listEntries []models.AuditEntry
	listErr     error
	gotStart    *time.Time
	gotEnd      *time.Time
	gotAfterID  string
	gotLimit    int
}

func newFakeJournal() *fakeJournal {
	return &fakeJournal{streams: make(map[string]uuid.UUID)}
}

func streamKey(group, name string) string { return group + "|" + name }

func (j *fakeJournal) FindStream(ctx context.Context, group, name string) (uuid.UUID, error) {
	if id, ok := j.streams[streamKey(group, name)]; ok {
		return id, nil
	}
	return uuid.Nil, ErrStreamNotFound
}

func (j *fakeJournal) CreateStream(ctx context.Context, stream *models.AuditStream) error {
	key := streamKey(stream.LogGroup, stream.Name)
	if _, ok := j.streams[key]; ok {
		return ErrStreamExists
	}
	if j.raceOnCreate {
		j.streams[key] = uuid.New()
		return ErrStreamExists
	}
	j.streams[key] = stream.ID
	return nil
}

func (j *fakeJournal) InsertEntry(ctx context.Context, entry *models.AuditEntry) error {
	j.entries = append(j.entries, *entry)
	return nil
}

func (j *fakeJournal) ListEntries(ctx context.Context, group string, start, end *time.Time, afterID string, limit int) ([]models.AuditEntry, error) {
	j.gotStart, j.gotEnd = start, end
	j.gotAfterID = afterID
	j.gotLimit = limit
	if j.listErr != nil {
		return nil, j.listErr
	}
	if len(j.listEntries) > limit {
		return j.listEntries[:limit], nil
	}
	return j.listEntries, nil
}

func TestStreamName(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	// 00:30 JST is still the previous day in UTC
	ts := time.Date(2026, 3, 15, 0, 30, 0, 0, loc)
	if got := StreamName(ts); got != "2026-03-14" {
		t.Fatalf("StreamName = %q, want 2026-03-14", got)
	}
}

func TestSinkAppendCreatesStreamLazily(t *testing.T) {
	journal := newFakeJournal()
	sink := NewSink(journal, "plc-control-audit")

	ev := Event{UserID: "alice", Action: ActionCommand, Timestamp: time.Now().UTC(), Result: "success"}
	if err := sink.Append(context.Background(), ev); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if len(journal.streams) != 1 {
		t.Fatalf("expected 1 stream, got %d", len(journal.streams))
	}
	if len(journal.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(journal.entries))
	}

	var line map[string]any
	if err := json.Unmarshal([]byte(journal.entries[0].Message), &line); err != nil {
		t.Fatalf("entry message not JSON: %v", err)
	}
	if line["action"] != ActionCommand || line["userId"] != "alice" {
		t.Fatalf("unexpected entry payload: %v", line)
	}
}

func TestSinkAppendTolerateCreateRace(t *testing.T) {
	journal := newFakeJournal()
	journal.raceOnCreate = true
	sink := NewSink(journal, "plc-control-audit")

	ts := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

	// First append loses the creation race to a concurrent request.
	if err := sink.Append(context.Background(), Event{Action: ActionCommand, Timestamp: ts}); err != nil {
		t.Fatalf("append after lost race failed: %v", err)
	}
	// Second append in the same day window finds the stream.
	if err := sink.Append(context.Background(), Event{Action: ActionCommandError, Timestamp: ts.Add(time.Minute)}); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	if len(journal.streams) != 1 {
		t.Fatalf("expected a single day stream, got %d", len(journal.streams))
	}
	if len(journal.entries) != 2 {
		t.Fatalf("both appends must succeed, got %d entries", len(journal.entries))
	}

	wantStream := journal.streams[streamKey("plc-control-audit", "2026-03-15")]
	for i, e := range journal.entries {
		if e.StreamID != wantStream {
			t.Fatalf("entry %d attached to wrong stream: %s", i, e.StreamID)
		}
	}
}

func TestSinkAppendEntryIDsOrdered(t *testing.T) {
	journal := newFakeJournal()
	sink := NewSink(journal, "plc-control-audit")

	for i := 0; i < 10; i++ {
		if err := sink.Append(context.Background(), Event{Action: ActionCommand}); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	for i := 1; i < len(journal.entries); i++ {
		if strings.Compare(journal.entries[i-1].ID, journal.entries[i].ID) >= 0 {
			t.Fatalf("entry ids not strictly increasing: %s >= %s",
				journal.entries[i-1].ID, journal.entries[i].ID)
		}
	}
}
