package audit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/yuu551/plc-control/internal/ids"
	"github.com/yuu551/plc-control/internal/models"
)

func entry(ts time.Time, message string) models.AuditEntry {
	return models.AuditEntry{ID: ids.New(), Timestamp: ts, Message: message}
}

func TestQueryClampsLimit(t *testing.T) {
	tests := []struct {
		name  string
		limit int
		want  int
	}{
		{name: "default", limit: 0, want: DefaultLimit},
		{name: "negative", limit: -5, want: DefaultLimit},
		{name: "passes through", limit: 250, want: 250},
		{name: "clamped to ceiling", limit: 5000, want: MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			journal := newFakeJournal()
			svc := NewQueryService(journal, "plc-control-audit")
			if _, err := svc.Query(context.Background(), nil, nil, tt.limit, ""); err != nil {
				t.Fatalf("Query failed: %v", err)
			}
			if journal.gotLimit != tt.want {
				t.Fatalf("journal limit = %d, want %d", journal.gotLimit, tt.want)
			}
		})
	}
}

func TestQueryClampBoundsResult(t *testing.T) {
	journal := newFakeJournal()
	ts := time.Now().UTC()
	for i := 0; i < MaxLimit+500; i++ {
		journal.listEntries = append(journal.listEntries, entry(ts, fmt.Sprintf(`{"action":"PLC_COMMAND","seq":%d}`, i)))
	}

	svc := NewQueryService(journal, "plc-control-audit")
	res, err := svc.Query(context.Background(), nil, nil, 5000, "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if res.Count > MaxLimit || len(res.Logs) > MaxLimit {
		t.Fatalf("query returned %d entries, ceiling is %d", len(res.Logs), MaxLimit)
	}
}

func TestQueryDegradesMalformedEntry(t *testing.T) {
	journal := newFakeJournal()
	ts := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	journal.listEntries = []models.AuditEntry{
		entry(ts, `{"userId":"alice","action":"PLC_COMMAND","result":"success"}`),
		entry(ts.Add(time.Second), `plain text that is not json`),
	}

	svc := NewQueryService(journal, "plc-control-audit")
	res, err := svc.Query(context.Background(), nil, nil, 100, "")
	if err != nil {
		t.Fatalf("one malformed entry failed the whole query: %v", err)
	}
	if res.Count != 2 {
		t.Fatalf("expected both entries back, got %d", res.Count)
	}

	wellFormed := res.Logs[0]
	if wellFormed["action"] != "PLC_COMMAND" || wellFormed["userId"] != "alice" {
		t.Fatalf("structured entry lost fields: %v", wellFormed)
	}
	if wellFormed["timestamp"] == "" {
		t.Fatal("structured entry missing timestamp")
	}

	degraded := res.Logs[1]
	if degraded["message"] != "plain text that is not json" {
		t.Fatalf("malformed entry lost its raw text: %v", degraded)
	}
	if _, ok := degraded["timestamp"]; !ok {
		t.Fatal("degraded entry missing timestamp")
	}
	if len(degraded) != 2 {
		t.Fatalf("degraded entry must carry only timestamp and message, got %v", degraded)
	}
}

func TestQueryPassesInclusiveBounds(t *testing.T) {
	journal := newFakeJournal()
	svc := NewQueryService(journal, "plc-control-audit")

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 23, 59, 59, 0, time.UTC)
	if _, err := svc.Query(context.Background(), &start, &end, 100, "cursor-1"); err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if journal.gotStart == nil || !journal.gotStart.Equal(start) {
		t.Fatalf("start bound not pushed to journal: %v", journal.gotStart)
	}
	if journal.gotEnd == nil || !journal.gotEnd.Equal(end) {
		t.Fatalf("end bound not pushed to journal: %v", journal.gotEnd)
	}
	if journal.gotAfterID != "cursor-1" {
		t.Fatalf("cursor not pushed to journal: %q", journal.gotAfterID)
	}
}

func TestQueryNextToken(t *testing.T) {
	journal := newFakeJournal()
	ts := time.Now().UTC()
	for i := 0; i < 10; i++ {
		journal.listEntries = append(journal.listEntries, entry(ts, `{"action":"PLC_COMMAND"}`))
	}
	svc := NewQueryService(journal, "plc-control-audit")

	// Full page: more may follow.
	res, err := svc.Query(context.Background(), nil, nil, 10, "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if res.NextToken != journal.listEntries[9].ID {
		t.Fatalf("next token = %q, want last entry id %q", res.NextToken, journal.listEntries[9].ID)
	}

	// Short page: end of the trail.
	res, err = svc.Query(context.Background(), nil, nil, 50, "")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if res.NextToken != "" {
		t.Fatalf("short page must not produce a next token, got %q", res.NextToken)
	}
}
