package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	// DefaultLimit applies when the caller does not ask for a page size.
	DefaultLimit = 100
	// MaxLimit bounds page size regardless of caller input.
	MaxLimit = 1000
)

// QueryResult is a bounded, chronologically ordered slice of the trail.
type QueryResult struct {
	Logs      []map[string]any `json:"logs"`
	Count     int              `json:"count"`
	NextToken string           `json:"next_token,omitempty"`
}

// QueryService reads the audit trail back for review. Entries keep the
// journal's native chronological order; a line that does not parse as
// a structured event degrades to {timestamp, message} instead of
// failing the whole query.
type QueryService struct {
	journal Journal
	group   string
}

func NewQueryService(journal Journal, group string) *QueryService {
	return &QueryService{journal: journal, group: group}
}

// Query returns entries with timestamps inside the inclusive
// [start, end] range. nextToken is the opaque cursor from a previous
// page; an empty token starts from the beginning of the range.
func (q *QueryService) Query(ctx context.Context, start, end *time.Time, limit int, nextToken string) (*QueryResult, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	entries, err := q.journal.ListEntries(ctx, q.group, start, end, nextToken, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	logs := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		var line map[string]any
		if err := json.Unmarshal([]byte(e.Message), &line); err != nil || line == nil {
			line = map[string]any{"message": e.Message}
		}
		line["timestamp"] = e.Timestamp.UTC().Format(time.RFC3339Nano)
		logs = append(logs, line)
	}

	res := &QueryResult{Logs: logs, Count: len(logs)}
	if len(entries) == limit {
		res.NextToken = entries[len(entries)-1].ID
	}
	return res, nil
}
