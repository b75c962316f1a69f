package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yuu551/plc-control/internal/models"
	"gorm.io/gorm"
)

// Store is the Postgres-backed Journal.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindStream(ctx context.Context, group, name string) (uuid.UUID, error) {
	var stream models.AuditStream
	err := s.db.WithContext(ctx).
		Where("log_group = ? AND name = ?", group, name).
		First(&stream).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrStreamNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("find audit stream: %w", err)
	}
	return stream.ID, nil
}

func (s *Store) CreateStream(ctx context.Context, stream *models.AuditStream) error {
	err := s.db.WithContext(ctx).Create(stream).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrStreamExists
	}
	if err != nil {
		return fmt.Errorf("create audit stream: %w", err)
	}
	return nil
}

func (s *Store) InsertEntry(ctx context.Context, entry *models.AuditEntry) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListEntries returns entries for the group in ULID order, which is
// chronological. Time bounds are inclusive; afterID resumes a page.
func (s *Store) ListEntries(ctx context.Context, group string, start, end *time.Time, afterID string, limit int) ([]models.AuditEntry, error) {
	query := s.db.WithContext(ctx).
		Model(&models.AuditEntry{}).
		Joins("JOIN audit_streams ON audit_streams.id = audit_entries.stream_id").
		Where("audit_streams.log_group = ?", group)

	if start != nil {
		query = query.Where("audit_entries.timestamp >= ?", *start)
	}
	if end != nil {
		query = query.Where("audit_entries.timestamp <= ?", *end)
	}
	if afterID != "" {
		query = query.Where("audit_entries.id > ?", afterID)
	}

	var entries []models.AuditEntry
	if err := query.Order("audit_entries.id ASC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	return entries, nil
}
