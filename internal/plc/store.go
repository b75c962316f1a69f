package plc

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuu551/plc-control/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecordStore persists command records. Writes are single-shot inserts
// keyed by the generated ULID; there is no update path for this type.
type RecordStore struct {
	db *gorm.DB
}

func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

func (s *RecordStore) Write(ctx context.Context, record *models.CommandRecord) error {
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return &PersistenceError{Err: fmt.Errorf("insert command record: %w", err)}
	}
	return nil
}

// ListByOwner returns the caller's records, newest first.
func (s *RecordStore) ListByOwner(ctx context.Context, owner string, page, perPage int) ([]models.CommandRecord, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.CommandRecord{}).Where("owner = ?", owner)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count command records: %w", err)
	}

	var records []models.CommandRecord
	if err := query.Order("id DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("list command records: %w", err)
	}
	return records, total, nil
}

// LatestID returns the newest record id, or "" when the table is empty.
func (s *RecordStore) LatestID(ctx context.Context) (string, error) {
	var record models.CommandRecord
	err := s.db.WithContext(ctx).Select("id").Order("id DESC").First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("find latest command record: %w", err)
	}
	return record.ID, nil
}

// ListSince returns records created after afterID in chronological
// order. ULID ids make this a pure keyset scan.
func (s *RecordStore) ListSince(ctx context.Context, afterID string, limit int) ([]models.CommandRecord, error) {
	query := s.db.WithContext(ctx).Model(&models.CommandRecord{})
	if afterID != "" {
		query = query.Where("id > ?", afterID)
	}

	var records []models.CommandRecord
	if err := query.Order("id ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list command records since %q: %w", afterID, err)
	}
	return records, nil
}

// ParameterStore is the Postgres-backed ParameterSource plus the write
// side used by the provisioning endpoint.
type ParameterStore struct {
	db *gorm.DB
}

func NewParameterStore(db *gorm.DB) *ParameterStore {
	return &ParameterStore{db: db}
}

func (s *ParameterStore) FetchBatch(ctx context.Context, names []string) (map[string]string, error) {
	var rows []models.SecureParameter
	if err := s.db.WithContext(ctx).Where("name IN ?", names).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("select secure parameters: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Name] = row.EncryptedValue
	}
	return out, nil
}

// Upsert stores an already-encrypted value under name.
func (s *ParameterStore) Upsert(ctx context.Context, name, encryptedValue string) error {
	param := models.SecureParameter{Name: name, EncryptedValue: encryptedValue}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"encrypted_value", "updated_at"}),
	}).Create(&param).Error
	if err != nil {
		return fmt.Errorf("upsert secure parameter %s: %w", name, err)
	}
	return nil
}
