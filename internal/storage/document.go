package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentModel maps to the documents table, a namespaced key to JSON store
// for small engine state that deserves no table of its own.
type documentModel struct {
	Namespace string          `gorm:"primaryKey"`
	Key       string          `gorm:"primaryKey"`
	Value     json.RawMessage `gorm:"type:jsonb"`
	UpdatedAt time.Time
}

func (documentModel) TableName() string {
	return "documents"
}

// DocumentRepo accesses the document store.
type DocumentRepo struct {
	db *gorm.DB
}

// NewDocumentRepo returns a DocumentRepo.
func NewDocumentRepo(db *gorm.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Put upserts one document.
func (r *DocumentRepo) Put(ctx context.Context, namespace, key string, value any) error {
	if namespace == "" || key == "" {
		return fmt.Errorf("document namespace and key are required")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", namespace, key, err)
	}
	record := documentModel{
		Namespace: namespace,
		Key:       key,
		Value:     raw,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save document %s/%s: %w", namespace, key, err)
	}
	return nil
}

// Get decodes one document into target. It reports whether the document
// exists.
func (r *DocumentRepo) Get(ctx context.Context, namespace, key string, target any) (bool, error) {
	var record documentModel
	err := r.db.WithContext(ctx).
		Where("namespace = ? AND key = ?", namespace, key).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load document %s/%s: %w", namespace, key, err)
	}
	if err := json.Unmarshal(record.Value, target); err != nil {
		return false, fmt.Errorf("failed to decode document %s/%s: %w", namespace, key, err)
	}
	return true, nil
}

// Delete removes one document.
func (r *DocumentRepo) Delete(ctx context.Context, namespace, key string) error {
	if err := r.db.WithContext(ctx).
		Delete(&documentModel{}, "namespace = ? AND key = ?", namespace, key).Error; err != nil {
		return fmt.Errorf("failed to delete document %s/%s: %w", namespace, key, err)
	}
	return nil
}
