// Package storage persists the world state in PostgreSQL through gorm:
// roster entries and sessions as JSONB documents, durable memories as
// pgvector rows, plus a namespaced document store for everything else.
package storage

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store holds the DB pool and repositories.
type Store struct {
	db         *gorm.DB
	Characters *CharacterRepo
	Sessions   *SessionRepo
	Memories   *MemoryRepo
	Documents  *DocumentRepo
}

// NewStore initializes the PostgreSQL pool and repositories.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		db:         db,
		Characters: NewCharacterRepo(db),
		Sessions:   NewSessionRepo(db),
		Memories:   NewMemoryRepo(db),
		Documents:  NewDocumentRepo(db),
	}, nil
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

func (s *Store) Close() {
	if s.db == nil {
		return
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	_ = sqlDB.Close()
}
