package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/hearthside/companion/internal/memory"
	"github.com/hearthside/companion/internal/types"
)

// memoryModel maps to the memories table.
type memoryModel struct {
	ID          int
	CharacterID string
	SessionID   string
	Content     string
	// Salience is a 0-1 importance score, used in ranking.
	Salience float64 `gorm:"column:salience_score"`
	// Embedding stores the vector representation for similarity search.
	Embedding *pgvector.Vector `gorm:"type:vector"`
	CreatedAt time.Time
}

func (memoryModel) TableName() string {
	return "memories"
}

// MemoryRepo accesses durable memory rows. It implements memory.Repo.
type MemoryRepo struct {
	db *gorm.DB
}

// NewMemoryRepo returns a MemoryRepo.
func NewMemoryRepo(db *gorm.DB) *MemoryRepo {
	return &MemoryRepo{db: db}
}

var _ memory.Repo = (*MemoryRepo)(nil)

func (r *MemoryRepo) Add(ctx context.Context, rec memory.Record) error {
	var vector *pgvector.Vector
	if len(rec.Embedding) > 0 {
		v := pgvector.NewVector(rec.Embedding)
		vector = &v
	}
	record := memoryModel{
		CharacterID: rec.CharacterID,
		SessionID:   rec.SessionID,
		Content:     rec.Content,
		Salience:    rec.Salience,
		Embedding:   vector,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert memory: %w", err)
	}
	return nil
}

// SearchSimilar filters by cosine similarity and re-ranks by a blend of
// similarity and salience.
func (r *MemoryRepo) SearchSimilar(ctx context.Context, characterID string, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT content,
		       COALESCE(salience_score, 0) AS salience,
		       1 - (embedding <=> $1) AS similarity
		FROM memories
		WHERE embedding IS NOT NULL
		  AND character_id = $2
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY (0.85 * (1 - (embedding <=> $1)) + 0.15 * COALESCE(salience_score, 0)) DESC
		LIMIT $4`

	var results []types.RetrievedMemory
	if err := r.db.WithContext(ctx).
		Raw(query, pgvector.NewVector(embedding), characterID, threshold, topK).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search similar memories: %w", err)
	}
	return results, nil
}

// marshalJSON encodes a value into JSONB, returning nil for empty values.
func marshalJSON(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}

// unmarshalJSON decodes JSONB into the provided target.
func unmarshalJSON(data json.RawMessage, target any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}
