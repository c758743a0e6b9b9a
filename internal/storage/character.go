package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hearthside/companion/internal/types"
)

// characterModel maps to the characters table. The nested gameplay state is
// stored as JSONB so schema evolution never needs a migration.
type characterModel struct {
	ID          string `gorm:"primaryKey"`
	Name        string
	Role        string
	Personality string
	Appearance  string
	Scenario    string

	Stats       json.RawMessage `gorm:"type:jsonb"`
	Skills      json.RawMessage `gorm:"type:jsonb"`
	Progression json.RawMessage `gorm:"type:jsonb"`
	Memories    json.RawMessage `gorm:"type:jsonb"`

	LastInteractionAt time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (characterModel) TableName() string {
	return "characters"
}

// CharacterRepo accesses roster data.
type CharacterRepo struct {
	db *gorm.DB
}

// NewCharacterRepo returns a CharacterRepo.
func NewCharacterRepo(db *gorm.DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// Save upserts one roster entry.
func (r *CharacterRepo) Save(ctx context.Context, c *types.Character) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("character id is required")
	}
	stats, err := marshalJSON(c.Stats)
	if err != nil {
		return fmt.Errorf("failed to encode character stats: %w", err)
	}
	skills, err := marshalJSON(c.Skills)
	if err != nil {
		return fmt.Errorf("failed to encode character skills: %w", err)
	}
	progression, err := marshalJSON(c.Progression)
	if err != nil {
		return fmt.Errorf("failed to encode character progression: %w", err)
	}
	memories, err := marshalJSON(c.Memories)
	if err != nil {
		return fmt.Errorf("failed to encode character memories: %w", err)
	}

	record := characterModel{
		ID:                c.ID,
		Name:              c.Name,
		Role:              c.Role,
		Personality:       c.Personality,
		Appearance:        c.Appearance,
		Scenario:          c.Scenario,
		Stats:             stats,
		Skills:            skills,
		Progression:       progression,
		Memories:          memories,
		LastInteractionAt: c.LastInteractionAt,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save character: %w", err)
	}
	return nil
}

// GetAll loads the whole roster.
func (r *CharacterRepo) GetAll(ctx context.Context) ([]*types.Character, error) {
	var records []characterModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query characters: %w", err)
	}
	out := make([]*types.Character, 0, len(records))
	for _, record := range records {
		out = append(out, characterFromModel(record))
	}
	return out, nil
}

func characterFromModel(model characterModel) *types.Character {
	c := &types.Character{
		ID:                model.ID,
		Name:              model.Name,
		Role:              model.Role,
		Personality:       model.Personality,
		Appearance:        model.Appearance,
		Scenario:          model.Scenario,
		LastInteractionAt: model.LastInteractionAt,
		CreatedAt:         model.CreatedAt,
		UpdatedAt:         model.UpdatedAt,
	}
	_ = unmarshalJSON(model.Stats, &c.Stats)
	_ = unmarshalJSON(model.Skills, &c.Skills)
	_ = unmarshalJSON(model.Progression, &c.Progression)
	_ = unmarshalJSON(model.Memories, &c.Memories)
	normalizeCharacter(c)
	return c
}

// normalizeCharacter applies read-time defaults so rows written by older
// builds always load into a valid state.
func normalizeCharacter(c *types.Character) {
	if c.Stats.Level < 1 {
		c.Stats.Level = 1
	}
	if c.Progression.Tier == "" {
		c.Progression.Tier = types.TierStranger
	}
}
