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

// sessionModel maps to the sessions table.
type sessionModel struct {
	ID             string `gorm:"primaryKey"`
	Type           string
	ParticipantIDs json.RawMessage `gorm:"type:jsonb"`
	Context        string
	Messages       json.RawMessage `gorm:"type:jsonb"`
	Active         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (sessionModel) TableName() string {
	return "sessions"
}

// SessionRepo accesses session data.
type SessionRepo struct {
	db *gorm.DB
}

// NewSessionRepo returns a SessionRepo.
func NewSessionRepo(db *gorm.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Save upserts one session.
func (r *SessionRepo) Save(ctx context.Context, sess *types.ChatSession) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("session id is required")
	}
	participants, err := marshalJSON(sess.ParticipantIDs)
	if err != nil {
		return fmt.Errorf("failed to encode session participants: %w", err)
	}
	messages, err := marshalJSON(sess.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode session messages: %w", err)
	}

	record := sessionModel{
		ID:             sess.ID,
		Type:           string(sess.Type),
		ParticipantIDs: participants,
		Context:        sess.Context,
		Messages:       messages,
		Active:         sess.Active,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// GetAll loads every stored session.
func (r *SessionRepo) GetAll(ctx context.Context) ([]*types.ChatSession, error) {
	var records []sessionModel
	if err := r.db.WithContext(ctx).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	out := make([]*types.ChatSession, 0, len(records))
	for _, record := range records {
		out = append(out, sessionFromModel(record))
	}
	return out, nil
}

// Delete removes one session row.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Delete(&sessionModel{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func sessionFromModel(model sessionModel) *types.ChatSession {
	sess := &types.ChatSession{
		ID:        model.ID,
		Type:      types.SessionType(model.Type),
		Context:   model.Context,
		Active:    model.Active,
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
	_ = unmarshalJSON(model.ParticipantIDs, &sess.ParticipantIDs)
	_ = unmarshalJSON(model.Messages, &sess.Messages)
	if sess.Type == "" {
		sess.Type = types.SessionIndividual
	}
	return sess
}
