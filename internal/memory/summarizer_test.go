package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/types"
)

type fakeModel struct {
	response string
	err      error
}

func (m *fakeModel) Complete(context.Context, models.CompletionRequest) (string, error) {
	return m.response, m.err
}

type fakeEmbedder struct {
	err error
}

func (e *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, nil
}

func (e *fakeEmbedder) EmbedDocument(_ context.Context, text string) ([]float32, error) {
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeRepo struct {
	added []Record
	err   error
}

func (r *fakeRepo) Add(_ context.Context, rec Record) error {
	if r.err != nil {
		return r.err
	}
	r.added = append(r.added, rec)
	return nil
}

func (r *fakeRepo) SearchSimilar(context.Context, string, []float32, int, float64) ([]types.RetrievedMemory, error) {
	return nil, nil
}

func testSession() *types.ChatSession {
	return &types.ChatSession{
		ID: "s1",
		Messages: []types.ChatMessage{
			{Content: "hello"},
			{CharacterID: "luna", Content: "hi there"},
		},
	}
}

func TestCompressSession(t *testing.T) {
	model := &fakeModel{response: `Sure, here you go:
{"summary": "The user and Luna talked about the lake trip.", "facts": ["user likes lakes"], "commitments": ["Luna will pack a picnic"], "emotions": ["content"]}`}
	repo := &fakeRepo{}
	s := NewSummarizer(model, &fakeEmbedder{}, repo)
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	entries, err := s.CompressSession(context.Background(), testSession(), []*types.Character{
		{
			ID:          "luna",
			Name:        "Luna",
			Stats:       types.Stats{Happiness: 50},
			Progression: types.Progression{Affection: 50},
		},
	})
	if err != nil {
		t.Fatalf("CompressSession failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	entry := entries[0]
	if entry.SessionID != "s1" {
		t.Errorf("session id = %q", entry.SessionID)
	}
	if entry.Summary != "The user and Luna talked about the lake trip." {
		t.Errorf("summary = %q", entry.Summary)
	}
	// 0.10 summary + 0.15 fact + 0.20 commitment + 0.10 emotion
	if entry.Salience < 0.549 || entry.Salience > 0.551 {
		t.Errorf("salience = %v, want 0.55", entry.Salience)
	}
	if !entry.CreatedAt.Equal(now) {
		t.Errorf("created at = %v", entry.CreatedAt)
	}

	if len(repo.added) != 1 {
		t.Fatalf("got %d persisted records, want 1", len(repo.added))
	}
	rec := repo.added[0]
	if rec.CharacterID != "luna" || rec.SessionID != "s1" {
		t.Errorf("record = %+v", rec)
	}
}

func TestCompressSessionMalformedSummary(t *testing.T) {
	s := NewSummarizer(&fakeModel{response: "no json here"}, nil, nil)
	if _, err := s.CompressSession(context.Background(), testSession(), []*types.Character{{ID: "luna"}}); err == nil {
		t.Fatal("expected error for non-json summary")
	}

	s = NewSummarizer(&fakeModel{response: `{"facts": ["x"]}`}, nil, nil)
	if _, err := s.CompressSession(context.Background(), testSession(), []*types.Character{{ID: "luna"}}); err == nil {
		t.Fatal("expected error for missing summary text")
	}
}

func TestCompressSessionModelError(t *testing.T) {
	s := NewSummarizer(&fakeModel{err: errors.New("down")}, nil, nil)
	if _, err := s.CompressSession(context.Background(), testSession(), []*types.Character{{ID: "luna"}}); err == nil {
		t.Fatal("expected error when the model fails")
	}
}

func TestCompressSessionEmpty(t *testing.T) {
	s := NewSummarizer(&fakeModel{}, nil, nil)
	entries, err := s.CompressSession(context.Background(), &types.ChatSession{ID: "s1"}, []*types.Character{{ID: "luna"}})
	if err != nil {
		t.Fatalf("empty session should be a no-op: %v", err)
	}
	if entries != nil {
		t.Errorf("entries = %v, want nil", entries)
	}
}

func TestCompressSessionPersistFailureSwallowed(t *testing.T) {
	model := &fakeModel{response: `{"summary": "A short talk."}`}
	repo := &fakeRepo{err: errors.New("db down")}
	s := NewSummarizer(model, &fakeEmbedder{}, repo)

	entries, err := s.CompressSession(context.Background(), testSession(), []*types.Character{{ID: "luna"}})
	if err != nil {
		t.Fatalf("persistence failure must not fail compression: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
}

func TestComputeSalienceChargedState(t *testing.T) {
	summary := Summary{Summary: "beat"}
	baseline := ComputeSalience(summary, &types.Character{
		Stats:       types.Stats{Happiness: 50},
		Progression: types.Progression{Affection: 50},
	})
	sad := ComputeSalience(summary, &types.Character{
		Stats:       types.Stats{Happiness: 10},
		Progression: types.Progression{Affection: 50},
	})
	if sad <= baseline {
		t.Errorf("low happiness should raise salience: %v <= %v", sad, baseline)
	}

	maxed := ComputeSalience(Summary{
		Summary:     "a very long and detailed story beat " + longText(220),
		Facts:       []string{"a", "b", "c", "d"},
		Commitments: []string{"a", "b", "c"},
		Emotions:    []string{"a", "b", "c"},
	}, &types.Character{Progression: types.Progression{Jealousy: 90, Affection: 10}})
	if maxed > 1 {
		t.Errorf("salience exceeded 1: %v", maxed)
	}
}

func longText(n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = 'x'
	}
	return string(out)
}
