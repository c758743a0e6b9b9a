package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/sanitize"
	"github.com/hearthside/companion/internal/types"
)

const summaryInstruction = `You are a professional dialogue memory summarizer.
Compress the conversation below into a concise story beat while preserving the most important information.

Extract and retain:
1. Key events and important decisions
2. Emotional shifts and intimate moments
3. Personal details the user revealed (preferences, habits, important dates)
4. Promises or agreements made by either party
5. The overall emotional tone

Output requirements:
- Third-person narration, chronological
- Keep the summary within 80 words
- Return ONE valid JSON object: {"summary": "...", "facts": ["..."], "commitments": ["..."], "emotions": ["..."]}
- No extra keys or text outside the JSON object`

// Summary is the decoded compression of one conversation window.
type Summary struct {
	Summary     string   `json:"summary"`
	Facts       []string `json:"facts"`
	Commitments []string `json:"commitments"`
	Emotions    []string `json:"emotions"`
}

// Record is one durable memory row.
type Record struct {
	CharacterID string
	SessionID   string
	Content     string
	Salience    float64
	Embedding   []float32
}

// Repo stores and searches durable memory records.
type Repo interface {
	Add(ctx context.Context, rec Record) error
	SearchSimilar(ctx context.Context, characterID string, embedding []float32, topK int, threshold float64) ([]types.RetrievedMemory, error)
}

// Summarizer compresses finished conversations into chronicle beats and
// persisted memory records.
type Summarizer struct {
	model    models.TextGenerator
	embedder Embedder
	repo     Repo
	now      func() time.Time
}

// NewSummarizer returns a Summarizer. embedder and repo may be nil, in which
// case compression still yields chronicle beats but nothing is persisted.
func NewSummarizer(model models.TextGenerator, embedder Embedder, repo Repo) *Summarizer {
	return &Summarizer{
		model:    model,
		embedder: embedder,
		repo:     repo,
		now:      time.Now,
	}
}

// CompressSession summarizes a session transcript and returns one chronicle
// entry per participating character. Persistence failures are logged and
// swallowed; only a failed or unparseable summary is an error.
func (s *Summarizer) CompressSession(ctx context.Context, sess *types.ChatSession, characters []*types.Character) ([]types.ChronicleEntry, error) {
	if sess == nil || len(sess.Messages) == 0 || len(characters) == 0 {
		return nil, nil
	}
	if s.model == nil {
		return nil, fmt.Errorf("no summarizer model configured")
	}

	prompt := summaryInstruction + "\n\nCONVERSATION:\n" + buildTranscript(sess, characters)
	raw, err := s.model.Complete(ctx, models.CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   400,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize session: %w", err)
	}
	summary, err := parseSummaryJSON(raw)
	if err != nil {
		return nil, err
	}

	var embedding []float32
	if s.embedder != nil && s.repo != nil {
		embedding, err = s.embedder.EmbedDocument(ctx, buildEmbeddingText(summary))
		if err != nil {
			slog.Warn("failed to embed session summary", "session_id", sess.ID, "error", err.Error())
			embedding = nil
		}
	}

	entries := make([]types.ChronicleEntry, 0, len(characters))
	for _, c := range characters {
		entry := types.ChronicleEntry{
			SessionID: sess.ID,
			Summary:   summary.Summary,
			Salience:  ComputeSalience(summary, c),
			CreatedAt: s.now(),
		}
		entries = append(entries, entry)

		if s.repo == nil || embedding == nil {
			continue
		}
		if err := s.repo.Add(ctx, Record{
			CharacterID: c.ID,
			SessionID:   sess.ID,
			Content:     buildEmbeddingText(summary),
			Salience:    entry.Salience,
			Embedding:   embedding,
		}); err != nil {
			slog.Warn("failed to persist memory record", "session_id", sess.ID, "character_id", c.ID, "error", err.Error())
		}
	}
	return entries, nil
}

// buildTranscript renders the session oldest first with display names.
func buildTranscript(sess *types.ChatSession, characters []*types.Character) string {
	names := make(map[string]string, len(characters))
	for _, c := range characters {
		names[c.ID] = c.Name
	}
	var sb strings.Builder
	for _, m := range sess.Messages {
		speaker := "user"
		if m.CharacterID != "" {
			if name, ok := names[m.CharacterID]; ok {
				speaker = name
			} else {
				speaker = m.CharacterID
			}
		}
		sb.WriteString(speaker)
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// parseSummaryJSON extracts the JSON block from model output and decodes it.
func parseSummaryJSON(raw string) (Summary, error) {
	block, ok := sanitize.ExtractJSON(raw)
	if !ok {
		return Summary{}, fmt.Errorf("no json object in summary response")
	}
	var summary Summary
	if err := json.Unmarshal([]byte(block), &summary); err != nil {
		return Summary{}, fmt.Errorf("failed to parse summary json: %w", err)
	}
	if strings.TrimSpace(summary.Summary) == "" {
		return Summary{}, fmt.Errorf("empty summary text")
	}
	summary.Summary = strings.TrimSpace(summary.Summary)
	return summary, nil
}

// buildEmbeddingText joins the high-value fields for vector retrieval.
func buildEmbeddingText(summary Summary) string {
	var sb strings.Builder
	sb.WriteString(summary.Summary)
	appendList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		sb.WriteString("\n")
		sb.WriteString(title)
		sb.WriteString(": ")
		for i, item := range items {
			if i > 0 {
				sb.WriteString(" ; ")
			}
			sb.WriteString(item)
		}
	}
	appendList("facts", summary.Facts)
	appendList("commitments", summary.Commitments)
	return sb.String()
}
