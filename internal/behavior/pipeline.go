// Package behavior requests a structured per-character behavioral assessment
// from the text-generation collaborator and degrades to a local heuristic
// whenever the response is missing or malformed. Analyze is a total function
// of its inputs: it always returns a complete result and never an error.
package behavior

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/sanitize"
	"github.com/hearthside/companion/internal/types"
)

// DefaultMessageWindow is how many trailing messages one analysis pass sees.
const DefaultMessageWindow = 18

// Pipeline runs behavior analysis passes.
type Pipeline struct {
	model         models.TextGenerator
	messageWindow int
	now           func() time.Time
}

// NewPipeline returns a Pipeline. A nil model means every pass takes the
// heuristic path.
func NewPipeline(model models.TextGenerator, messageWindow int) *Pipeline {
	if messageWindow <= 0 {
		messageWindow = DefaultMessageWindow
	}
	return &Pipeline{model: model, messageWindow: messageWindow, now: time.Now}
}

const analysisInstruction = `You are a relationship behavior analyst for a character roleplay engine.
Study the conversation and assess each character's current behavior toward the user.

Return ONE valid JSON object and nothing else, matching exactly:
{
  "conversation_summary": "two sentences at most",
  "follow_up_suggestions": ["up to 3 short suggestions for the user"],
  "characters": [
    {
      "character_id": "id from the brief",
      "behavior": "one or two word label",
      "confidence": 0.0,
      "summary": "one sentence",
      "tags": ["up to 6"],
      "signals": {"affection": 0, "trust": 0, "intimacy": 0, "tension": 0, "dominance": 0},
      "stat_adjustments": {"happiness": 0},
      "memories": ["up to 3 short notes worth remembering"],
      "recommended_actions": ["up to 3"]
    }
  ]
}
Signals are deltas in [-12, 12]. Include every character from the brief.`

var analysisPromptTemplate = template.Must(template.New("analysis").Parse(`{{.Instruction}}

CHARACTERS:
{{- range .Characters}}
- id={{.ID}} name={{.Name}} role={{.Role}} personality={{.Personality}} affection={{.Progression.Affection}} trust={{.Progression.Trust}} intimacy={{.Progression.Intimacy}}{{if .Progression.DominantBehavior}} last_behavior={{.Progression.DominantBehavior}}{{end}}
{{- end}}

CONVERSATION (oldest first):
{{- range .Messages}}
{{.Speaker}}: {{.Content}}
{{- end}}

LATEST USER MESSAGE: {{.Latest}}`))

type promptMessage struct {
	Speaker string
	Content string
}

// rawDocument mirrors the collaborator's schema before sanitization. The
// characters array is the one hard requirement.
type rawDocument struct {
	ConversationSummary string          `json:"conversation_summary"`
	FollowUpSuggestions []string        `json:"follow_up_suggestions"`
	Characters          []rawAdjustment `json:"characters"`
}

type rawAdjustment struct {
	CharacterID        string         `json:"character_id"`
	Name               string         `json:"name"`
	Behavior           string         `json:"behavior"`
	Confidence         float64        `json:"confidence"`
	Summary            string         `json:"summary"`
	Tags               []string       `json:"tags"`
	Signals            map[string]any `json:"signals"`
	StatAdjustments    map[string]any `json:"stat_adjustments"`
	Memories           []string       `json:"memories"`
	RecommendedActions []string       `json:"recommended_actions"`
}

// Analyze produces one behavioral assessment covering every character. The
// result always has exactly one adjustment per character.
func (p *Pipeline) Analyze(ctx context.Context, sessionID string, messages []types.ChatMessage, characters []*types.Character, latestUserMessage string) types.BehaviorAnalysis {
	analysisID := uuid.NewString()

	if p.model == nil {
		return p.fallback(analysisID, characters, latestUserMessage)
	}

	prompt, err := p.buildPrompt(messages, characters, latestUserMessage)
	if err != nil {
		slog.Error("failed to build analysis prompt", "session_id", sessionID, "error", err.Error())
		return p.fallback(analysisID, characters, latestUserMessage)
	}

	raw, err := p.model.Complete(ctx, models.CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.4,
		MaxTokens:   1200,
	})
	if err != nil {
		slog.Warn("behavior analysis call failed, using heuristic", "session_id", sessionID, "error", err.Error())
		return p.fallback(analysisID, characters, latestUserMessage)
	}

	doc, ok := decodeDocument(raw)
	if !ok {
		slog.Warn("behavior analysis response malformed, using heuristic", "session_id", sessionID)
		return p.fallback(analysisID, characters, latestUserMessage)
	}

	result := types.BehaviorAnalysis{
		AnalysisID:          analysisID,
		ConversationSummary: strings.TrimSpace(doc.ConversationSummary),
		FollowUpSuggestions: capList(doc.FollowUpSuggestions, 3),
	}

	byCharacter := indexAdjustments(doc.Characters, characters)
	for _, c := range characters {
		adj, ok := byCharacter[c.ID]
		if !ok {
			// The collaborator skipped this character; the heuristic fills
			// the gap so every character gets an adjustment.
			result.Adjustments = append(result.Adjustments, sanitize.Adjustment(heuristicAdjustment(c, latestUserMessage)))
			continue
		}
		result.Adjustments = append(result.Adjustments, sanitize.Adjustment(adj))
	}
	return result
}

func (p *Pipeline) buildPrompt(messages []types.ChatMessage, characters []*types.Character, latest string) (string, error) {
	if len(messages) > p.messageWindow {
		messages = messages[len(messages)-p.messageWindow:]
	}

	names := make(map[string]string, len(characters))
	for _, c := range characters {
		names[c.ID] = c.Name
	}
	prompted := make([]promptMessage, 0, len(messages))
	for _, m := range messages {
		speaker := "user"
		if m.CharacterID != "" {
			if name, ok := names[m.CharacterID]; ok {
				speaker = name
			} else {
				speaker = m.CharacterID
			}
		}
		prompted = append(prompted, promptMessage{Speaker: speaker, Content: m.Content})
	}

	data := struct {
		Instruction string
		Characters  []*types.Character
		Messages    []promptMessage
		Latest      string
	}{
		Instruction: analysisInstruction,
		Characters:  characters,
		Messages:    prompted,
		Latest:      latest,
	}
	var buf bytes.Buffer
	if err := analysisPromptTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// decodeDocument extracts the outermost balanced JSON block and requires a
// characters array.
func decodeDocument(raw string) (rawDocument, bool) {
	block, ok := sanitize.ExtractJSON(raw)
	if !ok {
		return rawDocument{}, false
	}
	var doc rawDocument
	if err := json.Unmarshal([]byte(block), &doc); err != nil {
		return rawDocument{}, false
	}
	if doc.Characters == nil {
		return rawDocument{}, false
	}
	return doc, true
}

// indexAdjustments converts raw adjustments and resolves them to roster ids,
// accepting either the id or the character name.
func indexAdjustments(raws []rawAdjustment, characters []*types.Character) map[string]types.BehaviorAdjustment {
	idByName := make(map[string]string, len(characters))
	known := make(map[string]bool, len(characters))
	for _, c := range characters {
		idByName[strings.ToLower(c.Name)] = c.ID
		known[c.ID] = true
	}

	out := make(map[string]types.BehaviorAdjustment, len(raws))
	for _, raw := range raws {
		id := strings.TrimSpace(raw.CharacterID)
		if !known[id] {
			if resolved, ok := idByName[strings.ToLower(strings.TrimSpace(raw.Name))]; ok {
				id = resolved
			} else {
				continue
			}
		}
		if _, dup := out[id]; dup {
			continue
		}
		out[id] = types.BehaviorAdjustment{
			CharacterID:        id,
			Behavior:           raw.Behavior,
			Confidence:         raw.Confidence,
			Summary:            raw.Summary,
			Tags:               raw.Tags,
			Signals:            decodeSignals(raw.Signals),
			StatAdjustments:    decodeDeltas(raw.StatAdjustments),
			Memories:           raw.Memories,
			RecommendedActions: raw.RecommendedActions,
		}
	}
	return out
}

// decodeSignals converts untyped signal values, dropping non-finite ones.
func decodeSignals(values map[string]any) types.Signals {
	var s types.Signals
	for key, value := range values {
		n, ok := sanitize.Number(value)
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "affection":
			s.Affection = n
		case "trust":
			s.Trust = n
		case "intimacy":
			s.Intimacy = n
		case "tension":
			s.Tension = n
		case "dominance":
			s.Dominance = n
		}
	}
	return s
}

// decodeDeltas converts untyped stat deltas, dropping anything that is not a
// finite number. Field bounds apply later in sanitize.Adjustment.
func decodeDeltas(values map[string]any) map[string]int {
	if len(values) == 0 {
		return nil
	}
	out := make(map[string]int, len(values))
	for key, value := range values {
		n, ok := sanitize.Number(value)
		if !ok {
			continue
		}
		out[key] = n
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func capList(items []string, max int) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
		if len(out) == max {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
