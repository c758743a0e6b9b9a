package behavior

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/companion/internal/models"
	"github.com/hearthside/companion/internal/types"
)

type scriptedModel struct {
	response string
	err      error
	prompts  []string
}

func (m *scriptedModel) Complete(_ context.Context, req models.CompletionRequest) (string, error) {
	m.prompts = append(m.prompts, req.Prompt)
	return m.response, m.err
}

func testRoster() []*types.Character {
	return []*types.Character{
		{ID: "luna", Name: "Luna", Role: "companion", Personality: "gentle"},
		{ID: "mira", Name: "Mira", Role: "rival", Personality: "sharp"},
	}
}

func TestAnalyzeMalformedResponsesNeverFail(t *testing.T) {
	roster := testRoster()
	cases := map[string]string{
		"prose only":      "I could not produce JSON this time, sorry.",
		"truncated":       `{"conversation_summary": "cut off", "characters": [{"character_id": "lu`,
		"empty":           "",
		"wrong shape":     `{"summary": "no characters key here"}`,
		"characters null": `{"conversation_summary": "x", "characters": null}`,
	}
	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			p := NewPipeline(&scriptedModel{response: response}, 0)
			result := p.Analyze(context.Background(), "s1", nil, roster, "hello there")

			assert.True(t, result.Fallback)
			assert.Len(t, result.Adjustments, len(roster))
			assert.NotEmpty(t, result.AnalysisID)
		})
	}
}

func TestAnalyzeModelErrorFallsBack(t *testing.T) {
	roster := testRoster()
	p := NewPipeline(&scriptedModel{err: errors.New("upstream down")}, 0)

	result := p.Analyze(context.Background(), "s1", nil, roster, "you are so sweet, I adore you")

	require.True(t, result.Fallback)
	require.Len(t, result.Adjustments, 2)
	for _, adj := range result.Adjustments {
		assert.Equal(t, "affectionate", adj.Behavior)
		assert.Equal(t, 3, adj.Signals.Affection)
		assert.GreaterOrEqual(t, adj.Confidence, 0.40)
		assert.LessOrEqual(t, adj.Confidence, 0.55)
	}
}

func TestAnalyzeNilModelUsesHeuristic(t *testing.T) {
	p := NewPipeline(nil, 0)
	result := p.Analyze(context.Background(), "s1", nil, testRoster(), "I hate this, you are so annoying")

	require.True(t, result.Fallback)
	require.Len(t, result.Adjustments, 2)
	assert.Equal(t, "defensive", result.Adjustments[0].Behavior)
	assert.Equal(t, 4, result.Adjustments[0].Signals.Tension)
	assert.Equal(t, -2, result.Adjustments[0].Signals.Affection)
}

func TestAnalyzeHeuristicNeutral(t *testing.T) {
	p := NewPipeline(nil, 0)
	result := p.Analyze(context.Background(), "s1", nil, testRoster(), "the weather changed again today")

	require.Len(t, result.Adjustments, 2)
	adj := result.Adjustments[0]
	assert.Equal(t, "neutral", adj.Behavior)
	assert.InDelta(t, 0.40, adj.Confidence, 1e-9)
	assert.Equal(t, types.Signals{}, adj.Signals)
}

func TestAnalyzeValidResponse(t *testing.T) {
	response := `Here is my analysis:
{
  "conversation_summary": "The user flirts with Luna while Mira watches.",
  "follow_up_suggestions": ["ask Luna about her day", "", "tease Mira", "too", "many"],
  "characters": [
    {
      "character_id": "luna",
      "behavior": "flirtatious",
      "confidence": 0.9,
      "summary": "Luna leans in.",
      "tags": ["warm", "playful"],
      "signals": {"affection": 5, "trust": 2, "intimacy": 30, "tension": "not a number"},
      "stat_adjustments": {"happiness": 4, "experience": 100, "unknown_field": 9, "love": null},
      "memories": ["User complimented Luna's laugh."],
      "recommended_actions": ["invite her out"]
    }
  ]
}`
	model := &scriptedModel{response: response}
	roster := testRoster()
	p := NewPipeline(model, 0)

	result := p.Analyze(context.Background(), "s1", []types.ChatMessage{
		{Content: "hi"},
		{CharacterID: "luna", Content: "hello"},
	}, roster, "your laugh is lovely")

	require.False(t, result.Fallback)
	require.Len(t, result.Adjustments, 2)
	assert.Equal(t, "The user flirts with Luna while Mira watches.", result.ConversationSummary)
	assert.Equal(t, []string{"ask Luna about her day", "tease Mira"}, result.FollowUpSuggestions)

	luna := result.Adjustments[0]
	require.Equal(t, "luna", luna.CharacterID)
	assert.Equal(t, "flirtatious", luna.Behavior)
	assert.Equal(t, 5, luna.Signals.Affection)
	assert.Equal(t, 12, luna.Signals.Intimacy, "signal clamped to bound")
	assert.Equal(t, 0, luna.Signals.Tension, "non-numeric signal dropped")
	assert.Equal(t, 4, luna.StatAdjustments["happiness"])
	assert.Equal(t, 25, luna.StatAdjustments["experience"], "stat delta clamped to bound")
	assert.NotContains(t, luna.StatAdjustments, "unknown_field")
	assert.NotContains(t, luna.StatAdjustments, "love", "null delta dropped")

	// Mira was absent from the response, so the heuristic covers her.
	mira := result.Adjustments[1]
	assert.Equal(t, "mira", mira.CharacterID)
	assert.LessOrEqual(t, mira.Confidence, 0.55)
}

func TestAnalyzeResolvesCharacterByName(t *testing.T) {
	response := `{"conversation_summary":"s","characters":[
		{"character_id":"","name":"LUNA","behavior":"shy","confidence":0.7,"summary":"s"},
		{"character_id":"ghost","name":"Nobody","behavior":"x","confidence":0.5,"summary":"s"}
	]}`
	p := NewPipeline(&scriptedModel{response: response}, 0)
	result := p.Analyze(context.Background(), "s1", nil, testRoster(), "hey")

	require.Len(t, result.Adjustments, 2)
	assert.Equal(t, "luna", result.Adjustments[0].CharacterID)
	assert.Equal(t, "shy", result.Adjustments[0].Behavior)
	// The unknown entry is discarded; Mira still gets a heuristic entry.
	assert.Equal(t, "mira", result.Adjustments[1].CharacterID)
}

func TestBuildPromptWindowsMessages(t *testing.T) {
	p := NewPipeline(&scriptedModel{response: "not json"}, 2)
	messages := []types.ChatMessage{
		{Content: "dropped-one"},
		{CharacterID: "luna", Content: "kept-one"},
		{Content: "kept-two"},
	}
	prompt, err := p.buildPrompt(messages, testRoster(), "latest")
	require.NoError(t, err)

	assert.NotContains(t, prompt, "dropped-one")
	assert.Contains(t, prompt, "Luna: kept-one")
	assert.Contains(t, prompt, "user: kept-two")
	assert.Contains(t, prompt, "LATEST USER MESSAGE: latest")
	assert.Contains(t, prompt, "id=mira")
}

func TestKeywordNoteSkipsStopwords(t *testing.T) {
	note := keywordNote("you are so beautiful and sweet today, my dear")
	assert.Equal(t, " (beautiful, sweet, today)", note)
}
