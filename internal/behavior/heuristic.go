package behavior

import (
	"fmt"
	"strings"

	"github.com/orsinium-labs/stopwords"

	"github.com/hearthside/companion/internal/sanitize"
	"github.com/hearthside/companion/internal/types"
)

// The heuristic path runs whenever the collaborator is unavailable or its
// output cannot be decoded. It classifies the latest user message with flat
// keyword lists and reports deliberately low confidence.

var warmKeywords = []string{
	"love", "adore", "sweet", "beautiful", "miss", "cuddle", "kiss",
	"darling", "wonderful", "amazing", "thank", "happy", "care",
}

var coldKeywords = []string{
	"hate", "stupid", "ugly", "boring", "annoying", "shut", "leave",
	"liar", "angry", "jealous", "cheat", "whatever", "worst",
}

var english = stopwords.MustGet("en")

// heuristicAdjustment classifies one character's stance from the latest user
// message alone.
func heuristicAdjustment(c *types.Character, latest string) types.BehaviorAdjustment {
	warm, cold := keywordHits(latest)

	adj := types.BehaviorAdjustment{
		CharacterID: c.ID,
		Behavior:    string(types.SentimentNeutral),
		Summary:     fmt.Sprintf("%s holds steady; the last message gave no strong cues.", c.Name),
	}
	hits := 0
	switch {
	case warm > cold:
		hits = warm
		adj.Behavior = "affectionate"
		adj.Signals = types.Signals{Affection: 3, Trust: 2}
		adj.Summary = fmt.Sprintf("%s warms up after an affectionate message%s.", c.Name, keywordNote(latest))
	case cold > warm:
		hits = cold
		adj.Behavior = "defensive"
		adj.Signals = types.Signals{Affection: -2, Tension: 4}
		adj.Summary = fmt.Sprintf("%s turns defensive after a hostile message%s.", c.Name, keywordNote(latest))
	}
	if hits > 3 {
		hits = 3
	}
	adj.Confidence = 0.40 + 0.05*float64(hits)
	return adj
}

func keywordHits(text string) (warm, cold int) {
	lowered := " " + strings.ToLower(text) + " "
	for _, w := range warmKeywords {
		if strings.Contains(lowered, w) {
			warm++
		}
	}
	for _, w := range coldKeywords {
		if strings.Contains(lowered, w) {
			cold++
		}
	}
	return warm, cold
}

// keywordNote pulls up to three content words from the message for the
// templated summary, skipping stopwords.
func keywordNote(text string) string {
	var picked []string
	for _, field := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(field, ".,!?;:'\"()")
		if word == "" || english.Contains(word) {
			continue
		}
		picked = append(picked, word)
		if len(picked) == 3 {
			break
		}
	}
	if len(picked) == 0 {
		return ""
	}
	return " (" + strings.Join(picked, ", ") + ")"
}

// fallback builds a full analysis entirely from the heuristic path.
func (p *Pipeline) fallback(analysisID string, characters []*types.Character, latest string) types.BehaviorAnalysis {
	result := types.BehaviorAnalysis{
		AnalysisID: analysisID,
		Fallback:   true,
	}
	for _, c := range characters {
		result.Adjustments = append(result.Adjustments, sanitize.Adjustment(heuristicAdjustment(c, latest)))
	}
	return result
}
