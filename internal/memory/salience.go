package memory

import (
	"unicode/utf8"

	"github.com/hearthside/companion/internal/types"
)

// ComputeSalience calculates a deterministic salience score in [0,1] from the
// summary's content signals and the character's current relationship state.
// Charged states make a beat weigh more.
func ComputeSalience(summary Summary, c *types.Character) float64 {
	score := 0.0

	if summary.Summary != "" {
		score += 0.10
	}

	facts := len(summary.Facts)
	if facts > 3 {
		facts = 3
	}
	score += float64(facts) * 0.15

	commitments := len(summary.Commitments)
	if commitments > 2 {
		commitments = 2
	}
	score += float64(commitments) * 0.20

	emotions := len(summary.Emotions)
	if emotions > 2 {
		emotions = 2
	}
	score += float64(emotions) * 0.10

	length := utf8.RuneCountInString(summary.Summary)
	if length >= 200 {
		score += 0.10
	} else if length >= 100 {
		score += 0.05
	}

	if c != nil {
		if c.Stats.Happiness <= 20 || c.Progression.Jealousy >= 60 {
			score += 0.10
		}
		switch {
		case c.Progression.Affection <= 20:
			score += 0.05
		case c.Progression.Affection >= 80:
			score += 0.03
		}
	}

	return clampScore(score)
}

func clampScore(score float64) float64 {
	if score != score || score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
