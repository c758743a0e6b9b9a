package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/companion/internal/types"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer()
	require.NoError(t, err)
	return a
}

func TestAnalyzeComplimentRomantic(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis := a.Analyze("You're so beautiful, I love being with you")

	assert.Equal(t, types.SentimentPositive, analysis.Sentiment)
	assert.True(t, analysis.Compliment)
	assert.True(t, analysis.Romantic)
	assert.False(t, analysis.Sexual)
	assert.False(t, analysis.Question)
}

func TestAnalyzeSentiment(t *testing.T) {
	a := newTestAnalyzer(t)

	t.Run("negative majority", func(t *testing.T) {
		analysis := a.Analyze("This is terrible and boring, I hate it")
		assert.Equal(t, types.SentimentNegative, analysis.Sentiment)
	})

	t.Run("tie is neutral", func(t *testing.T) {
		analysis := a.Analyze("good but bad")
		assert.Equal(t, types.SentimentNeutral, analysis.Sentiment)
	})

	t.Run("no hits is neutral", func(t *testing.T) {
		analysis := a.Analyze("the weather report said rain tomorrow")
		assert.Equal(t, types.SentimentNeutral, analysis.Sentiment)
	})
}

func TestAnalyzeQuestion(t *testing.T) {
	a := newTestAnalyzer(t)

	assert.True(t, a.Analyze("Do you remember our first talk").Question)
	assert.True(t, a.Analyze("you remember that, right?").Question)
	assert.False(t, a.Analyze("I remember our first talk.").Question)
}

func TestAnalyzeWordBoundaries(t *testing.T) {
	a := newTestAnalyzer(t)

	// "mad" must not fire inside "nomad", "date" not inside "update".
	analysis := a.Analyze("the nomad sent an update")
	assert.Equal(t, types.SentimentNeutral, analysis.Sentiment)
	assert.False(t, analysis.Romantic)
}

func TestAnalyzeIntimacyBounds(t *testing.T) {
	a := newTestAnalyzer(t)

	analysis := a.Analyze("kiss me, hold me, cuddle, make love, seduce me, you gorgeous stunning thing")
	assert.Equal(t, 5, analysis.Intimacy)
	assert.True(t, analysis.Romantic)
	assert.True(t, analysis.Sexual)

	assert.Equal(t, 0, a.Analyze("let's review the budget").Intimacy)
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := newTestAnalyzer(t)

	first := a.Analyze("I missed you, did you think about me?")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, a.Analyze("I missed you, did you think about me?"))
	}
}
