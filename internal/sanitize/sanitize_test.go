package sanitize

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hearthside/companion/internal/types"
)

func TestPercentBounds(t *testing.T) {
	assert.Equal(t, 0, Percent(-5))
	assert.Equal(t, 100, Percent(140))
	assert.Equal(t, 42, Percent(42))
}

func TestDeltaBoundsPerField(t *testing.T) {
	v, ok := Delta("affection", 30)
	assert.True(t, ok)
	assert.Equal(t, ProgressionDeltaBound, v)

	v, ok = Delta("happiness", 30)
	assert.True(t, ok)
	assert.Equal(t, StatDeltaBound, v)

	v, ok = Delta("happiness", -99)
	assert.True(t, ok)
	assert.Equal(t, -StatDeltaBound, v)

	_, ok = Delta("charisma_of_doom", 3)
	assert.False(t, ok)
}

func TestNumberRejectsNonFinite(t *testing.T) {
	_, ok := Number(math.NaN())
	assert.False(t, ok)
	_, ok = Number(math.Inf(1))
	assert.False(t, ok)
	_, ok = Number("12")
	assert.False(t, ok)

	v, ok := Number(3.6)
	assert.True(t, ok)
	assert.Equal(t, 4, v)
}

func TestAdjustmentContract(t *testing.T) {
	adj := types.BehaviorAdjustment{
		CharacterID: "c1",
		Behavior:    "  affectionate ",
		Confidence:  3.5,
		Signals:     types.Signals{Affection: 40, Trust: -40, Tension: 7},
		StatAdjustments: map[string]int{
			"affection": 99,
			"happiness": -99,
			"unknown":   5,
		},
		Tags:               []string{"a", "b", "c", "d", "e", "f", "g", "h"},
		Memories:           []string{strings.Repeat("x", 400), "short", "", "third", "fourth"},
		RecommendedActions: []string{"one", "two", "three", "four"},
	}

	out := Adjustment(adj)

	assert.Equal(t, 1.0, out.Confidence)
	assert.Equal(t, "affectionate", out.Behavior)
	assert.Equal(t, SignalBound, out.Signals.Affection)
	assert.Equal(t, -SignalBound, out.Signals.Trust)
	assert.Equal(t, 7, out.Signals.Tension)
	assert.Equal(t, ProgressionDeltaBound, out.StatAdjustments["affection"])
	assert.Equal(t, -StatDeltaBound, out.StatAdjustments["happiness"])
	assert.NotContains(t, out.StatAdjustments, "unknown")
	assert.Len(t, out.Tags, TagCap)
	assert.Len(t, out.Memories, MemoryCap)
	assert.Equal(t, MemoryRuneCap, len([]rune(out.Memories[0])))
	assert.Len(t, out.RecommendedActions, ActionCap)
}

func TestAdjustmentIdempotent(t *testing.T) {
	adj := types.BehaviorAdjustment{
		Behavior:        "defensive",
		Confidence:      0.45,
		Signals:         types.Signals{Affection: 40, Dominance: -20},
		StatAdjustments: map[string]int{"trust": 99, "wet": -60},
		Tags:            []string{"t1", "t2", "t3", "t4", "t5", "t6", "t7"},
		Memories:        []string{strings.Repeat("m", 300)},
	}

	once := Adjustment(adj)
	twice := Adjustment(once)
	assert.Equal(t, once, twice)
}

func TestExtractJSON(t *testing.T) {
	t.Run("plain object", func(t *testing.T) {
		out, ok := ExtractJSON(`{"a":1}`)
		assert.True(t, ok)
		assert.Equal(t, `{"a":1}`, out)
	})

	t.Run("surrounded by prose", func(t *testing.T) {
		out, ok := ExtractJSON("Sure! Here you go:\n```json\n{\"a\":{\"b\":2}}\n```\nHope it helps.")
		assert.True(t, ok)
		assert.Equal(t, `{"a":{"b":2}}`, out)
	})

	t.Run("braces inside strings", func(t *testing.T) {
		out, ok := ExtractJSON(`{"note":"a } inside"}`)
		assert.True(t, ok)
		assert.Equal(t, `{"note":"a } inside"}`, out)
	})

	t.Run("truncated object", func(t *testing.T) {
		_, ok := ExtractJSON(`{"a": {"b": 1}`)
		assert.False(t, ok)
	})

	t.Run("no object", func(t *testing.T) {
		_, ok := ExtractJSON("no structured data here")
		assert.False(t, ok)
	})
}
