// Package sanitize clamps and truncates untrusted numeric and text payloads
// into safe bounds. Every consumer of model output or heuristic output goes
// through this one contract, so an already-sanitized bundle passes through
// unchanged.
package sanitize

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/hearthside/companion/internal/types"
)

const (
	// SignalBound bounds each emotional signal delta.
	SignalBound = 12
	// ProgressionDeltaBound bounds deltas against progression fields.
	ProgressionDeltaBound = 12
	// StatDeltaBound bounds deltas against core stat fields.
	StatDeltaBound = 25

	// TagCap, MemoryCap and ActionCap truncate the list payloads of one
	// behavior adjustment.
	TagCap    = 6
	MemoryCap = 3
	ActionCap = 3
	// MemoryRuneCap truncates each memory note.
	MemoryRuneCap = 160
)

// deltaBounds maps every stat or progression field a behavior adjustment may
// target to its clamp bound. Unknown fields are dropped.
var deltaBounds = map[string]int{
	"relationship":   ProgressionDeltaBound,
	"affection":      ProgressionDeltaBound,
	"trust":          ProgressionDeltaBound,
	"intimacy":       ProgressionDeltaBound,
	"dominance":      ProgressionDeltaBound,
	"jealousy":       ProgressionDeltaBound,
	"possessiveness": ProgressionDeltaBound,

	"love":        StatDeltaBound,
	"happiness":   StatDeltaBound,
	"wet":         StatDeltaBound,
	"willingness": StatDeltaBound,
	"self_esteem": StatDeltaBound,
	"loyalty":     StatDeltaBound,
	"fight":       StatDeltaBound,
	"stamina":     StatDeltaBound,
	"pain":        StatDeltaBound,
	"experience":  StatDeltaBound,
}

// Percent bounds a percentage stat to [0,100].
func Percent(v int) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}

// Level bounds a character level to >=1.
func Level(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// NonNegative bounds a counter to >=0.
func NonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

// Unit bounds a score to [0,1]; NaN collapses to 0.
func Unit(v float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Signal bounds one emotional signal delta to +-SignalBound.
func Signal(v int) int {
	if v > SignalBound {
		return SignalBound
	}
	if v < -SignalBound {
		return -SignalBound
	}
	return v
}

// Delta clamps a stat or progression delta to the field's documented bound.
// Unknown fields report ok=false and must be dropped by the caller.
func Delta(field string, v int) (int, bool) {
	bound, ok := deltaBounds[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return 0, false
	}
	if v > bound {
		return bound, true
	}
	if v < -bound {
		return -bound, true
	}
	return v, true
}

// Number converts an untyped decoded JSON value into an int, rejecting
// anything that is not a finite number.
func Number(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int(math.Round(n)), true
	case float32:
		return Number(float64(n))
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	default:
		return 0, false
	}
}

// Signals clamps every field of a signal bundle.
func SignalBundle(s types.Signals) types.Signals {
	return types.Signals{
		Affection: Signal(s.Affection),
		Trust:     Signal(s.Trust),
		Intimacy:  Signal(s.Intimacy),
		Tension:   Signal(s.Tension),
		Dominance: Signal(s.Dominance),
	}
}

// TruncateText truncates text to at most limit runes.
func TruncateText(text string, limit int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit])
}

// truncateList drops empty entries and truncates the list to cap entries.
func truncateList(items []string, max int) []string {
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

// Adjustment applies the full sanitization contract to one behavior
// adjustment: signals to +-SignalBound, stat deltas to their field bounds
// (unknown fields dropped), confidence to [0,1], tags to 6, memories to 3
// entries of at most 160 runes, recommended actions to 3. Idempotent.
func Adjustment(adj types.BehaviorAdjustment) types.BehaviorAdjustment {
	adj.Confidence = Unit(adj.Confidence)
	adj.Behavior = strings.TrimSpace(adj.Behavior)
	adj.Summary = strings.TrimSpace(adj.Summary)
	adj.Signals = SignalBundle(adj.Signals)

	if len(adj.StatAdjustments) > 0 {
		clamped := make(map[string]int, len(adj.StatAdjustments))
		for field, delta := range adj.StatAdjustments {
			v, ok := Delta(field, delta)
			if !ok || v == 0 {
				continue
			}
			clamped[strings.ToLower(strings.TrimSpace(field))] = v
		}
		if len(clamped) == 0 {
			adj.StatAdjustments = nil
		} else {
			adj.StatAdjustments = clamped
		}
	}

	adj.Tags = truncateList(adj.Tags, TagCap)
	memories := truncateList(adj.Memories, MemoryCap)
	for i, note := range memories {
		memories[i] = TruncateText(note, MemoryRuneCap)
	}
	adj.Memories = memories
	adj.RecommendedActions = truncateList(adj.RecommendedActions, ActionCap)
	return adj
}
