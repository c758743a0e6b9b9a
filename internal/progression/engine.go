// Package progression applies bounded stat updates, recomputes relationship
// tiers and evaluates milestones. All math is synchronous and deterministic
// apart from the injected random source driving event emission.
package progression

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hearthside/companion/internal/sanitize"
	"github.com/hearthside/companion/internal/types"
)

// Event emission probabilities and their relationship gates.
const (
	complimentEventChance = 0.30
	romanticEventChance   = 0.20
	romanticEventGate     = 40
	sexualEventChance     = 0.15
	sexualEventGate       = 60
)

// Engine mutates character state in place. The random source and clock are
// injected so tests are deterministic.
type Engine struct {
	rng *rand.Rand
	now func() time.Time
}

// NewEngine returns an Engine. A nil clock falls back to the wall clock; a
// nil random source disables probabilistic event emission.
func NewEngine(rng *rand.Rand, now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{rng: rng, now: now}
}

// Update describes what one progression pass changed.
type Update struct {
	TierChanged  bool
	PreviousTier types.Tier
	Tier         types.Tier
	Milestones   []string
}

// ApplyUserMessage applies the full delta table for one analyzed user
// message, then re-evaluates milestones and the relationship tier.
func (e *Engine) ApplyUserMessage(c *types.Character, analysis types.MessageAnalysis) Update {
	d := userDeltas(analysis, c.Progression.Relationship)
	e.applyDeltas(c, d)
	e.emitEvents(c, analysis)

	c.Stats.Experience = sanitize.NonNegative(c.Stats.Experience + 1)
	c.Stats.Level = sanitize.Level(1 + c.Stats.Experience/100)
	c.LastInteractionAt = e.now()

	return e.finish(c)
}

// ApplyCharacterReply applies the reduced delta table for a character's own
// line: characters nudge their own trajectory through their replies.
func (e *Engine) ApplyCharacterReply(c *types.Character, analysis types.MessageAnalysis) Update {
	var d deltas
	if analysis.Sentiment == types.SentimentPositive {
		d.happiness++
	}
	if analysis.Romantic {
		d.wet++
	}
	e.applyDeltas(c, d)
	return e.finish(c)
}

// ApplyTimeDecay lowers happiness and arousal for characters left alone for
// more than three days. Both floors are 0.
func (e *Engine) ApplyTimeDecay(c *types.Character) {
	if c.LastInteractionAt.IsZero() {
		return
	}
	days := int(e.now().Sub(c.LastInteractionAt).Hours() / 24)
	if days <= 3 {
		return
	}
	drop := days - 3
	if drop > 5 {
		drop = 5
	}
	c.Stats.Happiness = sanitize.Percent(c.Stats.Happiness - drop)
	c.Stats.Wet = sanitize.Percent(c.Stats.Wet - drop/2)
}

// ApplyAdjustment applies one sanitized behavior adjustment through the same
// clamped-update path as direct message analysis, then merges the behavior
// profile and re-evaluates milestones and tier.
func (e *Engine) ApplyAdjustment(c *types.Character, adj types.BehaviorAdjustment) Update {
	adj = sanitize.Adjustment(adj)

	c.Progression.Affection = sanitize.Percent(c.Progression.Affection + adj.Signals.Affection)
	c.Progression.Trust = sanitize.Percent(c.Progression.Trust + adj.Signals.Trust)
	c.Progression.Intimacy = sanitize.Percent(c.Progression.Intimacy + adj.Signals.Intimacy)
	c.Progression.Dominance = sanitize.Percent(c.Progression.Dominance + adj.Signals.Dominance)
	c.Progression.Jealousy = sanitize.Percent(c.Progression.Jealousy + adj.Signals.Tension)

	for field, delta := range adj.StatAdjustments {
		applyField(c, field, delta)
	}

	// Profile merge: new behavior replaces the dominant one; the previous
	// value joins a rolling history.
	if adj.Behavior != "" && adj.Behavior != c.Progression.DominantBehavior {
		if prev := c.Progression.DominantBehavior; prev != "" {
			c.Progression.BehaviorHistory = append(c.Progression.BehaviorHistory, prev)
			if len(c.Progression.BehaviorHistory) > types.BehaviorHistoryCap {
				c.Progression.BehaviorHistory = c.Progression.BehaviorHistory[len(c.Progression.BehaviorHistory)-types.BehaviorHistoryCap:]
			}
		}
		c.Progression.DominantBehavior = adj.Behavior
	}
	c.Progression.LastSignals = adj.Signals

	for _, note := range adj.Memories {
		c.AppendMemory(types.MemoryNote{Content: note, Source: "analysis", CreatedAt: e.now()})
	}

	return e.finish(c)
}

// deltas accumulates one pass of signed changes before clamping.
type deltas struct {
	relationship int
	happiness    int
	affection    int
	trust        int
	intimacy     int
	wet          int
}

// userDeltas is the deterministic delta table for user messages.
func userDeltas(a types.MessageAnalysis, relationship int) deltas {
	var d deltas
	switch a.Sentiment {
	case types.SentimentPositive:
		d.relationship += 1
		d.happiness += 2
	case types.SentimentNegative:
		d.relationship -= 2
		d.happiness -= 3
		d.affection -= 2
		d.trust -= 1
	}
	if a.Compliment {
		d.relationship += 2
		d.happiness += 3
		d.affection += 2
		d.wet += 1
	}
	if a.Question {
		d.trust += 1
		d.affection += 1
	}
	if a.Romantic {
		d.intimacy += 2
		d.wet += 2
		d.relationship += 1
	}
	if a.Sexual {
		d.wet += 3
		d.intimacy += 1
		// Reward when the relationship already runs warm, penalize when it
		// does not.
		if relationship > 50 {
			d.relationship += 1
		} else {
			d.relationship -= 1
		}
	}
	return d
}

func (e *Engine) applyDeltas(c *types.Character, d deltas) {
	c.Progression.Relationship = sanitize.Percent(c.Progression.Relationship + d.relationship)
	c.Progression.Affection = sanitize.Percent(c.Progression.Affection + d.affection)
	c.Progression.Trust = sanitize.Percent(c.Progression.Trust + d.trust)
	c.Progression.Intimacy = sanitize.Percent(c.Progression.Intimacy + d.intimacy)
	c.Stats.Happiness = sanitize.Percent(c.Stats.Happiness + d.happiness)
	c.Stats.Wet = sanitize.Percent(c.Stats.Wet + d.wet)
}

func (e *Engine) emitEvents(c *types.Character, a types.MessageAnalysis) {
	if e.rng == nil {
		return
	}
	rel := c.Progression.Relationship
	if a.Compliment && e.rng.Float64() < complimentEventChance {
		e.appendEvent(c, "compliment", fmt.Sprintf("%s glows at the compliment", c.Name))
	}
	if a.Romantic && rel > romanticEventGate && e.rng.Float64() < romanticEventChance {
		e.appendEvent(c, "romantic", fmt.Sprintf("%s lingers a little closer", c.Name))
	}
	if a.Sexual && rel > sexualEventGate && e.rng.Float64() < sexualEventChance {
		e.appendEvent(c, "sexual", fmt.Sprintf("%s bites her lip", c.Name))
	}
}

func (e *Engine) appendEvent(c *types.Character, kind, note string) {
	c.Progression.Events = append(c.Progression.Events, types.Event{
		Kind:      kind,
		Note:      note,
		CreatedAt: e.now(),
	})
}

// finish re-runs milestone evaluation and tier recomputation after any
// update, whatever its source.
func (e *Engine) finish(c *types.Character) Update {
	fired := e.EvaluateMilestones(c)
	update := Update{Milestones: fired}

	previous := c.Progression.Tier
	current := classifyTier(c.Progression)
	if current != previous {
		update.TierChanged = true
		update.PreviousTier = previous
		update.Tier = current
		c.Progression.Tier = current
	} else {
		update.Tier = current
	}
	c.UpdatedAt = e.now()
	return update
}

// applyField routes a named delta onto a stat or progression field through
// the percentage clamp.
func applyField(c *types.Character, field string, delta int) {
	switch field {
	case "relationship":
		c.Progression.Relationship = sanitize.Percent(c.Progression.Relationship + delta)
	case "affection":
		c.Progression.Affection = sanitize.Percent(c.Progression.Affection + delta)
	case "trust":
		c.Progression.Trust = sanitize.Percent(c.Progression.Trust + delta)
	case "intimacy":
		c.Progression.Intimacy = sanitize.Percent(c.Progression.Intimacy + delta)
	case "dominance":
		c.Progression.Dominance = sanitize.Percent(c.Progression.Dominance + delta)
	case "jealousy":
		c.Progression.Jealousy = sanitize.Percent(c.Progression.Jealousy + delta)
	case "possessiveness":
		c.Progression.Possessiveness = sanitize.Percent(c.Progression.Possessiveness + delta)
	case "love":
		c.Stats.Love = sanitize.Percent(c.Stats.Love + delta)
	case "happiness":
		c.Stats.Happiness = sanitize.Percent(c.Stats.Happiness + delta)
	case "wet":
		c.Stats.Wet = sanitize.Percent(c.Stats.Wet + delta)
	case "willingness":
		c.Stats.Willingness = sanitize.Percent(c.Stats.Willingness + delta)
	case "self_esteem":
		c.Stats.SelfEsteem = sanitize.Percent(c.Stats.SelfEsteem + delta)
	case "loyalty":
		c.Stats.Loyalty = sanitize.Percent(c.Stats.Loyalty + delta)
	case "fight":
		c.Stats.Fight = sanitize.Percent(c.Stats.Fight + delta)
	case "stamina":
		c.Stats.Stamina = sanitize.Percent(c.Stats.Stamina + delta)
	case "pain":
		c.Stats.Pain = sanitize.Percent(c.Stats.Pain + delta)
	case "experience":
		c.Stats.Experience = sanitize.NonNegative(c.Stats.Experience + delta)
		c.Stats.Level = sanitize.Level(1 + c.Stats.Experience/100)
	}
}
