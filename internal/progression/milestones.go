package progression

import (
	"strings"

	"github.com/hearthside/companion/internal/sanitize"
	"github.com/hearthside/companion/internal/types"
)

// EvaluateMilestones fires every unachieved milestone whose required stats
// all hold simultaneously. Firing is idempotent: the achieved flag flips
// false->true exactly once, reward boosts apply once, and reward unlock ids
// are unioned into the unlocked-content sets.
func (e *Engine) EvaluateMilestones(c *types.Character) []string {
	var fired []string
	for i := range c.Progression.Milestones {
		m := &c.Progression.Milestones[i]
		if m.Achieved {
			continue
		}
		if !requirementsMet(c, m.RequiredStats) {
			continue
		}

		m.Achieved = true
		at := e.now()
		m.AchievedAt = &at
		fired = append(fired, m.ID)

		for field, boost := range m.Rewards.StatBoosts {
			applyField(c, strings.ToLower(strings.TrimSpace(field)), boost)
		}
		for _, unlock := range m.Rewards.Unlocks {
			addUnlock(c, m.Kind, unlock)
		}
		e.appendEvent(c, "milestone", m.Name)
	}
	return fired
}

func requirementsMet(c *types.Character, required map[string]int) bool {
	if len(required) == 0 {
		return false
	}
	for field, min := range required {
		value, ok := fieldValue(c, strings.ToLower(strings.TrimSpace(field)))
		if !ok || value < min {
			return false
		}
	}
	return true
}

// addUnlock routes an unlock id to a content set. Prefixed ids choose their
// namespace explicitly; bare ids fall back to the milestone kind's default.
func addUnlock(c *types.Character, kind types.MilestoneKind, unlock string) {
	unlock = strings.TrimSpace(unlock)
	if unlock == "" {
		return
	}
	switch {
	case strings.HasPrefix(unlock, "position:"):
		c.Progression.UnlockedPositions = addUnique(c.Progression.UnlockedPositions, strings.TrimPrefix(unlock, "position:"))
	case strings.HasPrefix(unlock, "outfit:"):
		c.Progression.UnlockedOutfits = addUnique(c.Progression.UnlockedOutfits, strings.TrimPrefix(unlock, "outfit:"))
	case strings.HasPrefix(unlock, "scenario:"):
		c.Progression.UnlockedScenarios = addUnique(c.Progression.UnlockedScenarios, strings.TrimPrefix(unlock, "scenario:"))
	case kind == types.MilestoneSexual:
		c.Progression.UnlockedPositions = addUnique(c.Progression.UnlockedPositions, unlock)
	default:
		c.Progression.UnlockedScenarios = addUnique(c.Progression.UnlockedScenarios, unlock)
	}
}

func addUnique(set []string, id string) []string {
	for _, existing := range set {
		if existing == id {
			return set
		}
	}
	return append(set, id)
}

// fieldValue reads a named stat or progression field.
func fieldValue(c *types.Character, field string) (int, bool) {
	switch field {
	case "relationship":
		return c.Progression.Relationship, true
	case "affection":
		return c.Progression.Affection, true
	case "trust":
		return c.Progression.Trust, true
	case "intimacy":
		return c.Progression.Intimacy, true
	case "dominance":
		return c.Progression.Dominance, true
	case "jealousy":
		return c.Progression.Jealousy, true
	case "possessiveness":
		return c.Progression.Possessiveness, true
	case "love":
		return c.Stats.Love, true
	case "happiness":
		return c.Stats.Happiness, true
	case "wet":
		return c.Stats.Wet, true
	case "willingness":
		return c.Stats.Willingness, true
	case "self_esteem":
		return c.Stats.SelfEsteem, true
	case "loyalty":
		return c.Stats.Loyalty, true
	case "fight":
		return c.Stats.Fight, true
	case "stamina":
		return c.Stats.Stamina, true
	case "pain":
		return c.Stats.Pain, true
	case "experience":
		return c.Stats.Experience, true
	case "level":
		return sanitize.Level(c.Stats.Level), true
	default:
		return 0, false
	}
}

// DefaultMilestones seeds a fresh character's milestone list.
func DefaultMilestones() []types.Milestone {
	return []types.Milestone{
		{
			ID:            "first_bond",
			Kind:          types.MilestoneRelationship,
			Name:          "First Bond",
			Description:   "She starts looking forward to your messages.",
			RequiredStats: map[string]int{"relationship": 25, "trust": 20},
			Rewards: types.MilestoneRewards{
				Unlocks:    []string{"scenario:evening_walk"},
				StatBoosts: map[string]int{"happiness": 5},
			},
		},
		{
			ID:            "opened_up",
			Kind:          types.MilestoneRelationship,
			Name:          "Opened Up",
			Description:   "She tells you things she tells no one else.",
			RequiredStats: map[string]int{"trust": 50, "affection": 40},
			Rewards: types.MilestoneRewards{
				Unlocks:    []string{"scenario:shared_secret"},
				StatBoosts: map[string]int{"loyalty": 5, "self_esteem": 3},
			},
		},
		{
			ID:            "first_kiss",
			Kind:          types.MilestoneSexual,
			Name:          "First Kiss",
			Description:   "The moment everything changed.",
			RequiredStats: map[string]int{"affection": 55, "intimacy": 40},
			Rewards: types.MilestoneRewards{
				Unlocks:    []string{"outfit:date_night"},
				StatBoosts: map[string]int{"wet": 5, "intimacy": 3},
			},
		},
		{
			ID:            "first_night",
			Kind:          types.MilestoneSexual,
			Name:          "First Night Together",
			Description:   "She stayed until morning.",
			RequiredStats: map[string]int{"intimacy": 65, "willingness": 50, "relationship": 60},
			Rewards: types.MilestoneRewards{
				Unlocks:    []string{"missionary", "position:close_embrace"},
				StatBoosts: map[string]int{"love": 5, "stamina": 3},
			},
		},
	}
}
