package progression

import (
	"testing"
	"time"

	"github.com/hearthside/companion/internal/types"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func testCharacter() *types.Character {
	return &types.Character{
		ID:   "c1",
		Name: "Mira",
		Stats: types.Stats{
			Happiness: 50,
			Wet:       20,
			Level:     1,
		},
		Progression: types.Progression{
			Tier:         types.TierStranger,
			Relationship: 60,
			Affection:    30,
			Trust:        25,
			Intimacy:     20,
		},
	}
}

func TestApplyUserMessageComplimentRomanticScenario(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()

	engine.ApplyUserMessage(c, types.MessageAnalysis{
		Sentiment:  types.SentimentPositive,
		Compliment: true,
		Romantic:   true,
	})

	if c.Progression.Affection != 32 {
		t.Errorf("affection: expected 32, got %d", c.Progression.Affection)
	}
	if c.Stats.Happiness != 55 {
		t.Errorf("happiness: expected 55, got %d", c.Stats.Happiness)
	}
	if c.Progression.Trust != 25 {
		t.Errorf("trust: expected unchanged 25, got %d", c.Progression.Trust)
	}
	if c.Progression.Intimacy != 22 {
		t.Errorf("intimacy: expected 22, got %d", c.Progression.Intimacy)
	}
	if c.Stats.Wet != 23 {
		t.Errorf("wet: expected 23, got %d", c.Stats.Wet)
	}
	if c.Progression.Relationship != 64 {
		t.Errorf("relationship: expected 64, got %d", c.Progression.Relationship)
	}
}

func TestApplyUserMessageSexualGate(t *testing.T) {
	engine := NewEngine(nil, fixedNow)

	warm := testCharacter()
	warm.Progression.Relationship = 60
	engine.ApplyUserMessage(warm, types.MessageAnalysis{Sentiment: types.SentimentNeutral, Sexual: true})
	if warm.Progression.Relationship != 61 {
		t.Errorf("warm relationship: expected 61, got %d", warm.Progression.Relationship)
	}

	cold := testCharacter()
	cold.Progression.Relationship = 30
	engine.ApplyUserMessage(cold, types.MessageAnalysis{Sentiment: types.SentimentNeutral, Sexual: true})
	if cold.Progression.Relationship != 29 {
		t.Errorf("cold relationship: expected 29, got %d", cold.Progression.Relationship)
	}
}

func TestStatsStayBounded(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()

	hostile := types.MessageAnalysis{Sentiment: types.SentimentNegative}
	for i := 0; i < 200; i++ {
		engine.ApplyUserMessage(c, hostile)
	}
	if c.Stats.Happiness != 0 || c.Progression.Affection != 0 || c.Progression.Relationship != 0 {
		t.Fatalf("floors violated: happiness=%d affection=%d relationship=%d",
			c.Stats.Happiness, c.Progression.Affection, c.Progression.Relationship)
	}
	if c.Stats.Level < 1 {
		t.Fatalf("level dropped below 1: %d", c.Stats.Level)
	}

	adoring := types.MessageAnalysis{Sentiment: types.SentimentPositive, Compliment: true, Romantic: true, Question: true}
	for i := 0; i < 200; i++ {
		engine.ApplyUserMessage(c, adoring)
	}
	if c.Stats.Happiness != 100 || c.Progression.Affection != 100 || c.Progression.Relationship != 100 {
		t.Fatalf("ceilings violated: happiness=%d affection=%d relationship=%d",
			c.Stats.Happiness, c.Progression.Affection, c.Progression.Relationship)
	}
}

func TestApplyCharacterReplyReducedEffect(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()

	engine.ApplyCharacterReply(c, types.MessageAnalysis{Sentiment: types.SentimentPositive, Romantic: true})

	if c.Stats.Happiness != 51 {
		t.Errorf("happiness: expected 51, got %d", c.Stats.Happiness)
	}
	if c.Stats.Wet != 21 {
		t.Errorf("wet: expected 21, got %d", c.Stats.Wet)
	}
	if c.Progression.Relationship != 60 {
		t.Errorf("relationship must not move on character replies, got %d", c.Progression.Relationship)
	}
}

func TestApplyTimeDecay(t *testing.T) {
	engine := NewEngine(nil, fixedNow)

	c := testCharacter()
	c.LastInteractionAt = fixedNow().Add(-10 * 24 * time.Hour)
	engine.ApplyTimeDecay(c)
	if c.Stats.Happiness != 45 {
		t.Errorf("happiness: expected 45 after capped decay, got %d", c.Stats.Happiness)
	}
	if c.Stats.Wet != 18 {
		t.Errorf("wet: expected 18, got %d", c.Stats.Wet)
	}

	fresh := testCharacter()
	fresh.LastInteractionAt = fixedNow().Add(-2 * 24 * time.Hour)
	engine.ApplyTimeDecay(fresh)
	if fresh.Stats.Happiness != 50 {
		t.Errorf("recent interaction must not decay, got %d", fresh.Stats.Happiness)
	}
}

func TestMilestoneFiresOnce(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()
	c.Progression.Relationship = 30
	c.Progression.Trust = 25
	c.Progression.Milestones = []types.Milestone{{
		ID:            "first_bond",
		Kind:          types.MilestoneRelationship,
		Name:          "First Bond",
		RequiredStats: map[string]int{"relationship": 25, "trust": 20},
		Rewards: types.MilestoneRewards{
			Unlocks:    []string{"scenario:evening_walk"},
			StatBoosts: map[string]int{"happiness": 5},
		},
	}}

	fired := engine.EvaluateMilestones(c)
	if len(fired) != 1 || fired[0] != "first_bond" {
		t.Fatalf("expected first_bond to fire, got %v", fired)
	}
	if !c.Progression.Milestones[0].Achieved || c.Progression.Milestones[0].AchievedAt == nil {
		t.Fatal("milestone not marked achieved")
	}
	if c.Stats.Happiness != 55 {
		t.Errorf("reward boost: expected happiness 55, got %d", c.Stats.Happiness)
	}
	if len(c.Progression.UnlockedScenarios) != 1 || c.Progression.UnlockedScenarios[0] != "evening_walk" {
		t.Errorf("unexpected unlocks: %v", c.Progression.UnlockedScenarios)
	}

	// Re-running evaluation must not re-apply rewards.
	fired = engine.EvaluateMilestones(c)
	if len(fired) != 0 {
		t.Fatalf("milestone re-fired: %v", fired)
	}
	if c.Stats.Happiness != 55 {
		t.Errorf("reward re-applied: happiness %d", c.Stats.Happiness)
	}
}

func TestMilestoneAchievedIsMonotonic(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()
	c.Progression.Milestones = []types.Milestone{{
		ID:            "opened_up",
		RequiredStats: map[string]int{"trust": 20},
	}}

	engine.EvaluateMilestones(c)
	if !c.Progression.Milestones[0].Achieved {
		t.Fatal("milestone should have fired")
	}

	// Even after the gating stat collapses, achieved stays true.
	c.Progression.Trust = 0
	engine.EvaluateMilestones(c)
	if !c.Progression.Milestones[0].Achieved {
		t.Fatal("achieved reverted after stat drop")
	}
}

func TestTierIsPureFunctionOfScores(t *testing.T) {
	p := types.Progression{Affection: 80, Trust: 75, Intimacy: 70}
	first := ClassifyTier(p)
	for i := 0; i < 5; i++ {
		if got := ClassifyTier(p); got != first {
			t.Fatalf("tier not stable: %s vs %s", got, first)
		}
	}

	cases := []struct {
		affection, trust, intimacy int
		want                       types.Tier
	}{
		{0, 0, 0, types.TierStranger},
		{12, 12, 12, types.TierAcquaintance},
		{30, 30, 30, types.TierFriend},
		{45, 45, 45, types.TierCloseFriend},
		{60, 60, 60, types.TierRomanticInterest},
		{80, 80, 40, types.TierRomanticInterest}, // mean 66 but intimacy too low for lover
		{75, 75, 65, types.TierLover},
		{95, 95, 90, types.TierDevoted},
		{100, 100, 60, types.TierLover}, // devoted needs intimacy >= 75
	}
	for _, tc := range cases {
		got := ClassifyTier(types.Progression{Affection: tc.affection, Trust: tc.trust, Intimacy: tc.intimacy})
		if got != tc.want {
			t.Errorf("classify(%d,%d,%d): expected %s, got %s", tc.affection, tc.trust, tc.intimacy, tc.want, got)
		}
	}
}

func TestTierChangeIsEdgeTriggered(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()
	c.Progression.Affection = 30
	c.Progression.Trust = 30
	c.Progression.Intimacy = 30
	c.Progression.Tier = types.TierFriend

	update := engine.ApplyUserMessage(c, types.MessageAnalysis{Sentiment: types.SentimentNeutral})
	if update.TierChanged {
		t.Fatal("tier change fired without a transition")
	}

	c.Progression.Affection = 60
	c.Progression.Trust = 60
	c.Progression.Intimacy = 60
	update = engine.ApplyUserMessage(c, types.MessageAnalysis{Sentiment: types.SentimentNeutral})
	if !update.TierChanged || update.Tier != types.TierRomanticInterest || update.PreviousTier != types.TierFriend {
		t.Fatalf("expected friend -> romantic_interest transition, got %+v", update)
	}
	if c.Progression.Tier != types.TierRomanticInterest {
		t.Fatalf("stored tier not overwritten: %s", c.Progression.Tier)
	}
}

func TestApplyAdjustmentMergesProfile(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()
	c.Progression.DominantBehavior = "neutral"

	update := engine.ApplyAdjustment(c, types.BehaviorAdjustment{
		CharacterID:     "c1",
		Behavior:        "affectionate",
		Confidence:      0.8,
		Signals:         types.Signals{Affection: 20, Trust: 4, Tension: -3},
		StatAdjustments: map[string]int{"happiness": 10, "bogus": 50},
		Memories:        []string{"remembers the picnic plan"},
	})

	// Signal clamped to +-12 before application.
	if c.Progression.Affection != 42 {
		t.Errorf("affection: expected 42, got %d", c.Progression.Affection)
	}
	if c.Progression.Trust != 29 {
		t.Errorf("trust: expected 29, got %d", c.Progression.Trust)
	}
	if c.Stats.Happiness != 60 {
		t.Errorf("happiness: expected 60, got %d", c.Stats.Happiness)
	}
	if c.Progression.DominantBehavior != "affectionate" {
		t.Errorf("dominant behavior not replaced: %s", c.Progression.DominantBehavior)
	}
	if len(c.Progression.BehaviorHistory) != 1 || c.Progression.BehaviorHistory[0] != "neutral" {
		t.Errorf("previous behavior not pushed to history: %v", c.Progression.BehaviorHistory)
	}
	if len(c.Memories) != 1 {
		t.Errorf("memory note not appended: %v", c.Memories)
	}
	if update.Tier == "" {
		t.Error("update missing tier")
	}
}

func TestBehaviorHistoryCapped(t *testing.T) {
	engine := NewEngine(nil, fixedNow)
	c := testCharacter()

	labels := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"}
	for _, label := range labels {
		engine.ApplyAdjustment(c, types.BehaviorAdjustment{Behavior: label, Confidence: 0.5})
	}
	if len(c.Progression.BehaviorHistory) != types.BehaviorHistoryCap {
		t.Fatalf("history: expected cap %d, got %d", types.BehaviorHistoryCap, len(c.Progression.BehaviorHistory))
	}
}
