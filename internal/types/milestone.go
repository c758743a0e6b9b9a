package types

import "time"

// MilestoneKind separates relationship milestones from sexual ones; the
// evaluation rules are identical, only the reward namespaces differ.
type MilestoneKind string

const (
	MilestoneRelationship MilestoneKind = "relationship"
	MilestoneSexual       MilestoneKind = "sexual"
)

// MilestoneRewards are applied exactly once, when the milestone fires.
type MilestoneRewards struct {
	// Unlocks are free-form unlock identifiers unioned into the unlocked
	// content set matching the milestone kind.
	Unlocks []string `json:"unlocks"`
	// StatBoosts maps stat or progression field names to boost amounts.
	StatBoosts map[string]int `json:"stat_boosts"`
}

// Milestone is a one-time achievable event. Achieved is monotonic: it flips
// false->true exactly once and never reverts.
type Milestone struct {
	ID          string        `json:"id"`
	Kind        MilestoneKind `json:"kind"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	// RequiredStats maps stat or progression field names to minimums; every
	// entry must hold simultaneously for the milestone to fire.
	RequiredStats map[string]int   `json:"required_stats"`
	Rewards       MilestoneRewards `json:"rewards"`
	Achieved      bool             `json:"achieved"`
	AchievedAt    *time.Time       `json:"achieved_at,omitempty"`
}
