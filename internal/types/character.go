package types

import "time"

// Stats are the character's core gameplay scores. Every percentage field is
// kept in [0,100] by the sanitize package; Experience only grows and Level
// never drops below 1.
type Stats struct {
	Love        int `json:"love"`
	Happiness   int `json:"happiness"`
	Wet         int `json:"wet"`
	Willingness int `json:"willingness"`
	SelfEsteem  int `json:"self_esteem"`
	Loyalty     int `json:"loyalty"`
	Fight       int `json:"fight"`
	Stamina     int `json:"stamina"`
	Pain        int `json:"pain"`
	Experience  int `json:"experience"`
	Level       int `json:"level"`
}

// Skills are learned ability scores, each in [0,100].
type Skills struct {
	Charm     int `json:"charm"`
	Seduction int `json:"seduction"`
	Empathy   int `json:"empathy"`
	Humor     int `json:"humor"`
	Devotion  int `json:"devotion"`
}

// Tier is the coarse, ordered relationship classification.
type Tier string

const (
	TierStranger         Tier = "stranger"
	TierAcquaintance     Tier = "acquaintance"
	TierFriend           Tier = "friend"
	TierCloseFriend      Tier = "close_friend"
	TierRomanticInterest Tier = "romantic_interest"
	TierLover            Tier = "lover"
	TierDevoted          Tier = "devoted"
)

// Event is one entry of the progression event log.
type Event struct {
	Kind      string    `json:"kind"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// ChronicleEntry is one compressed story beat. The chronicle is capped at
// ChronicleCap entries, oldest evicted first, insertion order preserved.
type ChronicleEntry struct {
	SessionID string    `json:"session_id"`
	Summary   string    `json:"summary"`
	Salience  float64   `json:"salience_score"`
	CreatedAt time.Time `json:"created_at"`
}

// MemoryNote is a short remembered fact about the user or the relationship.
type MemoryNote struct {
	Content   string    `json:"content"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	// ChronicleCap bounds the story chronicle per character.
	ChronicleCap = 50
	// MemoryCap bounds the memory notes per character.
	MemoryCap = 120
	// BehaviorHistoryCap bounds the rolling dominant-behavior history.
	BehaviorHistoryCap = 10
)

// Progression holds everything describing the relationship with the user.
type Progression struct {
	Tier           Tier `json:"tier"`
	Relationship   int  `json:"relationship"`
	Affection      int  `json:"affection"`
	Trust          int  `json:"trust"`
	Intimacy       int  `json:"intimacy"`
	Dominance      int  `json:"dominance"`
	Jealousy       int  `json:"jealousy"`
	Possessiveness int  `json:"possessiveness"`

	UnlockedPositions []string `json:"unlocked_positions"`
	UnlockedOutfits   []string `json:"unlocked_outfits"`
	UnlockedScenarios []string `json:"unlocked_scenarios"`

	Milestones []Milestone      `json:"milestones"`
	Events     []Event          `json:"events"`
	Chronicle  []ChronicleEntry `json:"chronicle"`

	// Behavior analysis merge state, refreshed per analysis pass.
	DominantBehavior string   `json:"dominant_behavior"`
	BehaviorHistory  []string `json:"behavior_history"`
	LastSignals      Signals  `json:"last_signals"`
	LastAnalysisID   string   `json:"last_analysis_id"`
}

// Character is a roster entry. A character exclusively owns its own
// stat/progression/memory state.
type Character struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Personality string `json:"personality"`
	Appearance  string `json:"appearance"`
	Scenario    string `json:"scenario"`

	Stats       Stats        `json:"stats"`
	Skills      Skills       `json:"skills"`
	Progression Progression  `json:"progression"`
	Memories    []MemoryNote `json:"memories"`

	LastInteractionAt time.Time `json:"last_interaction_at"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// MeanRelationship is the mean of affection, trust and intimacy, the input
// of tier classification.
func (p Progression) MeanRelationship() int {
	return (p.Affection + p.Trust + p.Intimacy) / 3
}

// AppendChronicle appends an entry, evicting the oldest beyond the cap.
func (p *Progression) AppendChronicle(entry ChronicleEntry) {
	p.Chronicle = append(p.Chronicle, entry)
	if len(p.Chronicle) > ChronicleCap {
		p.Chronicle = p.Chronicle[len(p.Chronicle)-ChronicleCap:]
	}
}

// AppendMemory appends a memory note, evicting the oldest beyond the cap.
func (c *Character) AppendMemory(note MemoryNote) {
	c.Memories = append(c.Memories, note)
	if len(c.Memories) > MemoryCap {
		c.Memories = c.Memories[len(c.Memories)-MemoryCap:]
	}
}
