package types

// Sentiment is the coarse polarity of a message.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// MessageAnalysis is the Signal Analyzer's output for one message, computed
// purely from fixed lexicons.
type MessageAnalysis struct {
	Sentiment  Sentiment `json:"sentiment"`
	Intimacy   int       `json:"intimacy"` // 0..5
	Romantic   bool      `json:"romantic"`
	Sexual     bool      `json:"sexual"`
	Compliment bool      `json:"compliment"`
	Question   bool      `json:"question"`
}

// Signals is a bundle of signed, bounded relationship deltas. Each field is
// clamped to [-SignalBound, SignalBound].
type Signals struct {
	Affection int `json:"affection"`
	Trust     int `json:"trust"`
	Intimacy  int `json:"intimacy"`
	Tension   int `json:"tension"`
	Dominance int `json:"dominance"`
}

// BehaviorAdjustment is one character's share of an analysis pass. It is
// transient: sanitized, applied, then discarded.
type BehaviorAdjustment struct {
	CharacterID string   `json:"character_id"`
	Behavior    string   `json:"behavior"`
	Confidence  float64  `json:"confidence"` // [0,1]
	Summary     string   `json:"summary"`
	Tags        []string `json:"tags"` // <=6
	Signals     Signals  `json:"signals"`
	// StatAdjustments maps stat or progression field names to deltas. Each
	// delta is clamped to the field's documented bound before application.
	StatAdjustments    map[string]int `json:"stat_adjustments"`
	Memories           []string       `json:"memories"`            // <=3, each <=160 chars
	RecommendedActions []string       `json:"recommended_actions"` // <=3
}

// BehaviorAnalysis is the complete result of one analysis pass. The pipeline
// always returns a value of this shape, never an error.
type BehaviorAnalysis struct {
	AnalysisID          string               `json:"analysis_id"`
	ConversationSummary string               `json:"conversation_summary"`
	FollowUpSuggestions []string             `json:"follow_up_suggestions"`
	Adjustments         []BehaviorAdjustment `json:"adjustments"`
	Fallback            bool                 `json:"fallback"`
}
