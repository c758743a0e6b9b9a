package types

// RetrievedMemory is one long-term memory record scored against the current
// message.
type RetrievedMemory struct {
	Content    string  `json:"content"`
	Salience   float64 `json:"salience"`
	Similarity float64 `json:"similarity"`
}
