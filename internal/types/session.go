package types

import "time"

// SessionType describes how many participants a chat session carries.
type SessionType string

const (
	SessionIndividual SessionType = "individual"
	SessionGroup      SessionType = "group"
	SessionScene      SessionType = "scene"
)

// MessageType labels a chat message.
type MessageType string

const (
	MessageText   MessageType = "text"
	MessageAction MessageType = "action"
	MessageSystem MessageType = "system"
)

// ChatMessage is one line of a session transcript. An empty CharacterID
// means the user authored it.
type ChatMessage struct {
	ID          string      `json:"id"`
	CharacterID string      `json:"character_id,omitempty"`
	Content     string      `json:"content"`
	Type        MessageType `json:"type"`
	Timestamp   time.Time   `json:"timestamp"`
}

// ChatSession owns an ordered, append-only transcript. The participant list
// is fixed at creation; a session is disposable, not editable.
type ChatSession struct {
	ID             string        `json:"id"`
	Type           SessionType   `json:"type"`
	ParticipantIDs []string      `json:"participant_ids"`
	Context        string        `json:"context,omitempty"`
	Messages       []ChatMessage `json:"messages"`
	Active         bool          `json:"active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// HasParticipant reports whether id is a participant of the session.
func (s *ChatSession) HasParticipant(id string) bool {
	for _, p := range s.ParticipantIDs {
		if p == id {
			return true
		}
	}
	return false
}

// LastMessages returns the trailing n messages of the transcript.
func (s *ChatSession) LastMessages(n int) []ChatMessage {
	if n <= 0 || len(s.Messages) <= n {
		return s.Messages
	}
	return s.Messages[len(s.Messages)-n:]
}
