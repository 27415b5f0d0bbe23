package models

import "time"

type MessageType string

const (
	MessageTypeUser  MessageType = "user"
	MessageTypeAgent MessageType = "agent"
)

// Suggestion is the SEO bundle carried by an agent message.
type Suggestion struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	TitleTag        string   `json:"titleTag"`
	MetaDescription string   `json:"metaDescription"`
	MetaKeywords    []string `json:"metaKeywords"`
}

// Message is the unified display model for both user prompts and agent replies.
// User messages use Text; agent messages use Suggestion.
type Message struct {
	ID         string      `json:"id"`
	Type       MessageType `json:"type"`
	Text       string      `json:"text,omitempty"`
	Suggestion *Suggestion `json:"suggestion,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Pending    bool        `json:"pending,omitempty"`
}

func (m Message) IsAgent() bool { return m.Type == MessageTypeAgent }

// ContainsMessage reports whether a message with id is already in messages.
func ContainsMessage(messages []Message, id string) bool {
	for _, m := range messages {
		if m.ID == id {
			return true
		}
	}
	return false
}
