package models

import "time"

// PlaceholderTitle is shown for a session the server has not confirmed yet.
const PlaceholderTitle = "New session"

// Session is a conversation thread as shown in the sidebar.
type Session struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	LastMessageAt time.Time `json:"last_message_at"`
	// Pending marks the optimistic placeholder inserted before the server echo.
	Pending bool `json:"pending,omitempty"`
}

// IndexOfSession returns the position of id in sessions, or -1.
func IndexOfSession(sessions []Session, id string) int {
	for i, s := range sessions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// MoveToFront returns sessions with id at index 0. The remaining sessions keep their relative
// order. The input slice is not modified.
func MoveToFront(sessions []Session, id string) []Session {
	idx := IndexOfSession(sessions, id)
	if idx < 0 {
		return append([]Session(nil), sessions...)
	}
	out := make([]Session, 0, len(sessions))
	out = append(out, sessions[idx])
	out = append(out, sessions[:idx]...)
	out = append(out, sessions[idx+1:]...)
	return out
}
