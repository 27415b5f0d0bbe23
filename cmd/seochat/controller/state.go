package controller

import "seo-assistant/models"

// RequestState is the per-session request lifecycle:
// idle → submitting → awaiting-job → idle, plus fetching for history loads.
type RequestState int

const (
	StateIdle RequestState = iota
	StateSubmitting
	StateAwaitingJob
	StateFetching
)

func (s RequestState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateAwaitingJob:
		return "awaiting-job"
	case StateFetching:
		return "fetching"
	default:
		return "unknown"
	}
}

// newSessionKey is the state slot of the not-yet-created conversation.
const newSessionKey = ""

type EventKind int

const (
	EventStateChanged EventKind = iota + 1
	EventNavigated
	EventJobCompleted
	EventJobFailed
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state_changed"
	case EventNavigated:
		return "navigated"
	case EventJobCompleted:
		return "job_completed"
	case EventJobFailed:
		return "job_failed"
	default:
		return "unknown"
	}
}

// Event is delivered to the notifier after every state mutation. Err is set for EventJobFailed.
type Event struct {
	Kind      EventKind
	SessionID string
	JobID     string
	Err       error
}

// Snapshot is a copy of the controller state, safe to read without locking.
type Snapshot struct {
	Sessions        []models.Session
	ActiveSessionID string
	Messages        []models.Message
	Generating      bool
	CurrentJobID    string
	LoadingSessions bool
	States          map[string]RequestState
}

// ActiveSession returns the active session if it is in the list.
func (s Snapshot) ActiveSession() (models.Session, bool) {
	if idx := models.IndexOfSession(s.Sessions, s.ActiveSessionID); idx >= 0 && s.ActiveSessionID != "" {
		return s.Sessions[idx], true
	}
	return models.Session{}, false
}

func (s Snapshot) State(sessionID string) RequestState {
	return s.States[sessionID]
}
