package dto

// SessionCreateRequest is the body of POST /sessions/async.
type SessionCreateRequest struct {
	Message string  `json:"message" binding:"required,min=1"`
	Title   *string `json:"title,omitempty"`
}

// SessionListItem is one entry of GET /sessions.
type SessionListItem struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	LastMessageAt string `json:"last_message_at"`
}

// AsyncSessionStartResponse is returned when a new session is started and its first job queued.
type AsyncSessionStartResponse struct {
	SessionID    string     `json:"session_id"`
	SessionTitle string     `json:"session_title"`
	JobID        string     `json:"job_id"`
	UserMessage  MessageOut `json:"user_message"`
	Status       JobStatus  `json:"status"`
}

// SessionUpdateRequest is the body of PATCH /sessions/{id}.
type SessionUpdateRequest struct {
	Title *string `json:"title" binding:"omitempty,min=1,max=255"`
}

// SessionUpdateResponse echoes the renamed session.
type SessionUpdateResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UpdatedAt string `json:"updated_at"`
}
