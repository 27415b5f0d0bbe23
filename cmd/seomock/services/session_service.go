package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"seo-assistant/cmd/seomock/repositories"
	"seo-assistant/dto"
)

var (
	ErrForbidden    = errors.New("access denied")
	ErrEmptyMessage = errors.New("message must not be empty")
	ErrEmptyTitle   = errors.New("title must not be empty")
)

const (
	DefaultSessionLimit = 50
	MaxSessionLimit     = 100
	DefaultMessageLimit = 100
	MaxMessageLimit     = 500
)

// SessionService implements the session, message and job endpoints on top of the repositories.
// Every call is scoped to the authenticated subject.
type SessionService struct {
	sessions *repositories.SessionRepository
	messages *repositories.MessageRepository
	jobs     *repositories.JobRepository
	worker   *JobWorker
}

func NewSessionService(db *repositories.Database, worker *JobWorker) *SessionService {
	return &SessionService{
		sessions: repositories.NewSessionRepository(db),
		messages: repositories.NewMessageRepository(db),
		jobs:     repositories.NewJobRepository(db),
		worker:   worker,
	}
}

// StartSession creates a session with its first message and queues the generation job.
func (s *SessionService) StartSession(ctx context.Context, userID string, req dto.SessionCreateRequest) (dto.AsyncSessionStartResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return dto.AsyncSessionStartResponse{}, ErrEmptyMessage
	}
	title := GenerateTitle(req.Message)
	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		title = strings.TrimSpace(*req.Title)
	}

	session := s.sessions.Create(userID, title)
	msg, err := s.messages.CreateUserMessage(session.ID, req.Message)
	if err != nil {
		return dto.AsyncSessionStartResponse{}, err
	}
	job, err := s.queue(ctx, userID, session.ID, msg)
	if err != nil {
		return dto.AsyncSessionStartResponse{}, err
	}

	return dto.AsyncSessionStartResponse{
		SessionID:    session.ID,
		SessionTitle: session.Title,
		JobID:        job.ID,
		UserMessage:  mapMessage(msg),
		Status:       job.Status,
	}, nil
}

// AddMessage appends a user message to an existing session and queues the generation job.
func (s *SessionService) AddMessage(ctx context.Context, userID, sessionID string, req dto.MessageCreateRequest) (dto.AsyncMessageResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return dto.AsyncMessageResponse{}, ErrEmptyMessage
	}
	if _, err := s.sessions.Get(userID, sessionID); err != nil {
		return dto.AsyncMessageResponse{}, err
	}

	msg, err := s.messages.CreateUserMessage(sessionID, req.Message)
	if err != nil {
		return dto.AsyncMessageResponse{}, err
	}
	job, err := s.queue(ctx, userID, sessionID, msg)
	if err != nil {
		return dto.AsyncMessageResponse{}, err
	}

	return dto.AsyncMessageResponse{
		ID:          msg.ID,
		SessionID:   sessionID,
		JobID:       job.ID,
		UserMessage: mapMessage(msg),
		Status:      job.Status,
	}, nil
}

func (s *SessionService) queue(ctx context.Context, userID, sessionID string, msg repositories.MessageRecord) (repositories.JobRecord, error) {
	job := s.jobs.Create(userID, sessionID, msg.ID, msg.MessageContent)
	if err := s.worker.Enqueue(ctx, job.ID); err != nil {
		_ = s.jobs.MarkFailed(job.ID, "could not queue job")
		return repositories.JobRecord{}, err
	}
	return job, nil
}

func (s *SessionService) ListSessions(userID string, limit, offset int) []dto.SessionListItem {
	limit = clampLimit(limit, DefaultSessionLimit, MaxSessionLimit)
	records := s.sessions.ListByUser(userID, limit, offset)
	out := make([]dto.SessionListItem, 0, len(records))
	for _, r := range records {
		out = append(out, mapSession(r))
	}
	return out
}

func (s *SessionService) ListMessages(userID, sessionID string, limit, offset int) ([]dto.MessageOut, error) {
	if _, err := s.sessions.Get(userID, sessionID); err != nil {
		return nil, err
	}
	limit = clampLimit(limit, DefaultMessageLimit, MaxMessageLimit)
	records := s.messages.ListBySession(sessionID, limit, offset)
	out := make([]dto.MessageOut, 0, len(records))
	for _, r := range records {
		out = append(out, mapMessage(r))
	}
	return out, nil
}

func (s *SessionService) UpdateSession(userID, sessionID string, req dto.SessionUpdateRequest) (dto.SessionUpdateResponse, error) {
	if req.Title == nil {
		// nothing to change; echo the current state
		r, err := s.sessions.Get(userID, sessionID)
		if err != nil {
			return dto.SessionUpdateResponse{}, err
		}
		return dto.SessionUpdateResponse{ID: r.ID, Title: r.Title, UpdatedAt: formatTime(r.UpdatedAt)}, nil
	}
	title := strings.TrimSpace(*req.Title)
	if title == "" {
		return dto.SessionUpdateResponse{}, ErrEmptyTitle
	}
	r, err := s.sessions.UpdateTitle(userID, sessionID, title)
	if err != nil {
		return dto.SessionUpdateResponse{}, err
	}
	return dto.SessionUpdateResponse{ID: r.ID, Title: r.Title, UpdatedAt: formatTime(r.UpdatedAt)}, nil
}

func (s *SessionService) DeleteSession(userID, sessionID string) error {
	return s.sessions.Delete(userID, sessionID)
}

// JobStatus reports a job of userID. The agent message is included once the job completed.
func (s *SessionService) JobStatus(userID, jobID string) (dto.JobStatusResponse, error) {
	job, err := s.jobs.Get(jobID)
	if err != nil {
		return dto.JobStatusResponse{}, err
	}
	if job.UserID != userID {
		return dto.JobStatusResponse{}, ErrForbidden
	}

	resp := dto.JobStatusResponse{
		JobID:     job.ID,
		Status:    job.Status,
		UpdatedAt: formatTime(job.UpdatedAt),
	}
	if job.Status.Terminal() {
		secs := job.ProcessingTimeSeconds
		resp.ProcessingTimeSeconds = &secs
	}
	if job.ErrorMessage != "" {
		msg := job.ErrorMessage
		resp.ErrorMessage = &msg
	}
	if job.Status == dto.JobCompleted && job.AgentMessageID != "" {
		if m, err := s.messages.Get(job.AgentMessageID); err == nil {
			out := mapMessage(m)
			resp.AgentMessage = &out
		}
	}
	return resp, nil
}

func clampLimit(limit, def, maxLimit int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func mapSession(r repositories.SessionRecord) dto.SessionListItem {
	return dto.SessionListItem{
		ID:            r.ID,
		Title:         r.Title,
		CreatedAt:     formatTime(r.CreatedAt),
		UpdatedAt:     formatTime(r.UpdatedAt),
		LastMessageAt: formatTime(r.LastMessageAt),
	}
}

func mapMessage(r repositories.MessageRecord) dto.MessageOut {
	return dto.MessageOut{
		ID:                       r.ID,
		Role:                     r.Role,
		MessageContent:           r.MessageContent,
		SuggestedPageTitle:       r.SuggestedPageTitle,
		SuggestedPageContent:     r.SuggestedPageContent,
		SuggestedTitleTag:        r.SuggestedTitleTag,
		SuggestedMetaDescription: r.SuggestedMetaDescription,
		SuggestedMetaKeywords:    r.SuggestedMetaKeywords,
		CreatedAt:                formatTime(r.CreatedAt),
		UpdatedAt:                formatTime(r.UpdatedAt),
	}
}
