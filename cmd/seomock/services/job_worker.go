package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"seo-assistant/cmd/internal/logger"
	"seo-assistant/cmd/seomock/repositories"
	"seo-assistant/dto"
)

const queueSize = 128

// JobWorker completes queued generation jobs after a fixed delay. Each job runs in its own
// goroutine; Run waits for them before returning.
type JobWorker struct {
	sessions  *repositories.SessionRepository
	messages  *repositories.MessageRepository
	jobs      *repositories.JobRepository
	suggester Suggester
	delay     time.Duration
	queue     chan string
}

// NewJobWorker creates a worker. A nil suggester means CannedSuggester.
func NewJobWorker(db *repositories.Database, delay time.Duration, suggester Suggester) *JobWorker {
	if suggester == nil {
		suggester = CannedSuggester{}
	}
	return &JobWorker{
		sessions:  repositories.NewSessionRepository(db),
		messages:  repositories.NewMessageRepository(db),
		jobs:      repositories.NewJobRepository(db),
		suggester: suggester,
		delay:     delay,
		queue:     make(chan string, queueSize),
	}
}

func (w *JobWorker) Enqueue(ctx context.Context, jobID string) error {
	select {
	case w.queue <- jobID:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run processes queued jobs until ctx is done.
func (w *JobWorker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-w.queue:
			wg.Add(1)
			go func() {
				defer wg.Done()
				w.Process(ctx, jobID)
			}()
		}
	}
}

// Process moves one job through generating to completed or failed.
func (w *JobWorker) Process(ctx context.Context, jobID string) {
	job, err := w.jobs.Get(jobID)
	if err != nil {
		logger.WarnWithFields("job vanished before processing", logger.Fields{"job_id": jobID})
		return
	}
	if err := w.jobs.MarkGenerating(jobID); err != nil {
		return
	}

	if w.delay > 0 {
		timer := time.NewTimer(w.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = w.jobs.MarkFailed(jobID, "server shutting down")
			return
		case <-timer.C:
		}
	}

	if strings.Contains(strings.ToLower(job.Prompt), FailMarker) {
		_ = w.jobs.MarkFailed(jobID, "generation failed: prompt requested a failure")
		logger.InfoWithFields("job failed on request", logger.Fields{"job_id": jobID, "session_id": job.SessionID})
		return
	}

	session, err := w.sessions.Get(job.UserID, job.SessionID)
	if err != nil {
		// session deleted while the job was running; its jobs went with it
		logger.InfoWithFields("job dropped with its session", logger.Fields{"job_id": jobID, "session_id": job.SessionID})
		return
	}

	suggestion, err := w.suggester.Suggest(ctx, w.suggestRequest(session, job))
	if err != nil {
		_ = w.jobs.MarkFailed(jobID, err.Error())
		logger.ErrorWithFields("suggestion failed", logger.Fields{"job_id": jobID, "error": err.Error()})
		return
	}

	agent, err := w.messages.CreateAgentMessage(session.ID, suggestion)
	if err != nil {
		_ = w.jobs.MarkFailed(jobID, err.Error())
		return
	}
	if err := w.jobs.MarkCompleted(jobID, agent.ID); err != nil {
		logger.ErrorWithFields("mark job completed failed", logger.Fields{"job_id": jobID, "error": err.Error()})
		return
	}
	logger.InfoWithFields("job completed", logger.Fields{
		"job_id":           jobID,
		"session_id":       session.ID,
		"agent_message_id": agent.ID,
	})
}

// suggestRequest collects the first user message and the latest agent suggestion of the session.
func (w *JobWorker) suggestRequest(session repositories.SessionRecord, job repositories.JobRecord) SuggestRequest {
	req := SuggestRequest{SessionTitle: session.Title, Instruction: job.Prompt}
	for _, m := range w.messages.ListBySession(session.ID, 0, 0) {
		switch {
		case m.Role == dto.RoleUser && req.Anchor == "" && m.ID != job.UserMessageID:
			req.Anchor = m.MessageContent
		case m.Role == dto.RoleAgent:
			req.Draft = &repositories.Suggestion{
				PageTitle:       deref(m.SuggestedPageTitle),
				PageContent:     deref(m.SuggestedPageContent),
				TitleTag:        deref(m.SuggestedTitleTag),
				MetaDescription: deref(m.SuggestedMetaDescription),
				MetaKeywords:    m.SuggestedMetaKeywords,
			}
		}
	}
	return req
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
