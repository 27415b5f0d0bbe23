package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"seo-assistant/cmd/internal/logger"
	"seo-assistant/cmd/internal/trace"
	"seo-assistant/cmd/seochat/clients/seoclient"
	"seo-assistant/cmd/seochat/transform"
	"seo-assistant/dto"
	"seo-assistant/models"
)

// API is the part of the remote client the controller drives.
type API interface {
	ListSessions(ctx context.Context, opts seoclient.ListOptions) ([]dto.SessionListItem, error)
	CreateSession(ctx context.Context, message string) (dto.AsyncSessionStartResponse, error)
	AddMessage(ctx context.Context, sessionID, message string) (dto.AsyncMessageResponse, error)
	ListMessages(ctx context.Context, sessionID string, opts seoclient.ListOptions) ([]dto.MessageOut, error)
	UpdateSession(ctx context.Context, sessionID, title string) (dto.SessionUpdateResponse, error)
	DeleteSession(ctx context.Context, sessionID string) error
	JobStatus(ctx context.Context, jobID string) (dto.JobStatusResponse, error)
}

type Options struct {
	PollInterval  time.Duration
	MaxPollErrors int
	// Notify receives an Event after every state change. It is called without the controller
	// lock held, from whichever goroutine made the change.
	Notify func(Event)
}

const pendingIDPrefix = "pending-"

// Controller owns the session list, the active conversation and the generation status.
//
// Network calls run outside the lock. Optimistic entries (pending placeholder session, pending
// user message) are inserted before a submission and swapped for the server echo afterwards,
// so the echo never duplicates them.
type Controller struct {
	api    API
	poller *Poller
	notify func(Event)

	baseCtx context.Context
	stop    context.CancelFunc

	mu              sync.Mutex
	sessions        []models.Session
	active          string
	messages        []models.Message
	loadedFor       string
	loadingSessions bool
	states          map[string]RequestState
	job             *JobTask
}

func New(api API, opts Options) *Controller {
	ctx, stop := context.WithCancel(context.Background())
	notify := opts.Notify
	if notify == nil {
		notify = func(Event) {}
	}
	return &Controller{
		api:     api,
		poller:  NewPoller(api.JobStatus, opts.PollInterval, opts.MaxPollErrors),
		notify:  notify,
		baseCtx: ctx,
		stop:    stop,
		states:  map[string]RequestState{},
	}
}

// Close cancels any running poll and waits for it to exit.
func (c *Controller) Close() {
	c.mu.Lock()
	task := c.job
	c.cancelJobLocked()
	c.mu.Unlock()

	c.stop()
	if task != nil {
		<-task.done
	}
}

// Snapshot returns a consistent copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		Sessions:        append([]models.Session(nil), c.sessions...),
		ActiveSessionID: c.active,
		Messages:        append([]models.Message(nil), c.messages...),
		Generating:      c.job != nil,
		LoadingSessions: c.loadingSessions,
		States:          make(map[string]RequestState, len(c.states)),
	}
	if c.job != nil {
		s.CurrentJobID = c.job.JobID
	}
	for k, v := range c.states {
		s.States[k] = v
	}
	return s
}

// CurrentJob returns the running poll, or nil.
func (c *Controller) CurrentJob() *JobTask {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.job
}

// FetchSessions replaces the session list with the server's. Unconfirmed placeholders stay on top.
func (c *Controller) FetchSessions(ctx context.Context) error {
	ctx = trace.StartOperation(ctx, "fetch_sessions")

	c.mu.Lock()
	c.loadingSessions = true
	c.mu.Unlock()

	items, err := c.api.ListSessions(ctx, seoclient.ListOptions{})

	c.mu.Lock()
	c.loadingSessions = false
	if err != nil {
		c.mu.Unlock()
		logError("fetch sessions failed", "", "", err)
		c.emit(Event{Kind: EventStateChanged})
		return err
	}
	var pending []models.Session
	for _, s := range c.sessions {
		if s.Pending {
			pending = append(pending, s)
		}
	}
	c.sessions = append(pending, transform.Sessions(items)...)
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged})
	return nil
}

// FetchSessionMessages loads the history of sessionID into the conversation if it is active.
// It does nothing when that history is already loaded or when a request for the session is in
// flight, so optimistic entries are never clobbered by a stale read.
func (c *Controller) FetchSessionMessages(ctx context.Context, sessionID string) error {
	ctx = trace.StartOperation(ctx, "fetch_messages")

	c.mu.Lock()
	if c.loadedFor == sessionID && c.active == sessionID {
		c.mu.Unlock()
		return nil
	}
	if c.states[sessionID] != StateIdle {
		c.mu.Unlock()
		return nil
	}
	c.states[sessionID] = StateFetching
	c.mu.Unlock()

	recs, err := c.api.ListMessages(ctx, sessionID, seoclient.ListOptions{})

	c.mu.Lock()
	if c.states[sessionID] == StateFetching {
		delete(c.states, sessionID)
	}
	if err != nil {
		if c.active == sessionID {
			c.messages = nil
			c.loadedFor = ""
		}
		c.mu.Unlock()
		logError("fetch session messages failed", sessionID, "", err)
		c.emit(Event{Kind: EventStateChanged, SessionID: sessionID})
		return err
	}
	if c.active != sessionID {
		c.mu.Unlock()
		return nil
	}
	c.messages = transform.Messages(recs)
	c.loadedFor = sessionID
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, SessionID: sessionID})
	return nil
}

// SelectSession navigates to sessionID. A poll running for another session is canceled.
func (c *Controller) SelectSession(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	if c.active != sessionID {
		if c.job != nil && c.job.SessionID != sessionID {
			c.cancelJobLocked()
		}
		c.active = sessionID
		c.messages = nil
		c.loadedFor = ""
		c.mu.Unlock()
		c.emit(Event{Kind: EventNavigated, SessionID: sessionID})
	} else {
		c.mu.Unlock()
	}
	if sessionID == "" {
		return nil
	}
	return c.FetchSessionMessages(ctx, sessionID)
}

// NewConversation navigates to the empty view used to start a session.
func (c *Controller) NewConversation() {
	c.mu.Lock()
	c.cancelJobLocked()
	c.active = ""
	c.messages = nil
	c.loadedFor = ""
	c.mu.Unlock()
	c.emit(Event{Kind: EventNavigated})
}

// CreateSession starts a new session with text as its first message and begins polling the
// resulting job. On failure the optimistic entries are removed and the error is returned.
// The returned task is nil when the user navigated away before the server answered.
func (c *Controller) CreateSession(ctx context.Context, text string) (dto.AsyncSessionStartResponse, *JobTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return dto.AsyncSessionStartResponse{}, nil, ErrEmptyMessage
	}
	ctx = trace.StartOperation(ctx, "create_session")

	now := time.Now()
	placeholder := models.Session{
		ID:            pendingIDPrefix + uuid.NewString(),
		Title:         models.PlaceholderTitle,
		LastMessageAt: now,
		Pending:       true,
	}
	pendingMsg := models.Message{
		ID:        pendingIDPrefix + uuid.NewString(),
		Type:      models.MessageTypeUser,
		Text:      text,
		Timestamp: now,
		Pending:   true,
	}

	c.mu.Lock()
	if c.states[newSessionKey] != StateIdle {
		c.mu.Unlock()
		return dto.AsyncSessionStartResponse{}, nil, ErrBusy
	}
	c.cancelJobLocked()
	c.states[newSessionKey] = StateSubmitting
	c.sessions = append([]models.Session{placeholder}, c.sessions...)
	c.active = placeholder.ID
	c.messages = []models.Message{pendingMsg}
	c.loadedFor = placeholder.ID
	c.mu.Unlock()
	c.emit(Event{Kind: EventNavigated, SessionID: placeholder.ID})

	resp, err := c.api.CreateSession(ctx, text)

	c.mu.Lock()
	delete(c.states, newSessionKey)
	if err != nil {
		c.sessions = removeSession(c.sessions, placeholder.ID)
		if c.active == placeholder.ID {
			c.active = ""
			c.messages = nil
			c.loadedFor = ""
		}
		c.mu.Unlock()
		logError("create session failed", "", "", err)
		c.emit(Event{Kind: EventNavigated})
		return dto.AsyncSessionStartResponse{}, nil, err
	}

	confirmed := models.Session{
		ID:            resp.SessionID,
		Title:         resp.SessionTitle,
		LastMessageAt: timestampOr(resp.UserMessage.UpdatedAt, now),
	}
	c.sessions = mergeSession(c.sessions, placeholder.ID, confirmed)

	var task *JobTask
	stillActive := c.active == placeholder.ID
	if stillActive {
		c.active = confirmed.ID
		c.messages = replaceMessage(c.messages, pendingMsg.ID, transform.UserMessage(resp.UserMessage))
		c.loadedFor = confirmed.ID
		c.states[confirmed.ID] = StateAwaitingJob
		task = c.startJobLocked(confirmed.ID, resp.JobID)
	}
	c.mu.Unlock()

	logger.InfoWithFields("session created", logger.Fields{
		"session_id": resp.SessionID,
		"job_id":     resp.JobID,
		"active":     stillActive,
	})
	c.emit(Event{Kind: EventNavigated, SessionID: confirmed.ID, JobID: resp.JobID})
	return resp, task, nil
}

// ContinueSession sends text to the active session, moves that session to the top of the list
// and begins polling the resulting job. The returned task is nil when the user navigated away
// before the server answered.
func (c *Controller) ContinueSession(ctx context.Context, text string) (dto.AsyncMessageResponse, *JobTask, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return dto.AsyncMessageResponse{}, nil, ErrEmptyMessage
	}
	ctx = trace.StartOperation(ctx, "continue_session")

	now := time.Now()
	pendingMsg := models.Message{
		ID:        pendingIDPrefix + uuid.NewString(),
		Type:      models.MessageTypeUser,
		Text:      text,
		Timestamp: now,
		Pending:   true,
	}

	c.mu.Lock()
	sessionID := c.active
	if sessionID == "" {
		c.mu.Unlock()
		return dto.AsyncMessageResponse{}, nil, ErrNoActiveSession
	}
	if strings.HasPrefix(sessionID, pendingIDPrefix) || c.states[sessionID] != StateIdle {
		c.mu.Unlock()
		return dto.AsyncMessageResponse{}, nil, ErrBusy
	}
	c.states[sessionID] = StateSubmitting
	c.messages = append(c.messages, pendingMsg)
	c.mu.Unlock()
	c.emit(Event{Kind: EventStateChanged, SessionID: sessionID})

	resp, err := c.api.AddMessage(ctx, sessionID, text)

	c.mu.Lock()
	delete(c.states, sessionID)
	if err != nil {
		c.messages = removeMessage(c.messages, pendingMsg.ID)
		c.mu.Unlock()
		logError("send message failed", sessionID, "", err)
		c.emit(Event{Kind: EventStateChanged, SessionID: sessionID})
		return dto.AsyncMessageResponse{}, nil, err
	}

	if idx := models.IndexOfSession(c.sessions, sessionID); idx >= 0 {
		c.sessions[idx].LastMessageAt = timestampOr(resp.UserMessage.UpdatedAt, now)
	}
	c.sessions = models.MoveToFront(c.sessions, sessionID)

	var task *JobTask
	reload := false
	if c.active == sessionID {
		c.messages = replaceMessage(c.messages, pendingMsg.ID, transform.UserMessage(resp.UserMessage))
		c.states[sessionID] = StateAwaitingJob
		task = c.startJobLocked(sessionID, resp.JobID)
		// the session was left and re-entered while submitting, so its history was skipped
		reload = c.loadedFor != sessionID
	}
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, SessionID: sessionID, JobID: resp.JobID})
	if reload {
		c.reloadMessages(ctx, sessionID)
	}
	return resp, task, nil
}

// reloadMessages fetches the history of sessionID while a request for it is in flight and merges
// in the entries already shown. Unlike FetchSessionMessages it ignores the request state.
func (c *Controller) reloadMessages(ctx context.Context, sessionID string) {
	recs, err := c.api.ListMessages(ctx, sessionID, seoclient.ListOptions{})
	if err != nil {
		logError("reload session messages failed", sessionID, "", err)
		return
	}

	c.mu.Lock()
	if c.active != sessionID || c.loadedFor == sessionID {
		c.mu.Unlock()
		return
	}
	merged := transform.Messages(recs)
	for _, m := range c.messages {
		if !models.ContainsMessage(merged, m.ID) {
			merged = append(merged, m)
		}
	}
	c.messages = merged
	c.loadedFor = sessionID
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, SessionID: sessionID})
}

// PollJobStatus blocks until jobID reaches a terminal status using the controller's interval.
// It does not touch controller state; the controller's own polls go through startJobLocked.
func (c *Controller) PollJobStatus(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
	return c.poller.Poll(trace.StartOperation(ctx, "poll_job"), jobID)
}

// UpdateSession renames sessionID and applies the server's title locally.
func (c *Controller) UpdateSession(ctx context.Context, sessionID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrEmptyTitle
	}
	ctx = trace.StartOperation(ctx, "update_session")

	resp, err := c.api.UpdateSession(ctx, sessionID, title)
	if err != nil {
		logError("update session failed", sessionID, "", err)
		return err
	}
	if resp.Title != "" {
		title = resp.Title
	}

	c.mu.Lock()
	if idx := models.IndexOfSession(c.sessions, sessionID); idx >= 0 {
		c.sessions[idx].Title = title
	}
	c.mu.Unlock()

	c.emit(Event{Kind: EventStateChanged, SessionID: sessionID})
	return nil
}

// DeleteSession deletes sessionID. When it was active, its poll is canceled and the
// controller navigates away from it.
func (c *Controller) DeleteSession(ctx context.Context, sessionID string) error {
	ctx = trace.StartOperation(ctx, "delete_session")

	if err := c.api.DeleteSession(ctx, sessionID); err != nil {
		logError("delete session failed", sessionID, "", err)
		return err
	}

	c.mu.Lock()
	c.sessions = removeSession(c.sessions, sessionID)
	navigated := c.active == sessionID
	if navigated {
		c.cancelJobLocked()
		c.active = ""
		c.messages = nil
		c.loadedFor = ""
	}
	if c.job == nil || c.job.SessionID != sessionID {
		delete(c.states, sessionID)
	}
	c.mu.Unlock()

	if navigated {
		c.emit(Event{Kind: EventNavigated})
	} else {
		c.emit(Event{Kind: EventStateChanged, SessionID: sessionID})
	}
	return nil
}

// startJobLocked starts polling jobID for sessionID. Callers hold c.mu.
func (c *Controller) startJobLocked(sessionID, jobID string) *JobTask {
	c.cancelJobLocked()

	ctx, cancel := context.WithCancel(c.baseCtx)
	task := &JobTask{
		SessionID: sessionID,
		JobID:     jobID,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	c.job = task
	go c.runJob(ctx, task)
	return task
}

// cancelJobLocked cancels the running poll, if any, and returns its session to idle.
func (c *Controller) cancelJobLocked() {
	if c.job == nil {
		return
	}
	c.job.cancel()
	if c.states[c.job.SessionID] == StateAwaitingJob {
		delete(c.states, c.job.SessionID)
	}
	logger.DebugWithFields("job poll canceled", logger.Fields{
		"session_id": c.job.SessionID,
		"job_id":     c.job.JobID,
	})
	c.job = nil
}

func (c *Controller) runJob(ctx context.Context, task *JobTask) {
	defer close(task.done)
	defer task.cancel()

	resp, err := c.poller.Poll(trace.StartOperation(ctx, "poll_job"), task.JobID)
	task.result, task.err = resp, err

	c.mu.Lock()
	if c.job != task {
		// canceled or superseded: the outcome belongs to a view that is gone
		c.mu.Unlock()
		return
	}
	c.job = nil
	delete(c.states, task.SessionID)

	appended := false
	if err == nil && resp.AgentMessage != nil && c.active == task.SessionID {
		msg := transform.AgentMessage(*resp.AgentMessage)
		if !models.ContainsMessage(c.messages, msg.ID) {
			c.messages = append(c.messages, msg)
			appended = true
		}
	}
	c.mu.Unlock()

	if err != nil {
		var failed *JobFailedError
		if !errors.As(err, &failed) {
			err = &JobFailedError{JobID: task.JobID, Message: err.Error()}
		}
		logError("job failed", task.SessionID, task.JobID, err)
		c.emit(Event{Kind: EventJobFailed, SessionID: task.SessionID, JobID: task.JobID, Err: err})
		return
	}

	logger.InfoWithFields("job completed", logger.Fields{
		"session_id": task.SessionID,
		"job_id":     task.JobID,
		"appended":   appended,
	})
	c.emit(Event{Kind: EventJobCompleted, SessionID: task.SessionID, JobID: task.JobID})
}

func (c *Controller) emit(ev Event) {
	c.notify(ev)
}

func logError(msg, sessionID, jobID string, err error) {
	fields := logger.Fields{"error": err.Error()}
	if sessionID != "" {
		fields["session_id"] = sessionID
	}
	if jobID != "" {
		fields["job_id"] = jobID
	}
	logger.ErrorWithFields(msg, fields)
}

func timestampOr(s string, fallback time.Time) time.Time {
	if t := transform.ParseTimestamp(s); !t.IsZero() {
		return t
	}
	return fallback
}

// mergeSession swaps the placeholder for the confirmed session, keeping its position.
// Any other entry with the confirmed id is dropped. Server fields win.
func mergeSession(sessions []models.Session, placeholderID string, confirmed models.Session) []models.Session {
	out := make([]models.Session, 0, len(sessions)+1)
	replaced := false
	for _, s := range sessions {
		switch {
		case s.ID == placeholderID:
			out = append(out, confirmed)
			replaced = true
		case s.ID == confirmed.ID:
		default:
			out = append(out, s)
		}
	}
	if !replaced {
		out = append([]models.Session{confirmed}, out...)
	}
	return out
}

func removeSession(sessions []models.Session, id string) []models.Session {
	out := sessions[:0:0]
	for _, s := range sessions {
		if s.ID != id {
			out = append(out, s)
		}
	}
	return out
}

// replaceMessage swaps the pending message for the server echo. If the echo is already present
// (for example from a history fetch) the pending entry is just dropped.
func replaceMessage(messages []models.Message, pendingID string, echo models.Message) []models.Message {
	if models.ContainsMessage(messages, echo.ID) {
		return removeMessage(messages, pendingID)
	}
	out := make([]models.Message, 0, len(messages))
	replaced := false
	for _, m := range messages {
		if m.ID == pendingID {
			out = append(out, echo)
			replaced = true
			continue
		}
		out = append(out, m)
	}
	if !replaced {
		out = append(out, echo)
	}
	return out
}

func removeMessage(messages []models.Message, id string) []models.Message {
	out := messages[:0:0]
	for _, m := range messages {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}
