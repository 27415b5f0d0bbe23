package controller

import (
	"context"
	"fmt"
	"sync"

	"seo-assistant/cmd/seochat/clients/seoclient"
	"seo-assistant/dto"
)

// fakeAPI is an in-memory API. Job statuses are served from a per-job script; the last
// entry repeats once the script is exhausted.
type fakeAPI struct {
	mu sync.Mutex

	sessions []dto.SessionListItem
	messages map[string][]dto.MessageOut
	jobs     map[string][]jobReply

	nextID int
	calls  map[string]int

	createErr  error
	addErr     error
	listErr    error
	deleteErr  error
	updateResp *dto.SessionUpdateResponse

	// block, when set, holds CreateSession/AddMessage until it is closed.
	block chan struct{}
}

type jobReply struct {
	resp dto.JobStatusResponse
	err  error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		messages: map[string][]dto.MessageOut{},
		jobs:     map[string][]jobReply{},
		calls:    map[string]int{},
	}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) script(jobID string, replies ...jobReply) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[jobID] = replies
}

func completed(jobID, agentID string) jobReply {
	title := "Homepage SEO"
	content := "Body"
	tag := "Homepage | Acme"
	desc := "Optimized homepage"
	return jobReply{resp: dto.JobStatusResponse{
		JobID:  jobID,
		Status: dto.JobCompleted,
		AgentMessage: &dto.MessageOut{
			ID:                       agentID,
			Role:                     dto.RoleAgent,
			SuggestedPageTitle:       &title,
			SuggestedPageContent:     &content,
			SuggestedTitleTag:        &tag,
			SuggestedMetaDescription: &desc,
			SuggestedMetaKeywords:    []string{"seo", "homepage"},
			CreatedAt:                "2025-01-02T03:04:05Z",
		},
	}}
}

func pending(jobID string) jobReply {
	return jobReply{resp: dto.JobStatusResponse{JobID: jobID, Status: dto.JobPending}}
}

func failed(jobID, msg string) jobReply {
	return jobReply{resp: dto.JobStatusResponse{JobID: jobID, Status: dto.JobFailed, ErrorMessage: &msg}}
}

func (f *fakeAPI) ListSessions(ctx context.Context, opts seoclient.ListOptions) ([]dto.SessionListItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListSessions"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]dto.SessionListItem(nil), f.sessions...), nil
}

func (f *fakeAPI) CreateSession(ctx context.Context, message string) (dto.AsyncSessionStartResponse, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["CreateSession"]++
	if f.createErr != nil {
		return dto.AsyncSessionStartResponse{}, f.createErr
	}
	sid := f.id("s")
	msg := dto.MessageOut{ID: f.id("m"), Role: dto.RoleUser, MessageContent: message, CreatedAt: "2025-01-02T03:04:05Z", UpdatedAt: "2025-01-02T03:04:05Z"}
	f.sessions = append([]dto.SessionListItem{{ID: sid, Title: message}}, f.sessions...)
	f.messages[sid] = []dto.MessageOut{msg}
	return dto.AsyncSessionStartResponse{
		SessionID:    sid,
		SessionTitle: message,
		JobID:        "job-" + sid,
		UserMessage:  msg,
		Status:       dto.JobPending,
	}, nil
}

func (f *fakeAPI) AddMessage(ctx context.Context, sessionID, message string) (dto.AsyncMessageResponse, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["AddMessage"]++
	if f.addErr != nil {
		return dto.AsyncMessageResponse{}, f.addErr
	}
	msg := dto.MessageOut{ID: f.id("m"), Role: dto.RoleUser, MessageContent: message, UpdatedAt: "2025-01-03T00:00:00Z"}
	f.messages[sessionID] = append(f.messages[sessionID], msg)
	return dto.AsyncMessageResponse{
		ID:          msg.ID,
		SessionID:   sessionID,
		JobID:       "job-" + msg.ID,
		UserMessage: msg,
		Status:      dto.JobPending,
	}, nil
}

func (f *fakeAPI) ListMessages(ctx context.Context, sessionID string, opts seoclient.ListOptions) ([]dto.MessageOut, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["ListMessages"]++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]dto.MessageOut(nil), f.messages[sessionID]...), nil
}

func (f *fakeAPI) UpdateSession(ctx context.Context, sessionID, title string) (dto.SessionUpdateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["UpdateSession"]++
	if f.updateResp != nil {
		return *f.updateResp, nil
	}
	return dto.SessionUpdateResponse{ID: sessionID, Title: title}, nil
}

func (f *fakeAPI) DeleteSession(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["DeleteSession"]++
	return f.deleteErr
}

func (f *fakeAPI) JobStatus(ctx context.Context, jobID string) (dto.JobStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls["JobStatus"]++
	replies := f.jobs[jobID]
	if len(replies) == 0 {
		return dto.JobStatusResponse{JobID: jobID, Status: dto.JobPending}, nil
	}
	r := replies[0]
	if len(replies) > 1 {
		f.jobs[jobID] = replies[1:]
	}
	return r.resp, r.err
}

func (f *fakeAPI) wait() {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}
