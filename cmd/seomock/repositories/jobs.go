package repositories

import (
	"time"

	"seo-assistant/dto"
)

const maxErrorMessage = 500

// JobRecord tracks one generation request.
type JobRecord struct {
	ID                    string
	UserID                string
	SessionID             string
	UserMessageID         string
	Prompt                string
	Status                dto.JobStatus
	AgentMessageID        string
	ErrorMessage          string
	ProcessingTimeSeconds float64
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type JobRepository struct {
	db *Database
}

func NewJobRepository(db *Database) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(userID, sessionID, userMessageID, prompt string) JobRecord {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	j := &JobRecord{
		ID:            newID(),
		UserID:        userID,
		SessionID:     sessionID,
		UserMessageID: userMessageID,
		Prompt:        prompt,
		Status:        dto.JobPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	r.db.jobs[j.ID] = j
	return *j
}

func (r *JobRepository) Get(id string) (JobRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	j, ok := r.db.jobs[id]
	if !ok {
		return JobRecord{}, ErrNotFound
	}
	return *j, nil
}

// MarkGenerating moves a pending job to generating.
func (r *JobRepository) MarkGenerating(id string) error {
	return r.update(id, func(j *JobRecord) {
		j.Status = dto.JobGenerating
	})
}

func (r *JobRepository) MarkCompleted(id, agentMessageID string) error {
	return r.update(id, func(j *JobRecord) {
		j.Status = dto.JobCompleted
		j.AgentMessageID = agentMessageID
	})
}

// MarkFailed records reason, cut to maxErrorMessage runes.
func (r *JobRepository) MarkFailed(id, reason string) error {
	if rs := []rune(reason); len(rs) > maxErrorMessage {
		reason = string(rs[:maxErrorMessage])
	}
	return r.update(id, func(j *JobRecord) {
		j.Status = dto.JobFailed
		j.ErrorMessage = reason
	})
}

func (r *JobRepository) update(id string, fn func(j *JobRecord)) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	j, ok := r.db.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(j)
	j.UpdatedAt = r.db.now()
	if j.Status.Terminal() {
		j.ProcessingTimeSeconds = j.UpdatedAt.Sub(j.CreatedAt).Seconds()
	}
	return nil
}
