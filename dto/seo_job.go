package dto

// JobStatus is the lifecycle of a backend generation job.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobGenerating JobStatus = "generating"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Terminal reports whether no further status change will happen.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// JobStatusResponse is the body of GET /jobs/{id}/status.
type JobStatusResponse struct {
	JobID                 string      `json:"job_id"`
	Status                JobStatus   `json:"status"`
	AgentMessage          *MessageOut `json:"agent_message,omitempty"`
	ProcessingTimeSeconds *float64    `json:"processing_time_seconds,omitempty"`
	TokensUsed            *int        `json:"tokens_used,omitempty"`
	ErrorMessage          *string     `json:"error_message,omitempty"`
	UpdatedAt             string      `json:"updated_at"`
}
