package dto

// Message roles as stored by the backend. Anything other than RoleUser is an agent reply.
const (
	RoleUser  = "user"
	RoleAgent = "agent"
)

// MessageCreateRequest is the body of POST /sessions/{id}/messages/async.
type MessageCreateRequest struct {
	Message string `json:"message" binding:"required,min=1"`
}

// MessageOut is the backend message record. Agent replies carry the suggested_* fields.
type MessageOut struct {
	ID                       string   `json:"id"`
	Role                     string   `json:"role"`
	MessageContent           string   `json:"message_content"`
	SuggestedPageTitle       *string  `json:"suggested_page_title,omitempty"`
	SuggestedPageContent     *string  `json:"suggested_page_content,omitempty"`
	SuggestedTitleTag        *string  `json:"suggested_title_tag,omitempty"`
	SuggestedMetaDescription *string  `json:"suggested_meta_description,omitempty"`
	SuggestedMetaKeywords    []string `json:"suggested_meta_keywords,omitempty"`
	CreatedAt                string   `json:"created_at"`
	UpdatedAt                string   `json:"updated_at"`
}

// AsyncMessageResponse is returned when a message is appended and its job queued.
type AsyncMessageResponse struct {
	ID          string     `json:"id"`
	SessionID   string     `json:"session_id"`
	JobID       string     `json:"job_id"`
	UserMessage MessageOut `json:"user_message"`
	Status      JobStatus  `json:"status"`
}
