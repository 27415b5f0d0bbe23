package repositories

import (
	"time"

	"seo-assistant/dto"
)

// MessageRecord is a stored user prompt or agent reply. Agent replies carry the suggestion fields.
type MessageRecord struct {
	ID                       string
	SessionID                string
	Role                     string
	MessageContent           string
	SuggestedPageTitle       *string
	SuggestedPageContent     *string
	SuggestedTitleTag        *string
	SuggestedMetaDescription *string
	SuggestedMetaKeywords    []string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// Suggestion is the generated bundle stored on an agent message.
type Suggestion struct {
	PageTitle       string
	PageContent     string
	TitleTag        string
	MetaDescription string
	MetaKeywords    []string
}

type MessageRepository struct {
	db *Database
}

func NewMessageRepository(db *Database) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) CreateUserMessage(sessionID, content string) (MessageRecord, error) {
	return r.insert(&MessageRecord{
		SessionID:      sessionID,
		Role:           dto.RoleUser,
		MessageContent: content,
	})
}

func (r *MessageRepository) CreateAgentMessage(sessionID string, s Suggestion) (MessageRecord, error) {
	return r.insert(&MessageRecord{
		SessionID:                sessionID,
		Role:                     dto.RoleAgent,
		MessageContent:           s.PageContent,
		SuggestedPageTitle:       &s.PageTitle,
		SuggestedPageContent:     &s.PageContent,
		SuggestedTitleTag:        &s.TitleTag,
		SuggestedMetaDescription: &s.MetaDescription,
		SuggestedMetaKeywords:    append([]string(nil), s.MetaKeywords...),
	})
}

// insert appends m to its session and bumps the session's last message time.
func (r *MessageRepository) insert(m *MessageRecord) (MessageRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[m.SessionID]
	if !ok {
		return MessageRecord{}, ErrNotFound
	}
	now := r.db.now()
	m.ID = newID()
	m.CreatedAt = now
	m.UpdatedAt = now
	r.db.messages[m.SessionID] = append(r.db.messages[m.SessionID], m)
	s.LastMessageAt = now
	return *m, nil
}

func (r *MessageRepository) Get(id string) (MessageRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, msgs := range r.db.messages {
		for _, m := range msgs {
			if m.ID == id {
				return *m, nil
			}
		}
	}
	return MessageRecord{}, ErrNotFound
}

// ListBySession returns the messages of a session, oldest first.
func (r *MessageRepository) ListBySession(sessionID string, limit, offset int) []MessageRecord {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	msgs := r.db.messages[sessionID]
	out := make([]MessageRecord, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, *m)
	}
	return paginate(out, limit, offset)
}
