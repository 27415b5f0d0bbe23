package repositories

import (
	"sort"
	"time"
)

// SessionRecord is a stored conversation.
type SessionRecord struct {
	ID            string
	UserID        string
	Title         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastMessageAt time.Time
}

type SessionRepository struct {
	db *Database
}

func NewSessionRepository(db *Database) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(userID, title string) SessionRecord {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	s := &SessionRecord{
		ID:            newID(),
		UserID:        userID,
		Title:         title,
		CreatedAt:     now,
		UpdatedAt:     now,
		LastMessageAt: now,
	}
	r.db.sessions[s.ID] = s
	return *s
}

// Get returns the session if it belongs to userID.
func (r *SessionRepository) Get(userID, id string) (SessionRecord, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.sessions[id]
	if !ok || s.UserID != userID {
		return SessionRecord{}, ErrNotFound
	}
	return *s, nil
}

// ListByUser returns the sessions of userID, most recent message first.
func (r *SessionRepository) ListByUser(userID string, limit, offset int) []SessionRecord {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var out []SessionRecord
	for _, s := range r.db.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].LastMessageAt.Equal(out[j].LastMessageAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].LastMessageAt.After(out[j].LastMessageAt)
	})
	return paginate(out, limit, offset)
}

func (r *SessionRepository) UpdateTitle(userID, id, title string) (SessionRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok || s.UserID != userID {
		return SessionRecord{}, ErrNotFound
	}
	s.Title = title
	s.UpdatedAt = r.db.now()
	return *s, nil
}

// Delete removes the session together with its messages and jobs.
func (r *SessionRepository) Delete(userID, id string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sessions[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(r.db.sessions, id)
	delete(r.db.messages, id)
	for jobID, j := range r.db.jobs {
		if j.SessionID == id {
			delete(r.db.jobs, jobID)
		}
	}
	return nil
}
