// Package repositories holds the in-memory collections of the stand-in backend.
package repositories

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a record does not exist or belongs to another user.
var ErrNotFound = errors.New("not found")

// Database is the shared in-memory store behind every repository. The zero value is not usable;
// call NewDatabase.
type Database struct {
	mu  sync.RWMutex
	now func() time.Time

	sessions map[string]*SessionRecord
	messages map[string][]*MessageRecord // by session id, oldest first
	jobs     map[string]*JobRecord
}

func NewDatabase() *Database {
	return &Database{
		now:      func() time.Time { return time.Now().UTC() },
		sessions: map[string]*SessionRecord{},
		messages: map[string][]*MessageRecord{},
		jobs:     map[string]*JobRecord{},
	}
}

// SetClock replaces the time source. Tests use it to get distinct, ordered timestamps.
func (d *Database) SetClock(now func() time.Time) {
	d.mu.Lock()
	d.now = now
	d.mu.Unlock()
}

func newID() string {
	return uuid.NewString()
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
