package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seo-assistant/dto"
)

// tickingClock returns a clock advancing one second per call.
func tickingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestDB() *Database {
	db := NewDatabase()
	db.SetClock(tickingClock())
	return db
}

func TestSessionsAreScopedByUser(t *testing.T) {
	db := newTestDB()
	sessions := NewSessionRepository(db)

	s := sessions.Create("alice", "Homepage")

	_, err := sessions.Get("bob", s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = sessions.UpdateTitle("bob", s.ID, "x")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, sessions.Delete("bob", s.ID), ErrNotFound)
	assert.Empty(t, sessions.ListByUser("bob", 0, 0))

	got, err := sessions.Get("alice", s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Homepage", got.Title)
}

func TestListByUserOrdersByLastMessage(t *testing.T) {
	db := newTestDB()
	sessions := NewSessionRepository(db)
	messages := NewMessageRepository(db)

	a := sessions.Create("u", "a")
	b := sessions.Create("u", "b")
	c := sessions.Create("u", "c")

	_, err := messages.CreateUserMessage(a.ID, "bump a")
	require.NoError(t, err)

	list := sessions.ListByUser("u", 0, 0)
	require.Len(t, list, 3)
	assert.Equal(t, []string{a.ID, c.ID, b.ID}, []string{list[0].ID, list[1].ID, list[2].ID})

	page := sessions.ListByUser("u", 1, 1)
	require.Len(t, page, 1)
	assert.Equal(t, c.ID, page[0].ID)
	assert.Empty(t, sessions.ListByUser("u", 10, 5))
}

func TestDeleteCascades(t *testing.T) {
	db := newTestDB()
	sessions := NewSessionRepository(db)
	messages := NewMessageRepository(db)
	jobs := NewJobRepository(db)

	s := sessions.Create("u", "t")
	m, err := messages.CreateUserMessage(s.ID, "hello")
	require.NoError(t, err)
	j := jobs.Create("u", s.ID, m.ID, "hello")

	require.NoError(t, sessions.Delete("u", s.ID))

	assert.Empty(t, messages.ListBySession(s.ID, 0, 0))
	_, err = jobs.Get(j.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = messages.CreateUserMessage(s.ID, "late")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAgentMessageCarriesSuggestion(t *testing.T) {
	db := newTestDB()
	s := NewSessionRepository(db).Create("u", "t")
	messages := NewMessageRepository(db)

	m, err := messages.CreateAgentMessage(s.ID, Suggestion{
		PageTitle:       "Title",
		PageContent:     "Content",
		TitleTag:        "Tag",
		MetaDescription: "Desc",
		MetaKeywords:    []string{"k1", "k2"},
	})
	require.NoError(t, err)

	got, err := messages.Get(m.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.RoleAgent, got.Role)
	require.NotNil(t, got.SuggestedPageTitle)
	assert.Equal(t, "Title", *got.SuggestedPageTitle)
	assert.Equal(t, "Tag", *got.SuggestedTitleTag)
	assert.Equal(t, "Desc", *got.SuggestedMetaDescription)
	assert.Equal(t, []string{"k1", "k2"}, got.SuggestedMetaKeywords)
}

func TestJobLifecycle(t *testing.T) {
	db := newTestDB()
	jobs := NewJobRepository(db)

	j := jobs.Create("u", "s", "m", "prompt")
	assert.Equal(t, dto.JobPending, j.Status)

	require.NoError(t, jobs.MarkGenerating(j.ID))
	got, _ := jobs.Get(j.ID)
	assert.Equal(t, dto.JobGenerating, got.Status)
	assert.Zero(t, got.ProcessingTimeSeconds)

	require.NoError(t, jobs.MarkCompleted(j.ID, "agent"))
	got, _ = jobs.Get(j.ID)
	assert.Equal(t, dto.JobCompleted, got.Status)
	assert.Equal(t, "agent", got.AgentMessageID)
	assert.InDelta(t, 2.0, got.ProcessingTimeSeconds, 0.001)

	assert.ErrorIs(t, jobs.MarkFailed("missing", "x"), ErrNotFound)
}
