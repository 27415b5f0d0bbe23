package router_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"seo-assistant/cmd/seochat/clients/seoclient"
	"seo-assistant/cmd/seochat/controller"
	"seo-assistant/models"
)

type recordedEvents struct {
	mu     sync.Mutex
	events []controller.Event
}

func (r *recordedEvents) add(ev controller.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordedEvents) count(kind controller.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

// newClientController runs the real API client and controller against s as subject.
func newClientController(t *testing.T, s *testServer, subject string) (*controller.Controller, *recordedEvents) {
	t.Helper()
	srv := httptest.NewServer(s.handler)
	transport := &http.Transport{}
	t.Cleanup(func() {
		transport.CloseIdleConnections()
		srv.Close()
	})

	tokens := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.token(t, subject)})
	client := seoclient.NewWithHTTPClient(&http.Client{Transport: transport, Timeout: 5 * time.Second}, srv.URL, tokens)

	events := &recordedEvents{}
	ctrl := controller.New(client, controller.Options{
		PollInterval:  5 * time.Millisecond,
		MaxPollErrors: 3,
		Notify:        events.add,
	})
	t.Cleanup(ctrl.Close)
	return ctrl, events
}

func waitJob(t *testing.T, job *controller.JobTask) {
	t.Helper()
	require.NotNil(t, job)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = job.Wait(ctx)
	require.NoError(t, ctx.Err())
}

func messageTypes(msgs []models.Message) []models.MessageType {
	out := make([]models.MessageType, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Type)
	}
	return out
}

func TestControllerAgainstServer(t *testing.T) {
	s := newTestServer(t)
	s.runWorker(t)
	ctrl, events := newClientController(t, s, "alice")
	ctx := context.Background()

	started, job, err := ctrl.CreateSession(ctx, "Optimize my homepage for local search")
	require.NoError(t, err)
	waitJob(t, job)

	snap := ctrl.Snapshot()
	assert.Equal(t, started.SessionID, snap.ActiveSessionID)
	assert.False(t, snap.Generating)
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, "Optimize my homepage for loca…", snap.Sessions[0].Title)
	assert.Equal(t, []models.MessageType{models.MessageTypeUser, models.MessageTypeAgent}, messageTypes(snap.Messages))
	require.NotNil(t, snap.Messages[1].Suggestion)
	assert.NotEmpty(t, snap.Messages[1].Suggestion.MetaKeywords)
	assert.Equal(t, 1, events.count(controller.EventJobCompleted))

	_, job, err = ctrl.ContinueSession(ctx, "Now write a meta description #fail")
	require.NoError(t, err)
	waitJob(t, job)
	assert.Equal(t, 1, events.count(controller.EventJobFailed))
	assert.Len(t, ctrl.Snapshot().Messages, 3)

	require.NoError(t, ctrl.UpdateSession(ctx, started.SessionID, "Local SEO"))
	require.NoError(t, ctrl.FetchSessions(ctx))
	snap = ctrl.Snapshot()
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, "Local SEO", snap.Sessions[0].Title)

	ctrl.NewConversation()
	require.NoError(t, ctrl.SelectSession(ctx, started.SessionID))
	assert.Len(t, ctrl.Snapshot().Messages, 3)

	require.NoError(t, ctrl.DeleteSession(ctx, started.SessionID))
	snap = ctrl.Snapshot()
	assert.Empty(t, snap.Sessions)
	assert.Empty(t, snap.ActiveSessionID)

	require.NoError(t, ctrl.FetchSessions(ctx))
	assert.Empty(t, ctrl.Snapshot().Sessions)
}

func TestControllerSessionsAreScopedToSubject(t *testing.T) {
	s := newTestServer(t)
	s.runWorker(t)
	alice, _ := newClientController(t, s, "alice")
	ctx := context.Background()

	_, job, err := alice.CreateSession(ctx, "alice only")
	require.NoError(t, err)
	waitJob(t, job)
	require.NoError(t, alice.FetchSessions(ctx))
	assert.Len(t, alice.Snapshot().Sessions, 1)

	bob, _ := newClientController(t, s, "bob")
	require.NoError(t, bob.FetchSessions(ctx))
	assert.Empty(t, bob.Snapshot().Sessions)
}
