package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"seo-assistant/cmd/internal/auth"
	"seo-assistant/cmd/seomock/repositories"
	"seo-assistant/cmd/seomock/router"
	"seo-assistant/cmd/seomock/services"
	"seo-assistant/dto"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	// opencensus, linked in by the genai client, starts its view worker from init.
	goleak.VerifyTestMain(m, goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

type testServer struct {
	handler http.Handler
	worker  *services.JobWorker
	jwt     *auth.JWTManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	jwt, err := auth.NewJWTManager("test-secret", "seomock-test", time.Hour)
	require.NoError(t, err)

	db := repositories.NewDatabase()
	worker := services.NewJobWorker(db, 0, nil)
	svc := services.NewSessionService(db, worker)
	return &testServer{
		handler: router.WithCORS(router.New(svc, jwt), []string{"http://localhost:3000"}),
		worker:  worker,
		jwt:     jwt,
	}
}

// runWorker processes jobs until the test ends.
func (s *testServer) runWorker(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.worker.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func (s *testServer) token(t *testing.T, subject string) string {
	t.Helper()
	tok, err := s.jwt.Sign(subject)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[dto.HealthResponseDTO](t, rec).Status)
}

func TestSwaggerDocIsServed(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"/sessions/async"`)
}

func TestRejectsMissingOrBadToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, "", http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
	assert.Equal(t, "missing_authorization_header", decode[dto.ErrorResponseDTO](t, rec).Error)

	rec = s.do(t, "not-a-jwt", http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode[dto.ErrorResponseDTO](t, rec).Error)

	other, err := auth.NewJWTManager("other-secret", "seomock-test", time.Hour)
	require.NoError(t, err)
	forged, err := other.Sign("alice")
	require.NoError(t, err)
	rec = s.do(t, forged, http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionFlow(t *testing.T) {
	s := newTestServer(t)
	s.runWorker(t)
	tok := s.token(t, "alice")

	rec := s.do(t, tok, http.MethodPost, "/sessions/async", dto.SessionCreateRequest{Message: "Optimize my homepage"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	started := decode[dto.AsyncSessionStartResponse](t, rec)
	assert.Equal(t, "Optimize my homepage", started.SessionTitle)
	assert.Equal(t, dto.RoleUser, started.UserMessage.Role)

	var status dto.JobStatusResponse
	require.Eventually(t, func() bool {
		rec := s.do(t, tok, http.MethodGet, "/jobs/"+started.JobID+"/status", nil)
		if rec.Code != http.StatusOK {
			return false
		}
		status = decode[dto.JobStatusResponse](t, rec)
		return status.Status.Terminal()
	}, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, dto.JobCompleted, status.Status)
	require.NotNil(t, status.AgentMessage)
	require.NotNil(t, status.AgentMessage.SuggestedTitleTag)

	rec = s.do(t, tok, http.MethodPost, "/sessions/"+started.SessionID+"/messages/async", dto.MessageCreateRequest{Message: "Now the pricing page"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	added := decode[dto.AsyncMessageResponse](t, rec)
	assert.Equal(t, started.SessionID, added.SessionID)
	assert.NotEqual(t, started.JobID, added.JobID)

	rec = s.do(t, tok, http.MethodGet, "/sessions/"+started.SessionID+"/messages?limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	msgs := decode[[]dto.MessageOut](t, rec)
	require.Len(t, msgs, 2)
	assert.Equal(t, started.UserMessage.ID, msgs[0].ID)
	assert.Equal(t, status.AgentMessage.ID, msgs[1].ID)

	title := "Homepage and pricing"
	rec = s.do(t, tok, http.MethodPatch, "/sessions/"+started.SessionID, dto.SessionUpdateRequest{Title: &title})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, title, decode[dto.SessionUpdateResponse](t, rec).Title)

	rec = s.do(t, tok, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]dto.SessionListItem](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, title, list[0].Title)

	rec = s.do(t, tok, http.MethodDelete, "/sessions/"+started.SessionID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, tok, http.MethodGet, "/sessions/"+started.SessionID+"/messages", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestOtherUsersSessionsAreHidden(t *testing.T) {
	s := newTestServer(t)
	alice, mallory := s.token(t, "alice"), s.token(t, "mallory")

	rec := s.do(t, alice, http.MethodPost, "/sessions/async", dto.SessionCreateRequest{Message: "private"})
	require.Equal(t, http.StatusCreated, rec.Code)
	started := decode[dto.AsyncSessionStartResponse](t, rec)

	rec = s.do(t, mallory, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]dto.SessionListItem](t, rec))

	assert.Equal(t, http.StatusNotFound, s.do(t, mallory, http.MethodGet, "/sessions/"+started.SessionID+"/messages", nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, mallory, http.MethodDelete, "/sessions/"+started.SessionID, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, mallory, http.MethodGet, "/jobs/"+started.JobID+"/status", nil).Code)
}

func TestRequestValidation(t *testing.T) {
	s := newTestServer(t)
	tok := s.token(t, "alice")

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty message", http.MethodPost, "/sessions/async", dto.SessionCreateRequest{Message: "   "}, http.StatusBadRequest},
		{"malformed body", http.MethodPost, "/sessions/async", "not an object", http.StatusBadRequest},
		{"negative limit", http.MethodGet, "/sessions?limit=-1", nil, http.StatusBadRequest},
		{"bad offset", http.MethodGet, "/sessions?offset=x", nil, http.StatusBadRequest},
		{"unknown session", http.MethodPost, "/sessions/missing/messages/async", dto.MessageCreateRequest{Message: "hi"}, http.StatusNotFound},
		{"unknown job", http.MethodGet, "/jobs/missing/status", nil, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, tok, tc.method, tc.path, tc.body)
			assert.Equal(t, tc.want, rec.Code, rec.Body.String())
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
