package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"golang.org/x/oauth2"

	"seo-assistant/cmd/internal/trace"
)

func TestNewRequestJoinsPathAndQuery(t *testing.T) {
	c := NewBaseClient("http://api.example.com/v1", nil)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/sessions", url.Values{"limit": {"50"}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.URL.String(); got != "http://api.example.com/v1/sessions?limit=50" {
		t.Fatalf("unexpected url %q", got)
	}
}

func TestNewRequestKeepsEscapedSegments(t *testing.T) {
	c := NewBaseClient("http://api.example.com/v1", nil)

	req, err := c.NewRequest(context.Background(), http.MethodGet, "/sessions/a%2F..%2Fb/messages", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := req.URL.EscapedPath(); got != "/v1/sessions/a%2F..%2Fb/messages" {
		t.Fatalf("unexpected escaped path %q", got)
	}
	if got := req.URL.Path; got != "/v1/sessions/a/../b/messages" {
		t.Fatalf("unexpected path %q", got)
	}
}

func TestNewRequestRejectsQueryInPath(t *testing.T) {
	c := NewBaseClient("http://api.example.com", nil)

	if _, err := c.NewRequest(context.Background(), http.MethodGet, "/sessions?limit=1", nil, nil); err == nil {
		t.Fatalf("expected error for relPath with query string")
	}
}

func TestDoAttachesBearerAndTraceHeaders(t *testing.T) {
	var gotAuth, gotRequestID, gotSpan string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get(trace.HeaderRequestID)
		gotSpan = r.Header.Get(trace.HeaderSpanID)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok-1"}))
	ctx := trace.WithRequestAndSpan(context.Background(), "req-abc", 0)
	req, err := c.NewRequest(ctx, http.MethodGet, "/health", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer tok-1" {
		t.Fatalf("expected bearer header, got %q", gotAuth)
	}
	if gotRequestID != "req-abc" {
		t.Fatalf("expected request id req-abc, got %q", gotRequestID)
	}
	if gotSpan != "1" {
		t.Fatalf("expected span 1, got %q", gotSpan)
	}
}

type failingTokenSource struct{}

func (failingTokenSource) Token() (*oauth2.Token, error) {
	return nil, errors.New("idp unavailable")
}

func TestDoFailsWhenTokenUnavailable(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewBaseClient(srv.URL, failingTokenSource{})
	req, _ := c.NewRequest(context.Background(), http.MethodGet, "/sessions", nil, nil)
	if _, err := c.Do(req); err == nil {
		t.Fatalf("expected token error")
	}
	if called {
		t.Fatalf("request must not be sent without a token")
	}
}
