package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"seo-assistant/config"
)

func TestNewTokenSourceStatic(t *testing.T) {
	ts, err := NewTokenSource(context.Background(), config.AuthConfig{Mode: "static", Token: " tok-1 "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("unexpected token error: %v", err)
	}
	if tok.AccessToken != "tok-1" {
		t.Fatalf("expected trimmed token tok-1, got %q", tok.AccessToken)
	}
}

func TestNewTokenSourceStaticRequiresToken(t *testing.T) {
	_, err := NewTokenSource(context.Background(), config.AuthConfig{Mode: "static"})
	if !errors.Is(err, ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestNewTokenSourceClientCredentials(t *testing.T) {
	var gotAudience, gotGrant string
	idp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotAudience = r.Form.Get("audience")
		gotGrant = r.Form.Get("grant_type")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "machine-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	}))
	defer idp.Close()

	ts, err := NewTokenSource(context.Background(), config.AuthConfig{
		Mode:         "client_credentials",
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     idp.URL,
		Audience:     "https://seo-api",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tok, err := ts.Token()
	if err != nil {
		t.Fatalf("unexpected token error: %v", err)
	}
	if tok.AccessToken != "machine-token" {
		t.Fatalf("expected machine-token, got %q", tok.AccessToken)
	}
	if gotGrant != "client_credentials" {
		t.Fatalf("expected client_credentials grant, got %q", gotGrant)
	}
	if gotAudience != "https://seo-api" {
		t.Fatalf("expected audience param, got %q", gotAudience)
	}
}

func TestNewTokenSourceClientCredentialsRequiresFields(t *testing.T) {
	if _, err := NewTokenSource(context.Background(), config.AuthConfig{Mode: "client_credentials"}); err == nil {
		t.Fatalf("expected error for missing client credentials")
	}
}
