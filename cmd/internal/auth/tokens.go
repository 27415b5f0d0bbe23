package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"seo-assistant/config"
)

var ErrNoToken = errors.New("no access token configured")

// NewTokenSource returns the bearer token source for the configured identity provider.
//
// - static: cfg.Token is used verbatim
// - client_credentials: tokens come from cfg.TokenURL and are cached until shortly before expiry
func NewTokenSource(ctx context.Context, cfg config.AuthConfig) (oauth2.TokenSource, error) {
	switch cfg.Mode {
	case "", "static":
		token := strings.TrimSpace(cfg.Token)
		if token == "" {
			return nil, ErrNoToken
		}
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), nil
	case "client_credentials":
		if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.TokenURL == "" {
			return nil, fmt.Errorf("client_credentials requires client_id, client_secret and token_url")
		}
		cc := &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		if cfg.Audience != "" {
			cc.EndpointParams = url.Values{"audience": {cfg.Audience}}
		}
		return cc.TokenSource(ctx), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Mode)
	}
}
