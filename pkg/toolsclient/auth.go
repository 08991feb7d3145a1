package toolsclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// AuthProvider supplies authentication headers for MCP server connections.
type AuthProvider interface {
	// GetHeaders returns the HTTP headers to include in MCP requests.
	GetHeaders(ctx context.Context) (map[string]string, error)
}

// StaticKeyAuth provides authentication via static headers configured
// at initialization time. Suitable for API key authentication.
type StaticKeyAuth struct {
	Headers map[string]string
}

// GetHeaders returns the configured static headers.
func (a *StaticKeyAuth) GetHeaders(_ context.Context) (map[string]string, error) {
	return a.Headers, nil
}

// refreshFraction is the point in a token's lifetime, expressed as a
// fraction of its total TTL, at which GetHeaders proactively refreshes
// rather than waiting for outright expiry.
const refreshFraction = 0.8

// tokenResponse is the OAuth 2.0 token endpoint response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// OAuthClientCredentials implements the OAuth 2.0 client_credentials
// grant, caching the bearer token and refreshing it proactively at
// 80% of its advertised lifetime. A refresh failure on an
// still-valid cached token is not fatal: the cached token is used
// until it actually expires.
type OAuthClientCredentials struct {
	tokenURL     string
	clientID     string
	clientSecret string
	scopes       []string
	httpClient   *http.Client
	nowFunc      func() time.Time

	mu       sync.Mutex
	token    string
	issuedAt time.Time
	ttl      time.Duration
}

// NewOAuthClientCredentials creates an auth provider for the given
// OAuth 2.0 client_credentials token endpoint.
func NewOAuthClientCredentials(tokenURL, clientID, clientSecret string, scopes []string) *OAuthClientCredentials {
	return &OAuthClientCredentials{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		scopes:       scopes,
		httpClient:   http.DefaultClient,
		nowFunc:      time.Now,
	}
}

// GetHeaders returns an Authorization: Bearer header, acquiring or
// refreshing the token as needed.
func (a *OAuthClientCredentials) GetHeaders(ctx context.Context) (map[string]string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := a.nowFunc()

	if a.token == "" {
		if err := a.fetchLocked(ctx); err != nil {
			return nil, err
		}
		return a.headersLocked(), nil
	}

	if now.After(a.issuedAt.Add(a.ttl)) {
		if err := a.fetchLocked(ctx); err != nil {
			return nil, fmt.Errorf("token expired and refresh failed: %w", err)
		}
		return a.headersLocked(), nil
	}

	if now.After(a.refreshAtLocked()) {
		if err := a.fetchLocked(ctx); err != nil {
			// Still within its validity window; keep using it.
			return a.headersLocked(), nil
		}
	}

	return a.headersLocked(), nil
}

func (a *OAuthClientCredentials) headersLocked() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.token}
}

func (a *OAuthClientCredentials) refreshAtLocked() time.Time {
	return a.issuedAt.Add(time.Duration(float64(a.ttl) * refreshFraction))
}

// fetchLocked acquires a fresh token. Callers must hold a.mu.
func (a *OAuthClientCredentials) fetchLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", a.clientID)
	form.Set("client_secret", a.clientSecret)
	if len(a.scopes) > 0 {
		form.Set("scope", strings.Join(a.scopes, " "))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}

	a.token = tr.AccessToken
	a.issuedAt = a.nowFunc()
	a.ttl = time.Duration(tr.ExpiresIn) * time.Second
	return nil
}
