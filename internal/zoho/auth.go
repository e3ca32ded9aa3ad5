package zoho

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenExpiryMargin refreshes tokens slightly before Zoho expires them
const tokenExpiryMargin = time.Minute

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	APIDomain   string `json:"api_domain"`
	Error       string `json:"error"`
}

// tokenSource exchanges the long-lived refresh token for access tokens and caches them
type tokenSource struct {
	httpc        HTTPClient
	accountsURL  string
	clientID     string
	clientSecret string
	refreshToken string
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// Token returns a cached access token or fetches a new one
func (s *tokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiresAt) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", s.clientID)
	form.Set("client_secret", s.clientSecret)
	form.Set("refresh_token", s.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(s.accountsURL, "/")+"/oauth/v2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to refresh access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("%w: token endpoint returned %d body=%s", ErrUpstream, resp.StatusCode, string(b))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	// Zoho reports grant errors with a 200 status
	if tr.Error != "" || tr.AccessToken == "" {
		return "", fmt.Errorf("%w: token refresh rejected: %s", ErrUpstream, tr.Error)
	}

	s.token = tr.AccessToken
	s.expiresAt = s.now().Add(time.Duration(tr.ExpiresIn)*time.Second - tokenExpiryMargin)
	return s.token, nil
}

// Invalidate drops the cached token so the next call refreshes it
func (s *tokenSource) Invalidate() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}
