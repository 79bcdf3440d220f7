package igdb

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTokenURL = "https://id.twitch.tv/oauth2/token"

// safetyWindow is subtracted from a token's literal expiry so a token close
// to expiring is refreshed instead of reused.
const safetyWindow = 60 * time.Second

// TokenCache owns the Twitch app access token used for IGDB requests.
//
// The token is fetched with the client-credentials grant and reused until it
// enters the safety window before expiry. Missing credentials short-circuit
// to an empty token with no network call. The mutex is held across the
// refresh so interleaved callers observe either the old valid token or the
// freshly fetched one, never a half-written state.
type TokenCache struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Client       *http.Client

	now func() time.Time

	mu        sync.Mutex
	value     string
	expiresAt time.Time
}

func NewTokenCache(clientID, clientSecret string) *TokenCache {
	return &TokenCache{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     defaultTokenURL,
		Client:       &http.Client{Timeout: 10 * time.Second},
		now:          time.Now,
	}
}

// Token returns the cached app token, refreshing it when needed. An empty
// return means no token is available: credentials are missing or the grant
// failed (logged, not surfaced).
func (tc *TokenCache) Token(ctx context.Context) string {
	if tc.ClientID == "" || tc.ClientSecret == "" {
		return ""
	}

	tc.mu.Lock()
	defer tc.mu.Unlock()

	if tc.value != "" && tc.expiresAt.Add(-safetyWindow).After(tc.now()) {
		return tc.value
	}

	form := url.Values{}
	form.Set("client_id", tc.ClientID)
	form.Set("client_secret", tc.ClientSecret)
	form.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tc.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		log.Printf("[igdb] build token request: %v", err)
		return ""
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := tc.Client.Do(req)
	if err != nil {
		log.Printf("[igdb] token request: %v", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[igdb] token request: status %d", resp.StatusCode)
		return ""
	}

	var grant struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&grant); err != nil {
		log.Printf("[igdb] decode token response: %v", err)
		return ""
	}

	tc.value = grant.AccessToken
	tc.expiresAt = tc.now().Add(time.Duration(grant.ExpiresIn) * time.Second)
	return tc.value
}

// Invalidate drops the cached token so the next Token call fetches a fresh
// one. Used by the 401/403 retry path.
func (tc *TokenCache) Invalidate() {
	tc.mu.Lock()
	tc.value = ""
	tc.expiresAt = time.Time{}
	tc.mu.Unlock()
}
