package xauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// X (Twitter) OAuth2 endpoints and API base.
const (
	xAuthURL  = "https://twitter.com/i/oauth2/authorize"
	xTokenURL = "https://api.twitter.com/2/oauth2/token"
	xAPIBase  = "https://api.twitter.com/2"
)

// XScopes are the scopes requested at login. offline.access is what makes
// the provider issue a refresh token.
var XScopes = []string{"tweet.read", "users.read", "follows.read", "offline.access"}

// XEndpoint is the oauth2 endpoint pair for X.
var XEndpoint = oauth2.Endpoint{
	AuthURL:  xAuthURL,
	TokenURL: xTokenURL,
}

// Token is the provider's token response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
}

// Identity is the subset of the /users/me resource the product uses.
type Identity struct {
	ID       string
	Username string
}

// ProviderClient talks to the identity provider's token endpoint and
// resource API. It exists as an interface so orchestrator tests can count
// invocations and assert the CSRF check short-circuits before any network
// call.
type ProviderClient interface {
	// Exchange redeems an authorization code for tokens.
	Exchange(ctx context.Context, code, verifier, redirectURI string) (*Token, error)
	// FetchIdentity loads /users/me with the new access token.
	FetchIdentity(ctx context.Context, accessToken string) (*Identity, error)
	// Refresh redeems a refresh token for a fresh token set.
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
}

// exchangeStrategy describes one attempt at the token endpoint. Strategies
// are tried in order; the first success short-circuits.
type exchangeStrategy struct {
	name      string
	basicAuth bool
}

// XClient is the HTTP ProviderClient for X.
//
// Exchange policy: a public-client attempt (client_id in the form body)
// first, then a confidential retry with HTTP Basic credentials. Some
// provider app configurations require confidential-client exchange even
// when PKCE is used.
type XClient struct {
	clientID     string
	clientSecret string
	httpClient   *http.Client

	tokenURL string
	apiBase  string
}

// XClientOption configures an XClient.
type XClientOption func(*XClient)

// WithHTTPClient overrides the HTTP client used for provider calls.
func WithHTTPClient(c *http.Client) XClientOption {
	return func(x *XClient) {
		x.httpClient = c
	}
}

// WithBaseURLs points the client at alternate token and API endpoints.
// Intended for tests against a fake provider.
func WithBaseURLs(tokenURL, apiBase string) XClientOption {
	return func(x *XClient) {
		x.tokenURL = tokenURL
		x.apiBase = apiBase
	}
}

// NewXClient constructs a ProviderClient for X. Provider calls use a
// bounded 10s timeout so a slow identity provider cannot pin request
// handlers.
func NewXClient(clientID, clientSecret string, opts ...XClientOption) *XClient {
	x := &XClient{
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		tokenURL:     xTokenURL,
		apiBase:      xAPIBase,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Exchange implements ProviderClient.
func (x *XClient) Exchange(ctx context.Context, code, verifier, redirectURI string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", redirectURI)
	form.Set("code_verifier", verifier)
	return x.grant(ctx, form)
}

// Refresh implements ProviderClient.
func (x *XClient) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	token, err := x.grant(ctx, form)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	return token, nil
}

// grant posts form to the token endpoint, trying each exchange strategy in
// order until one yields a usable token.
func (x *XClient) grant(ctx context.Context, form url.Values) (*Token, error) {
	strategies := []exchangeStrategy{
		// Public client: client_id travels in the form body only.
		{name: "public"},
		// Confidential client: HTTP Basic credentials.
		{name: "confidential", basicAuth: true},
	}
	form.Set("client_id", x.clientID)

	var lastStatus int
	var lastBody, lastStrategy string
	for _, strategy := range strategies {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, x.tokenURL, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("%w: build request: %v", ErrTokenExchange, err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if strategy.basicAuth {
			req.SetBasicAuth(x.clientID, x.clientSecret)
		}

		resp, err := x.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
		}
		body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: read response: %v", ErrTokenExchange, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			lastStatus = resp.StatusCode
			lastBody = string(body)
			lastStrategy = strategy.name
			continue
		}
		var token Token
		if err := json.Unmarshal(body, &token); err != nil {
			return nil, fmt.Errorf("%w: decode response: %v", ErrTokenExchange, err)
		}
		if token.AccessToken == "" {
			return nil, fmt.Errorf("%w: response carries no access token", ErrTokenExchange)
		}
		return &token, nil
	}
	// Diagnostics surface the provider status and body, never the verifier
	// or client secret.
	return nil, fmt.Errorf("%w: %s exchange failed: provider status=%d body=%s", ErrTokenExchange, lastStrategy, lastStatus, lastBody)
}

// FetchIdentity implements ProviderClient.
func (x *XClient) FetchIdentity(ctx context.Context, accessToken string) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, x.apiBase+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrIdentityLookup, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityLookup, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", ErrIdentityLookup, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: provider status=%d", ErrIdentityLookup, resp.StatusCode)
	}
	var payload struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrIdentityLookup, err)
	}
	return &Identity{ID: payload.Data.ID, Username: payload.Data.Username}, nil
}
