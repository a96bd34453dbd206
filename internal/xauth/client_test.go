package xauth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestExchangeConfidentialRetry(t *testing.T) {
	var attempts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "authorization_code" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("code_verifier"); got != "ver1" {
			t.Errorf("code_verifier = %q", got)
		}
		user, pass, ok := r.BasicAuth()
		if !ok {
			attempts = append(attempts, "public")
			// This app registration demands confidential-client exchange.
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		attempts = append(attempts, "confidential")
		if user != "cid" || pass != "secret" {
			t.Errorf("basic auth = %s:%s", user, pass)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok1","refresh_token":"rt1","token_type":"bearer","expires_in":7200}`))
	}))
	defer srv.Close()

	c := NewXClient("cid", "secret", WithBaseURLs(srv.URL+"/token", srv.URL))
	token, err := c.Exchange(context.Background(), "code1", "ver1", "https://app/api/x/callback")
	if err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if token.AccessToken != "tok1" || token.RefreshToken != "rt1" {
		t.Errorf("token = %+v", token)
	}
	if len(attempts) != 2 || attempts[0] != "public" || attempts[1] != "confidential" {
		t.Errorf("attempts = %v, want [public confidential]", attempts)
	}
}

func TestExchangeFirstAttemptWins(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok1"}`))
	}))
	defer srv.Close()

	c := NewXClient("cid", "secret", WithBaseURLs(srv.URL, srv.URL))
	if _, err := c.Exchange(context.Background(), "code1", "ver1", "uri"); err != nil {
		t.Fatalf("Exchange: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (first success short-circuits)", calls)
	}
}

func TestExchangeBothAttemptsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	c := NewXClient("cid", "secret", WithBaseURLs(srv.URL, srv.URL))
	_, err := c.Exchange(context.Background(), "code1", "super-secret-verifier", "uri")
	if !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("err = %v, want ErrTokenExchange", err)
	}
	if !strings.Contains(err.Error(), "status=400") {
		t.Errorf("diagnostics should carry the provider status: %v", err)
	}
	if strings.Contains(err.Error(), "super-secret-verifier") {
		t.Error("diagnostics must never carry the verifier")
	}
}

func TestExchangeMissingAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"token_type":"bearer"}`))
	}))
	defer srv.Close()

	c := NewXClient("cid", "secret", WithBaseURLs(srv.URL, srv.URL))
	if _, err := c.Exchange(context.Background(), "code1", "ver1", "uri"); !errors.Is(err, ErrTokenExchange) {
		t.Fatalf("err = %v, want ErrTokenExchange", err)
	}
}

func TestFetchIdentity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/me" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok1" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"id":"42","username":"alice"}}`))
	}))
	defer srv.Close()

	c := NewXClient("cid", "secret", WithBaseURLs(srv.URL+"/token", srv.URL))
	id, err := c.FetchIdentity(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("FetchIdentity: %v", err)
	}
	if id.ID != "42" || id.Username != "alice" {
		t.Errorf("identity = %+v", id)
	}
}

func TestRefreshFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_request"}`))
	}))
	defer srv.Close()

	c := NewXClient("cid", "secret", WithBaseURLs(srv.URL, srv.URL))
	if _, err := c.Refresh(context.Background(), "rt1"); !errors.Is(err, ErrRefreshFailed) {
		t.Fatalf("err = %v, want ErrRefreshFailed", err)
	}
}

func TestRefreshGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm: %v", err)
		}
		if got := r.PostForm.Get("grant_type"); got != "refresh_token" {
			t.Errorf("grant_type = %q", got)
		}
		if got := r.PostForm.Get("refresh_token"); got != "rt1" {
			t.Errorf("refresh_token = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok2","refresh_token":"rt2"}`))
	}))
	defer srv.Close()

	c := NewXClient("cid", "secret", WithBaseURLs(srv.URL, srv.URL))
	token, err := c.Refresh(context.Background(), "rt1")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if token.AccessToken != "tok2" || token.RefreshToken != "rt2" {
		t.Errorf("token = %+v", token)
	}
}
