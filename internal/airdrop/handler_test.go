package airdrop

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func newTestMux(t *testing.T, adminToken string) *http.ServeMux {
	t.Helper()
	store := NewFileStore(filepath.Join(t.TempDir(), "data.json"))
	h := NewHandler(store, adminToken, slog.New(slog.NewTextHandler(io.Discard, nil)))
	mux := http.NewServeMux()
	h.Mount(mux)
	return mux
}

func TestGetDefaultsToEmptyList(t *testing.T) {
	mux := newTestMux(t, "admin")

	for _, target := range []string{"/api/airdrops", "/api/leaderboard"} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", target, nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d", target, w.Code)
		}
		if got := strings.TrimSpace(w.Body.String()); got != "[]" {
			t.Errorf("%s: body = %q, want []", target, got)
		}
	}
}

func TestPutThenGet(t *testing.T) {
	mux := newTestMux(t, "admin")

	doc := `[{"name":"drop1","chain":"sol"}]`
	r := httptest.NewRequest("POST", "/api/airdrops", strings.NewReader(doc))
	r.Header.Set("X-Admin-Token", "admin")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("POST status = %d: %s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/api/airdrops", nil))
	var got []map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0]["name"] != "drop1" {
		t.Errorf("got %v", got)
	}
}

func TestPutRequiresAdminToken(t *testing.T) {
	mux := newTestMux(t, "admin")

	tests := []struct {
		name  string
		token string
	}{
		{"missing", ""},
		{"wrong", "not-admin"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("POST", "/api/leaderboard", strings.NewReader(`[]`))
		if tt.token != "" {
			r.Header.Set("X-Admin-Token", tt.token)
		}
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, r)
		if w.Code != http.StatusForbidden {
			t.Errorf("%s token: status = %d, want 403", tt.name, w.Code)
		}
	}
}

func TestPutDisabledWithoutConfiguredToken(t *testing.T) {
	mux := newTestMux(t, "")

	r := httptest.NewRequest("POST", "/api/airdrops", strings.NewReader(`[]`))
	r.Header.Set("X-Admin-Token", "")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403 when no admin token is configured", w.Code)
	}
}

func TestPutRejectsEmptyBody(t *testing.T) {
	mux := newTestMux(t, "admin")

	r := httptest.NewRequest("POST", "/api/airdrops", nil)
	r.Header.Set("X-Admin-Token", "admin")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, r)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
