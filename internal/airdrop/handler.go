package airdrop

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hryh/wendrops/internal/endpoint"
)

// Handler exposes the airdrop and leaderboard documents over REST. Reads
// are public; writes require the admin token.
type Handler struct {
	store      Store
	adminToken string
	log        *slog.Logger
}

// NewHandler wires the document endpoints. An empty adminToken disables the
// write paths entirely.
func NewHandler(store Store, adminToken string, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, adminToken: adminToken, log: log}
}

// Mount registers the document surface on mux.
func (h *Handler) Mount(mux *http.ServeMux, processors ...endpoint.Processor) {
	mux.HandleFunc("GET /api/airdrops", endpoint.HandleFunc(h.get(KeyAirdrops), processors...))
	mux.HandleFunc("POST /api/airdrops", endpoint.HandleFunc(h.put(KeyAirdrops), processors...))
	mux.HandleFunc("GET /api/leaderboard", endpoint.HandleFunc(h.get(KeyLeaderboard), processors...))
	mux.HandleFunc("POST /api/leaderboard", endpoint.HandleFunc(h.put(KeyLeaderboard), processors...))
}

type getParams struct{}

func (h *Handler) get(key string) endpoint.EndpointFunc[getParams] {
	return func(_ http.ResponseWriter, r *http.Request, _ getParams) (endpoint.Renderer, error) {
		doc, ok, err := h.store.Get(r.Context(), key)
		if err != nil {
			h.log.Error("document read failed", "key", key, "error", err)
			return nil, endpoint.Error(http.StatusInternalServerError, "storage unavailable", err)
		}
		if !ok {
			doc = json.RawMessage("[]")
		}
		return &endpoint.JSONRenderer{Value: doc}, nil
	}
}

type putParams struct {
	AdminToken string          `header:"X-Admin-Token"`
	Document   json.RawMessage `body:"json"`
}

func (h *Handler) put(key string) endpoint.EndpointFunc[putParams] {
	return func(_ http.ResponseWriter, r *http.Request, params putParams) (endpoint.Renderer, error) {
		if !h.authorized(params.AdminToken) {
			return nil, endpoint.Error(http.StatusForbidden, "admin token required", nil)
		}
		if len(params.Document) == 0 {
			return nil, endpoint.Error(http.StatusBadRequest, "empty document", nil)
		}
		if err := h.store.Put(r.Context(), key, params.Document); err != nil {
			h.log.Error("document write failed", "key", key, "error", err)
			return nil, endpoint.Error(http.StatusInternalServerError, "storage unavailable", err)
		}
		return &endpoint.JSONRenderer{Value: map[string]bool{"success": true}}, nil
	}
}

// authorized compares the presented token in constant time. A server with
// no admin token configured accepts no writes.
func (h *Handler) authorized(presented string) bool {
	if h.adminToken == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.adminToken), []byte(presented)) == 1
}
