package social

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hryh/wendrops/internal/endpoint"
)

// Handler exposes the follow-verification endpoint.
type Handler struct {
	verifier FollowVerifier
	log      *slog.Logger
	now      func() time.Time
}

// NewHandler wires the verification endpoint around verifier.
func NewHandler(verifier FollowVerifier, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{verifier: verifier, log: log, now: time.Now}
}

// Mount registers the endpoint on mux. The caller supplies the rate-limit
// processor; this path is the one the original product throttles.
func (h *Handler) Mount(mux *http.ServeMux, processors ...endpoint.Processor) {
	mux.HandleFunc("POST /api/twitter/verify-follow", endpoint.HandleFunc(h.verify, processors...))
}

type verifyParams struct {
	Body verifyRequest `body:"json"`
}

type verifyRequest struct {
	TargetUsername string `json:"targetUsername"`
	UserWallet     string `json:"userWallet"`
}

type verifyResponse struct {
	Success        bool   `json:"success"`
	IsFollowing    bool   `json:"isFollowing"`
	TargetUsername string `json:"targetUsername"`
	UserWallet     string `json:"userWallet"`
	VerifiedAt     string `json:"verifiedAt"`
}

type verifyError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func (h *Handler) verify(_ http.ResponseWriter, r *http.Request, params verifyParams) (endpoint.Renderer, error) {
	req := params.Body
	if req.TargetUsername == "" {
		return nil, endpoint.Error(http.StatusBadRequest, "targetUsername is required", nil)
	}

	following, err := h.verifier.VerifyFollow(r.Context(), req.TargetUsername, req.UserWallet)
	if err != nil {
		h.log.Error("follow verification failed", "target", req.TargetUsername, "error", err)
		return &endpoint.JSONRenderer{
			Status: http.StatusInternalServerError,
			Value:  verifyError{Success: false, Error: "Verification failed"},
		}, nil
	}

	return &endpoint.JSONRenderer{Value: verifyResponse{
		Success:        true,
		IsFollowing:    following,
		TargetUsername: req.TargetUsername,
		UserWallet:     req.UserWallet,
		VerifiedAt:     h.now().UTC().Format(time.RFC3339),
	}}, nil
}
