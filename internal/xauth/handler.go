package xauth

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"

	"github.com/hryh/wendrops/internal/endpoint"
)

// Config holds the identity-provider settings for the auth surface.
type Config struct {
	ClientID     string
	ClientSecret string

	// RedirectURI, when set, is used verbatim; otherwise the callback URL is
	// derived from the request host.
	RedirectURI string

	// LandingPath is the app route the browser is sent to after a
	// successful callback. Defaults to "/".
	LandingPath string

	// EmbedVerifier binds the verifier into the state parameter, making the
	// flow independent of cookies surviving the redirect.
	EmbedVerifier bool

	// Endpoint overrides the provider endpoint pair. Zero value means X.
	Endpoint oauth2.Endpoint
}

// Handler orchestrates the OAuth dance: login redirect, callback exchange,
// and the session endpoints.
type Handler struct {
	cfg    Config
	store  StateStore
	client ProviderClient
	log    *slog.Logger
}

// NewHandler wires the orchestrator. store is the ephemeral verifier
// fallback; client talks to the identity provider.
func NewHandler(cfg Config, store StateStore, client ProviderClient, log *slog.Logger) *Handler {
	if cfg.LandingPath == "" {
		cfg.LandingPath = "/"
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = XEndpoint
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{cfg: cfg, store: store, client: client, log: log}
}

// Mount registers the authentication surface on mux.
func (h *Handler) Mount(mux *http.ServeMux, processors ...endpoint.Processor) {
	mux.HandleFunc("GET /api/x/login", endpoint.HandleFunc(h.login, processors...))
	mux.HandleFunc("GET /api/x/callback", endpoint.HandleFunc(h.callback, processors...))
	mux.HandleFunc("GET /api/x/status", endpoint.HandleFunc(h.status, processors...))
	mux.HandleFunc("POST /api/x/refresh", endpoint.HandleFunc(h.refresh, processors...))
	mux.HandleFunc("POST /api/x/logout", endpoint.HandleFunc(h.logout, processors...))
}

type loginParams struct{}

// login starts the flow: PKCE pair, state token, dual-write of the verifier
// to cookie and ephemeral store, then the authorization redirect.
func (h *Handler) login(w http.ResponseWriter, r *http.Request, _ loginParams) (endpoint.Renderer, error) {
	if h.cfg.ClientID == "" {
		return nil, endpoint.Error(http.StatusInternalServerError, "X login is not configured", ErrConfiguration)
	}

	pair, err := GeneratePKCE()
	if err != nil {
		return nil, endpoint.Error(http.StatusInternalServerError, "failed to generate PKCE material", err)
	}
	state, err := EncodeState(pair.Verifier, h.cfg.EmbedVerifier)
	if err != nil {
		return nil, endpoint.Error(http.StatusInternalServerError, "failed to generate state", err)
	}

	// Dual-write: the cookie is the primary recovery path, the ephemeral
	// store survives cookie loss across the redirect.
	setCookie(w, CookieVerifier, pair.Verifier, pkceCookieTTL)
	setCookie(w, CookieState, state, pkceCookieTTL)
	if err := h.store.Put(r.Context(), state, pair); err != nil {
		// Cookie path still works; log and continue.
		h.log.Warn("ephemeral pkce store write failed", "error", err)
	}

	conf := h.oauthConfig(r)
	authURL := conf.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pair.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", "S256"),
	)
	return &endpoint.RedirectRenderer{URL: authURL, Status: http.StatusFound}, nil
}

type callbackParams struct {
	Code      string `query:"code"`
	State     string `query:"state"`
	Error     string `query:"error"`
	ErrorDesc string `query:"error_description"`
}

// callback validates state, recovers the verifier, exchanges the code, and
// establishes the session. The state token and its ephemeral entry are
// consumed whether or not the exchange succeeds.
func (h *Handler) callback(w http.ResponseWriter, r *http.Request, params callbackParams) (endpoint.Renderer, error) {
	ctx := r.Context()

	if params.Error != "" {
		h.cleanup(ctx, w, params.State)
		return nil, endpoint.Error(http.StatusUnauthorized, "authorization denied by provider: "+params.Error, nil)
	}
	if params.Code == "" || params.State == "" {
		return nil, endpoint.Error(http.StatusBadRequest, "missing code or state parameter", ErrMissingParameter)
	}

	// The state is single-use from this point on: success or failure, the
	// entry and cookies are gone before the response is written.
	defer h.cleanup(ctx, w, params.State)

	verifier, err := h.recoverVerifier(ctx, r, params.State)
	if err != nil {
		status := http.StatusBadRequest
		if err == ErrStateMismatch {
			h.log.Warn("oauth state mismatch", "path", r.URL.Path)
			return nil, endpoint.Error(status, "state mismatch", err)
		}
		return nil, endpoint.Error(status, "no PKCE verifier could be recovered", err)
	}

	token, err := h.client.Exchange(ctx, params.Code, verifier, h.redirectURI(r))
	if err != nil {
		h.log.Error("token exchange failed", "error", err)
		return nil, endpoint.Error(http.StatusInternalServerError, "token exchange failed", err)
	}

	sess := Session{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
	}
	// Identity fetch is best effort: a failure leaves the identity fields
	// empty rather than aborting the session.
	if identity, err := h.client.FetchIdentity(ctx, token.AccessToken); err != nil {
		h.log.Warn("identity lookup failed", "error", err)
	} else {
		sess.UserID = identity.ID
		sess.Username = identity.Username
	}

	writeSession(w, sess)
	return &endpoint.RedirectRenderer{URL: h.landingURL(), Status: http.StatusFound}, nil
}

// recoverVerifier recovers the PKCE verifier for the presented state, in
// priority order: embedded in the state itself, then the verifier cookie
// (validated against the state cookie), then the ephemeral store. The state
// checks run before any network call to the identity provider.
func (h *Handler) recoverVerifier(ctx context.Context, r *http.Request, presented string) (string, error) {
	if _, embedded := DecodeState(presented); embedded != "" {
		return embedded, nil
	}

	cookies := ParseCookieHeader(r.Header.Get("Cookie"))
	if cv := cookies[CookieVerifier]; cv != "" {
		if stateCookie := cookies[CookieState]; stateCookie != presented {
			return "", ErrStateMismatch
		}
		return cv, nil
	}

	if pair, ok, err := h.store.Get(ctx, presented); err != nil {
		h.log.Warn("ephemeral pkce store read failed", "error", err)
	} else if ok {
		return pair.Verifier, nil
	}
	return "", ErrMissingPKCE
}

// cleanup removes the PKCE cookies and the ephemeral entry for state.
// Idempotent: a second callback with the same state finds nothing.
func (h *Handler) cleanup(ctx context.Context, w http.ResponseWriter, state string) {
	clearPKCECookies(w)
	if state != "" {
		if err := h.store.Delete(ctx, state); err != nil {
			h.log.Warn("ephemeral pkce store delete failed", "error", err)
		}
	}
}

type statusParams struct{}

type statusUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type statusResponse struct {
	Connected bool        `json:"connected"`
	User      *statusUser `json:"user"`
}

// status reports the session state from cookies alone.
func (h *Handler) status(_ http.ResponseWriter, r *http.Request, _ statusParams) (endpoint.Renderer, error) {
	sess := readSession(r)
	resp := statusResponse{Connected: sess.Connected()}
	if sess.Connected() && sess.UserID != "" {
		resp.User = &statusUser{ID: sess.UserID, Username: sess.Username}
	}
	return &endpoint.JSONRenderer{Value: resp}, nil
}

type refreshParams struct{}

type apiResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// refresh redeems the refresh-token cookie for a fresh token set. On
// provider rejection the existing cookies are left untouched.
func (h *Handler) refresh(w http.ResponseWriter, r *http.Request, _ refreshParams) (endpoint.Renderer, error) {
	sess := readSession(r)
	if sess.RefreshToken == "" {
		return &endpoint.JSONRenderer{
			Status: http.StatusBadRequest,
			Value:  apiResult{Success: false, Error: errorName(ErrNoRefreshToken)},
		}, nil
	}

	token, err := h.client.Refresh(r.Context(), sess.RefreshToken)
	if err != nil {
		h.log.Error("token refresh failed", "error", err)
		return &endpoint.JSONRenderer{
			Status: http.StatusInternalServerError,
			Value:  apiResult{Success: false, Error: errorName(err)},
		}, nil
	}

	setCookie(w, CookieToken, token.AccessToken, accessCookieTTL)
	if token.RefreshToken != "" {
		setCookie(w, CookieRefresh, token.RefreshToken, refreshCookieTTL)
	}
	return &endpoint.JSONRenderer{Value: apiResult{Success: true}}, nil
}

type logoutParams struct{}

// logout clears all session cookies. Always succeeds, even without a
// session.
func (h *Handler) logout(w http.ResponseWriter, _ *http.Request, _ logoutParams) (endpoint.Renderer, error) {
	clearSession(w)
	clearPKCECookies(w)
	return &endpoint.JSONRenderer{Value: apiResult{Success: true}}, nil
}

func (h *Handler) oauthConfig(r *http.Request) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.cfg.ClientID,
		ClientSecret: h.cfg.ClientSecret,
		Endpoint:     h.cfg.Endpoint,
		RedirectURL:  h.redirectURI(r),
		Scopes:       XScopes,
	}
}

// redirectURI returns the configured redirect URI, or derives one from the
// request host.
func (h *Handler) redirectURI(r *http.Request) string {
	if h.cfg.RedirectURI != "" {
		return h.cfg.RedirectURI
	}
	scheme := "https"
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	} else if r.TLS == nil && isLocalHost(r.Host) {
		scheme = "http"
	}
	return scheme + "://" + r.Host + "/api/x/callback"
}

func isLocalHost(host string) bool {
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}
	return host == "localhost" || host == "127.0.0.1"
}

// landingURL is the post-auth application route, marked so the frontend can
// show the connected state.
func (h *Handler) landingURL() string {
	u := url.URL{Path: h.cfg.LandingPath, RawQuery: "x=connected"}
	return u.String()
}
