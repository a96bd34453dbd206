package xauth

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Cookie names are part of the wire contract with the frontend and the
// mobile WebView shell.
const (
	CookieVerifier = "x_cv"
	CookieState    = "x_state"
	CookieToken    = "x_token"
	CookieRefresh  = "x_refresh"
	CookieUserID   = "x_uid"
	CookieUsername = "x_uname"
)

// Cookie lifetimes. PKCE material never outlives the authorization window.
const (
	pkceCookieTTL    = 10 * time.Minute
	accessCookieTTL  = time.Hour
	refreshCookieTTL = 7 * 24 * time.Hour
)

// Session is the identity established after a successful exchange. The
// browser's cookie jar is the sole durable store; the server holds no
// session table.
type Session struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	Username     string
}

// Connected reports whether the session carries an access token.
func (s Session) Connected() bool {
	return s.AccessToken != ""
}

// setCookie writes a single secret-bearing cookie: HTTP-only, secure
// transport only, SameSite=Lax so the value survives the top-level redirect
// from the identity provider while cross-site POSTs cannot carry it.
func setCookie(w http.ResponseWriter, name, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    url.QueryEscape(value),
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearCookie expires a cookie in the client.
func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ParseCookieHeader parses a Cookie request header into a name→value map.
//
// It tolerates a missing header (empty map), whitespace around ;-separated
// pairs, and values containing '='. Values are percent-decoded to mirror
// setCookie's encoding; a value that fails decoding is kept verbatim.
func ParseCookieHeader(header string) map[string]string {
	cookies := make(map[string]string)
	if header == "" {
		return cookies
	}
	for _, pair := range strings.Split(header, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			continue
		}
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		cookies[name] = value
	}
	return cookies
}

// readSession rebuilds the Session value from request cookies. Pure read, no
// network calls.
func readSession(r *http.Request) Session {
	cookies := ParseCookieHeader(r.Header.Get("Cookie"))
	return Session{
		AccessToken:  cookies[CookieToken],
		RefreshToken: cookies[CookieRefresh],
		UserID:       cookies[CookieUserID],
		Username:     cookies[CookieUsername],
	}
}

// writeSession persists the session as cookies. The access token cookie
// expires in an hour; the refresh token cookie, when issued, in seven days.
// Identity cookies share the access token's lifetime.
func writeSession(w http.ResponseWriter, s Session) {
	setCookie(w, CookieToken, s.AccessToken, accessCookieTTL)
	if s.RefreshToken != "" {
		setCookie(w, CookieRefresh, s.RefreshToken, refreshCookieTTL)
	}
	setCookie(w, CookieUserID, s.UserID, accessCookieTTL)
	setCookie(w, CookieUsername, s.Username, accessCookieTTL)
}

// clearSession removes all session cookies. Idempotent.
func clearSession(w http.ResponseWriter) {
	clearCookie(w, CookieToken)
	clearCookie(w, CookieRefresh)
	clearCookie(w, CookieUserID)
	clearCookie(w, CookieUsername)
}

// clearPKCECookies removes the in-flight authorization cookies.
func clearPKCECookies(w http.ResponseWriter) {
	clearCookie(w, CookieVerifier)
	clearCookie(w, CookieState)
}
