package xauth

import "errors"

// Sentinel errors for the authorization flow. Handlers translate these into
// HTTP responses; API-facing endpoints also surface the error name in the
// JSON error field.
var (
	// ErrConfiguration indicates missing client credentials. Fatal for the
	// flow, not the process.
	ErrConfiguration = errors.New("ConfigurationError")

	// ErrMissingParameter indicates a callback without code or state.
	ErrMissingParameter = errors.New("MissingParameterError")

	// ErrMissingPKCE indicates that no verifier could be recovered from the
	// embedded state, the verifier cookie, or the ephemeral store.
	ErrMissingPKCE = errors.New("MissingPKCEError")

	// ErrStateMismatch indicates the presented state failed the CSRF check.
	// Treated as a security event: logged and rejected before any network
	// call to the identity provider.
	ErrStateMismatch = errors.New("StateMismatchError")

	// ErrTokenExchange covers HTTP-level exchange failure and responses with
	// a malformed or absent access token.
	ErrTokenExchange = errors.New("TokenExchangeError")

	// ErrIdentityLookup indicates the post-exchange identity fetch failed.
	// Non-fatal: the session proceeds with empty identity fields.
	ErrIdentityLookup = errors.New("IdentityLookupError")

	// ErrNoRefreshToken indicates a refresh attempt without a refresh cookie.
	ErrNoRefreshToken = errors.New("NoRefreshTokenError")

	// ErrRefreshFailed indicates the provider rejected the refresh grant.
	// Existing session cookies are left untouched.
	ErrRefreshFailed = errors.New("RefreshFailedError")
)

// errorName returns the taxonomy name for err, for the JSON error field of
// API-facing endpoints.
func errorName(err error) string {
	for _, sentinel := range []error{
		ErrConfiguration,
		ErrMissingParameter,
		ErrMissingPKCE,
		ErrStateMismatch,
		ErrTokenExchange,
		ErrIdentityLookup,
		ErrNoRefreshToken,
		ErrRefreshFailed,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "InternalError"
}
