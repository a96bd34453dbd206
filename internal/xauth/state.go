package xauth

import (
	"net/url"
	"strings"
)

// stateSeparator joins the raw state token and the embedded verifier inside
// the state parameter. Both halves are base64url-encoded, so the separator
// cannot occur inside either value.
const stateSeparator = ":"

// EncodeState mints a fresh state token, optionally binding verifier into
// the token payload as "state:verifier" so the callback can recover the
// verifier even when cookies do not survive the redirect.
func EncodeState(verifier string, embedVerifier bool) (string, error) {
	token, err := generateStateToken()
	if err != nil {
		return "", err
	}
	if embedVerifier && verifier != "" {
		return token + stateSeparator + verifier, nil
	}
	return token, nil
}

// DecodeState splits an embedded verifier out of a presented state value.
//
// The value may arrive percent-encoded from a URL query string; it is decoded
// before splitting. The split is bounded: at most one separator is consumed,
// so a (hypothetical) separator inside the remainder stays with the verifier.
// embeddedVerifier is empty when no embedding is present.
func DecodeState(presented string) (rawState, embeddedVerifier string) {
	if decoded, err := url.QueryUnescape(presented); err == nil {
		presented = decoded
	}
	rawState, embeddedVerifier, _ = strings.Cut(presented, stateSeparator)
	return rawState, embeddedVerifier
}
