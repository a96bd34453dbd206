package xauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
)

// verifierLength is the number of random bytes backing a PKCE verifier.
// 32 bytes encodes to a 43 character string with RawURLEncoding, satisfying
// the RFC 7636 minimum of 43 characters.
const verifierLength = 32

// stateLength is the number of random bytes backing a state token. 16 bytes
// gives 128 bits of entropy, enough to make the anti-CSRF token unguessable.
const stateLength = 16

// PKCEPair is a verifier/challenge pair minted once per login attempt and
// consumed exactly once at callback.
type PKCEPair struct {
	Verifier  string `cbor:"1,keyasint"`
	Challenge string `cbor:"2,keyasint"`
}

// GeneratePKCE creates a PKCE pair using the S256 challenge method:
// challenge = base64url(SHA-256(verifier)), both unpadded.
//
// The process-wide CSPRNG is assumed available; a read failure is not
// recoverable at this level.
func GeneratePKCE() (PKCEPair, error) {
	b := make([]byte, verifierLength)
	if _, err := rand.Read(b); err != nil {
		return PKCEPair{}, err
	}
	verifier := base64.RawURLEncoding.EncodeToString(b)

	s := sha256.Sum256([]byte(verifier))
	return PKCEPair{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(s[:]),
	}, nil
}

// generateStateToken creates a random, URL-safe anti-CSRF token.
func generateStateToken() (string, error) {
	b := make([]byte, stateLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
