package xauth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrSealFormat  = errors.New("invalid sealed payload format")
	ErrSealInvalid = errors.New("invalid sealed payload")
)

// maxSealedLen bounds the amount of untrusted data accepted when opening a
// sealed payload.
const maxSealedLen = 8192

// SealerKeySize is the key length required per key.
const SealerKeySize = chacha20poly1305.KeySize

// Sealer provides authenticated encryption for verifier material that
// leaves the process, such as ephemeral-store entries held in a shared
// cache.
//
// Format: [keyID] "." [base64url(nonce || ciphertext)]. keys holds all
// accepted keys; keyID selects the key used for sealing, allowing rotation.
type Sealer struct {
	keyID string
	keys  map[string][]byte
}

// NewSealer validates the key set and returns a Sealer.
func NewSealer(keyID string, keys map[string][]byte) (*Sealer, error) {
	if len(keys) == 0 {
		return nil, errors.New("keys must not be empty")
	}
	if _, ok := keys[keyID]; !ok {
		return nil, errors.New("keyID not found in keys")
	}
	for id, k := range keys {
		if len(k) != SealerKeySize {
			return nil, fmt.Errorf("key %s: need %d bytes, got %d", id, SealerKeySize, len(k))
		}
	}
	return &Sealer{keyID: keyID, keys: keys}, nil
}

// Seal encrypts plain. aad binds the payload to its context (e.g. the state
// token it is stored under) so sealed values cannot be swapped between keys.
func (s *Sealer) Seal(plain, aad []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(s.keys[s.keyID])
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, plain, aad)
	return s.keyID + "." + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open decrypts a sealed value produced by Seal with the same aad.
func (s *Sealer) Open(value string, aad []byte) ([]byte, error) {
	if len(value) == 0 || len(value) > maxSealedLen {
		return nil, ErrSealFormat
	}
	keyID, encoded, ok := strings.Cut(value, ".")
	if !ok || keyID == "" || encoded == "" {
		return nil, ErrSealFormat
	}
	key, ok := s.keys[keyID]
	if !ok {
		return nil, ErrSealInvalid
	}
	sealed, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrSealFormat
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrSealFormat
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrSealInvalid
	}
	return plain, nil
}
