package magiclink

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

// Payload is the record sealed inside a magic link token. It is created
// at issuance, never mutated, and never persisted server-side.
type Payload struct {
	Email        string `json:"email"`
	OriginDomain string `json:"domainURL"`
	Nonce        string `json:"nonce"`
}

var (
	// ErrMalformedToken reports a token that could not be decoded or
	// decrypted, including tampered ciphertext and wrong-key decrypts.
	ErrMalformedToken = errors.New("malformed token")

	// ErrMissingField reports a decrypted payload lacking a required field.
	ErrMissingField = errors.New("token payload missing required field")
)

// Codec seals payloads into opaque, URL-safe token strings using
// AES-256-GCM under a key derived from the configured secret. One codec
// per deployment; rotating the secret invalidates all outstanding links.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a Codec from the deployment secret. The secret has no
// default; callers must fail startup when it is absent.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("magiclink: secret is required")
	}

	key := sha256.Sum256([]byte(secret))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("magiclink: create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("magiclink: create GCM: %w", err)
	}

	return &Codec{aead: aead}, nil
}

// Encode seals the payload into a printable token safe for query-string
// embedding.
func (c *Codec) Encode(p Payload) (string, error) {
	plaintext, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("magiclink: marshal payload: %w", err)
	}

	iv := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("magiclink: read random: %w", err)
	}

	sealed := c.aead.Seal(iv, iv, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decode opens a token produced by Encode and validates its shape.
func (c *Codec) Decode(token string) (Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Payload{}, ErrMalformedToken
	}
	if len(raw) < c.aead.NonceSize() {
		return Payload{}, ErrMalformedToken
	}

	iv, ciphertext := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return Payload{}, ErrMalformedToken
	}

	var p Payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return Payload{}, ErrMalformedToken
	}
	if p.Email == "" || p.OriginDomain == "" || p.Nonce == "" {
		return Payload{}, ErrMissingField
	}

	return p, nil
}
