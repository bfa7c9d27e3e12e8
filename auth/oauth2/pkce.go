package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"io"

	xoauth2 "golang.org/x/oauth2"
)

// NewState returns an unguessable 256-bit state value, base64url encoded.
func NewState() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// PKCE holds a Proof Key for Code Exchange verifier and its S256 challenge.
type PKCE struct {
	Verifier  string
	Challenge string
}

// ChallengeMethod is the only method issued.
const ChallengeMethod = "S256"

// NewPKCE generates a 43-character verifier and its challenge.
func NewPKCE() *PKCE {
	verifier := xoauth2.GenerateVerifier()
	return &PKCE{Verifier: verifier, Challenge: S256(verifier)}
}

// S256 derives the challenge for verifier.
func S256(verifier string) string {
	return xoauth2.S256ChallengeFromVerifier(verifier)
}
