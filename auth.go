package pannier

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
)

// Gate validates a single configured credential pair and derives a stateless
// token from it. The token is a reversible encoding of "username:password",
// not a MAC or a session identifier: validity is pure equality with the
// recomputed expectation, so there is no server-side session state, no
// revocation list and no server-tracked expiry. Treat it as a shared secret,
// nothing stronger.
type Gate struct {
	username string
	password string
}

// NewGate creates a Gate for the configured credential pair.
func NewGate(username, password string) *Gate {
	return &Gate{username: username, password: password}
}

// Issue returns the token for the credential pair, or ErrInvalidCredentials
// when it does not match the configured one.
func (g *Gate) Issue(username, password string) (string, error) {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(g.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) == 1
	if !userOK || !passOK {
		return "", fmt.Errorf("issue token: %w", ErrInvalidCredentials)
	}
	return EncodeToken(username, password), nil
}

// Validate reports whether candidate equals the expected token.
func (g *Gate) Validate(candidate string) bool {
	expected := EncodeToken(g.username, g.password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(expected)) == 1
}

// EncodeToken is the fixed, publicly-reversible credential-to-token
// transform. It is part of the wire contract: clients may decode the token
// to display the username.
func EncodeToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
}
