package pannier_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/quaelen/pannier"
)

func TestGate_Issue_Success(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")

	token, err := gate.Issue("admin", "s3cret")

	assert.NoError(t, err)
	assert.Equal(t, pannier.EncodeToken("admin", "s3cret"), token)
}

func TestGate_Issue_WrongCredentials(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{"wrong password", "admin", "nope"},
		{"wrong username", "nobody", "s3cret"},
		{"both wrong", "nobody", "nope"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := gate.Issue(tt.username, tt.password)
			assert.Empty(t, token)
			assert.ErrorIs(t, err, pannier.ErrInvalidCredentials)
		})
	}
}

func TestGate_Validate(t *testing.T) {
	gate := pannier.NewGate("admin", "s3cret")
	token, err := gate.Issue("admin", "s3cret")
	assert.NoError(t, err)

	assert.True(t, gate.Validate(token))
	assert.False(t, gate.Validate(""))
	assert.False(t, gate.Validate("garbage"))
	assert.False(t, gate.Validate(pannier.EncodeToken("admin", "wrong")))
}

func TestEncodeToken_IsReversible(t *testing.T) {
	token := pannier.EncodeToken("admin", "s3cret")

	decoded, err := base64.StdEncoding.DecodeString(token)
	assert.NoError(t, err)
	assert.Equal(t, "admin:s3cret", string(decoded))
}
