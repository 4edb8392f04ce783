package internal

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"github.com/google/uuid"
)

const minResetPasswordBytes = 8

// NewAccountID returns a random (v4) UUID string for a new account.
func NewAccountID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewResetPassword returns n random bytes as unpadded base64url text.
func NewResetPassword(n int) (string, error) {
	if n < minResetPasswordBytes {
		return "", errors.New("invalid reset password size")
	}

	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	// base64url, no padding, safe in mail bodies and URLs
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
