package password

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 derives keys with HMAC-based PBKDF2.
type PBKDF2 struct {
	iterations int
	digest     func() hash.Hash
}

func newPBKDF2(alg Algorithm, iterations uint32) *PBKDF2 {
	digest := sha256.New
	switch alg {
	case PBKDF2SHA1:
		digest = sha1.New
	case PBKDF2SHA512:
		digest = sha512.New
	}

	return &PBKDF2{
		iterations: int(iterations),
		digest:     digest,
	}
}

// Derive implements KDF.
func (p *PBKDF2) Derive(password, salt []byte, keyLen uint32) ([]byte, error) {
	if keyLen == 0 {
		return nil, ErrEmptyOutput
	}
	return pbkdf2.Key(password, salt, p.iterations, int(keyLen), p.digest), nil
}
