package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

const (
	minSaltSize      uint32 = 8
	minKeyLengthBits uint32 = 128
	minIterations    uint32 = 1

	// DefaultMaxPasswordBytes bounds the plaintext length accepted by Hash and
	// Verify when Config.MaxPasswordBytes is zero.
	DefaultMaxPasswordBytes = 1024
)

var (
	// ErrEmptyPassword is returned by Hash for an empty plaintext.
	ErrEmptyPassword = errors.New("password must not be empty")
	// ErrPasswordTooLong is returned when the plaintext exceeds MaxPasswordBytes.
	ErrPasswordTooLong = errors.New("password exceeds maximum length")
	// ErrEmptyOutput is returned when the derivation yields an empty salt or key.
	ErrEmptyOutput = errors.New("key derivation produced empty output")
	// ErrMalformedCredentials is returned when stored salt or hash cannot be decoded.
	ErrMalformedCredentials = errors.New("malformed stored credentials")
)

// Algorithm names a key derivation function.
type Algorithm string

const (
	PBKDF2SHA1   Algorithm = "pbkdf2-sha1"
	PBKDF2SHA256 Algorithm = "pbkdf2-sha256"
	PBKDF2SHA512 Algorithm = "pbkdf2-sha512"
	Argon2ID     Algorithm = "argon2id"
)

// Config holds the immutable hashing parameters.
//
// Iterations is the PBKDF2 round count, or the Argon2id time cost.
// KeyLength is expressed in bits and must be a multiple of 8.
type Config struct {
	Algorithm        Algorithm
	Iterations       uint32
	SaltSize         uint32
	KeyLength        uint32
	Memory           uint32 // KB, argon2id only
	Parallelism      uint8  // argon2id only
	MaxPasswordBytes int
}

// KDF derives keyLen bytes from a password and salt.
type KDF interface {
	Derive(password, salt []byte, keyLen uint32) ([]byte, error)
}

// Credentials is an encoded salt and derived key pair.
type Credentials struct {
	Salt string
	Hash string
}

// Usable reports whether both halves are present.
func (c Credentials) Usable() bool {
	return c.Salt != "" && c.Hash != ""
}

// Hasher hashes and verifies passwords with one configured KDF.
//
// Hasher is immutable after New and safe for concurrent use.
type Hasher struct {
	config Config
	kdf    KDF
	random io.Reader
	dummy  Credentials
}

// New validates cfg and returns a Hasher for it.
func New(cfg Config) (*Hasher, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes == 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}

	kdf, err := newKDF(cfg)
	if err != nil {
		return nil, err
	}

	h := &Hasher{
		config: cfg,
		kdf:    kdf,
		random: rand.Reader,
	}

	// Fixed material so lookups of unknown accounts still pay a full derivation.
	dummySalt := make([]byte, cfg.SaltSize)
	dummyKey := make([]byte, cfg.KeyLength/8)
	h.dummy = Credentials{
		Salt: base64.StdEncoding.EncodeToString(dummySalt),
		Hash: base64.StdEncoding.EncodeToString(dummyKey),
	}

	return h, nil
}

// Config returns a copy of the hashing parameters.
func (h *Hasher) Config() Config {
	return h.config
}

// Hash generates a fresh salt and derives a key for password.
func (h *Hasher) Hash(password string) (Credentials, error) {
	// Raw bytes, no Unicode normalization.
	if password == "" {
		return Credentials{}, ErrEmptyPassword
	}
	if len(password) > h.config.MaxPasswordBytes {
		return Credentials{}, ErrPasswordTooLong
	}

	salt := make([]byte, h.config.SaltSize)
	if _, err := io.ReadFull(h.random, salt); err != nil {
		return Credentials{}, fmt.Errorf("generate salt: %w", err)
	}

	key, err := h.kdf.Derive([]byte(password), salt, h.config.KeyLength/8)
	if err != nil {
		return Credentials{}, err
	}
	if len(salt) == 0 || len(key) == 0 {
		return Credentials{}, ErrEmptyOutput
	}

	return Credentials{
		Salt: base64.StdEncoding.EncodeToString(salt),
		Hash: base64.StdEncoding.EncodeToString(key),
	}, nil
}

// Verify re-derives a key from password with the stored salt and compares it
// with the stored hash in constant time. Unusable credentials report false
// without an error; a mismatch is (false, nil).
func (h *Hasher) Verify(password string, stored Credentials) (bool, error) {
	if !stored.Usable() {
		return false, nil
	}
	if len(password) > h.config.MaxPasswordBytes {
		return false, nil
	}

	salt, err := base64.StdEncoding.DecodeString(stored.Salt)
	if err != nil || len(salt) == 0 {
		return false, ErrMalformedCredentials
	}
	expected, err := base64.StdEncoding.DecodeString(stored.Hash)
	if err != nil || len(expected) == 0 {
		return false, ErrMalformedCredentials
	}

	computed, err := h.kdf.Derive([]byte(password), salt, uint32(len(expected)))
	if err != nil {
		return false, err
	}

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// VerifyDummy performs a derivation against fixed material and always
// returns false. It keeps the cost of a login for an unknown account in
// line with a real verification.
func (h *Hasher) VerifyDummy(password string) {
	_, _ = h.Verify(password, h.dummy)
}

// ValidateConfig reports whether cfg describes a usable hasher.
func ValidateConfig(cfg Config) error {
	switch cfg.Algorithm {
	case PBKDF2SHA1, PBKDF2SHA256, PBKDF2SHA512:
	case Argon2ID:
		if err := validateArgon2(cfg); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported password algorithm %q", cfg.Algorithm)
	}
	if cfg.Iterations < minIterations {
		return errors.New("password iterations must be >= 1")
	}
	if cfg.SaltSize < minSaltSize {
		return errors.New("password salt size must be >= 8 bytes")
	}
	if cfg.KeyLength < minKeyLengthBits {
		return errors.New("password key length must be >= 128 bits")
	}
	if cfg.KeyLength%8 != 0 {
		return errors.New("password key length must be a multiple of 8 bits")
	}
	if cfg.MaxPasswordBytes < 0 {
		return errors.New("password max bytes must be >= 0")
	}
	return nil
}

func newKDF(cfg Config) (KDF, error) {
	switch cfg.Algorithm {
	case PBKDF2SHA1, PBKDF2SHA256, PBKDF2SHA512:
		return newPBKDF2(cfg.Algorithm, cfg.Iterations), nil
	case Argon2ID:
		return newArgon2(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", cfg.Algorithm)
	}
}
