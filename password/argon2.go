package password

import (
	"errors"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minParallelism uint8  = 1
	maxKeyBytes    uint32 = 1 << 20
)

// Argon2 derives keys with Argon2id. Iterations is the time cost.
type Argon2 struct {
	time        uint32
	memory      uint32
	parallelism uint8
}

func newArgon2(cfg Config) *Argon2 {
	return &Argon2{
		time:        cfg.Iterations,
		memory:      cfg.Memory,
		parallelism: cfg.Parallelism,
	}
}

// Derive implements KDF.
func (a *Argon2) Derive(password, salt []byte, keyLen uint32) ([]byte, error) {
	if keyLen == 0 || keyLen > maxKeyBytes {
		return nil, errors.New("invalid argon2 key length")
	}

	return argon2.IDKey(
		password,
		salt,
		a.time,
		a.memory,
		a.parallelism,
		keyLen,
	), nil
}

func validateArgon2(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	return nil
}
