package emailauth

import (
	"fmt"

	"github.com/MrEthical07/emailauth/password"
)

// HashAccount returns a copy of account with a fresh Salt and Hash derived
// from plaintext under cfg. The input account is not modified.
//
// Any failure, including an empty plaintext or an invalid cfg, is reported
// as ErrHashGeneration.
func HashAccount(cfg HashConfig, account Account, plaintext string) (Account, error) {
	h, err := password.New(cfg.passwordConfig())
	if err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrHashGeneration, err)
	}
	return hashWith(h, account, plaintext)
}

// VerifyAccount reports whether plaintext matches the stored credentials of
// account. A nil account or one without both Salt and Hash is (false, nil).
// Undecodable stored credentials are ErrVerification.
func VerifyAccount(cfg HashConfig, account *Account, plaintext string) (bool, error) {
	h, err := password.New(cfg.passwordConfig())
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return verifyWith(h, account, plaintext)
}

func hashWith(h *password.Hasher, account Account, plaintext string) (Account, error) {
	creds, err := h.Hash(plaintext)
	if err != nil {
		return Account{}, fmt.Errorf("%w: %w", ErrHashGeneration, err)
	}
	if !creds.Usable() {
		return Account{}, ErrHashGeneration
	}

	out := account.clone()
	out.Salt = creds.Salt
	out.Hash = creds.Hash
	return out, nil
}

func verifyWith(h *password.Hasher, account *Account, plaintext string) (bool, error) {
	if !account.HasCredentials() {
		return false, nil
	}

	ok, err := h.Verify(plaintext, password.Credentials{Salt: account.Salt, Hash: account.Hash})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrVerification, err)
	}
	return ok, nil
}
