package emailauth

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

var testSigningKey = []byte("0123456789abcdef0123456789abcdef")

// testConfig is a valid config with a cheap hash for fast tests.
func testConfig() Config {
	cfg := defaultConfig()
	cfg.Cookie.PrivateKey = append([]byte(nil), testSigningKey...)
	cfg.Hash.Iterations = 1000
	cfg.Hash.SaltSize = 16
	cfg.Notify.Async = false
	return cfg
}

func TestDefaultConfigRequiresSigningKey(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected default config without key to fail validation")
	}
	cfg.Cookie.PrivateKey = testSigningKey
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestDefaultConfigMatchesHashDefaults(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Hash.Algorithm != "pbkdf2-sha256" || cfg.Hash.Iterations != 128000 ||
		cfg.Hash.SaltSize != 64 || cfg.Hash.KeyLength != 256 {
		t.Fatalf("unexpected hash defaults: %+v", cfg.Hash)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantValid bool
		wantMsg   string
	}{
		{
			name:      "baseline",
			mutate:    func(*Config) {},
			wantValid: true,
		},
		{
			name:      "argon2id valid",
			mutate:    func(c *Config) { c.Hash.Algorithm = "argon2id"; c.Hash.Iterations = 1; c.Hash.Argon2Memory = 8 * 1024 },
			wantValid: true,
		},
		{
			name:    "unknown algorithm",
			mutate:  func(c *Config) { c.Hash.Algorithm = "md5" },
			wantMsg: "unsupported password algorithm",
		},
		{
			name:    "zero iterations",
			mutate:  func(c *Config) { c.Hash.Iterations = 0 },
			wantMsg: "iterations",
		},
		{
			name:    "odd key length",
			mutate:  func(c *Config) { c.Hash.KeyLength = 260 },
			wantMsg: "multiple of 8",
		},
		{
			name:    "relative login path",
			mutate:  func(c *Config) { c.Routes.LoginPath = "login" },
			wantMsg: "LoginPath",
		},
		{
			name:    "relative prefix",
			mutate:  func(c *Config) { c.Routes.Prefix = "auth" },
			wantMsg: "Prefix",
		},
		{
			name:    "append next with separator",
			mutate:  func(c *Config) { c.Policy.AppendNext = "a&b" },
			wantMsg: "AppendNext",
		},
		{
			name:    "short hs256 key",
			mutate:  func(c *Config) { c.Cookie.PrivateKey = []byte("short") },
			wantMsg: "32 bytes",
		},
		{
			name:    "ed25519 without public key",
			mutate:  func(c *Config) { c.Cookie.SigningMethod = "ed25519" },
			wantMsg: "PublicKey",
		},
		{
			name:    "unknown signing method",
			mutate:  func(c *Config) { c.Cookie.SigningMethod = "rs256" },
			wantMsg: "signing method",
		},
		{
			name:    "samesite none without secure",
			mutate:  func(c *Config) { c.Cookie.SameSite = http.SameSiteNoneMode; c.Cookie.Secure = false },
			wantMsg: "SameSite",
		},
		{
			name:    "zero cookie ttl",
			mutate:  func(c *Config) { c.Cookie.TTL = 0 },
			wantMsg: "TTL",
		},
		{
			name:    "zero min password",
			mutate:  func(c *Config) { c.Registration.MinPasswordLength = 0 },
			wantMsg: "MinPasswordLength",
		},
		{
			name:    "negative reservation",
			mutate:  func(c *Config) { c.Registration.ReservationTTL = -time.Second },
			wantMsg: "ReservationTTL",
		},
		{
			name:    "short reset password",
			mutate:  func(c *Config) { c.Reset.PasswordBytes = 4 },
			wantMsg: "PasswordBytes",
		},
		{
			name:    "throttle without attempts",
			mutate:  func(c *Config) { c.Security.MaxLoginAttempts = 0 },
			wantMsg: "MaxLoginAttempts",
		},
		{
			name:      "throttle disabled ignores attempts",
			mutate:    func(c *Config) { c.Security.EnableLoginThrottle = false; c.Security.MaxLoginAttempts = 0 },
			wantValid: true,
		},
		{
			name:    "async without buffer",
			mutate:  func(c *Config) { c.Notify.Async = true; c.Notify.BufferSize = 0 },
			wantMsg: "BufferSize",
		},
		{
			name:    "empty redis prefix",
			mutate:  func(c *Config) { c.Redis.Prefix = "" },
			wantMsg: "Redis Prefix",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantValid {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantMsg) {
				t.Fatalf("error %q does not mention %q", err, tc.wantMsg)
			}
		})
	}
}

func TestCloneConfigCopiesKeys(t *testing.T) {
	cfg := testConfig()
	out := cloneConfig(cfg)
	out.Cookie.PrivateKey[0] = 'X'
	if cfg.Cookie.PrivateKey[0] == 'X' {
		t.Fatal("clone must not share key bytes")
	}
}
