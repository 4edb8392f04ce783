package emailauth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/emailauth/password"
)

// Config defines a public type used by emailauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Hash         HashConfig
	Policy       PolicyConfig
	Routes       RoutesConfig
	Cookie       CookieConfig
	Registration RegistrationConfig
	Reset        ResetConfig
	Security     SecurityConfig
	Notify       NotifyConfig
	Metrics      MetricsConfig
	Redis        RedisConfig
}

/*
====================================
HASH CONFIG
====================================
*/

// HashConfig holds the key derivation parameters.
//
// KeyLength is in bits. Iterations is the PBKDF2 round count, or the
// time cost for argon2id.
type HashConfig struct {
	Algorithm         string // "pbkdf2-sha256" (default), "pbkdf2-sha1", "pbkdf2-sha512", "argon2id"
	Iterations        uint32
	SaltSize          uint32
	KeyLength         uint32
	Argon2Memory      uint32 // in KB
	Argon2Parallelism uint8
	MaxPasswordBytes  int
}

func (h HashConfig) passwordConfig() password.Config {
	return password.Config{
		Algorithm:        password.Algorithm(h.Algorithm),
		Iterations:       h.Iterations,
		SaltSize:         h.SaltSize,
		KeyLength:        h.KeyLength,
		Memory:           h.Argon2Memory,
		Parallelism:      h.Argon2Parallelism,
		MaxPasswordBytes: h.MaxPasswordBytes,
	}
}

/*
====================================
POLICY CONFIG
====================================
*/

// PolicyConfig controls the unauthenticated-request decision.
//
// AppendNext is the query key used to pass the original path to the
// redirect target; empty disables it.
type PolicyConfig struct {
	RedirectOnTry     bool
	RedirectTo        string
	AppendNext        string
	AllowExternalNext bool
}

/*
====================================
ROUTES CONFIG
====================================
*/

// RoutesConfig names the paths used by the default flows.
//
// Prefix is prepended to LoginPath when building the reset redirect, the
// way a mounted sub-router would see it.
type RoutesConfig struct {
	Prefix           string
	LoginPath        string
	RegisterPath     string
	ResetPath        string
	LoginPostPath    string
	RegisterPostPath string
	ResetPostPath    string
	LogoutPath       string
	SuccessEndpoint  string
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls the session cookie and its signed token.
type CookieConfig struct {
	Name          string
	Path          string
	Domain        string
	TTL           time.Duration
	Secure        bool
	HTTPOnly      bool
	SameSite      http.SameSite
	SigningMethod string // "hs256" (default) or "ed25519"
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
REGISTRATION / RESET CONFIG
====================================
*/

// RegistrationConfig controls the register flow.
//
// ReservationTTL > 0 enables the redis email reservation that rejects
// concurrent registrations for the same email.
type RegistrationConfig struct {
	MinPasswordLength int
	ReservationTTL    time.Duration
}

// ResetConfig controls the generated reset password.
type ResetConfig struct {
	PasswordBytes int
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls login throttling.
type SecurityConfig struct {
	EnableLoginThrottle   bool
	EnableIPThrottle      bool
	MaxLoginAttempts      int
	LoginCooldownDuration time.Duration
}

/*
====================================
NOTIFY / METRICS / REDIS CONFIG
====================================
*/

// NotifyConfig controls delivery of On* hook notifications.
type NotifyConfig struct {
	Async      bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by emailauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// RedisConfig holds the key namespace for redis-backed features.
type RedisConfig struct {
	Prefix string
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration. It carries no signing
// key, so Cookie.PrivateKey must be set before Build.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Hash: HashConfig{
			Algorithm:         string(password.PBKDF2SHA256),
			Iterations:        128000,
			SaltSize:          64,
			KeyLength:         256,
			Argon2Memory:      64 * 1024,
			Argon2Parallelism: 2,
			MaxPasswordBytes:  password.DefaultMaxPasswordBytes,
		},
		Policy: PolicyConfig{
			RedirectOnTry:     true,
			RedirectTo:        "/login",
			AppendNext:        "",
			AllowExternalNext: false,
		},
		Routes: RoutesConfig{
			Prefix:           "",
			LoginPath:        "/login",
			RegisterPath:     "/register",
			ResetPath:        "/reset",
			LoginPostPath:    "/login",
			RegisterPostPath: "/register",
			ResetPostPath:    "/reset",
			LogoutPath:       "/logout",
			SuccessEndpoint:  "/",
		},
		Cookie: CookieConfig{
			Name:          "emailauth",
			Path:          "/",
			TTL:           365 * 24 * time.Hour,
			Secure:        true,
			HTTPOnly:      true,
			SameSite:      http.SameSiteLaxMode,
			SigningMethod: "hs256",
			Issuer:        "emailauth",
		},
		Registration: RegistrationConfig{
			MinPasswordLength: 8,
			ReservationTTL:    30 * time.Second,
		},
		Reset: ResetConfig{
			PasswordBytes: 12,
		},
		Security: SecurityConfig{
			EnableLoginThrottle:   true,
			EnableIPThrottle:      false,
			MaxLoginAttempts:      5,
			LoginCooldownDuration: 15 * time.Minute,
		},
		Notify: NotifyConfig{
			Async:      true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
		Redis: RedisConfig{
			Prefix: "ea",
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Cookie.PrivateKey = cloneBytes(cfg.Cookie.PrivateKey)
	out.Cookie.PublicKey = cloneBytes(cfg.Cookie.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// Hash
	if err := password.ValidateConfig(c.Hash.passwordConfig()); err != nil {
		return err
	}

	// Routes
	for name, p := range map[string]string{
		"LoginPath":        c.Routes.LoginPath,
		"RegisterPath":     c.Routes.RegisterPath,
		"ResetPath":        c.Routes.ResetPath,
		"LoginPostPath":    c.Routes.LoginPostPath,
		"RegisterPostPath": c.Routes.RegisterPostPath,
		"ResetPostPath":    c.Routes.ResetPostPath,
		"SuccessEndpoint":  c.Routes.SuccessEndpoint,
	} {
		if !strings.HasPrefix(p, "/") {
			return errors.New("Routes " + name + " must start with /")
		}
	}
	if c.Routes.LogoutPath != "" && !strings.HasPrefix(c.Routes.LogoutPath, "/") {
		return errors.New("Routes LogoutPath must be empty or start with /")
	}
	if c.Routes.Prefix != "" && !strings.HasPrefix(c.Routes.Prefix, "/") {
		return errors.New("Routes Prefix must be empty or start with /")
	}

	// Policy
	if strings.ContainsAny(c.Policy.AppendNext, "&=?# ") {
		return errors.New("Policy AppendNext must be a plain query key")
	}

	// Cookie
	if c.Cookie.Name == "" {
		return errors.New("Cookie Name must be set")
	}
	if c.Cookie.TTL <= 0 {
		return errors.New("Cookie TTL must be > 0")
	}
	switch c.Cookie.SigningMethod {
	case "hs256":
		if len(c.Cookie.PrivateKey) < 32 {
			return errors.New("hs256 requires PrivateKey of at least 32 bytes")
		}
	case "ed25519":
		if len(c.Cookie.PrivateKey) == 0 {
			return errors.New("ed25519 requires PrivateKey")
		}
		if len(c.Cookie.PublicKey) == 0 {
			return errors.New("ed25519 requires PublicKey")
		}
	default:
		return errors.New("unsupported Cookie signing method")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && !c.Cookie.Secure {
		return errors.New("Cookie SameSite=None requires Secure")
	}

	// Registration
	if c.Registration.MinPasswordLength < 1 {
		return errors.New("Registration MinPasswordLength must be >= 1")
	}
	if c.Registration.ReservationTTL < 0 {
		return errors.New("Registration ReservationTTL must be >= 0")
	}

	// Reset
	if c.Reset.PasswordBytes < 8 {
		return errors.New("Reset PasswordBytes must be >= 8")
	}

	// Security
	if c.Security.EnableLoginThrottle {
		if c.Security.MaxLoginAttempts <= 0 {
			return errors.New("MaxLoginAttempts must be > 0 when login throttle is enabled")
		}
		if c.Security.LoginCooldownDuration <= 0 {
			return errors.New("LoginCooldownDuration must be > 0 when login throttle is enabled")
		}
	}

	// Notify
	if c.Notify.Async && c.Notify.BufferSize <= 0 {
		return errors.New("Notify BufferSize must be > 0 when async delivery is enabled")
	}

	if c.Redis.Prefix == "" {
		return errors.New("Redis Prefix must be set")
	}

	return nil
}
