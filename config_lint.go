package emailauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/emailauth/password"
)

// LintSeverity ranks a configuration warning.
type LintSeverity int

const (
	// LintInfo marks a setting worth knowing about.
	LintInfo LintSeverity = iota
	// LintWarn marks a weak but workable setting.
	LintWarn
	// LintHigh marks a setting that undermines session or credential safety.
	LintHigh
)

// String returns the uppercase severity name.
func (s LintSeverity) String() string {
	switch s {
	case LintInfo:
		return "INFO"
	case LintWarn:
		return "WARN"
	case LintHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("LintSeverity(%d)", int(s))
	}
}

// LintWarning is one advisory finding. Code is stable across releases.
type LintWarning struct {
	Code     string
	Severity LintSeverity
	Message  string
}

// LintResult is the ordered set of findings returned by [Config.Lint].
type LintResult []LintWarning

// Codes returns the warning codes in order.
func (r LintResult) Codes() []string {
	codes := make([]string, 0, len(r))
	for _, w := range r {
		codes = append(codes, w.Code)
	}
	return codes
}

// BySeverity returns the warnings at or above min.
func (r LintResult) BySeverity(min LintSeverity) LintResult {
	var out LintResult
	for _, w := range r {
		if w.Severity >= min {
			out = append(out, w)
		}
	}
	return out
}

// AsError folds the warnings at or above min into one error, or nil.
func (r LintResult) AsError(min LintSeverity) error {
	matched := r.BySeverity(min)
	if len(matched) == 0 {
		return nil
	}
	parts := make([]string, 0, len(matched))
	for _, w := range matched {
		parts = append(parts, w.Severity.String()+" "+w.Code+": "+w.Message)
	}
	return fmt.Errorf("config lint: %s", strings.Join(parts, "; "))
}

// Lint reports settings that pass Validate but weaken the deployment.
// It never mutates the config.
func (c *Config) Lint() LintResult {
	var ws LintResult
	add := func(code string, sev LintSeverity, msg string) {
		ws = append(ws, LintWarning{Code: code, Severity: sev, Message: msg})
	}

	switch password.Algorithm(c.Hash.Algorithm) {
	case password.PBKDF2SHA1:
		add("hash_sha1", LintWarn, "pbkdf2-sha1 is kept for legacy hashes; prefer pbkdf2-sha256 or argon2id")
		fallthrough
	case password.PBKDF2SHA256, password.PBKDF2SHA512:
		if c.Hash.Iterations < 100000 {
			add("hash_iterations_low", LintWarn, "pbkdf2 iterations below 100000")
		}
	case password.Argon2ID:
		if c.Hash.Argon2Memory < 64*1024 {
			add("argon2_memory_low", LintWarn, "argon2id memory below 64 MB")
		}
	}
	if c.Hash.SaltSize < 16 {
		add("salt_short", LintWarn, "salt shorter than 16 bytes")
	}

	if !c.Cookie.Secure {
		add("cookie_insecure", LintHigh, "session cookie is sent over plain HTTP")
	}
	if !c.Cookie.HTTPOnly {
		add("cookie_script_readable", LintHigh, "session cookie is readable from scripts")
	}
	if c.Cookie.TTL > 30*24*time.Hour {
		add("cookie_ttl_long", LintInfo, "session cookie lives longer than 30 days")
	}

	if c.Policy.AllowExternalNext {
		add("external_next_allowed", LintHigh, "next parameter may redirect to other hosts")
	}
	if c.Policy.RedirectOnTry && c.Policy.RedirectTo == "" {
		add("redirect_target_empty", LintInfo, "RedirectOnTry has no effect without RedirectTo")
	}

	if !c.Security.EnableLoginThrottle {
		add("login_throttle_disabled", LintWarn, "failed logins are not throttled")
	}
	if c.Registration.MinPasswordLength < 8 {
		add("min_password_short", LintWarn, "minimum password length below 8")
	}
	if c.Registration.ReservationTTL == 0 {
		add("reservation_disabled", LintInfo, "duplicate registration is left to the Save hook")
	}
	if c.Notify.Async && c.Notify.DropIfFull {
		add("notify_may_drop", LintInfo, "hook notifications are dropped when the buffer is full")
	}

	return ws
}
