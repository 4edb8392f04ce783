package main

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/emailauth"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// serverConfig is the merged view of the YAML file and the command flags.
// Flags set on the command line win over the file.
type serverConfig struct {
	Addr              string        `koanf:"addr"`
	LogFormat         string        `koanf:"log-format"`
	LogLevel          string        `koanf:"log-level"`
	RedisAddr         string        `koanf:"redis-addr"`
	Prefix            string        `koanf:"prefix"`
	CookieKey         string        `koanf:"cookie-key"`
	CookieInsecure    bool          `koanf:"cookie-insecure"`
	CookieTTL         time.Duration `koanf:"cookie-ttl"`
	HashAlgorithm     string        `koanf:"hash-algorithm"`
	HashIterations    uint32        `koanf:"hash-iterations"`
	MinPasswordLength int           `koanf:"min-password-length"`
	MaxLoginAttempts  int           `koanf:"max-login-attempts"`
	Metrics           bool          `koanf:"metrics"`
}

// Default values for server flags.
const (
	defaultAddr      = "localhost:8000"
	defaultLogFormat = "text"
	defaultLogLevel  = "info"
	defaultPrefix    = "/auth"
)

func registerFlags(fs *pflag.FlagSet) {
	defaults := emailauth.DefaultConfig()

	fs.String("config", "", "YAML config file")
	fs.String("addr", defaultAddr, "HTTP listen address")
	fs.String("log-format", defaultLogFormat, "log format (json or text)")
	fs.String("log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("redis-addr", "", "redis address (empty = embedded miniredis)")
	fs.String("prefix", defaultPrefix, "route prefix for the auth endpoints")
	fs.String("cookie-key", "", "hex encoded session signing key (empty = random per process)")
	fs.Bool("cookie-insecure", false, "allow the session cookie over plain HTTP")
	fs.Duration("cookie-ttl", defaults.Cookie.TTL, "session lifetime")
	fs.String("hash-algorithm", defaults.Hash.Algorithm, "password KDF")
	fs.Uint32("hash-iterations", defaults.Hash.Iterations, "KDF iterations or argon2id time cost")
	fs.Int("min-password-length", defaults.Registration.MinPasswordLength, "minimum password length at registration")
	fs.Int("max-login-attempts", defaults.Security.MaxLoginAttempts, "failed logins allowed per cooldown window")
	fs.Bool("metrics", true, "serve Prometheus metrics on /metrics")
}

// loadConfig merges path (when set) and the flags in fs.
func loadConfig(fs *pflag.FlagSet, path string) (serverConfig, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return serverConfig{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return serverConfig{}, fmt.Errorf("load flags: %w", err)
	}

	var cfg serverConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return serverConfig{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

// Validate checks the server level settings. Engine settings are checked
// by the builder.
func (c serverConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("log-format must be 'json' or 'text', got %q", c.LogFormat)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.Prefix != "" && (!strings.HasPrefix(c.Prefix, "/") || strings.HasSuffix(c.Prefix, "/")) {
		return fmt.Errorf("prefix must start with '/' and not end with one, got %q", c.Prefix)
	}
	if c.CookieKey != "" {
		if _, err := hex.DecodeString(c.CookieKey); err != nil {
			return fmt.Errorf("cookie-key must be hex: %w", err)
		}
	}
	return nil
}

// engineConfig maps the server settings onto an emailauth configuration.
// key is the decoded signing key.
func (c serverConfig) engineConfig(key []byte) emailauth.Config {
	cfg := emailauth.DefaultConfig()

	cfg.Routes.Prefix = c.Prefix
	cfg.Policy.RedirectTo = c.Prefix + cfg.Routes.LoginPath
	cfg.Policy.AppendNext = "next"

	cfg.Cookie.PrivateKey = key
	cfg.Cookie.Secure = !c.CookieInsecure
	cfg.Cookie.TTL = c.CookieTTL

	cfg.Hash.Algorithm = c.HashAlgorithm
	cfg.Hash.Iterations = c.HashIterations
	cfg.Registration.MinPasswordLength = c.MinPasswordLength
	cfg.Security.MaxLoginAttempts = c.MaxLoginAttempts

	cfg.Metrics.Enabled = c.Metrics
	cfg.Metrics.EnableLatencyHistograms = c.Metrics

	return cfg
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log-level %q: %w", s, err)
	}
	return level, nil
}
