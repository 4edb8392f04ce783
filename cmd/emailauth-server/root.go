package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/emailauth"
	"github.com/MrEthical07/emailauth/httpauth"
	promexport "github.com/MrEthical07/emailauth/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// NewRootCmd creates the emailauth-server command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "emailauth-server",
		Short: "Run a demo HTTP server protected by email/password auth",
		Long: `emailauth-server mounts the login, register, reset and logout
endpoints under a prefix and guards "/" with a session cookie. Accounts are
kept in memory.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd.Flags(), path)
			if err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	registerFlags(cmd.Flags())

	return cmd
}

func newLogger(cfg serverConfig, w io.Writer) *slog.Logger {
	level, _ := parseLevel(cfg.LogLevel)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// openRedis connects to addr, or starts an embedded miniredis when addr is
// empty. The returned func releases both.
func openRedis(addr string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Info("using embedded miniredis", "addr", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	logger.Info("using redis", "addr", addr)
	return client, func() { _ = client.Close() }, nil
}

func signingKey(cfg serverConfig, logger *slog.Logger) ([]byte, error) {
	if cfg.CookieKey != "" {
		return hex.DecodeString(cfg.CookieKey)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate signing key: %w", err)
	}
	logger.Warn("no cookie-key configured; sessions will not survive a restart")
	return key, nil
}

// newHandler builds the engine and the routes around it.
func newHandler(cfg serverConfig, store *memoryStore, rdb redis.UniversalClient, logger *slog.Logger) (http.Handler, *emailauth.Engine, error) {
	key, err := signingKey(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	engineCfg := cfg.engineConfig(key)
	for _, f := range engineCfg.Lint() {
		logger.Warn("config lint", "code", f.Code, "severity", f.Severity.String(), "message", f.Message)
	}

	hooks := store.hooks()
	hooks.OnRegisterSuccess = func(ctx context.Context, ev emailauth.Event) error {
		logger.InfoContext(ctx, "account registered", "email", ev.Email, "accounts", store.len())
		return nil
	}
	hooks.OnLoginError = func(ctx context.Context, ev emailauth.Event) error {
		logger.InfoContext(ctx, "login failed", "email", ev.Email, "error", ev.Err)
		return nil
	}

	engine, err := emailauth.New().
		WithConfig(engineCfg).
		WithRedis(rdb).
		WithHooks(hooks).
		WithLogger(logger).
		Build()
	if err != nil {
		return nil, nil, fmt.Errorf("engine build: %w", err)
	}

	mux := http.NewServeMux()
	httpauth.Mount(mux, engine)
	mux.Handle("GET /{$}", httpauth.Guard(engine)(http.HandlerFunc(whoami)))
	if cfg.Metrics {
		mux.Handle("GET /metrics", promexport.NewPrometheusExporter(engine).Handler())
	}

	return mux, engine, nil
}

func whoami(w http.ResponseWriter, r *http.Request) {
	account, ok := httpauth.CredentialsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    account.ID,
		"email": account.Email,
	})
}

func run(ctx context.Context, cfg serverConfig, out, errOut io.Writer) error {
	logger := newLogger(cfg, errOut)

	rdb, closeRedis, err := openRedis(cfg.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer closeRedis()

	handler, engine, err := newHandler(cfg, newMemoryStore(out), rdb, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "prefix", cfg.Prefix)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
