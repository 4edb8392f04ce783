package emailauth

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func BenchmarkAuthenticate(b *testing.B) {
	engine, _, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	reg := engine.Register(context.Background(), nil, RegisterRequest{Email: "alice@example.com", Password: "correct-password-123"})
	if !reg.Success {
		b.Fatalf("register failed: %v", reg.Err)
	}
	creds, err := engine.ParseSession(reg.Session)
	if err != nil {
		b.Fatalf("parse failed: %v", err)
	}
	req := &Request{Path: "/secret", Session: creds}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if d := engine.Authenticate(context.Background(), req, AuthOptions{}); d.Kind != DecisionAuthenticated {
			b.Fatalf("authenticate failed: %+v", d)
		}
	}
}

func BenchmarkParseSession(b *testing.B) {
	engine, _, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	token, err := engine.IssueSession(Account{ID: "u1", Email: "alice@example.com"})
	if err != nil {
		b.Fatalf("issue failed: %v", err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ParseSession(token); err != nil {
			b.Fatalf("parse failed: %v", err)
		}
	}
}

func BenchmarkLogin(b *testing.B) {
	engine, _, cleanup := newBenchmarkEngine(b)
	defer cleanup()

	reg := engine.Register(context.Background(), nil, RegisterRequest{Email: "alice@example.com", Password: "correct-password-123"})
	if !reg.Success {
		b.Fatalf("register failed: %v", reg.Err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		out := engine.Login(context.Background(), nil, LoginRequest{Email: "alice@example.com", Password: "correct-password-123"})
		if !out.Success {
			b.Fatalf("login failed: %v", out.Err)
		}
	}
}

func newBenchmarkEngine(tb testing.TB) (*Engine, *memAccounts, func()) {
	tb.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		tb.Fatalf("miniredis.Run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := testConfig()
	cfg.Metrics.Enabled = false
	cfg.Security.MaxLoginAttempts = 1 << 30

	store := newMemAccounts()
	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithHooks(store.hooks()).
		Build()
	if err != nil {
		tb.Fatalf("Build failed: %v", err)
	}

	return engine, store, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}
