//go:build integration

package emailauth_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/emailauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// redisMode names one redis backend the compatibility suite runs against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes always includes miniredis. REDIS_ADDR adds a standalone server
// and REDIS_CLUSTER_ADDRS (comma separated) adds a cluster.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				mr := miniredis.RunT(t)
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				pingOrSkip(t, rdb)
				rdb.FlushDB(context.Background())
				t.Cleanup(func() { rdb.FlushDB(context.Background()); _ = rdb.Close() })
				return rdb
			},
		})
	}

	if addrs := os.Getenv("REDIS_CLUSTER_ADDRS"); addrs != "" {
		modes = append(modes, redisMode{
			name: "cluster",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClusterClient(&redis.ClusterOptions{Addrs: splitAddrs(addrs)})
				pingOrSkip(t, rdb)
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		})
	}

	return modes
}

func pingOrSkip(t *testing.T, rdb redis.UniversalClient) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		t.Skipf("cannot connect to redis: %v", err)
	}
}

func splitAddrs(s string) []string {
	var addrs []string
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	return addrs
}

func compatEngine(t *testing.T, rdb redis.UniversalClient) *emailauth.Engine {
	t.Helper()
	cfg := emailauth.DefaultConfig()
	cfg.Cookie.PrivateKey = []byte("0123456789abcdef0123456789abcdef")
	cfg.Hash.Iterations = 1000
	cfg.Notify.Async = false
	cfg.Security.MaxLoginAttempts = 2
	// Unique per run so a shared server does not leak state between runs.
	cfg.Redis.Prefix = "eacompat" + time.Now().Format("150405.000000")

	accounts := map[string]emailauth.Account{}
	engine, err := emailauth.New().WithConfig(cfg).WithRedis(rdb).WithHooks(emailauth.Hooks{
		LookupByEmail: func(_ context.Context, _ *emailauth.Request, email string) (*emailauth.Account, error) {
			a, ok := accounts[email]
			if !ok {
				return nil, nil
			}
			return &a, nil
		},
		Save: func(_ context.Context, _ *emailauth.Request, a emailauth.Account) (*emailauth.Account, error) {
			accounts[a.Email] = a
			return &a, nil
		},
	}).Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestRedisCompatLoginThrottle(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			engine := compatEngine(t, mode.setup(t))
			ctx := context.Background()

			if out := engine.Register(ctx, nil, emailauth.RegisterRequest{Email: "a@b.com", Password: "longpassword123"}); !out.Success {
				t.Fatalf("register failed: %v", out.Err)
			}
			for i := 0; i < 2; i++ {
				out := engine.Login(ctx, nil, emailauth.LoginRequest{Email: "a@b.com", Password: "wrong-password"})
				if !errors.Is(out.Err, emailauth.ErrInvalidCredentials) {
					t.Fatalf("attempt %d: expected invalid credentials, got %v", i, out.Err)
				}
			}
			out := engine.Login(ctx, nil, emailauth.LoginRequest{Email: "a@b.com", Password: "longpassword123"})
			if !errors.Is(out.Err, emailauth.ErrLoginRateLimited) {
				t.Fatalf("expected throttle after max attempts, got %v", out.Err)
			}
		})
	}
}

func TestRedisCompatRegisterAndReset(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			engine := compatEngine(t, mode.setup(t))
			ctx := context.Background()

			for _, email := range []string{"a@b.com", "c@d.com"} {
				out := engine.Register(ctx, nil, emailauth.RegisterRequest{Email: email, Password: "longpassword123"})
				if !out.Success {
					t.Fatalf("register %s failed: %v", email, out.Err)
				}
			}
			out := engine.Reset(ctx, nil, emailauth.ResetRequest{Email: "a@b.com"})
			if !out.Success {
				t.Fatalf("reset failed: %v", out.Err)
			}
		})
	}
}
