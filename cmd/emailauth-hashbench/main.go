// Command emailauth-hashbench measures password KDF cost and end-to-end
// login latency for a given hash configuration.
//
// It runs three phases: hash, verify and login. The login phase drives a
// real engine backed by redis (or an embedded miniredis) with the login
// throttle enabled.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/emailauth"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type options struct {
	algorithm   string
	iterations  uint32
	memory      uint32
	accounts    int
	concurrency int
	ops         int
	redisAddr   string
}

func main() {
	defaults := emailauth.DefaultConfig().Hash
	var opts options

	fs := pflag.NewFlagSet("emailauth-hashbench", pflag.ExitOnError)
	fs.StringVar(&opts.algorithm, "algorithm", defaults.Algorithm, "pbkdf2-sha1, pbkdf2-sha256, pbkdf2-sha512 or argon2id")
	fs.Uint32Var(&opts.iterations, "iterations", defaults.Iterations, "KDF iterations or argon2id time cost")
	fs.Uint32Var(&opts.memory, "argon2-memory", defaults.Argon2Memory, "argon2id memory in KB")
	fs.IntVar(&opts.accounts, "accounts", 64, "number of accounts to register before the login phase")
	fs.IntVar(&opts.concurrency, "concurrency", 8, "number of concurrent workers")
	fs.IntVar(&opts.ops, "ops", 256, "operations per phase")
	fs.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	_ = fs.Parse(os.Args[1:])

	if opts.accounts <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
		fmt.Fprintln(os.Stderr, "accounts, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	if err := run(context.Background(), opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg := emailauth.DefaultConfig()
	cfg.Hash.Algorithm = opts.algorithm
	cfg.Hash.Iterations = opts.iterations
	cfg.Hash.Argon2Memory = opts.memory
	cfg.Cookie.PrivateKey = []byte("emailauth-hashbench-signing-key!")
	cfg.Notify.Async = false
	cfg.Security.MaxLoginAttempts = opts.ops + 1

	client, cleanup, err := openRedis(opts.redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()

	store := newBenchStore()
	engine, err := emailauth.New().
		WithConfig(cfg).
		WithRedis(client).
		WithHooks(store.hooks()).
		Build()
	if err != nil {
		return fmt.Errorf("engine build: %w", err)
	}
	defer engine.Close()

	fmt.Printf("registering %d accounts (%s, %d iterations)...\n", opts.accounts, opts.algorithm, opts.iterations)
	startSeed := time.Now()
	for i := 0; i < opts.accounts; i++ {
		out := engine.Register(ctx, nil, emailauth.RegisterRequest{
			Email:    accountEmail(i),
			Password: accountPassword(i),
		})
		if !out.Success {
			return fmt.Errorf("register %d: %w", i, out.Err)
		}
	}
	fmt.Printf("registered in %s\n", time.Since(startSeed).Round(time.Millisecond))

	sample := *store.find(accountEmail(0))

	hashStats := runPhase(opts.ops, opts.concurrency, func(i int) error {
		_, err := emailauth.HashAccount(cfg.Hash, emailauth.Account{Email: accountEmail(i)}, accountPassword(i))
		return err
	})
	verifyStats := runPhase(opts.ops, opts.concurrency, func(int) error {
		ok, err := emailauth.VerifyAccount(cfg.Hash, &sample, accountPassword(0))
		if err == nil && !ok {
			err = emailauth.ErrInvalidCredentials
		}
		return err
	})
	loginStats := runPhase(opts.ops, opts.concurrency, func(i int) error {
		idx := i % opts.accounts
		out := engine.Login(ctx, nil, emailauth.LoginRequest{
			Email:    accountEmail(idx),
			Password: accountPassword(idx),
		})
		return out.Err
	})

	fmt.Println("---- results ----")
	printStats("hash", hashStats)
	printStats("verify", verifyStats)
	printStats("login", loginStats)
	return nil
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

func accountEmail(i int) string    { return fmt.Sprintf("user-%d@bench.local", i) }
func accountPassword(i int) string { return fmt.Sprintf("bench-password-%d", i) }

// runPhase runs op ops times over concurrency workers and collects one
// latency sample per call.
func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total, failures: failures}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
