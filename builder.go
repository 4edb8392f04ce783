package emailauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/emailauth/internal"
	"github.com/MrEthical07/emailauth/internal/flows"
	"github.com/MrEthical07/emailauth/internal/notify"
	"github.com/MrEthical07/emailauth/internal/rate"
	"github.com/MrEthical07/emailauth/internal/stores"
	"github.com/MrEthical07/emailauth/password"
	"github.com/MrEthical07/emailauth/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine. It is single use: Build may be called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	hooks  Hooks
	logger *slog.Logger

	built bool
}

// New returns a Builder seeded with DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis enables the redis-backed login throttle and registration
// reservation. Without a client both are disabled.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithHooks sets the application hooks.
func (b *Builder) WithHooks(h Hooks) *Builder {
	b.hooks = h
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and returns an immutable Engine.
//
// Hooks are not required at build time; operations that need a missing
// hook fail with ErrMisconfiguredHook.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.New(cfg.Hash.passwordConfig())
	if err != nil {
		return nil, err
	}

	// -------- SESSION TOKENS --------
	sessions, err := session.NewManager(session.Config{
		TTL:           cfg.Cookie.TTL,
		SigningMethod: session.SigningMethod(cfg.Cookie.SigningMethod),
		PrivateKey:    cloneBytes(cfg.Cookie.PrivateKey),
		PublicKey:     cloneBytes(cfg.Cookie.PublicKey),
		Issuer:        cfg.Cookie.Issuer,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:   cloneConfig(cfg),
		hooks:    b.hooks,
		logger:   logger,
		hasher:   hasher,
		sessions: sessions,
		metrics:  NewMetrics(cfg.Metrics),
		now:      time.Now,
	}
	engine.notifier = notify.NewDispatcher(notify.Config{
		Async:      cfg.Notify.Async,
		BufferSize: cfg.Notify.BufferSize,
		DropIfFull: cfg.Notify.DropIfFull,
	}, logger.With("component", "emailauth.notify"))

	// -------- REDIS-BACKED GUARDS --------
	if b.redis != nil {
		if cfg.Security.EnableLoginThrottle {
			engine.limiter = rate.New(b.redis, rate.Config{
				Prefix:                cfg.Redis.Prefix,
				EnableIPThrottle:      cfg.Security.EnableIPThrottle,
				MaxLoginAttempts:      cfg.Security.MaxLoginAttempts,
				LoginCooldownDuration: cfg.Security.LoginCooldownDuration,
			})
		}
		if cfg.Registration.ReservationTTL > 0 {
			engine.reservations = stores.NewRegistrationReservations(b.redis, cfg.Redis.Prefix)
		}
	}

	engine.flows = flows.New(engine.buildFlowDeps())

	b.built = true

	return engine, nil
}

func (e *Engine) buildFlowDeps() flows.Deps {
	cfg := e.config
	metricInc := func(id int) { e.metrics.Inc(MetricID(id)) }
	observe := func(id int, d time.Duration) { e.metrics.Observe(MetricID(id), d) }

	deps := flows.Deps{
		Authenticate: flows.AuthenticateDeps{
			RedirectOnTry: cfg.Policy.RedirectOnTry,
			RedirectTo:    cfg.Policy.RedirectTo,
			AppendNext:    cfg.Policy.AppendNext,
			Now:           e.now,
			MetricInc:     metricInc,
			Observe:       observe,
			Logger:        e.logger,
			Metrics: flows.AuthenticateMetrics{
				Success:  int(MetricAuthenticateSuccess),
				Redirect: int(MetricAuthenticateRedirect),
				Rejected: int(MetricAuthenticateRejected),
				Error:    int(MetricAuthenticateError),
				Latency:  int(MetricAuthenticateLatency),
			},
			Errors: flows.AuthenticateErrors{
				MisconfiguredHook: ErrMisconfiguredHook,
				Lookup:            ErrLookup,
				Unauthenticated:   ErrUnauthenticated,
			},
		},
		Login: flows.LoginDeps{
			SuccessEndpoint:     cfg.Routes.SuccessEndpoint,
			AllowExternalNext:   cfg.Policy.AllowExternalNext,
			ClientIPFromContext: clientIPFromContext,
			VerifyPassword:      e.verifyRecord,
			VerifyDummy:         e.hasher.VerifyDummy,
			IssueSession:        e.issueRecord,
			Now:                 e.now,
			MetricInc:           metricInc,
			Observe:             observe,
			Logger:              e.logger,
			Metrics: flows.LoginMetrics{
				Success:       int(MetricLoginSuccess),
				Failure:       int(MetricLoginFailure),
				RateLimited:   int(MetricLoginRateLimited),
				Error:         int(MetricLoginError),
				SessionIssued: int(MetricSessionIssued),
				Latency:       int(MetricLoginLatency),
			},
			Events: flows.LoginEvents{
				Success: string(EventLoginSuccess),
				Failure: string(EventLoginError),
			},
			Errors: flows.LoginErrors{
				EngineNotReady:     ErrEngineNotReady,
				InvalidCredentials: ErrInvalidCredentials,
				LoginRateLimited:   ErrLoginRateLimited,
				RateExhausted:      rate.ErrRateLimited,
				MisconfiguredHook:  ErrMisconfiguredHook,
				Lookup:             ErrLookup,
				Verification:       ErrVerification,
				RedirectFilter:     ErrRedirectFilter,
				SessionIssue:       ErrSessionIssue,
			},
		},
		Register: flows.RegisterDeps{
			SuccessEndpoint:   cfg.Routes.SuccessEndpoint,
			AllowExternalNext: cfg.Policy.AllowExternalNext,
			MinPasswordLength: cfg.Registration.MinPasswordLength,
			MaxPasswordBytes:  e.hasher.Config().MaxPasswordBytes,
			NewAccountID:      internal.NewAccountID,
			HashPassword:      e.hashRecord,
			IssueSession:      e.issueRecord,
			Now:               e.now,
			MetricInc:         metricInc,
			Logger:            e.logger,
			Metrics: flows.RegisterMetrics{
				Success:       int(MetricRegisterSuccess),
				Failure:       int(MetricRegisterFailure),
				Duplicate:     int(MetricRegisterDuplicate),
				SessionIssued: int(MetricSessionIssued),
			},
			Events: flows.RegisterEvents{
				Success: string(EventRegisterSuccess),
				Failure: string(EventRegisterError),
			},
			Errors: flows.RegisterErrors{
				EngineNotReady:         ErrEngineNotReady,
				RegistrationInvalid:    ErrRegistrationInvalid,
				PasswordPolicy:         ErrPasswordPolicy,
				RegistrationInProgress: ErrRegistrationInProgress,
				AccountExists:          ErrAccountExists,
				HashGeneration:         ErrHashGeneration,
				MisconfiguredHook:      ErrMisconfiguredHook,
				Save:                   ErrSave,
				SessionIssue:           ErrSessionIssue,
			},
		},
		Reset: flows.ResetDeps{
			LoginURI:          cfg.Routes.Prefix + cfg.Routes.LoginPath,
			AllowExternalNext: cfg.Policy.AllowExternalNext,
			NewPassword: func() (string, error) {
				return internal.NewResetPassword(cfg.Reset.PasswordBytes)
			},
			HashPassword: e.hashRecord,
			MetricInc:    metricInc,
			Logger:       e.logger,
			Metrics: flows.ResetMetrics{
				Success: int(MetricResetSuccess),
				Failure: int(MetricResetFailure),
			},
			Errors: flows.ResetErrors{
				EngineNotReady:      ErrEngineNotReady,
				RegistrationInvalid: ErrRegistrationInvalid,
				HashGeneration:      ErrHashGeneration,
				MisconfiguredHook:   ErrMisconfiguredHook,
				Lookup:              ErrLookup,
				Save:                ErrSave,
			},
		},
	}

	if e.limiter != nil {
		deps.Login.CheckLoginRate = e.limiter.CheckLogin
		deps.Login.IncrementLoginRate = e.limiter.IncrementLogin
		deps.Login.ResetLoginRate = e.limiter.ResetLogin
	}
	if e.reservations != nil {
		deps.Register.Reserve = e.reserveEmail
	}

	return deps
}

func (e *Engine) reserveEmail(ctx context.Context, email string) (func(), error) {
	token, err := e.reservations.Reserve(ctx, email, e.config.Registration.ReservationTTL)
	if errors.Is(err, stores.ErrReservationHeld) {
		return nil, ErrRegistrationInProgress
	}
	if err != nil {
		return nil, err
	}

	return func() {
		if err := e.reservations.Release(context.WithoutCancel(ctx), email, token); err != nil {
			e.logger.WarnContext(ctx, "registration reservation release failed", "op", "register", "email", email, "error", err)
		}
	}, nil
}
