package emailauth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/emailauth/internal/flows"
	"github.com/MrEthical07/emailauth/internal/notify"
	"github.com/MrEthical07/emailauth/internal/rate"
	"github.com/MrEthical07/emailauth/internal/stores"
	"github.com/MrEthical07/emailauth/password"
	"github.com/MrEthical07/emailauth/session"
)

// Engine runs the authentication decision and the credential flows.
//
// Engine is immutable after Build and safe for concurrent use.
type Engine struct {
	config       Config
	hooks        Hooks
	logger       *slog.Logger
	hasher       *password.Hasher
	sessions     *session.Manager
	metrics      *Metrics
	notifier     *notify.Dispatcher
	limiter      *rate.Limiter
	reservations *stores.RegistrationReservations
	flows        flows.Service
	now          func() time.Time
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// CookieConfig returns the session cookie attributes without key material.
func (e *Engine) CookieConfig() CookieConfig {
	if e == nil {
		return CookieConfig{}
	}
	out := e.config.Cookie
	out.PrivateKey = nil
	out.PublicKey = nil
	return out
}

// Close drains pending notifications. The engine must not be used afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.notifier != nil {
		e.notifier.Close()
	}
}

// NotifyDropped returns the number of notifications dropped because the
// dispatcher buffer was full.
func (e *Engine) NotifyDropped() uint64 {
	if e == nil || e.notifier == nil {
		return 0
	}
	return e.notifier.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) ready() bool {
	return e != nil && e.flows.Initialized()
}

func ensureRequest(req *Request) *Request {
	if req == nil {
		return &Request{}
	}
	return req
}

// routePath returns the submitting path used for failure redirects.
func (e *Engine) routePath(req *Request, fallback string) string {
	if req.Path != "" {
		return req.Path
	}
	return e.config.Routes.Prefix + fallback
}

// Authenticate decides whether req is authenticated, must be redirected to
// the login page, or is rejected.
func (e *Engine) Authenticate(ctx context.Context, req *Request, opts AuthOptions) AuthDecision {
	if !e.ready() {
		return AuthDecision{Kind: DecisionRejected, Err: ErrEngineNotReady}
	}
	req = ensureRequest(req)

	res := e.flows.Authenticate(ctx, flows.AuthenticateInput{
		Path:             req.Path,
		Try:              opts.Mode == AuthTry,
		RedirectOverride: opts.RedirectTo,
		Hooks:            e.bindHooks(req),
	})

	switch res.Kind {
	case flows.AuthenticateOK:
		return AuthDecision{Kind: DecisionAuthenticated, Credentials: fromRecord(res.Account)}
	case flows.AuthenticateRedirect:
		return AuthDecision{Kind: DecisionRedirect, RedirectURI: res.RedirectURI}
	default:
		return AuthDecision{Kind: DecisionRejected, Err: res.Err}
	}
}

// Login verifies the submitted email and password.
//
// On success the outcome carries the account, the post-login destination
// and a signed session token. Every failure carries a redirect back to the
// login page with error=1 and the preserved next target.
func (e *Engine) Login(ctx context.Context, req *Request, in LoginRequest) FlowOutcome {
	if !e.ready() {
		return FlowOutcome{Err: ErrEngineNotReady}
	}
	req = ensureRequest(req)

	return toOutcome(e.flows.Login(ctx, flows.LoginInput{
		Email:    in.Email,
		Password: in.Password,
		Next:     in.Next,
		Path:     e.routePath(req, e.config.Routes.LoginPath),
		Hooks:    e.bindHooks(req),
	}))
}

// Register hashes the submitted password into a new account, hands it to
// the Save hook and issues a session for it.
func (e *Engine) Register(ctx context.Context, req *Request, in RegisterRequest) FlowOutcome {
	if !e.ready() {
		return FlowOutcome{Err: ErrEngineNotReady}
	}
	req = ensureRequest(req)

	return toOutcome(e.flows.Register(ctx, flows.RegisterInput{
		Email:    in.Email,
		Password: in.Password,
		Next:     in.Next,
		Path:     e.routePath(req, e.config.Routes.RegisterPath),
		Hooks:    e.bindHooks(req),
	}))
}

// Reset assigns a random password to the account and saves it with the
// plaintext attached in Account.Password for out-of-band delivery.
//
// When the LookupByEmail hook is set an unknown email yields the same
// successful outcome without calling Save.
func (e *Engine) Reset(ctx context.Context, req *Request, in ResetRequest) FlowOutcome {
	if !e.ready() {
		return FlowOutcome{Err: ErrEngineNotReady}
	}
	req = ensureRequest(req)

	return toOutcome(e.flows.Reset(ctx, flows.ResetInput{
		Email: in.Email,
		Next:  in.Next,
		Path:  e.routePath(req, e.config.Routes.ResetPath),
		Hooks: e.bindHooks(req),
	}))
}

func toOutcome(res flows.FlowResult) FlowOutcome {
	return FlowOutcome{
		Success:     res.Success,
		Account:     fromRecord(res.Account),
		RedirectURI: res.RedirectURI,
		Session:     res.Session,
		Err:         res.Err,
	}
}

// IssueSession signs a session token for account. Salt, Hash and Password
// never enter the token.
func (e *Engine) IssueSession(account Account) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	token, err := e.issueRecord(toRecord(account))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSessionIssue, err)
	}
	e.metrics.Inc(MetricSessionIssued)
	return token, nil
}

// ParseSession verifies token and returns the credentials it carries.
// Tampered, expired and malformed tokens are ErrSessionInvalid.
func (e *Engine) ParseSession(token string) (*SessionCredentials, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	claims, err := e.sessions.Parse(token)
	if err != nil {
		e.metrics.Inc(MetricSessionRejected)
		return nil, fmt.Errorf("%w: %w", ErrSessionInvalid, err)
	}

	id := claims.Identity()
	return &SessionCredentials{
		AccountID:  id.AccountID,
		Email:      id.Email,
		Attributes: cloneAttributes(id.Attributes),
	}, nil
}

// SessionTTL returns the lifetime of issued session tokens.
func (e *Engine) SessionTTL() time.Duration {
	if !e.ready() {
		return 0
	}
	return e.sessions.TTL()
}

// HashAccount returns a copy of account with credentials derived from
// plaintext using the engine hash configuration.
func (e *Engine) HashAccount(account Account, plaintext string) (Account, error) {
	if !e.ready() {
		return Account{}, ErrEngineNotReady
	}
	return hashWith(e.hasher, account, plaintext)
}

// VerifyAccount reports whether plaintext matches the stored credentials of account.
func (e *Engine) VerifyAccount(account *Account, plaintext string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}
	return verifyWith(e.hasher, account, plaintext)
}

func (e *Engine) hashRecord(record flows.AccountRecord, plaintext string) (flows.AccountRecord, error) {
	out, err := hashWith(e.hasher, *fromRecord(&record), plaintext)
	if err != nil {
		return flows.AccountRecord{}, err
	}
	return toRecord(out), nil
}

func (e *Engine) verifyRecord(plaintext string, record flows.AccountRecord) (bool, error) {
	return verifyWith(e.hasher, fromRecord(&record), plaintext)
}

// issueRecord signs the session of record. Accounts without an ID are
// keyed by email.
func (e *Engine) issueRecord(record flows.AccountRecord) (string, error) {
	subject := record.ID
	if subject == "" {
		subject = record.Email
	}
	return e.sessions.Issue(session.Identity{
		AccountID:  subject,
		Email:      record.Email,
		Attributes: cloneAttributes(record.Attributes),
	})
}
