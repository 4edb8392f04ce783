package flows

import "context"

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Authenticate AuthenticateDeps
	Login        LoginDeps
	Register     RegisterDeps
	Reset        ResetDeps
}

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Login.VerifyPassword != nil
}

func (s Service) Authenticate(ctx context.Context, in AuthenticateInput) AuthenticateResult {
	return RunAuthenticate(ctx, in, s.deps.Authenticate)
}

func (s Service) Login(ctx context.Context, in LoginInput) FlowResult {
	return RunLogin(ctx, in, s.deps.Login)
}

func (s Service) Register(ctx context.Context, in RegisterInput) FlowResult {
	return RunRegister(ctx, in, s.deps.Register)
}

func (s Service) Reset(ctx context.Context, in ResetInput) FlowResult {
	return RunReset(ctx, in, s.deps.Reset)
}
