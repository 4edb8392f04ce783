package flows

import (
	"context"
	"log/slog"
)

// AccountRecord is the flow-local account model.
type AccountRecord struct {
	ID         string
	Email      string
	Salt       string
	Hash       string
	Password   string
	Attributes map[string]string
}

// HasCredentials reports whether both salt and hash are present.
func (a *AccountRecord) HasCredentials() bool {
	return a != nil && a.Salt != "" && a.Hash != ""
}

// RequestHooks are the application hooks bound to one request.
// Nil members are treated as not configured.
type RequestHooks struct {
	Lookup         func(ctx context.Context) (*AccountRecord, error)
	LookupByEmail  func(ctx context.Context, email string) (*AccountRecord, error)
	Save           func(ctx context.Context, account AccountRecord) (*AccountRecord, error)
	RedirectFilter func(ctx context.Context, account AccountRecord, proposed string) (string, error)
	Notify         func(ctx context.Context, event, email string, account *AccountRecord, err error)
}

func (h RequestHooks) notify(ctx context.Context, event, email string, account *AccountRecord, err error) {
	if h.Notify == nil || event == "" {
		return
	}
	h.Notify(ctx, event, email, account, err)
}

// FlowResult is the flow-local outcome of login, register and reset.
type FlowResult struct {
	Success     bool
	Account     *AccountRecord
	RedirectURI string
	Session     string
	Err         error
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
