package emailauth

import (
	"context"

	"github.com/MrEthical07/emailauth/internal/flows"
	"github.com/MrEthical07/emailauth/internal/notify"
)

func toRecord(a Account) flows.AccountRecord {
	return flows.AccountRecord{
		ID:         a.ID,
		Email:      a.Email,
		Salt:       a.Salt,
		Hash:       a.Hash,
		Password:   a.Password,
		Attributes: cloneAttributes(a.Attributes),
	}
}

func toRecordPtr(a *Account) *flows.AccountRecord {
	if a == nil {
		return nil
	}
	r := toRecord(*a)
	return &r
}

func fromRecord(r *flows.AccountRecord) *Account {
	if r == nil {
		return nil
	}
	return &Account{
		ID:         r.ID,
		Email:      r.Email,
		Salt:       r.Salt,
		Hash:       r.Hash,
		Password:   r.Password,
		Attributes: cloneAttributes(r.Attributes),
	}
}

// bindHooks adapts the engine hooks to one request.
func (e *Engine) bindHooks(req *Request) flows.RequestHooks {
	h := e.hooks
	var out flows.RequestHooks

	if h.Lookup != nil {
		out.Lookup = func(ctx context.Context) (*flows.AccountRecord, error) {
			a, err := h.Lookup(ctx, req)
			return toRecordPtr(a), err
		}
	}
	if h.LookupByEmail != nil {
		out.LookupByEmail = func(ctx context.Context, email string) (*flows.AccountRecord, error) {
			a, err := h.LookupByEmail(ctx, req, email)
			return toRecordPtr(a), err
		}
	}
	if h.Save != nil {
		out.Save = func(ctx context.Context, account flows.AccountRecord) (*flows.AccountRecord, error) {
			a, err := h.Save(ctx, req, *fromRecord(&account))
			return toRecordPtr(a), err
		}
	}
	if h.LoginRedirectFilter != nil {
		out.RedirectFilter = func(ctx context.Context, account flows.AccountRecord, proposed string) (string, error) {
			return h.LoginRedirectFilter(ctx, req, *fromRecord(&account), proposed)
		}
	}
	out.Notify = func(ctx context.Context, event, email string, account *flows.AccountRecord, err error) {
		e.emitEvent(ctx, req, EventKind(event), email, fromRecord(account), err)
	}

	return out
}

func (e *Engine) eventHook(kind EventKind) func(context.Context, Event) error {
	switch kind {
	case EventLoginSuccess:
		return e.hooks.OnLoginSuccess
	case EventLoginError:
		return e.hooks.OnLoginError
	case EventRegisterSuccess:
		return e.hooks.OnRegisterSuccess
	case EventRegisterError:
		return e.hooks.OnRegisterError
	}
	return nil
}

func (e *Engine) emitEvent(ctx context.Context, req *Request, kind EventKind, email string, account *Account, err error) {
	hook := e.eventHook(kind)
	if hook == nil || e.notifier == nil {
		return
	}

	event := Event{
		Kind:    kind,
		Email:   email,
		Account: account,
		Request: req,
		Err:     err,
		At:      e.now(),
	}

	e.notifier.Dispatch(ctx, notify.Job{
		Name: string(kind),
		Run: func(ctx context.Context) error {
			return hook(ctx, event)
		},
	})
}
