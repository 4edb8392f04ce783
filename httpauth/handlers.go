package httpauth

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/MrEthical07/emailauth"
	"github.com/MrEthical07/emailauth/internal/flows"
)

const maxBodyBytes = 1 << 20

// Handlers serves the credential flow routes of one engine.
type Handlers struct {
	engine            *emailauth.Engine
	allowExternalNext bool
	successEndpoint   string
}

// NewHandlers returns the route handlers for engine.
func NewHandlers(engine *emailauth.Engine) *Handlers {
	cfg := engine.Config()
	return &Handlers{
		engine:            engine,
		allowExternalNext: cfg.Policy.AllowExternalNext,
		successEndpoint:   cfg.Routes.SuccessEndpoint,
	}
}

// responseMode selects how a handler answers a failed flow outside JSON mode.
type responseMode struct {
	withSession bool
	// internalAsStatus answers internal failures with a status code instead
	// of the failure redirect.
	internalAsStatus bool
}

var (
	loginResponse    = responseMode{withSession: true, internalAsStatus: true}
	registerResponse = responseMode{withSession: true}
	resetResponse    = responseMode{}
)

type credentialForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Next     string `json:"next"`
}

type statusBody struct {
	Success bool `json:"success"`
}

// Login verifies the submitted credentials and sets the session cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parse(w, r)
	if !ok {
		return
	}

	out := h.engine.Login(withRequestContext(r), requestFromHTTP(h.engine, w, r), emailauth.LoginRequest{
		Email:    form.Email,
		Password: form.Password,
		Next:     form.Next,
	})
	h.respond(w, r, out, loginResponse)
}

// Register creates an account and sets the session cookie.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parse(w, r)
	if !ok {
		return
	}

	out := h.engine.Register(withRequestContext(r), requestFromHTTP(h.engine, w, r), emailauth.RegisterRequest{
		Email:    form.Email,
		Password: form.Password,
		Next:     form.Next,
	})
	h.respond(w, r, out, registerResponse)
}

// Reset assigns a new random password. The session cookie is left untouched.
func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	form, ok := h.parse(w, r)
	if !ok {
		return
	}

	out := h.engine.Reset(withRequestContext(r), requestFromHTTP(h.engine, w, r), emailauth.ResetRequest{
		Email: form.Email,
		Next:  form.Next,
	})
	h.respond(w, r, out, resetResponse)
}

// Logout clears the session cookie and redirects to the local next target
// or the success endpoint.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w, h.engine)

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, statusBody{Success: true})
		return
	}

	target := flows.SafeNext(r.URL.Query().Get("next"), h.allowExternalNext)
	if target == "" {
		target = h.successEndpoint
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handlers) parse(w http.ResponseWriter, r *http.Request) (credentialForm, bool) {
	var form credentialForm
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return form, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return form, false
		}
		form.Email = r.PostForm.Get("email")
		form.Password = r.PostForm.Get("password")
		form.Next = r.PostForm.Get("next")
	}

	if form.Next == "" {
		form.Next = r.URL.Query().Get("next")
	}
	return form, true
}

// respond writes the flow outcome. Register and reset failures always
// redirect to the failure URI so the form can show the error; login maps
// internal failures to a 500.
func (h *Handlers) respond(w http.ResponseWriter, r *http.Request, out emailauth.FlowOutcome, mode responseMode) {
	if out.Success && mode.withSession && out.Session != "" {
		setSessionCookie(w, h.engine, out.Session)
	}

	if wantsJSON(r) {
		writeJSON(w, statusFor(out), statusBody{Success: out.Success})
		return
	}

	if !out.Success && (out.RedirectURI == "" || (mode.internalAsStatus && emailauth.IsInternal(out.Err))) {
		http.Error(w, http.StatusText(statusFor(out)), statusFor(out))
		return
	}
	http.Redirect(w, r, out.RedirectURI, http.StatusFound)
}

// statusFor maps a flow outcome to the JSON response status.
func statusFor(out emailauth.FlowOutcome) int {
	if out.Success {
		return http.StatusOK
	}
	switch {
	case emailauth.IsInternal(out.Err):
		return http.StatusInternalServerError
	case errors.Is(out.Err, emailauth.ErrLoginRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(out.Err, emailauth.ErrInvalidCredentials),
		errors.Is(out.Err, emailauth.ErrAccountExists),
		errors.Is(out.Err, emailauth.ErrRegistrationInProgress):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("type") == "json"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Mount registers the POST routes of the engine configuration on mux.
func Mount(mux *http.ServeMux, engine *emailauth.Engine) *Handlers {
	h := NewHandlers(engine)
	routes := engine.Config().Routes

	mux.HandleFunc("POST "+routes.Prefix+routes.LoginPostPath, h.Login)
	mux.HandleFunc("POST "+routes.Prefix+routes.RegisterPostPath, h.Register)
	mux.HandleFunc("POST "+routes.Prefix+routes.ResetPostPath, h.Reset)
	if routes.LogoutPath != "" {
		mux.HandleFunc("POST "+routes.Prefix+routes.LogoutPath, h.Logout)
	}

	return h
}
