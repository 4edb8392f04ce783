package httpauth

import (
	"net/http"

	"github.com/MrEthical07/emailauth"
)

// readSession decodes the session cookie. A present but invalid cookie is
// reported with invalid=true so the caller can clear it.
func readSession(engine *emailauth.Engine, r *http.Request) (creds *emailauth.SessionCredentials, invalid bool) {
	cfg := engine.CookieConfig()
	c, err := r.Cookie(cfg.Name)
	if err != nil || c.Value == "" {
		return nil, false
	}

	creds, err = engine.ParseSession(c.Value)
	if err != nil {
		return nil, true
	}
	return creds, false
}

func setSessionCookie(w http.ResponseWriter, engine *emailauth.Engine, token string) {
	cfg := engine.CookieConfig()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    token,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

func clearSessionCookie(w http.ResponseWriter, engine *emailauth.Engine) {
	cfg := engine.CookieConfig()
	http.SetCookie(w, &http.Cookie{
		Name:     cfg.Name,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: cfg.HTTPOnly,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}
