package auth

import (
	"log/slog"
	"net/http"
	"time"

	"billed/internal/core"
	"billed/internal/routes"
	"billed/internal/session"
)

// CookieName is the cookie holding the session JWT.
const CookieName = "billed_session"

// SetSessionCookie writes the token cookie.
func SetSessionCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the token cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Middleware validates the session cookie and attaches a per-request
// session.Store holding the user and token. Requests without a valid
// session are sent to the login page. When want is non-empty the user
// must be of that type.
func (m *JWTManager) Middleware(want core.UserType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string
			if c, err := r.Cookie(CookieName); err == nil {
				token = c.Value
			}

			claims, err := m.Validate(token)
			if err != nil || (want != "" && claims.Type != want) {
				slog.DebugContext(r.Context(), "Session rejected", "path", r.URL.Path, "error", err)
				redirectToLogin(w, r)
				return
			}

			s := session.NewMemoryStore()
			if err := session.Save(s, claims.User()); err != nil {
				redirectToLogin(w, r)
				return
			}
			s.SetItem(session.KeyJWT, token)

			next.ServeHTTP(w, r.WithContext(session.WithStore(r.Context(), s)))
		})
	}
}

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", routes.Login)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	http.Redirect(w, r, routes.Login, http.StatusSeeOther)
}
