package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"billed/internal/auth"
	"billed/internal/core"
	"billed/internal/log"
	"billed/internal/routes"
	"billed/internal/views"
)

const readyTimeout = 2 * time.Second

// handleHealth performs a basic liveness check.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	})
}

// handleReady checks the bill source and reports the in-process state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.deps.Ready == nil {
		checks["bills"] = "ok"
	} else if err := s.deps.Ready(ctx); err != nil {
		s.logger.WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
		checks["bills"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["bills"] = "ok"
	}

	checks["navigation"] = map[string]interface{}{
		"tracked_users": s.deps.Nav.Size(),
		"status":        "ok",
	}
	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.deps.Limiter.ActiveClients(),
		"status":         "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// homeOf is the landing page of a user type.
func homeOf(t core.UserType) string {
	if t == core.Admin {
		return routes.Dashboard
	}
	return routes.Bills
}

// handleLoginPage shows the login forms, or sends a signed-in user home.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(auth.CookieName); err == nil {
		if claims, err := s.deps.JWT.Validate(c.Value); err == nil {
			http.Redirect(w, r, homeOf(claims.Type), http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, http.StatusOK, func(out io.Writer) error {
		return s.deps.Renderer.Login(out, views.LoginData{})
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Format de requête invalide").Write(w)
		return
	}

	email := parser.Get("email")
	password := parser.Secret("password")
	userType := core.UserType(parser.Get("type"))
	if userType == "" {
		userType = core.Employee
	}
	if email == "" || password == "" {
		const msg = "Email et mot de passe requis"
		if parser.IsJSON() || isHTMX(r) {
			UnprocessableEntityError(msg).Write(w)
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, func(out io.Writer) error {
			return s.deps.Renderer.Login(out, views.LoginData{Email: email, Error: msg})
		})
		return
	}

	user, err := s.deps.Auth.Authenticate(r.Context(), email, password, userType)
	if err != nil {
		status := http.StatusInternalServerError
		msg := "Connexion impossible, réessayez plus tard"
		if errors.Is(err, auth.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
			msg = "Email ou mot de passe incorrect"
		} else {
			s.logger.ErrorContext(r.Context(), "Authentication failed", log.FieldError, err)
		}
		s.render(w, r, status, func(out io.Writer) error {
			return s.deps.Renderer.Login(out, views.LoginData{Email: email, Error: msg})
		})
		return
	}

	token, err := s.deps.JWT.Generate(user)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Token generation failed", log.FieldError, err)
		InternalServerError("Connexion impossible").Write(w)
		return
	}
	auth.SetSessionCookie(w, r, token, s.deps.JWT.TTL())

	s.logger.InfoContext(r.Context(), "User signed in", log.FieldOwner, user.Email, "type", string(user.Type))
	navigate(w, r, homeOf(user.Type))
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	navigate(w, r, routes.Login)
}
