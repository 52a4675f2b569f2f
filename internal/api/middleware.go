package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ric-center/planner/internal/models"
	"github.com/ric-center/planner/internal/session"
)

// sessionCookie names the cookie carrying the opaque session token.
const sessionCookie = "planner_session"

// authenticate resolves the session cookie to a user and stores it in the
// request context. Requests without a valid session are rejected.
func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}

		sess, err := s.sessions.Get(r.Context(), cookie.Value)
		if errors.Is(err, session.ErrNotFound) {
			s.clearSessionCookie(w)
			respondError(w, http.StatusUnauthorized, "unauthorized", "session expired, sign in again")
			return
		}
		if err != nil {
			slog.Error("failed to look up session", "error", err)
			respondError(w, http.StatusInternalServerError, "internal_error", "session lookup failed")
			return
		}

		ctx := ContextWithUser(r.Context(), &sess.User)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireOrganizer rejects requests from students.
func (s *Server) requireOrganizer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := UserFromContext(r.Context())
		if user == nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "sign in required")
			return
		}
		if user.Role != models.RoleOrganizer {
			slog.Warn("organizer route denied", "user", user.ID, "role", user.Role, "path", r.URL.Path)
			respondError(w, http.StatusForbidden, "forbidden", "organizer role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// openSession issues a session for the user and sets the cookie.
func (s *Server) openSession(w http.ResponseWriter, r *http.Request, user models.User) error {
	token, err := session.NewToken()
	if err != nil {
		return err
	}

	sess := &session.Session{
		Token:     token,
		User:      user,
		ExpiresAt: time.Now().Add(s.sessionTTL),
	}
	if err := s.sessions.Create(r.Context(), sess); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
