package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ric-center/planner/internal/auth"
	"github.com/ric-center/planner/internal/models"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "email and password are required")
		return
	}

	// The session is bound to the user this call returns, never to the
	// auth manager's shared state: a concurrent login may overwrite it
	// before we get here.
	user := s.auth.Login(r.Context(), creds.Email, creds.Password)
	if user == nil {
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
		return
	}

	if err := s.openSession(w, r, *user); err != nil {
		slog.Error("failed to open session", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to open session")
		return
	}

	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg auth.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	reg.Email = strings.TrimSpace(reg.Email)
	if reg.Email == "" || reg.Password == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "email and password are required")
		return
	}

	user := s.auth.Register(r.Context(), reg)
	if user == nil {
		respondError(w, http.StatusBadRequest, "registration_failed", "could not create the account")
		return
	}

	if err := s.openSession(w, r, *user); err != nil {
		slog.Error("failed to open session", "error", err, "user", user.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to open session")
		return
	}

	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if cookie, err := r.Cookie(sessionCookie); err == nil && cookie.Value != "" {
		if err := s.sessions.Delete(r.Context(), cookie.Value); err != nil {
			slog.Warn("failed to delete session", "error", err)
		}
	}

	// The upstream session belongs to the process identity; drop it only
	// when it is this user's.
	if cur := s.auth.CurrentUser(); cur != nil && user != nil && cur.ID == user.ID {
		s.auth.Logout(r.Context())
	}

	s.clearSessionCookie(w)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "signed out",
	})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, UserFromContext(r.Context()))
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	profile, err := s.planner.Profile(r.Context(), user.ID)
	if err != nil {
		respondDomainError(w, err, "get profile")
		return
	}
	if profile == nil {
		profile = &models.Profile{UserID: user.ID}
	}

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var profile models.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	profile.UserID = user.ID

	// The auth manager refreshes the process identity after the write; it
	// only applies when this session is that identity.
	var err error
	if cur := s.auth.CurrentUser(); cur != nil && cur.ID == user.ID {
		err = s.auth.UpdateProfile(r.Context(), profile)
	} else {
		err = s.planner.SaveProfile(r.Context(), user.ID, profile)
	}
	if err != nil {
		respondDomainError(w, err, "update profile")
		return
	}

	respondJSON(w, http.StatusOK, profile)
}
