package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ric-center/planner/internal/wizard"
)

func (s *Server) handleStartWizard(w http.ResponseWriter, r *http.Request) {
	var launch wizard.Launch
	if err := json.NewDecoder(r.Body).Decode(&launch); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	ws := s.wizards.Start(launch)
	respondJSON(w, http.StatusCreated, ws.Snapshot())
}

func (s *Server) handleGetWizard(w http.ResponseWriter, r *http.Request) {
	ws, err := s.wizards.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "wizard session not found")
		return
	}

	respondJSON(w, http.StatusOK, ws.Snapshot())
}

func (s *Server) handleActivateWizardTab(w http.ResponseWriter, r *http.Request) {
	ws, err := s.wizards.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "wizard session not found")
		return
	}

	var req struct {
		Tab wizard.Tab `json:"tab"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := ws.Activate(req.Tab); err != nil {
		switch {
		case errors.Is(err, wizard.ErrUnknownTab):
			respondError(w, http.StatusBadRequest, "unknown_tab", err.Error())
		case errors.Is(err, wizard.ErrEventNotSaved), errors.Is(err, wizard.ErrNoDirections):
			// Refused switches leave the active tab unchanged
			respondError(w, http.StatusConflict, "tab_locked", err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to switch tab")
		}
		return
	}

	respondJSON(w, http.StatusOK, ws.Snapshot())
}

func (s *Server) handleCloseWizard(w http.ResponseWriter, r *http.Request) {
	s.wizards.Close(chi.URLParam(r, "id"))
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "wizard closed",
	})
}
