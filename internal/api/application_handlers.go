package api

import (
	"encoding/json"
	"net/http"

	"github.com/ric-center/planner/internal/models"
)

func (s *Server) handleListApplications(w http.ResponseWriter, r *http.Request) {
	applications, err := s.planner.Applications(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		respondDomainError(w, err, "list applications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"applications": applications,
		"total":        len(applications),
		"statuses":     models.ApplicationStatuses,
	})
}

func (s *Server) handleSubmitApplication(w http.ResponseWriter, r *http.Request) {
	var application models.Application
	if err := json.NewDecoder(r.Body).Decode(&application); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	application.ID = models.CanonicalID(application.ID)

	saved, err := s.planner.SubmitApplication(r.Context(), UserFromContext(r.Context()), application)
	if err != nil {
		respondDomainError(w, err, "submit application")
		return
	}

	respondJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "application id is required")
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := s.planner.UpdateApplicationStatus(r.Context(), UserFromContext(r.Context()), id, req.Status); err != nil {
		respondDomainError(w, err, "update application status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":     id,
		"status": req.Status,
	})
}

func (s *Server) handleWithdrawApplication(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "application id is required")
		return
	}

	if err := s.planner.WithdrawApplication(r.Context(), UserFromContext(r.Context()), id); err != nil {
		respondDomainError(w, err, "withdraw application")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "application withdrawn",
	})
}
