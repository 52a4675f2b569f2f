package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ric-center/planner/internal/models"
	"github.com/ric-center/planner/internal/wizard"
)

// Event handlers

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.planner.Events(r.Context())
	if err != nil {
		respondDomainError(w, err, "list events")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"total":  len(events),
	})
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "eventID")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "event id is required")
		return
	}

	event, err := s.planner.EventByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "get event")
		return
	}
	if event == nil {
		respondError(w, http.StatusNotFound, "not_found", "event not found")
		return
	}

	respondJSON(w, http.StatusOK, event)
}

func (s *Server) handleSaveEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	// Clients carrying over draft records may send an oversized scratch id;
	// collapse it so the save is treated as a create.
	event.ID = models.CanonicalID(event.ID)
	if id, ok := pathID(r, "eventID"); ok {
		event.ID = id
	}

	saved, err := s.planner.SaveEvent(r.Context(), UserFromContext(r.Context()), event)
	if err != nil {
		respondDomainError(w, err, "save event")
		return
	}

	s.markWizard(r, func(ws *wizard.Session) { ws.MarkEventSaved(saved.ID) })

	status := http.StatusOK
	if event.ID == 0 {
		status = http.StatusCreated
	}
	respondJSON(w, status, saved)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "eventID")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "event id is required")
		return
	}

	if err := s.planner.RemoveEvent(r.Context(), UserFromContext(r.Context()), id); err != nil {
		respondDomainError(w, err, "delete event")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "event deleted",
	})
}

// Direction handlers

func (s *Server) handleListDirections(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "event id is required")
		return
	}

	directions, err := s.planner.DirectionsByEvent(r.Context(), eventID)
	if err != nil {
		respondDomainError(w, err, "list directions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"directions": directions,
		"total":      len(directions),
	})
}

func (s *Server) handleGetDirection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "directionID")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "direction id is required")
		return
	}

	direction, err := s.planner.DirectionByID(r.Context(), id)
	if err != nil {
		respondDomainError(w, err, "get direction")
		return
	}
	if direction == nil {
		respondError(w, http.StatusNotFound, "not_found", "direction not found")
		return
	}

	respondJSON(w, http.StatusOK, direction)
}

func (s *Server) handleSaveDirections(w http.ResponseWriter, r *http.Request) {
	eventID, ok := pathID(r, "eventID")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "event id is required")
		return
	}

	var directions []models.Direction
	if err := json.NewDecoder(r.Body).Decode(&directions); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	for i := range directions {
		directions[i].ID = models.CanonicalID(directions[i].ID)
	}

	saved, err := s.planner.SaveDirections(r.Context(), UserFromContext(r.Context()), eventID, directions)
	if err != nil {
		respondDomainError(w, err, "save directions")
		return
	}

	s.markWizard(r, func(ws *wizard.Session) {
		var firstID int64
		if len(saved) > 0 {
			firstID = saved[0].ID
		}
		ws.MarkDirectionsSaved(len(saved), firstID)
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"directions": saved,
		"total":      len(saved),
	})
}

// Project handlers

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	directionID, ok := pathID(r, "directionID")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "direction id is required")
		return
	}

	projects, err := s.planner.ProjectsByDirection(r.Context(), directionID)
	if err != nil {
		respondDomainError(w, err, "list projects")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"total":    len(projects),
	})
}

func (s *Server) handleSaveProjects(w http.ResponseWriter, r *http.Request) {
	directionID, ok := pathID(r, "directionID")
	if !ok {
		respondError(w, http.StatusBadRequest, "validation_error", "direction id is required")
		return
	}

	var projects []models.Project
	if err := json.NewDecoder(r.Body).Decode(&projects); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	for i := range projects {
		projects[i].ID = models.CanonicalID(projects[i].ID)
	}

	saved, err := s.planner.SaveProjects(r.Context(), UserFromContext(r.Context()), directionID, projects)
	if err != nil {
		respondDomainError(w, err, "save projects")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"projects": saved,
		"total":    len(saved),
	})
}

// Reference data handlers

func (s *Server) handleListSpecializations(w http.ResponseWriter, r *http.Request) {
	specializations, err := s.planner.Specializations(r.Context())
	if err != nil {
		respondDomainError(w, err, "list specializations")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"specializations": specializations,
		"total":           len(specializations),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.planner.Users(r.Context())
	if err != nil {
		respondDomainError(w, err, "list users")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"total": len(users),
	})
}

// markWizard applies fn to the wizard session named by the wizard query
// parameter, when one is supplied and still alive.
func (s *Server) markWizard(r *http.Request, fn func(*wizard.Session)) {
	id := r.URL.Query().Get("wizard")
	if id == "" {
		return
	}
	ws, err := s.wizards.Get(id)
	if err != nil {
		if !errors.Is(err, wizard.ErrNotFound) {
			slog.Warn("wizard lookup failed", "wizard", id, "error", err)
		}
		return
	}
	fn(ws)
}
