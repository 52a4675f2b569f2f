// Package planner holds the domain logic between the HTTP surface and the
// data source: derived fields, access rules and the application workflow.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/ric-center/planner/internal/datasource"
	"github.com/ric-center/planner/internal/models"
)

var (
	// ErrDuplicateApplication is returned when a student already has an
	// application for the project.
	ErrDuplicateApplication = errors.New("application for this project already exists")

	// ErrForbidden is returned when the viewer's role does not allow the
	// operation.
	ErrForbidden = errors.New("operation not allowed for this role")

	// ErrValidation wraps client-side form failures.
	ErrValidation = errors.New("validation failed")
)

// Manager applies the derived-value rules uniformly over whichever data
// source was selected at startup.
type Manager struct {
	ds   datasource.DataSource
	feed *Feed
	now  func() time.Time
}

// NewManager creates a manager over the given data source.
func NewManager(ds datasource.DataSource) *Manager {
	return &Manager{ds: ds, feed: NewFeed(), now: time.Now}
}

// Feed exposes the application change feed for subscribers.
func (m *Manager) Feed() *Feed {
	return m.feed
}

// Events lists events with status derived from the end date and the
// organizer resolved to a display name.
func (m *Manager) Events(ctx context.Context) ([]models.Event, error) {
	events, err := m.ds.Events(ctx)
	if err != nil {
		return nil, err
	}
	users, _ := m.ds.Users(ctx)
	for i := range events {
		m.decorate(ctx, &events[i], users)
	}
	return events, nil
}

// EventByID returns a decorated event, or nil when it does not exist.
func (m *Manager) EventByID(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := m.ds.EventByID(ctx, id)
	if err != nil || ev == nil {
		return nil, err
	}
	users, _ := m.ds.Users(ctx)
	m.decorate(ctx, ev, users)
	return ev, nil
}

// SaveEvent persists an event. Only organizers create or edit events.
func (m *Manager) SaveEvent(ctx context.Context, viewer *models.User, ev models.Event) (models.Event, error) {
	if !isOrganizer(viewer) {
		return models.Event{}, ErrForbidden
	}
	if strings.TrimSpace(ev.Title) == "" {
		return models.Event{}, fmt.Errorf("%w: event title is required", ErrValidation)
	}
	return m.ds.SaveEvent(ctx, ev)
}

// RemoveEvent deletes an event. Irreversible; directions and projects of
// the event are not cascaded here.
func (m *Manager) RemoveEvent(ctx context.Context, viewer *models.User, id int64) error {
	if !isOrganizer(viewer) {
		return ErrForbidden
	}
	return m.ds.RemoveEvent(ctx, id)
}

func (m *Manager) DirectionsByEvent(ctx context.Context, eventID int64) ([]models.Direction, error) {
	return m.ds.DirectionsByEvent(ctx, eventID)
}

func (m *Manager) DirectionByID(ctx context.Context, id int64) (*models.Direction, error) {
	return m.ds.DirectionByID(ctx, id)
}

// SaveDirections validates and persists an event's direction list. Every
// direction needs a title and a selected organizer before save.
func (m *Manager) SaveDirections(ctx context.Context, viewer *models.User, eventID int64, dirs []models.Direction) ([]models.Direction, error) {
	if !isOrganizer(viewer) {
		return nil, ErrForbidden
	}
	for i, d := range dirs {
		if strings.TrimSpace(d.Title) == "" {
			return nil, fmt.Errorf("%w: direction %d has no title", ErrValidation, i+1)
		}
		if d.LeaderID == 0 && strings.TrimSpace(d.Organizer) == "" {
			return nil, fmt.Errorf("%w: direction %q has no organizer", ErrValidation, d.Title)
		}
	}
	return m.ds.SaveDirections(ctx, eventID, dirs)
}

func (m *Manager) ProjectsByDirection(ctx context.Context, directionID int64) ([]models.Project, error) {
	return m.ds.ProjectsByDirection(ctx, directionID)
}

// SaveProjects validates and persists a direction's project list.
// Curator and a team count are required at save time.
func (m *Manager) SaveProjects(ctx context.Context, viewer *models.User, directionID int64, projects []models.Project) ([]models.Project, error) {
	if !isOrganizer(viewer) {
		return nil, ErrForbidden
	}
	for i, p := range projects {
		if strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("%w: project %d has no title", ErrValidation, i+1)
		}
		if p.CuratorID == 0 && strings.TrimSpace(p.Curator) == "" {
			return nil, fmt.Errorf("%w: project %q has no curator", ErrValidation, p.Title)
		}
		if p.Teams < 0 {
			return nil, fmt.Errorf("%w: project %q has a negative team count", ErrValidation, p.Title)
		}
	}
	return m.ds.SaveProjects(ctx, directionID, projects)
}

// Applications lists applications for the viewer: students see only their
// own, organizers see everything.
func (m *Manager) Applications(ctx context.Context, viewer *models.User) ([]models.Application, error) {
	apps, err := m.ds.Applications(ctx)
	if err != nil {
		return nil, err
	}
	if viewer != nil && viewer.Role == models.RoleStudent {
		own := apps[:0]
		for _, a := range apps {
			if a.OwnerID == viewer.ID {
				own = append(own, a)
			}
		}
		apps = own
	}
	return apps, nil
}

// SubmitApplication creates a new application for the viewer. At most one
// application per (owner, project) pair: the guard runs before the create
// call, so a duplicate never reaches the data source.
func (m *Manager) SubmitApplication(ctx context.Context, viewer *models.User, app models.Application) (models.Application, error) {
	if viewer == nil {
		return models.Application{}, ErrForbidden
	}
	if strings.TrimSpace(app.StudentName) == "" {
		return models.Application{}, fmt.Errorf("%w: student name is required", ErrValidation)
	}
	if app.ProjectID == 0 {
		return models.Application{}, fmt.Errorf("%w: no project selected", ErrValidation)
	}

	existing, err := m.ds.Applications(ctx)
	if err != nil {
		return models.Application{}, err
	}
	for _, e := range existing {
		if e.OwnerID == viewer.ID && e.ProjectID == app.ProjectID {
			return models.Application{}, ErrDuplicateApplication
		}
	}

	app.ID = 0
	app.OwnerID = viewer.ID
	if app.Status == "" {
		app.Status = models.StatusSubmitted
	}
	if app.CreatedAt == "" {
		app.CreatedAt = m.now().UTC().Format(time.RFC3339)
	}
	return m.ds.SaveApplication(ctx, app)
}

// UpdateApplicationStatus moves an application to any state of the fixed
// enumeration. Organizer-only.
func (m *Manager) UpdateApplicationStatus(ctx context.Context, viewer *models.User, id int64, status string) error {
	if !isOrganizer(viewer) {
		return ErrForbidden
	}
	if !models.ValidApplicationStatus(status) {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	if err := m.ds.UpdateApplicationStatus(ctx, id, status); err != nil {
		return err
	}
	m.feed.Publish(ApplicationChange{ID: id, Status: status})
	return nil
}

// WithdrawApplication deletes an application: the owning student may
// withdraw their own, organizers may remove any.
func (m *Manager) WithdrawApplication(ctx context.Context, viewer *models.User, id int64) error {
	if viewer == nil {
		return ErrForbidden
	}
	if viewer.Role == models.RoleStudent {
		apps, err := m.ds.Applications(ctx)
		if err != nil {
			return err
		}
		owned := false
		for _, a := range apps {
			if a.ID == id && a.OwnerID == viewer.ID {
				owned = true
				break
			}
		}
		if !owned {
			return ErrForbidden
		}
	}
	if err := m.ds.RemoveApplication(ctx, id); err != nil {
		return err
	}
	m.feed.Publish(ApplicationChange{ID: id, Withdrawn: true})
	return nil
}

func (m *Manager) Users(ctx context.Context) ([]models.User, error) {
	users, err := m.ds.Users(ctx)
	if err != nil {
		return nil, err
	}
	// password material never leaves the manager
	for i := range users {
		users[i].Password = ""
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (m *Manager) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	return m.ds.Profile(ctx, userID)
}

func (m *Manager) SaveProfile(ctx context.Context, userID int64, p models.Profile) error {
	return m.ds.SaveProfile(ctx, userID, p)
}

func (m *Manager) Specializations(ctx context.Context) ([]models.Specialization, error) {
	return m.ds.Specializations(ctx)
}

// decorate fills the derived fields of an event in place.
func (m *Manager) decorate(ctx context.Context, ev *models.Event, users []models.User) {
	ev.Status = models.ComputeStatus(ev.EndDate, m.now())
	if ev.Organizer == "" {
		ev.Organizer = m.resolveOrganizer(ctx, ev, users)
	}
}

// resolveOrganizer turns the event's leader id into a "Surname Name"
// display string. With no direct leader the first direction's leader is
// used; with no user match the raw id is shown; lookup failures are
// swallowed and fall through to the same last resort.
func (m *Manager) resolveOrganizer(ctx context.Context, ev *models.Event, users []models.User) string {
	id := ev.LeaderID
	if id == 0 && ev.ID != 0 {
		dirs, err := m.ds.DirectionsByEvent(ctx, ev.ID)
		if err != nil {
			slog.Debug("organizer fallback lookup failed", "event", ev.ID, "error", err)
		} else if len(dirs) > 0 {
			id = dirs[0].LeaderID
		}
	}
	if id == 0 {
		return ""
	}
	for _, u := range users {
		if u.ID == id {
			if name := u.DisplayName(); name != "" {
				return name
			}
			break
		}
	}
	return strconv.FormatInt(id, 10)
}

func isOrganizer(u *models.User) bool {
	return u != nil && u.Role == models.RoleOrganizer
}
