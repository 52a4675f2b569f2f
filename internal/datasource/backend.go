package datasource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ric-center/planner/internal/backend"
	"github.com/ric-center/planner/internal/models"
)

// Backend serves domain data from the upstream REST API. Bodies are
// already normalized by the client; this layer maps between the local
// model and the upstream payload shape on writes.
type Backend struct {
	client *backend.Client
}

// NewBackend wraps an upstream client.
func NewBackend(client *backend.Client) *Backend {
	return &Backend{client: client}
}

func (b *Backend) Events(ctx context.Context) ([]models.Event, error) {
	body, err := b.client.Get(ctx, "/api/users/events/")
	if err != nil {
		return nil, err
	}
	docs := asDocs(body)
	events := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, decodeEvent(d))
	}
	return events, nil
}

// EventByID returns (nil, nil) only for an upstream 404; other failures
// propagate so they do not render as a missing event.
func (b *Backend) EventByID(ctx context.Context, id int64) (*models.Event, error) {
	body, err := b.client.Get(ctx, fmt.Sprintf("/api/users/events/%d/", id))
	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	d, ok := body.(map[string]any)
	if !ok {
		return nil, nil
	}
	ev := decodeEvent(d)
	return &ev, nil
}

// SaveEvent maps the local shape to the upstream payload: title→name,
// camelCase dates→snake_case, the apply deadline widened to end of day,
// a blank stage defaulted to "—". A pending specialization is resolved to
// an upstream id by display-title lookup.
func (b *Backend) SaveEvent(ctx context.Context, ev models.Event) (models.Event, error) {
	payload := map[string]any{
		"name":         ev.Title,
		"description":  ev.Description,
		"start_date":   ev.StartDate,
		"end_date":     ev.EndDate,
		"end_app_date": endOfDay(ev.ApplyDeadline),
	}
	if strings.TrimSpace(ev.Stage) != "" {
		payload["stage"] = ev.Stage
	} else {
		payload["stage"] = "—"
	}
	if ev.ChatLink != "" {
		payload["chat_link"] = ev.ChatLink
	}

	if len(ev.Specializations) > 0 {
		first := ev.Specializations[0]
		if first.ID != 0 {
			payload["specialization"] = first.ID
		} else if first.Title != "" {
			if id, ok := b.lookupSpecialization(ctx, first.Title); ok {
				payload["specialization"] = id
			}
		}
	}

	var body any
	var err error
	if ev.ID != 0 {
		body, err = b.client.Put(ctx, fmt.Sprintf("/api/users/events/%d/", ev.ID), payload)
	} else {
		body, err = b.client.Post(ctx, "/api/users/events/", payload)
	}
	if err != nil {
		return models.Event{}, err
	}
	if d, ok := body.(map[string]any); ok {
		return decodeEvent(d), nil
	}
	return ev, nil
}

func (b *Backend) RemoveEvent(ctx context.Context, id int64) error {
	_, err := b.client.Delete(ctx, fmt.Sprintf("/api/users/events/%d/", id))
	return err
}

func (b *Backend) DirectionsByEvent(ctx context.Context, eventID int64) ([]models.Direction, error) {
	body, err := b.client.Get(ctx, fmt.Sprintf("/api/users/events/%d/directions/", eventID))
	if err != nil {
		return nil, err
	}
	docs := asDocs(body)
	dirs := make([]models.Direction, 0, len(docs))
	for _, d := range docs {
		dir := decodeDirection(d)
		if dir.EventID == 0 {
			dir.EventID = eventID
		}
		dirs = append(dirs, dir)
	}
	return dirs, nil
}

// DirectionByID has no dedicated upstream endpoint: the direction is
// located by scanning every event's direction list. A miss is (nil, nil).
func (b *Backend) DirectionByID(ctx context.Context, id int64) (*models.Direction, error) {
	events, err := b.Events(ctx)
	if err != nil {
		return nil, nil
	}
	for _, ev := range events {
		dirs, err := b.DirectionsByEvent(ctx, ev.ID)
		if err != nil {
			continue
		}
		for _, dir := range dirs {
			if dir.ID == id {
				d := dir
				return &d, nil
			}
		}
	}
	return nil, nil
}

// SaveDirections issues one PUT per persisted direction and one POST per
// pending one, strictly sequentially, collecting results in order.
func (b *Backend) SaveDirections(ctx context.Context, eventID int64, dirs []models.Direction) ([]models.Direction, error) {
	saved := make([]models.Direction, 0, len(dirs))
	for _, d := range dirs {
		payload := map[string]any{
			"name":        d.Title,
			"description": d.Description,
		}
		if d.LeaderID != 0 {
			payload["leader"] = d.LeaderID
		}

		if d.ID != 0 {
			if _, err := b.client.Put(ctx,
				fmt.Sprintf("/api/users/events/%d/directions/%d/", eventID, d.ID), payload); err != nil {
				return saved, err
			}
			d.EventID = eventID
			saved = append(saved, d)
			continue
		}

		body, err := b.client.Post(ctx,
			fmt.Sprintf("/api/users/events/%d/directions/", eventID), payload)
		if err != nil {
			return saved, err
		}
		if doc, ok := body.(map[string]any); ok {
			created := decodeDirection(doc)
			if created.EventID == 0 {
				created.EventID = eventID
			}
			saved = append(saved, created)
		} else {
			saved = append(saved, d)
		}
	}
	return saved, nil
}

// ProjectsByDirection tries the flat query first; environments without it
// fall back to locating the owning event and using the nested endpoint.
func (b *Backend) ProjectsByDirection(ctx context.Context, directionID int64) ([]models.Project, error) {
	if body, err := b.client.Get(ctx,
		fmt.Sprintf("/api/users/projects/?direction=%d", directionID)); err == nil {
		if list, ok := body.([]any); ok {
			return decodeProjects(list, directionID), nil
		}
	}

	eventID, ok := b.findOwningEvent(ctx, directionID)
	if !ok {
		return []models.Project{}, nil
	}
	body, err := b.client.Get(ctx,
		fmt.Sprintf("/api/users/events/%d/directions/%d/projects/", eventID, directionID))
	if err != nil {
		return []models.Project{}, nil
	}
	list, _ := body.([]any)
	return decodeProjects(list, directionID), nil
}

func (b *Backend) SaveProjects(ctx context.Context, directionID int64, projects []models.Project) ([]models.Project, error) {
	eventID, hasEvent := b.findOwningEvent(ctx, directionID)

	saved := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		p.DirectionID = directionID
		payload := toDoc(p)

		var body any
		var err error
		switch {
		case p.ID != 0:
			body, err = b.client.Put(ctx, fmt.Sprintf("/api/users/projects/%d/", p.ID), payload)
		case hasEvent:
			body, err = b.client.Post(ctx,
				fmt.Sprintf("/api/users/events/%d/directions/%d/projects/", eventID, directionID), payload)
		default:
			payload["direction"] = directionID
			body, err = b.client.Post(ctx, "/api/users/projects/", payload)
		}
		if err != nil {
			return saved, err
		}
		if doc, ok := body.(map[string]any); ok {
			created := decodeProject(doc)
			if created.DirectionID == 0 {
				created.DirectionID = directionID
			}
			saved = append(saved, created)
		} else {
			saved = append(saved, p)
		}
	}
	return saved, nil
}

func (b *Backend) Applications(ctx context.Context) ([]models.Application, error) {
	body, err := b.client.Get(ctx, "/api/users/applications/")
	if err != nil {
		return nil, err
	}
	docs := asDocs(body)
	apps := make([]models.Application, 0, len(docs))
	for _, d := range docs {
		apps = append(apps, decodeApplication(d))
	}
	return apps, nil
}

// SaveApplication routes to the nested create endpoint when the owning
// event and direction are known, the flat endpoint otherwise, and to
// update-by-id when the application already exists.
func (b *Backend) SaveApplication(ctx context.Context, app models.Application) (models.Application, error) {
	payload := toDoc(app)

	var body any
	var err error
	switch {
	case app.ID != 0:
		body, err = b.client.Put(ctx, fmt.Sprintf("/api/users/applications/%d/", app.ID), payload)
	case app.EventID != 0 && app.DirectionID != 0:
		body, err = b.client.Post(ctx,
			fmt.Sprintf("/api/users/events/%d/directions/%d/applications/", app.EventID, app.DirectionID), payload)
	default:
		body, err = b.client.Post(ctx, "/api/users/applications/", payload)
	}
	if err != nil {
		return models.Application{}, err
	}
	if doc, ok := body.(map[string]any); ok {
		return decodeApplication(doc), nil
	}
	return app, nil
}

func (b *Backend) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	_, err := b.client.Put(ctx,
		fmt.Sprintf("/api/users/applications/%d/", id), map[string]any{"status": status})
	return err
}

func (b *Backend) RemoveApplication(ctx context.Context, id int64) error {
	_, err := b.client.Delete(ctx, fmt.Sprintf("/api/users/applications/%d/", id))
	return err
}

// Users swallows failures into an empty list: callers use it for display
// lookups and must not break the page over it.
func (b *Backend) Users(ctx context.Context) ([]models.User, error) {
	body, err := b.client.Get(ctx, "/api/users/")
	if err != nil {
		return []models.User{}, nil
	}
	docs := asDocs(body)
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, decodeUser(d))
	}
	return users, nil
}

func (b *Backend) SaveUser(ctx context.Context, u models.User) (models.User, error) {
	body, err := b.client.Post(ctx, "/api/users/register/", toDoc(u))
	if err != nil {
		return models.User{}, err
	}
	if d, ok := body.(map[string]any); ok {
		created := decodeUser(d)
		if created.ID != 0 {
			return created, nil
		}
	}
	return u, nil
}

// Profile returns the current session's profile; the upstream scopes it
// by cookie, so userID is not part of the request.
func (b *Backend) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	body, err := b.client.Get(ctx, "/api/users/profile/")
	if err != nil {
		return nil, nil
	}
	d, ok := body.(map[string]any)
	if !ok {
		return nil, nil
	}
	p := decodeProfile(d)
	p.UserID = userID
	return &p, nil
}

func (b *Backend) SaveProfile(ctx context.Context, userID int64, p models.Profile) error {
	_, err := b.client.Put(ctx, "/api/users/profile/", toDoc(p))
	return err
}

func (b *Backend) Specializations(ctx context.Context) ([]models.Specialization, error) {
	body, err := b.client.Get(ctx, "/api/users/specializations/")
	if err != nil {
		return nil, err
	}
	docs := asDocs(body)
	specs := make([]models.Specialization, 0, len(docs))
	for _, d := range docs {
		specs = append(specs, decodeSpecialization(d))
	}
	return specs, nil
}

// lookupSpecialization resolves a display title to an upstream id,
// case-insensitively. Lookup failures are swallowed: the payload simply
// goes out without a specialization.
func (b *Backend) lookupSpecialization(ctx context.Context, title string) (int64, bool) {
	specs, err := b.Specializations(ctx)
	if err != nil {
		return 0, false
	}
	for _, s := range specs {
		if strings.EqualFold(s.Title, title) {
			return s.ID, true
		}
	}
	return 0, false
}

// findOwningEvent scans events' direction lists for the direction.
func (b *Backend) findOwningEvent(ctx context.Context, directionID int64) (int64, bool) {
	events, err := b.Events(ctx)
	if err != nil {
		return 0, false
	}
	for _, ev := range events {
		dirs, err := b.DirectionsByEvent(ctx, ev.ID)
		if err != nil {
			continue
		}
		for _, d := range dirs {
			if d.ID == directionID {
				return ev.ID, true
			}
		}
	}
	return 0, false
}

func decodeProjects(list []any, directionID int64) []models.Project {
	out := make([]models.Project, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			p := decodeProject(m)
			if p.DirectionID == 0 {
				p.DirectionID = directionID
			}
			out = append(out, p)
		}
	}
	return out
}

// endOfDay widens a bare date to an end-of-day RFC3339 timestamp;
// values that already carry a time component pass through.
func endOfDay(v string) string {
	if v == "" || strings.Contains(v, "T") {
		return v
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return v
	}
	return t.Add(24*time.Hour - time.Second).UTC().Format(time.RFC3339)
}

var _ DataSource = (*Backend)(nil)
