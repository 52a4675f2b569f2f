package datasource

import (
	"context"
	"errors"

	"github.com/ric-center/planner/internal/models"
	"github.com/ric-center/planner/internal/store"
)

// Local serves domain data from the embedded store. Used when the
// upstream backend is unavailable; behavior mirrors the Backend source so
// callers cannot tell which one they hold.
type Local struct {
	store *store.Store
}

// NewLocal wraps an opened store.
func NewLocal(st *store.Store) *Local {
	return &Local{store: st}
}

func (l *Local) Events(ctx context.Context) ([]models.Event, error) {
	docs, err := l.store.List(ctx, store.BucketEvents)
	if err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(docs))
	for _, d := range docs {
		events = append(events, decodeEvent(d))
	}
	return events, nil
}

func (l *Local) EventByID(ctx context.Context, id int64) (*models.Event, error) {
	d, err := l.store.Get(ctx, store.BucketEvents, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ev := decodeEvent(d)
	return &ev, nil
}

func (l *Local) SaveEvent(ctx context.Context, ev models.Event) (models.Event, error) {
	if ev.ID == 0 {
		id, err := l.store.NextID(ctx, store.BucketEvents)
		if err != nil {
			return models.Event{}, err
		}
		ev.ID = id
	}
	if err := l.store.Put(ctx, store.BucketEvents, ev.ID, 0, toDoc(ev)); err != nil {
		return models.Event{}, err
	}
	return ev, nil
}

func (l *Local) RemoveEvent(ctx context.Context, id int64) error {
	return l.store.Delete(ctx, store.BucketEvents, id)
}

func (l *Local) DirectionsByEvent(ctx context.Context, eventID int64) ([]models.Direction, error) {
	docs, err := l.store.ListScope(ctx, store.BucketDirections, eventID, "eventId")
	if err != nil {
		return nil, err
	}
	dirs := make([]models.Direction, 0, len(docs))
	for _, d := range docs {
		dirs = append(dirs, decodeDirection(d))
	}
	return dirs, nil
}

func (l *Local) DirectionByID(ctx context.Context, id int64) (*models.Direction, error) {
	docs, err := l.store.List(ctx, store.BucketDirections)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if store.DocID(d, "id") == id {
			dir := decodeDirection(d)
			return &dir, nil
		}
	}
	return nil, nil
}

// SaveDirections is replace-by-scope: everything previously stored for
// the event is dropped and the given list written in its place.
func (l *Local) SaveDirections(ctx context.Context, eventID int64, dirs []models.Direction) ([]models.Direction, error) {
	docs := make([]store.Doc, 0, len(dirs))
	for i := range dirs {
		if dirs[i].ID == 0 {
			dirs[i].ID = store.TimeID() + int64(i)
		}
		dirs[i].EventID = eventID
		docs = append(docs, toDoc(dirs[i]))
	}
	if err := l.store.ReplaceScope(ctx, store.BucketDirections, eventID, "eventId", docs); err != nil {
		return nil, err
	}
	return dirs, nil
}

func (l *Local) ProjectsByDirection(ctx context.Context, directionID int64) ([]models.Project, error) {
	docs, err := l.store.ListScope(ctx, store.BucketProjects, directionID, "directionId")
	if err != nil {
		return nil, err
	}
	projects := make([]models.Project, 0, len(docs))
	for _, d := range docs {
		projects = append(projects, decodeProject(d))
	}
	return projects, nil
}

func (l *Local) SaveProjects(ctx context.Context, directionID int64, projects []models.Project) ([]models.Project, error) {
	docs := make([]store.Doc, 0, len(projects))
	for i := range projects {
		if projects[i].ID == 0 {
			projects[i].ID = store.TimeID() + int64(i)
		}
		projects[i].DirectionID = directionID
		docs = append(docs, toDoc(projects[i]))
	}
	if err := l.store.ReplaceScope(ctx, store.BucketProjects, directionID, "directionId", docs); err != nil {
		return nil, err
	}
	return projects, nil
}

func (l *Local) Applications(ctx context.Context) ([]models.Application, error) {
	docs, err := l.store.List(ctx, store.BucketApplications)
	if err != nil {
		return nil, err
	}
	apps := make([]models.Application, 0, len(docs))
	for _, d := range docs {
		apps = append(apps, decodeApplication(d))
	}
	return apps, nil
}

func (l *Local) SaveApplication(ctx context.Context, app models.Application) (models.Application, error) {
	if app.ID == 0 {
		app.ID = store.TimeID()
	}
	if err := l.store.Put(ctx, store.BucketApplications, app.ID, 0, toDoc(app)); err != nil {
		return models.Application{}, err
	}
	return app, nil
}

func (l *Local) UpdateApplicationStatus(ctx context.Context, id int64, status string) error {
	d, err := l.store.Get(ctx, store.BucketApplications, id)
	if err != nil {
		return err
	}
	d["status"] = status
	return l.store.Put(ctx, store.BucketApplications, id, 0, d)
}

func (l *Local) RemoveApplication(ctx context.Context, id int64) error {
	return l.store.Delete(ctx, store.BucketApplications, id)
}

func (l *Local) Users(ctx context.Context) ([]models.User, error) {
	docs, err := l.store.List(ctx, store.BucketUsers)
	if err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, decodeUser(d))
	}
	return users, nil
}

func (l *Local) SaveUser(ctx context.Context, u models.User) (models.User, error) {
	if u.ID == 0 {
		id, err := l.store.NextID(ctx, store.BucketUsers)
		if err != nil {
			return models.User{}, err
		}
		u.ID = id
	}
	if err := l.store.Put(ctx, store.BucketUsers, u.ID, 0, toDoc(u)); err != nil {
		return models.User{}, err
	}
	return u, nil
}

func (l *Local) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	d, err := l.store.Get(ctx, store.BucketProfiles, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := decodeProfile(d)
	p.UserID = userID
	return &p, nil
}

func (l *Local) SaveProfile(ctx context.Context, userID int64, p models.Profile) error {
	p.UserID = userID
	doc := toDoc(p)
	doc["id"] = userID
	return l.store.Put(ctx, store.BucketProfiles, userID, userID, doc)
}

func (l *Local) Specializations(ctx context.Context) ([]models.Specialization, error) {
	docs, err := l.store.List(ctx, store.BucketSpecialization)
	if err != nil {
		return nil, err
	}
	specs := make([]models.Specialization, 0, len(docs))
	for _, d := range docs {
		specs = append(specs, decodeSpecialization(d))
	}
	return specs, nil
}

var _ DataSource = (*Local)(nil)
