// Package datasource abstracts where domain data lives. The service picks
// one implementation at startup — the upstream REST backend or the local
// store — and everything above it is unaware which one it holds.
package datasource

import (
	"context"

	"github.com/ric-center/planner/internal/models"
)

// DataSource is the capability surface shared by both modes. Lookups that
// can legitimately miss return (nil, nil); errors are reserved for
// transport and storage failures.
type DataSource interface {
	Events(ctx context.Context) ([]models.Event, error)
	EventByID(ctx context.Context, id int64) (*models.Event, error)
	SaveEvent(ctx context.Context, ev models.Event) (models.Event, error)
	RemoveEvent(ctx context.Context, id int64) error

	DirectionsByEvent(ctx context.Context, eventID int64) ([]models.Direction, error)
	DirectionByID(ctx context.Context, id int64) (*models.Direction, error)
	SaveDirections(ctx context.Context, eventID int64, dirs []models.Direction) ([]models.Direction, error)

	ProjectsByDirection(ctx context.Context, directionID int64) ([]models.Project, error)
	SaveProjects(ctx context.Context, directionID int64, projects []models.Project) ([]models.Project, error)

	Applications(ctx context.Context) ([]models.Application, error)
	SaveApplication(ctx context.Context, app models.Application) (models.Application, error)
	UpdateApplicationStatus(ctx context.Context, id int64, status string) error
	RemoveApplication(ctx context.Context, id int64) error

	Users(ctx context.Context) ([]models.User, error)
	SaveUser(ctx context.Context, u models.User) (models.User, error)

	Profile(ctx context.Context, userID int64) (*models.Profile, error)
	SaveProfile(ctx context.Context, userID int64, p models.Profile) error

	Specializations(ctx context.Context) ([]models.Specialization, error)
}
