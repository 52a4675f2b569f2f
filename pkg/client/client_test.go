package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ric-center/planner/internal/api"
	"github.com/ric-center/planner/internal/auth"
	"github.com/ric-center/planner/internal/config"
	"github.com/ric-center/planner/internal/datasource"
	"github.com/ric-center/planner/internal/models"
	"github.com/ric-center/planner/internal/planner"
	"github.com/ric-center/planner/internal/session"
	"github.com/ric-center/planner/internal/store"
	"github.com/ric-center/planner/internal/wizard"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	local := datasource.NewLocal(st)
	for _, u := range []models.User{
		{Email: "org@b.ru", Password: "pw", Name: "Анна", Surname: "Орлова", Role: models.RoleOrganizer},
		{Email: "stud@b.ru", Password: "pw", Name: "Иван", Surname: "Иванов", Role: models.RoleStudent},
	} {
		_, err := local.SaveUser(context.Background(), u)
		require.NoError(t, err)
	}

	server := api.NewServer(
		config.ServerConfig{Host: "127.0.0.1", Port: 0},
		planner.NewManager(local),
		auth.NewManager(auth.NewLocalGateway(local), st),
		session.NewMemoryStore(),
		time.Hour,
		wizard.NewRegistry(time.Hour),
	)

	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)
	return srv
}

func TestClientEndToEnd(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	c := NewClient(srv.URL)
	require.NoError(t, c.Health(ctx))

	// Calls without a session fail
	_, err := c.Events(ctx)
	require.Error(t, err)

	user, err := c.Login(ctx, "org@b.ru", "pw")
	require.NoError(t, err)
	require.Equal(t, models.RoleOrganizer, user.Role)

	event, err := c.CreateEvent(ctx, models.Event{Title: "ПШ 2025", EndDate: "2099-12-31"})
	require.NoError(t, err)
	require.NotZero(t, event.ID)

	dirs, err := c.SaveDirections(ctx, event.ID, []models.Direction{{Title: "Web", LeaderID: 1}})
	require.NoError(t, err)
	require.Len(t, dirs, 1)

	projects, err := c.SaveProjects(ctx, dirs[0].ID, []models.Project{
		{Title: "Биржа", CuratorID: 1, Teams: 2},
	})
	require.NoError(t, err)
	require.Len(t, projects, 1)

	events, err := c.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, models.EventActive, events[0].Status)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	require.Error(t, err)
}

func TestClientApplicationFlow(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	student := NewClient(srv.URL)
	_, err := student.Login(ctx, "stud@b.ru", "pw")
	require.NoError(t, err)

	app, err := student.SubmitApplication(ctx, models.Application{
		StudentName: "Иванов Иван",
		ProjectID:   5,
	})
	require.NoError(t, err)
	require.Equal(t, models.StatusSubmitted, app.Status)

	// Duplicate submission for the same project is rejected
	_, err = student.SubmitApplication(ctx, models.Application{
		StudentName: "Иванов Иван",
		ProjectID:   5,
	})
	require.Error(t, err)

	organizer := NewClient(srv.URL)
	_, err = organizer.Login(ctx, "org@b.ru", "pw")
	require.NoError(t, err)

	require.NoError(t, organizer.UpdateApplicationStatus(ctx, app.ID, models.StatusTesting))

	apps, statuses, err := organizer.Applications(ctx)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	require.Equal(t, models.StatusTesting, apps[0].Status)
	require.Len(t, statuses, 10)

	require.NoError(t, student.WithdrawApplication(ctx, app.ID))
}
