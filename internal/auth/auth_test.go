package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ric-center/planner/internal/datasource"
	"github.com/ric-center/planner/internal/models"
	"github.com/ric-center/planner/internal/store"
)

func newLocalSetup(t *testing.T) (*Manager, *LocalGateway, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gw := NewLocalGateway(datasource.NewLocal(st))
	return NewManager(gw, st), gw, st
}

func seedUser(t *testing.T, st *store.Store, u models.User) {
	t.Helper()
	_, err := datasource.NewLocal(st).SaveUser(context.Background(), u)
	require.NoError(t, err)
}

func TestLocalLoginWithBcryptHash(t *testing.T) {
	m, _, st := newLocalSetup(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	seedUser(t, st, models.User{Email: "a@b.ru", PasswordHash: string(hash), Role: models.RoleStudent})

	ctx := context.Background()
	require.Nil(t, m.Login(ctx, "a@b.ru", "wrong"))
	require.Nil(t, m.CurrentUser())

	user := m.Login(ctx, "A@B.RU", "secret")
	require.NotNil(t, user)
	require.Equal(t, "a@b.ru", user.Email)
	// Password material never survives login
	require.Empty(t, user.Password)
	require.Empty(t, user.PasswordHash)
}

func TestLocalLoginWithLegacyPlaintext(t *testing.T) {
	m, _, st := newLocalSetup(t)
	seedUser(t, st, models.User{Email: "old@b.ru", Password: "legacy", Role: models.RoleOrganizer})

	require.NotNil(t, m.Login(context.Background(), "old@b.ru", "legacy"))
	require.Nil(t, m.Login(context.Background(), "old@b.ru", "other"))
}

func TestRegisterSignsIn(t *testing.T) {
	m, _, _ := newLocalSetup(t)
	ctx := context.Background()

	user := m.Register(ctx, Registration{
		Email:    "new@b.ru",
		Password: "pw123456",
		Name:     "Иван",
		Surname:  "Иванов",
	})
	require.NotNil(t, user)
	require.Equal(t, models.RoleStudent, user.Role)
	require.Equal(t, "Иванов Иван", user.DisplayName())
	require.NotNil(t, m.CurrentUser())

	// Same email again is rejected
	require.Nil(t, m.Register(ctx, Registration{Email: "NEW@b.ru", Password: "x"}))
}

func TestHydrateRestoresPersistedSession(t *testing.T) {
	m, _, st := newLocalSetup(t)
	seedUser(t, st, models.User{Email: "a@b.ru", Password: "pw", Role: models.RoleStudent})
	ctx := context.Background()

	require.NotNil(t, m.Login(ctx, "a@b.ru", "pw"))

	// A fresh manager over the same store picks the session back up
	m2 := NewManager(NewLocalGateway(datasource.NewLocal(st)), st)
	require.Nil(t, m2.CurrentUser())
	m2.Hydrate(ctx)
	user := m2.CurrentUser()
	require.NotNil(t, user)
	require.Equal(t, "a@b.ru", user.Email)
}

func TestLogoutClearsSession(t *testing.T) {
	m, _, st := newLocalSetup(t)
	seedUser(t, st, models.User{Email: "a@b.ru", Password: "pw"})
	ctx := context.Background()

	require.NotNil(t, m.Login(ctx, "a@b.ru", "pw"))
	m.Logout(ctx)
	require.Nil(t, m.CurrentUser())

	_, ok, err := st.GetKV(ctx, store.CurrentUserKey)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateProfilePersistsAndKeepsUser(t *testing.T) {
	m, _, st := newLocalSetup(t)
	seedUser(t, st, models.User{Email: "a@b.ru", Password: "pw"})
	ctx := context.Background()
	require.NotNil(t, m.Login(ctx, "a@b.ru", "pw"))
	before := m.CurrentUser()

	require.NoError(t, m.UpdateProfile(ctx, models.Profile{University: "МГУ"}))

	// Local mode has no remote user to re-fetch; the signed-in user stays
	after := m.CurrentUser()
	require.NotNil(t, after)
	require.Equal(t, before.ID, after.ID)

	p, err := datasource.NewLocal(st).Profile(ctx, before.ID)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "МГУ", p.University)
}

func TestUpdateProfileRequiresSignIn(t *testing.T) {
	m, _, _ := newLocalSetup(t)
	require.Error(t, m.UpdateProfile(context.Background(), models.Profile{}))
}

// blockingGateway serves logins keyed by email and holds one of them open
// until released, so tests can interleave a second login mid-flight.
type blockingGateway struct {
	hold    string
	entered chan struct{}
	release chan struct{}
}

func (g *blockingGateway) Login(ctx context.Context, email, password string) (models.User, error) {
	if email == g.hold {
		close(g.entered)
		<-g.release
	}
	role := models.RoleStudent
	if strings.HasPrefix(email, "org") {
		role = models.RoleOrganizer
	}
	return models.User{ID: int64(len(email)), Email: email, Role: role}, nil
}

func (g *blockingGateway) Register(context.Context, Registration) error { return nil }
func (g *blockingGateway) Logout(context.Context) error                 { return nil }
func (g *blockingGateway) UpdateProfile(context.Context, models.Profile) error {
	return nil
}
func (g *blockingGateway) FetchUser(context.Context) (models.User, error) {
	return models.User{}, errNoReconciliation
}
func (g *blockingGateway) Refresh(context.Context) bool { return false }

func TestInterleavedLoginsBindTheirOwnUser(t *testing.T) {
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	gw := &blockingGateway{
		hold:    "org@b.ru",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	m := NewManager(gw, st)
	ctx := context.Background()

	orgDone := make(chan *models.User, 1)
	go func() { orgDone <- m.Login(ctx, "org@b.ru", "pw") }()
	<-gw.entered

	// A second browser signs in while the organizer login is in flight.
	student := m.Login(ctx, "stud@b.ru", "pw")
	require.NotNil(t, student)
	require.Equal(t, "stud@b.ru", student.Email)
	require.Equal(t, models.RoleStudent, student.Role)

	close(gw.release)
	org := <-orgDone
	require.NotNil(t, org)
	require.Equal(t, "org@b.ru", org.Email)
	require.Equal(t, models.RoleOrganizer, org.Role)

	// The shared process identity is last-writer-wins; each caller's
	// session must come from its own return value, never from here.
	cur := m.CurrentUser()
	require.NotNil(t, cur)
	require.Equal(t, "org@b.ru", cur.Email)
	require.NotEqual(t, student.Email, cur.Email)
}
