package wizard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCreateModeTabGuards(t *testing.T) {
	r := NewRegistry(time.Hour)
	s := r.Start(Launch{Mode: ModeCreate})

	require.Equal(t, TabEvent, s.Snapshot().ActiveTab)

	// Nothing saved yet: both later tabs are locked and the active tab
	// stays where it was
	require.ErrorIs(t, s.Activate(TabDirections), ErrEventNotSaved)
	require.ErrorIs(t, s.Activate(TabProjects), ErrEventNotSaved)
	require.Equal(t, TabEvent, s.Snapshot().ActiveTab)

	s.MarkEventSaved(42)
	require.NoError(t, s.Activate(TabDirections))
	require.ErrorIs(t, s.Activate(TabProjects), ErrNoDirections)
	require.Equal(t, TabDirections, s.Snapshot().ActiveTab)

	s.MarkDirectionsSaved(2, 10)
	require.NoError(t, s.Activate(TabProjects))
	require.Equal(t, TabProjects, s.Snapshot().ActiveTab)
	require.Equal(t, int64(10), s.DirectionID())
}

func TestEmptyDirectionsSaveDoesNotUnlockProjects(t *testing.T) {
	r := NewRegistry(time.Hour)
	s := r.Start(Launch{Mode: ModeCreate})
	s.MarkEventSaved(42)

	s.MarkDirectionsSaved(0, 0)
	require.ErrorIs(t, s.Activate(TabProjects), ErrNoDirections)
}

func TestLaunchIDsBypassGuards(t *testing.T) {
	r := NewRegistry(time.Hour)

	// Editing an existing direction's projects: opens straight on the
	// projects tab and all tabs are reachable
	s := r.Start(Launch{Mode: ModeCreate, EventID: 5, DirectionID: 7})
	require.Equal(t, TabProjects, s.Snapshot().ActiveTab)
	require.NoError(t, s.Activate(TabEvent))
	require.NoError(t, s.Activate(TabDirections))
	require.NoError(t, s.Activate(TabProjects))

	// An event id alone opens on directions but keeps projects locked
	s = r.Start(Launch{Mode: ModeCreate, EventID: 5})
	require.Equal(t, TabDirections, s.Snapshot().ActiveTab)
	require.ErrorIs(t, s.Activate(TabProjects), ErrNoDirections)
}

func TestEditModeIsUnguarded(t *testing.T) {
	r := NewRegistry(time.Hour)
	s := r.Start(Launch{Mode: ModeEdit})

	require.NoError(t, s.Activate(TabProjects))
	require.NoError(t, s.Activate(TabDirections))
}

func TestActivateUnknownTab(t *testing.T) {
	r := NewRegistry(time.Hour)
	s := r.Start(Launch{Mode: ModeEdit})
	require.ErrorIs(t, s.Activate(Tab("summary")), ErrUnknownTab)
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry(time.Hour)
	s := r.Start(Launch{Mode: ModeCreate})

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	require.Equal(t, s.ID, got.ID)

	_, err = r.Get("nope")
	require.ErrorIs(t, err, ErrNotFound)

	r.Close(s.ID)
	_, err = r.Get(s.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSweepDropsExpired(t *testing.T) {
	r := NewRegistry(time.Minute)
	s1 := r.Start(Launch{Mode: ModeCreate})
	s2 := r.Start(Launch{Mode: ModeCreate})
	s1.ExpiresAt = time.Now().Add(-time.Second)

	removed := r.Sweep(time.Now())
	require.Equal(t, 1, removed)

	_, err := r.Get(s1.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get(s2.ID)
	require.NoError(t, err)
}
