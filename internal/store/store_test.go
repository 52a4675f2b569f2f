package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestListMergesFixturesAndStored(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	st.SetFixtures(map[string][]Doc{
		BucketEvents: {
			{"id": float64(1), "title": "A", "stage": "1 этап"},
			{"id": float64(2), "title": "B"},
		},
	})

	// Override fixture 1; the untouched stage field survives the merge
	require.NoError(t, st.Put(ctx, BucketEvents, 1, 0, Doc{"id": float64(1), "title": "A2"}))
	// A brand-new record appends after the fixture set
	require.NoError(t, st.Put(ctx, BucketEvents, 999, 0, Doc{"id": float64(999), "title": "C"}))

	docs, err := st.List(ctx, BucketEvents)
	require.NoError(t, err)
	require.Len(t, docs, 3)

	require.Equal(t, "A2", docs[0]["title"])
	require.Equal(t, "1 этап", docs[0]["stage"])
	require.Equal(t, "B", docs[1]["title"])
	require.Equal(t, "C", docs[2]["title"])
}

func TestDeleteTombstonesFixtures(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	st.SetFixtures(map[string][]Doc{
		BucketEvents: {{"id": float64(1), "title": "A"}},
	})

	require.NoError(t, st.Delete(ctx, BucketEvents, 1))

	docs, err := st.List(ctx, BucketEvents)
	require.NoError(t, err)
	require.Empty(t, docs)

	_, err = st.Get(ctx, BucketEvents, 1)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReplaceScope(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	docs := []Doc{
		{"id": float64(10), "title": "X"},
		{"id": float64(11), "title": "Y"},
	}
	require.NoError(t, st.ReplaceScope(ctx, BucketDirections, 5, "eventId", docs))

	got, err := st.ListScope(ctx, BucketDirections, 5, "eventId")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Every doc is stamped with the owning foreign key
	require.Equal(t, int64(5), DocID(got[0], "eventId"))

	// Replacing drops what the new list no longer carries
	require.NoError(t, st.ReplaceScope(ctx, BucketDirections, 5, "eventId", docs[:1]))
	got, err = st.ListScope(ctx, BucketDirections, 5, "eventId")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "X", got[0]["title"])

	// Other scopes are untouched
	require.NoError(t, st.ReplaceScope(ctx, BucketDirections, 6, "eventId", []Doc{{"id": float64(20), "title": "Z"}}))
	got, err = st.ListScope(ctx, BucketDirections, 5, "eventId")
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestListScopeMatchesFixturesByForeignKey(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	st.SetFixtures(map[string][]Doc{
		BucketDirections: {
			{"id": float64(1), "title": "Web", "eventId": float64(5)},
			{"id": float64(2), "title": "ML", "eventId": float64(6)},
		},
	})

	got, err := st.ListScope(ctx, BucketDirections, 5, "eventId")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "Web", got[0]["title"])
}

func TestNextIDSpansFixturesAndStored(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	st.SetFixtures(map[string][]Doc{
		BucketUsers: {{"id": float64(7), "email": "a@b"}},
	})

	next, err := st.NextID(ctx, BucketUsers)
	require.NoError(t, err)
	require.Equal(t, int64(8), next)

	require.NoError(t, st.Put(ctx, BucketUsers, 30, 0, Doc{"id": float64(30)}))
	next, err = st.NextID(ctx, BucketUsers)
	require.NoError(t, err)
	require.Equal(t, int64(31), next)
}

func TestKV(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	_, ok, err := st.GetKV(ctx, CurrentUserKey)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.SetKV(ctx, CurrentUserKey, `{"id":1}`))
	val, ok, err := st.GetKV(ctx, CurrentUserKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":1}`, val)

	require.NoError(t, st.DeleteKV(ctx, CurrentUserKey))
	_, ok, err = st.GetKV(ctx, CurrentUserKey)
	require.NoError(t, err)
	require.False(t, ok)
}
