package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeStatus(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		endDate string
		want    string
	}{
		{"future end date", "2025-12-31", EventActive},
		{"past end date", "2025-01-01", EventInactive},
		{"ends today counts as active", "2025-06-15", EventActive},
		{"rfc3339 in the future", "2025-06-15T18:00:00Z", EventActive},
		{"rfc3339 in the past", "2025-06-15T09:00:00Z", EventInactive},
		{"empty", "", EventInactive},
		{"garbage", "not-a-date", EventInactive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComputeStatus(tt.endDate, now))
		})
	}
}

func TestParseDateBareDateIsEndOfDay(t *testing.T) {
	got, err := ParseDate("2025-06-15")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC), got)
}

func TestDisplayName(t *testing.T) {
	require.Equal(t, "Иванов Иван", User{Name: "Иван", Surname: "Иванов"}.DisplayName())
	require.Equal(t, "Иванов", User{Surname: "Иванов"}.DisplayName())
	require.Equal(t, "", User{}.DisplayName())
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		role    string
		crmRole string
		staff   bool
		want    string
	}{
		{"explicit organizer wins", RoleOrganizer, "project", false, RoleOrganizer},
		{"explicit student wins", RoleStudent, "admin", true, RoleStudent},
		{"crm project member", "", "Project Member", false, RoleStudent},
		{"crm curator", "", "Senior Curator", false, RoleOrganizer},
		{"crm admin", "", "Admin", false, RoleOrganizer},
		{"staff flag fallback", "", "", true, RoleOrganizer},
		{"default student", "", "", false, RoleStudent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ParseRole(tt.role, tt.crmRole, tt.staff))
		})
	}
}

func TestPlaceholderIDs(t *testing.T) {
	// Millisecond-epoch scratch ids collapse to pending, persisted ids stay
	require.True(t, IsPlaceholderID(1700000000000))
	require.False(t, IsPlaceholderID(42))

	require.Equal(t, int64(0), CanonicalID(1700000000000))
	require.Equal(t, int64(42), CanonicalID(42))
	require.Equal(t, int64(0), CanonicalID(0))
}

func TestValidApplicationStatus(t *testing.T) {
	for _, s := range ApplicationStatuses {
		require.True(t, ValidApplicationStatus(s), s)
	}
	require.False(t, ValidApplicationStatus("В работе"))
	require.False(t, ValidApplicationStatus(""))
	require.Len(t, ApplicationStatuses, 10)
}
