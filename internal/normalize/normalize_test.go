package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyRenamesAndCoercions(t *testing.T) {
	in := map[string]any{
		"name":   "ПШ 2025",
		"leader": float64(5),
		"event":  "12",
		"status": map[string]any{"name": "Open"},
	}

	got, ok := Apply(in).(map[string]any)
	require.True(t, ok)

	require.Equal(t, "ПШ 2025", got["title"])
	require.NotContains(t, got, "name")
	require.Equal(t, float64(5), got["organizer"])
	require.NotContains(t, got, "leader")
	require.Equal(t, float64(12), got["eventId"])
	require.NotContains(t, got, "event")
	require.Equal(t, "Open", got["status"])
}

func TestApplyIsIdempotent(t *testing.T) {
	in := map[string]any{
		"name":         "Направление",
		"end_app_date": "2025-09-01",
		"direction":    "3",
		"project":      float64(7),
		"user":         float64(11),
		"message":      "хочу участвовать",
		"date_sub":     "2025-08-01",
		"status":       map[string]any{"name": "Прислал заявку"},
	}

	once := Apply(in)
	twice := Apply(once)
	require.Equal(t, once, twice)
}

func TestApplySnakeCaseKeys(t *testing.T) {
	got := Apply(map[string]any{
		"start_date":   "2025-01-01",
		"end_app_date": "2025-02-01",
		"chat_link":    "https://t.me/x",
	}).(map[string]any)

	require.Equal(t, "2025-01-01", got["startDate"])
	require.Equal(t, "2025-02-01", got["applyDeadline"])
	require.Equal(t, "https://t.me/x", got["chatLink"])
}

func TestApplyKeepsQuizName(t *testing.T) {
	// Objects with questionCount are quiz payloads; their name survives
	got := Apply(map[string]any{
		"name":           "Входное тестирование",
		"question_count": float64(20),
	}).(map[string]any)

	require.Equal(t, "Входное тестирование", got["name"])
	require.NotContains(t, got, "title")
}

func TestApplyExposesRetainedForeignKeys(t *testing.T) {
	got := Apply(map[string]any{
		"project": "7",
		"user":    float64(11),
	}).(map[string]any)

	// project and user stay, mirrored under the id names
	require.Equal(t, "7", got["project"])
	require.Equal(t, float64(7), got["projectId"])
	require.Equal(t, float64(11), got["user"])
	require.Equal(t, float64(11), got["ownerId"])
}

func TestApplyNestedArrays(t *testing.T) {
	got := Apply([]any{
		map[string]any{"name": "A", "leader": "1"},
		map[string]any{"name": "B", "leader": "2"},
	}).([]any)

	first := got[0].(map[string]any)
	require.Equal(t, "A", first["title"])
	require.Equal(t, float64(1), first["organizer"])
}

func TestApplyNestedStatusIsFlattenedBeforeRecursion(t *testing.T) {
	// The inner status object's "name" must become the status value, not a
	// renamed "title" inside a still-nested object
	got := Apply(map[string]any{
		"applications": []any{
			map[string]any{
				"id":     float64(1),
				"status": map[string]any{"id": float64(2), "name": "Прислал заявку"},
			},
		},
	}).(map[string]any)

	apps := got["applications"].([]any)
	app := apps[0].(map[string]any)
	require.Equal(t, "Прислал заявку", app["status"])
}

func TestApplyNonASCIISnakeKeys(t *testing.T) {
	in := map[string]any{"дата_окончания": "2025-01-01"}

	got, ok := Apply(in).(map[string]any)
	require.True(t, ok)
	require.Equal(t, "2025-01-01", got["датаОкончания"])
	require.NotContains(t, got, "дата_окончания")
}

func TestApplyCuratorCoercedInPlace(t *testing.T) {
	got := Apply(map[string]any{"curator": "15"}).(map[string]any)
	require.Equal(t, float64(15), got["curator"])

	got = Apply(map[string]any{"curator": "Петров Пётр"}).(map[string]any)
	require.Equal(t, "Петров Пётр", got["curator"])
}
