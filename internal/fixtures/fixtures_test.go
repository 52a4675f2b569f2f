package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ric-center/planner/internal/store"
)

func TestLoadReadsBucketsFromFilenames(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "events.yaml", `
- id: 1
  title: "ПШ 2025"
  endDate: "2025-12-31"
- id: 2
  title: "ПШ 2024"
`)
	write(t, dir, "users.yml", `
- id: 1
  email: org@b.ru
  role: organizer
`)
	write(t, dir, "notes.txt", "ignored")

	got, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got["events"], 2)
	require.Len(t, got["users"], 1)

	require.Equal(t, int64(1), store.DocID(got["events"][0], "id"))
	require.Equal(t, "ПШ 2025", got["events"][0]["title"])
}

func TestLoadMissingDirIsEmpty(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestLoadSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "events.yaml", `- id: 1`)
	write(t, dir, "broken.yaml", `{{{not yaml`)
	write(t, dir, "noid.yaml", `
- title: "без id"
`)

	got, err := Load(dir)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Contains(t, got, "events")
}

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
