// Package fixtures loads the seed data local mode starts from. Each YAML
// file in the fixtures directory holds the documents of one bucket, named
// after the file: events.yaml, users.yaml, and so on.
package fixtures

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ric-center/planner/internal/store"
)

// Load reads all fixture files from dir. Files that fail to parse are
// skipped with a warning; a missing directory yields an empty set.
func Load(dir string) (map[string][]store.Doc, error) {
	out := make(map[string][]store.Doc)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("fixtures directory missing, starting empty", "dir", dir)
			return out, nil
		}
		return nil, fmt.Errorf("read fixtures dir: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || (!strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml")) {
			continue
		}
		bucket := strings.TrimSuffix(strings.TrimSuffix(name, ".yaml"), ".yml")
		docs, err := loadFile(filepath.Join(dir, name))
		if err != nil {
			slog.Warn("failed to load fixture file", "file", name, "error", err)
			continue
		}
		out[bucket] = docs
		loaded++
	}

	slog.Info("fixtures loaded", "dir", dir, "files", loaded)
	return out, nil
}

func loadFile(path string) ([]store.Doc, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := yaml.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	docs := make([]store.Doc, 0, len(items))
	for i, item := range items {
		doc := store.Doc(item)
		if store.DocID(doc, "id") == 0 {
			return nil, fmt.Errorf("document %d has no id", i)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
