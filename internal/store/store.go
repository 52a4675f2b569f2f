// Package store is the local persistence layer used in local mode: an
// embedded sqlite database holding JSON documents in namespaced buckets,
// overlaid on read over fixture data loaded at startup. It fills the role
// the browser build gave to localStorage, with the same merge semantics.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Bucket names, one per entity kind.
const (
	BucketEvents         = "events"
	BucketDirections     = "directions"
	BucketProjects       = "projects"
	BucketUsers          = "users"
	BucketProfiles       = "profiles"
	BucketApplications   = "applications"
	BucketSpecialization = "specializations"
)

// CurrentUserKey is the kv key holding the active session's user record.
const CurrentUserKey = "currentUser"

// ErrNotFound is returned when a record does not exist in either the
// stored set or the fixtures.
var ErrNotFound = errors.New("store: record not found")

// Doc is a stored JSON document. Every doc carries a numeric "id".
type Doc = map[string]any

const schema = `
CREATE TABLE IF NOT EXISTS records (
	bucket TEXT    NOT NULL,
	id     INTEGER NOT NULL,
	scope  INTEGER NOT NULL DEFAULT 0,
	doc    TEXT    NOT NULL,
	PRIMARY KEY (bucket, id)
);
CREATE INDEX IF NOT EXISTS idx_records_scope ON records (bucket, scope);

CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store is a bucketed JSON document store. Reads merge fixture documents
// with stored overrides by id: a stored doc with a fixture's id shallow-
// merges over it, new ids are appended after the fixture set.
type Store struct {
	db *sql.DB

	mu       sync.RWMutex
	fixtures map[string][]Doc
}

// Open opens (creating if needed) the sqlite database at path and
// initializes the schema. Use ":memory:" for an ephemeral store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %s: %w", path, err)
	}
	// Single writer: the store is read-modify-write from one process.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &Store{db: db, fixtures: make(map[string][]Doc)}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// SetFixtures installs the seed data the stored records are merged over.
func (s *Store) SetFixtures(fixtures map[string][]Doc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixtures = fixtures
}

// List returns all documents of a bucket: fixtures in their seed order,
// each shallow-merged with its stored override if one exists, followed by
// stored documents with ids the fixtures do not know.
func (s *Store) List(ctx context.Context, bucket string) ([]Doc, error) {
	stored, err := s.queryDocs(ctx,
		`SELECT doc FROM records WHERE bucket = ? ORDER BY rowid`, bucket)
	if err != nil {
		return nil, err
	}
	return s.merge(bucket, stored, nil), nil
}

// ListScope returns the documents of a bucket whose scope column (the
// owning foreign key) matches. Fixture docs are matched on their own
// foreign-key field via match.
func (s *Store) ListScope(ctx context.Context, bucket string, scope int64, fk string) ([]Doc, error) {
	stored, err := s.queryDocs(ctx,
		`SELECT doc FROM records WHERE bucket = ? AND scope = ? ORDER BY rowid`, bucket, scope)
	if err != nil {
		return nil, err
	}
	match := func(d Doc) bool { return DocID(d, fk) == scope }
	return s.merge(bucket, stored, match), nil
}

// Get returns one document by id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, bucket string, id int64) (Doc, error) {
	docs, err := s.List(ctx, bucket)
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if DocID(d, "id") == id {
			return d, nil
		}
	}
	return nil, ErrNotFound
}

// Put writes a document under (bucket, id), replacing any previous row.
func (s *Store) Put(ctx context.Context, bucket string, id, scope int64, doc Doc) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal doc: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO records (bucket, id, scope, doc) VALUES (?, ?, ?, ?)
		 ON CONFLICT (bucket, id) DO UPDATE SET scope = excluded.scope, doc = excluded.doc`,
		bucket, id, scope, string(raw))
	if err != nil {
		return fmt.Errorf("put %s/%d: %w", bucket, id, err)
	}
	return nil
}

// Delete removes a stored document. Deleting a fixture-only id records a
// tombstone so the fixture stops appearing in reads.
func (s *Store) Delete(ctx context.Context, bucket string, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE bucket = ? AND id = ?`, bucket, id); err != nil {
		return fmt.Errorf("delete %s/%d: %w", bucket, id, err)
	}
	if s.hasFixture(bucket, id) {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO kv (key, value) VALUES (?, '1')`,
			tombstoneKey(bucket, id)); err != nil {
			return fmt.Errorf("tombstone %s/%d: %w", bucket, id, err)
		}
	}
	return tx.Commit()
}

// ReplaceScope drops every stored document of the scope and writes the
// given list in its place, stamping each with the owning foreign key.
// The write is transactional: readers never observe a partial state.
func (s *Store) ReplaceScope(ctx context.Context, bucket string, scope int64, fk string, docs []Doc) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM records WHERE bucket = ? AND scope = ?`, bucket, scope); err != nil {
		return fmt.Errorf("clear scope %s/%d: %w", bucket, scope, err)
	}
	for _, d := range docs {
		d[fk] = scope
		raw, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("marshal doc: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO records (bucket, id, scope, doc) VALUES (?, ?, ?, ?)
			 ON CONFLICT (bucket, id) DO UPDATE SET scope = excluded.scope, doc = excluded.doc`,
			bucket, DocID(d, "id"), scope, string(raw)); err != nil {
			return fmt.Errorf("write %s doc: %w", bucket, err)
		}
	}
	return tx.Commit()
}

// NextID returns max(existing ids)+1 across stored and fixture documents.
func (s *Store) NextID(ctx context.Context, bucket string) (int64, error) {
	var max sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(id) FROM records WHERE bucket = ?`, bucket).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", bucket, err)
	}
	next := max.Int64
	s.mu.RLock()
	for _, d := range s.fixtures[bucket] {
		if id := DocID(d, "id"); id > next {
			next = id
		}
	}
	s.mu.RUnlock()
	return next + 1, nil
}

// TimeID returns a time-based identifier for interactively created
// records, mirroring the ids old local data was written with.
func TimeID() int64 {
	return time.Now().UnixMilli()
}

// GetKV reads a kv entry; ok is false when the key is absent.
func (s *Store) GetKV(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get kv %s: %w", key, err)
	}
	return value, true, nil
}

// SetKV writes a kv entry.
func (s *Store) SetKV(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return fmt.Errorf("set kv %s: %w", key, err)
	}
	return nil
}

// DeleteKV removes a kv entry.
func (s *Store) DeleteKV(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete kv %s: %w", key, err)
	}
	return nil
}

// merge overlays stored docs on the fixture set: overrides shallow-merge
// over fixtures by id, new ids append in write order. Tombstoned fixtures
// are skipped. match filters fixture docs (nil accepts all).
func (s *Store) merge(bucket string, stored []Doc, match func(Doc) bool) []Doc {
	byID := make(map[int64]Doc, len(stored))
	for _, d := range stored {
		byID[DocID(d, "id")] = d
	}

	s.mu.RLock()
	fixtures := s.fixtures[bucket]
	s.mu.RUnlock()

	out := make([]Doc, 0, len(fixtures)+len(stored))
	seen := make(map[int64]bool, len(fixtures))
	for _, f := range fixtures {
		id := DocID(f, "id")
		if match != nil && !match(f) {
			if _, overridden := byID[id]; !overridden {
				continue
			}
		}
		if s.tombstoned(bucket, id) {
			seen[id] = true
			continue
		}
		if override, ok := byID[id]; ok {
			out = append(out, mergeDoc(f, override))
		} else {
			out = append(out, copyDoc(f))
		}
		seen[id] = true
	}
	for _, d := range stored {
		if !seen[DocID(d, "id")] {
			out = append(out, copyDoc(d))
		}
	}
	return out
}

func (s *Store) queryDocs(ctx context.Context, query string, args ...any) ([]Doc, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query docs: %w", err)
	}
	defer rows.Close()

	var docs []Doc
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d Doc
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("decode stored doc: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) hasFixture(bucket string, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.fixtures[bucket] {
		if DocID(d, "id") == id {
			return true
		}
	}
	return false
}

func (s *Store) tombstoned(bucket string, id int64) bool {
	_, ok, _ := s.GetKV(context.Background(), tombstoneKey(bucket, id))
	return ok
}

func tombstoneKey(bucket string, id int64) string {
	return fmt.Sprintf("tombstone:%s:%d", bucket, id)
}

// DocID reads a numeric field from a document, tolerating the number
// representations JSON and YAML decoding produce.
func DocID(d Doc, key string) int64 {
	switch v := d[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

func mergeDoc(base, override Doc) Doc {
	out := copyDoc(base)
	for k, v := range override {
		out[k] = v
	}
	return out
}

func copyDoc(d Doc) Doc {
	out := make(Doc, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
