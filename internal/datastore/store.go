// Package datastore holds dataset rows as JSON documents, one table per
// collection. Filtering, projection and sorting happen in-process so the
// same Mongo-style request shape works on both sqlite and mysql backends.
package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var collectionNameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// ErrBadCollectionName rejects names that could escape the identifier slot.
var ErrBadCollectionName = errors.New("invalid collection name")

// SortKey is one ordering key; Desc reverses the comparison.
type SortKey struct {
	Field string
	Desc  bool
}

// FindOptions shapes one Find call. All fields are optional; a zero Limit
// means unlimited.
type FindOptions struct {
	Filter     map[string]any
	Projection map[string]any
	Sort       []SortKey
	Skip       int
	Limit      int
}

// Store executes document operations against named collections. The driver
// is needed because collection tables are created at runtime, outside
// storage.Migrate, and the two backends spell their DDL differently.
type Store struct {
	db     *sql.DB
	driver string
}

// New wraps the shared database handle for the given driver.
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: strings.ToLower(driver)}
}

// CreateCollection creates the backing row table (idempotent).
func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if !collectionNameRe.MatchString(name) {
		return ErrBadCollectionName
	}
	stmt, err := createCollectionDDL(s.driver, name)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

func createCollectionDDL(driver, name string) (string, error) {
	switch driver {
	case "sqlite", "sqlite3":
		return fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (id INTEGER PRIMARY KEY AUTOINCREMENT, doc TEXT NOT NULL)`,
			name), nil
	case "mysql":
		return fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (
				id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
				doc MEDIUMTEXT NOT NULL,
				PRIMARY KEY (id)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, name), nil
	default:
		return "", fmt.Errorf("unsupported driver for collections: %s", driver)
	}
}

// DropCollection removes the backing table and all rows.
func (s *Store) DropCollection(ctx context.Context, name string) error {
	if !collectionNameRe.MatchString(name) {
		return ErrBadCollectionName
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, name)); err != nil {
		return fmt.Errorf("drop collection %s: %w", name, err)
	}
	return nil
}

// InsertDocs appends documents to the collection inside one transaction.
func (s *Store) InsertDocs(ctx context.Context, name string, docs []map[string]any) error {
	if !collectionNameRe.MatchString(name) {
		return ErrBadCollectionName
	}
	if len(docs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s (doc) VALUES (?)`, name))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare insert: %w", err)
	}
	for _, doc := range docs {
		payload, err := json.Marshal(doc)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("encode document: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, string(payload)); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("insert document: %w", err)
		}
	}
	stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	return nil
}

// Find returns matching documents in the requested order, after skip, capped
// at limit, with the projection applied.
func (s *Store) Find(ctx context.Context, name string, opts FindOptions) ([]map[string]any, error) {
	docs, err := s.scanMatching(ctx, name, opts.Filter)
	if err != nil {
		return nil, err
	}

	if len(opts.Sort) > 0 {
		sortDocs(docs, opts.Sort)
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(docs) {
			docs = nil
		} else {
			docs = docs[opts.Skip:]
		}
	}
	if opts.Limit > 0 && len(docs) > opts.Limit {
		docs = docs[:opts.Limit]
	}

	if len(opts.Projection) > 0 {
		projected := make([]map[string]any, len(docs))
		for i, doc := range docs {
			projected[i] = applyProjection(doc, opts.Projection)
		}
		docs = projected
	}
	if docs == nil {
		docs = []map[string]any{}
	}
	return docs, nil
}

// Count returns the filter-only match total, ignoring skip and limit.
func (s *Store) Count(ctx context.Context, name string, filter map[string]any) (int64, error) {
	docs, err := s.scanMatching(ctx, name, filter)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (s *Store) scanMatching(ctx context.Context, name string, filter map[string]any) ([]map[string]any, error) {
	if !collectionNameRe.MatchString(name) {
		return nil, ErrBadCollectionName
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT doc FROM %s ORDER BY id`, name))
	if err != nil {
		return nil, fmt.Errorf("scan collection %s: %w", name, err)
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		ok, err := MatchDoc(doc, filter)
		if err != nil {
			return nil, err
		}
		if ok {
			docs = append(docs, doc)
		}
	}
	return docs, rows.Err()
}

func sortDocs(docs []map[string]any, keys []SortKey) {
	sort.SliceStable(docs, func(i, j int) bool {
		for _, key := range keys {
			cmp := compareValues(docs[i][key.Field], docs[j][key.Field])
			if key.Desc {
				cmp = -cmp
			}
			if cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}

// applyProjection keeps the named fields when any projection value is
// truthy (include mode), otherwise strips the named fields (exclude mode).
func applyProjection(doc map[string]any, projection map[string]any) map[string]any {
	include := false
	for _, v := range projection {
		if truthy(v) {
			include = true
			break
		}
	}
	out := make(map[string]any)
	if include {
		for field, v := range projection {
			if !truthy(v) {
				continue
			}
			if val, ok := doc[field]; ok {
				out[field] = val
			}
		}
		return out
	}
	for field, val := range doc {
		if _, excluded := projection[field]; excluded {
			continue
		}
		out[field] = val
	}
	return out
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case int:
		return x != 0
	default:
		return false
	}
}
