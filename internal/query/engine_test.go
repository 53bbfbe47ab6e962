package query

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"queryjam/internal/config"
	"queryjam/internal/datastore"
	"queryjam/internal/storage"
)

func openTestEngine(t *testing.T) (*Engine, *sql.DB, *datastore.Store) {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store := datastore.New(db, "sqlite3")
	return NewEngine(db, store), db, store
}

func seedDataset(t *testing.T, db *sql.DB, store *datastore.Store, rows int) int64 {
	t.Helper()
	ctx := context.Background()
	collection := fmt.Sprintf("testdata_%d", time.Now().UnixNano())
	if err := store.CreateCollection(ctx, collection); err != nil {
		t.Fatalf("create collection: %v", err)
	}
	docs := make([]map[string]any, rows)
	for i := range docs {
		docs[i] = map[string]any{"n": float64(i + 1)}
	}
	if err := store.InsertDocs(ctx, collection, docs); err != nil {
		t.Fatalf("insert docs: %v", err)
	}
	owner, err := db.Exec(`INSERT INTO users (username, password_hash, created_at) VALUES (?, '', ?)`,
		collection, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert owner: %v", err)
	}
	ownerID, err := owner.LastInsertId()
	if err != nil {
		t.Fatalf("owner id: %v", err)
	}
	res, err := db.Exec(
		`INSERT INTO datasets (name, owner_id, collection_name, columns_json, row_count, created_at)
		 VALUES ('test', ?, ?, '[]', ?, ?)`,
		ownerID, collection, rows, time.Now().UTC())
	if err != nil {
		t.Fatalf("insert dataset: %v", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		t.Fatalf("dataset id: %v", err)
	}
	return id
}

func TestExecuteTruncatesAtLimitAndCountsAll(t *testing.T) {
	engine, db, store := openTestEngine(t)
	datasetID := seedDataset(t, db, store, 8)

	result := engine.Execute(context.Background(), datasetID, Request{Limit: 5})
	if !result.Success {
		t.Fatalf("execute failed: %s", result.Error)
	}
	if len(result.Data) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(result.Data))
	}
	if !result.Limited {
		t.Fatal("expected limited to be true")
	}
	if result.Count != 8 {
		t.Fatalf("expected count 8 independent of limit, got %d", result.Count)
	}
}

func TestExecuteExactLimitIsNotLimited(t *testing.T) {
	engine, db, store := openTestEngine(t)
	datasetID := seedDataset(t, db, store, 5)

	result := engine.Execute(context.Background(), datasetID, Request{Limit: 5})
	if !result.Success {
		t.Fatalf("execute failed: %s", result.Error)
	}
	if len(result.Data) != 5 || result.Limited {
		t.Fatalf("expected all 5 rows unlimited, got %d rows limited=%v", len(result.Data), result.Limited)
	}
}

func TestExecuteCountRespectsFilter(t *testing.T) {
	engine, db, store := openTestEngine(t)
	datasetID := seedDataset(t, db, store, 10)

	result := engine.Execute(context.Background(), datasetID, Request{
		Filter: map[string]any{"n": map[string]any{"$gt": float64(7)}},
		Limit:  2,
	})
	if !result.Success {
		t.Fatalf("execute failed: %s", result.Error)
	}
	if len(result.Data) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Data))
	}
	if !result.Limited {
		t.Fatal("3 matches with limit 2 should be limited")
	}
	if result.Count != 3 {
		t.Fatalf("expected filtered count 3, got %d", result.Count)
	}
}

func TestExecuteCountRespectsFilterWhenTruncated(t *testing.T) {
	engine, db, store := openTestEngine(t)
	datasetID := seedDataset(t, db, store, 10)

	result := engine.Execute(context.Background(), datasetID, Request{
		Filter: map[string]any{"n": map[string]any{"$gt": float64(4)}},
		Limit:  3,
	})
	if !result.Success {
		t.Fatalf("execute failed: %s", result.Error)
	}
	if len(result.Data) != 3 || !result.Limited {
		t.Fatalf("expected 3 truncated rows, got %d limited=%v", len(result.Data), result.Limited)
	}
	if result.Count != 6 {
		t.Fatalf("expected count 6, got %d", result.Count)
	}
}

func TestExecuteEmptyMatchReturnsEmptySlice(t *testing.T) {
	engine, db, store := openTestEngine(t)
	datasetID := seedDataset(t, db, store, 3)

	result := engine.Execute(context.Background(), datasetID, Request{
		Filter: map[string]any{"n": map[string]any{"$gt": float64(100)}},
	})
	if !result.Success {
		t.Fatalf("execute failed: %s", result.Error)
	}
	if result.Data == nil {
		t.Fatal("expected non-nil empty data")
	}
	if len(result.Data) != 0 || result.Count != 0 || result.Limited {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestExecuteUnknownDataset(t *testing.T) {
	engine, _, _ := openTestEngine(t)

	result := engine.Execute(context.Background(), 9999, Request{})
	if result.Success {
		t.Fatal("expected failure for unknown dataset")
	}
	if result.Error == "" {
		t.Fatal("expected error message")
	}
}

func TestExecuteBadFilterFailsAsResult(t *testing.T) {
	engine, db, store := openTestEngine(t)
	datasetID := seedDataset(t, db, store, 3)

	result := engine.Execute(context.Background(), datasetID, Request{
		Filter: map[string]any{"n": map[string]any{"$bogus": float64(1)}},
	})
	if result.Success {
		t.Fatal("expected failure for unsupported operator")
	}
	if result.Error == "" {
		t.Fatal("expected error message")
	}
}
