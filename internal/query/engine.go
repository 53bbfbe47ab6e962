package query

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"queryjam/internal/datastore"
)

// Result is the engine's outcome. Failures are values, not errors: callers
// branch on Success, and a failed run still reports the time spent so far.
type Result struct {
	Success       bool             `json:"success"`
	Data          []map[string]any `json:"data"`
	Count         int64            `json:"count"`
	Limited       bool             `json:"limited"`
	ExecutionTime int64            `json:"execution_time"`
	Error         string           `json:"error,omitempty"`
}

// Engine runs structured requests against a dataset's backing collection.
type Engine struct {
	db    *sql.DB
	store *datastore.Store
}

// NewEngine builds an engine over the entity database and document store.
func NewEngine(db *sql.DB, store *datastore.Store) *Engine {
	return &Engine{db: db, store: store}
}

// Execute resolves the dataset and runs the request: a limit+1 fetch to
// detect truncation without a second scan, then an independent filter-only
// count that pagination can rely on even when the page is truncated.
// Adapter failures come back as failed Results, never as panics.
func (e *Engine) Execute(ctx context.Context, datasetID int64, req Request) Result {
	var collection string
	err := e.db.QueryRowContext(ctx,
		`SELECT collection_name FROM datasets WHERE id = ?`, datasetID,
	).Scan(&collection)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return failure("dataset not found", 0)
		}
		return failure("resolve dataset: "+err.Error(), 0)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := time.Now()
	docs, err := e.store.Find(ctx, collection, datastore.FindOptions{
		Filter:     req.Filter,
		Projection: req.Projection,
		Sort:       req.Sort,
		Skip:       req.Skip,
		Limit:      limit + 1,
	})
	if err != nil {
		return failure(err.Error(), elapsedMs(start))
	}

	limited := len(docs) > limit
	if limited {
		docs = docs[:limit]
	}

	count, err := e.store.Count(ctx, collection, req.Filter)
	if err != nil {
		return failure(err.Error(), elapsedMs(start))
	}

	elapsed := elapsedMs(start)
	log.Printf("query on %s returned %d/%d rows in %dms", collection, len(docs), count, elapsed)

	return Result{
		Success:       true,
		Data:          docs,
		Count:         count,
		Limited:       limited,
		ExecutionTime: elapsed,
	}
}

func failure(msg string, elapsed int64) Result {
	return Result{
		Success:       false,
		Data:          []map[string]any{},
		Error:         msg,
		ExecutionTime: elapsed,
	}
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
