package models

import "time"

// QueryStatus is the lifecycle state of a submitted query.
type QueryStatus string

const (
	QueryRunning QueryStatus = "running"
	QuerySuccess QueryStatus = "success"
	QueryError   QueryStatus = "error"
)

// QueryResults is the bounded result payload stored once a query reaches a
// terminal state.
type QueryResults struct {
	Data    []map[string]any `json:"data"`
	Count   int64            `json:"count"`
	Limited bool             `json:"limited"`
}

// Query is one submitted query and its outcome. A record is created in
// running state and written to exactly one terminal state (success or error),
// never re-opened.
type Query struct {
	ID            int64         `json:"id"`
	SessionID     int64         `json:"session_id"`
	UserID        int64         `json:"user_id"`
	DatasetID     int64         `json:"dataset_id,omitempty"`
	QueryText     string        `json:"query_text"`
	QueryType     string        `json:"query_type"`
	Status        QueryStatus   `json:"status"`
	Results       *QueryResults `json:"results,omitempty"`
	ExecutionTime int64         `json:"execution_time"`
	ErrorMessage  string        `json:"error_message,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
