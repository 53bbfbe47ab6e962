package collab

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"queryjam/internal/hub"
	"queryjam/internal/models"
	"queryjam/internal/query"
)

// SubmitQuery runs the full query lifecycle: persist a running record,
// broadcast query:update, execute, write the single terminal state, and
// broadcast query:result. A query text that fails validation is rejected
// before any record exists; a text that validates but fails to parse or
// execute still produces a record, in error state. Broadcasts carry
// summaries only, never result rows.
func (s *Service) SubmitQuery(ctx context.Context, userID, sessionID, datasetID int64, text string) (*models.Query, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.CanEdit(userID) {
		return nil, ErrAccessDenied
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}
	if err := query.ValidateText(text); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if datasetID <= 0 {
		datasetID = session.ActiveDatasetID
	}
	if datasetID <= 0 {
		return nil, ErrDatasetNotFound
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO queries (session_id, user_id, dataset_id, query_text, query_type, status, created_at)
		 VALUES (?, ?, ?, ?, 'document', ?, ?)`,
		sessionID, userID, datasetID, text, models.QueryRunning, now)
	if err != nil {
		return nil, fmt.Errorf("insert query: %w", err)
	}
	queryID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("query id: %w", err)
	}

	s.hub.Publish(hub.Event{
		Type:      hub.QueryUpdate,
		SessionID: sessionID,
		Payload: map[string]any{
			"query_id":   queryID,
			"user_id":    userID,
			"dataset_id": datasetID,
			"status":     models.QueryRunning,
			"query_text": text,
		},
	})

	q := &models.Query{
		ID:        queryID,
		SessionID: sessionID,
		UserID:    userID,
		DatasetID: datasetID,
		QueryText: text,
		QueryType: "document",
		Status:    models.QueryRunning,
		CreatedAt: now,
	}

	req, err := query.ParseRequest(text, s.defaultLimit)
	var result query.Result
	if err != nil {
		result = query.Result{Error: err.Error()}
	} else {
		result = s.engine.Execute(ctx, datasetID, req)
	}

	if err := s.finishQuery(ctx, q, result); err != nil {
		return nil, err
	}

	s.hub.Publish(hub.Event{
		Type:      hub.QueryResult,
		SessionID: sessionID,
		Payload: map[string]any{
			"query_id":       queryID,
			"user_id":        userID,
			"success":        result.Success,
			"count":          result.Count,
			"limited":        result.Limited,
			"execution_time": result.ExecutionTime,
			"error":          result.Error,
		},
	})
	return q, nil
}

// finishQuery writes the terminal state. This is the only place a query row
// is updated; running is never written back.
func (s *Service) finishQuery(ctx context.Context, q *models.Query, result query.Result) error {
	if result.Success {
		q.Status = models.QuerySuccess
		q.Results = &models.QueryResults{
			Data:    result.Data,
			Count:   result.Count,
			Limited: result.Limited,
		}
		q.ExecutionTime = result.ExecutionTime
		resultsJSON, err := json.Marshal(q.Results)
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		_, err = s.db.ExecContext(ctx,
			`UPDATE queries SET status = ?, results_json = ?, execution_time = ? WHERE id = ?`,
			q.Status, string(resultsJSON), q.ExecutionTime, q.ID)
		if err != nil {
			return fmt.Errorf("finish query: %w", err)
		}
		return nil
	}

	q.Status = models.QueryError
	q.ErrorMessage = result.Error
	q.ExecutionTime = result.ExecutionTime
	_, err := s.db.ExecContext(ctx,
		`UPDATE queries SET status = ?, error_message = ?, execution_time = ? WHERE id = ?`,
		q.Status, q.ErrorMessage, q.ExecutionTime, q.ID)
	if err != nil {
		return fmt.Errorf("finish query: %w", err)
	}
	return nil
}

// QueryHistory returns the session's queries newest first, with stored
// results attached. Owner or member only.
func (s *Service) QueryHistory(ctx context.Context, userID, sessionID int64, limit, offset int) ([]models.Query, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canView(session, userID) {
		return nil, ErrAccessDenied
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, dataset_id, query_text, query_type, status,
		        results_json, execution_time, error_message, created_at
		 FROM queries WHERE session_id = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		sessionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	queries := []models.Query{}
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, err
		}
		queries = append(queries, *q)
	}
	return queries, rows.Err()
}

// GetQuery loads one query, enforcing session read access.
func (s *Service) GetQuery(ctx context.Context, userID, queryID int64) (*models.Query, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, user_id, dataset_id, query_text, query_type, status,
		        results_json, execution_time, error_message, created_at
		 FROM queries WHERE id = ?`, queryID)
	q, err := scanQuery(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQueryNotFound
		}
		return nil, err
	}
	session, err := s.GetSession(ctx, q.SessionID)
	if err != nil {
		return nil, err
	}
	if !canView(session, userID) {
		return nil, ErrAccessDenied
	}
	return q, nil
}

// DeleteQuery removes a query record. Allowed for the user who ran it and
// for the session owner.
func (s *Service) DeleteQuery(ctx context.Context, userID, queryID int64) error {
	var qUserID, qSessionID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, session_id FROM queries WHERE id = ?`, queryID,
	).Scan(&qUserID, &qSessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrQueryNotFound
		}
		return fmt.Errorf("get query: %w", err)
	}
	if qUserID != userID {
		session, err := s.GetSession(ctx, qSessionID)
		if err != nil {
			return err
		}
		if !session.IsOwner(userID) {
			return ErrForbidden
		}
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM queries WHERE id = ?`, queryID); err != nil {
		return fmt.Errorf("delete query: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuery(row rowScanner) (*models.Query, error) {
	var (
		q           models.Query
		datasetID   sql.NullInt64
		resultsJSON sql.NullString
		errMsg      sql.NullString
	)
	err := row.Scan(&q.ID, &q.SessionID, &q.UserID, &datasetID, &q.QueryText, &q.QueryType,
		&q.Status, &resultsJSON, &q.ExecutionTime, &errMsg, &q.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan query: %w", err)
	}
	q.DatasetID = datasetID.Int64
	q.ErrorMessage = errMsg.String
	if resultsJSON.Valid && resultsJSON.String != "" {
		var results models.QueryResults
		if err := json.Unmarshal([]byte(resultsJSON.String), &results); err != nil {
			return nil, fmt.Errorf("decode results: %w", err)
		}
		q.Results = &results
	}
	return &q, nil
}
