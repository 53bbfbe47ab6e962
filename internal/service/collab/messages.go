package collab

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"queryjam/internal/models"
)

const maxMessageLength = 2000

// SendMessage stores a chat message in a session. Owner or member only; a
// query-comment message may reference the query it discusses.
func (s *Service) SendMessage(ctx context.Context, userID, sessionID int64, content string, msgType models.MessageType, relatedQueryID int64) (*models.Message, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !canView(session, userID) {
		return nil, ErrAccessDenied
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("message content is required")
	}
	if len(content) > maxMessageLength {
		return nil, fmt.Errorf("message exceeds %d characters", maxMessageLength)
	}
	if msgType == "" {
		msgType = models.MessageText
	}

	now := time.Now().UTC()
	var relatedVal any
	if relatedQueryID > 0 {
		relatedVal = relatedQueryID
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (session_id, user_id, content, type, related_query_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, userID, content, msgType, relatedVal, now)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("message id: %w", err)
	}

	var username string
	_ = s.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, userID).Scan(&username)

	return &models.Message{
		ID:             id,
		SessionID:      sessionID,
		UserID:         userID,
		Username:       username,
		Content:        content,
		Type:           msgType,
		RelatedQueryID: relatedQueryID,
		CreatedAt:      now,
	}, nil
}

// RecentMessages returns up to limit messages in chronological order. The
// newest rows are selected first and then reversed so clients render oldest
// to newest.
func (s *Service) RecentMessages(ctx context.Context, userID, sessionID int64, limit int) ([]models.Message, error) {
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
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.session_id, m.user_id, u.username, m.content, m.type, m.related_query_id, m.created_at
		 FROM messages m JOIN users u ON u.id = m.user_id
		 WHERE m.session_id = ?
		 ORDER BY m.created_at DESC, m.id DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var (
			m       models.Message
			related sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.SessionID, &m.UserID, &m.Username, &m.Content, &m.Type,
			&related, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.RelatedQueryID = related.Int64
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
