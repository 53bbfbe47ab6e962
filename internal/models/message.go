package models

import "time"

// MessageType distinguishes ordinary chat from query comments and system
// notices.
type MessageType string

const (
	MessageText         MessageType = "text"
	MessageQueryComment MessageType = "query-comment"
	MessageSystem       MessageType = "system"
)

// Message is one chat entry inside a session.
type Message struct {
	ID             int64       `json:"id"`
	SessionID      int64       `json:"session_id"`
	UserID         int64       `json:"user_id"`
	Username       string      `json:"username,omitempty"`
	Content        string      `json:"content"`
	Type           MessageType `json:"type"`
	RelatedQueryID int64       `json:"related_query_id,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}
