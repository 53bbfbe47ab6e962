package collab

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"queryjam/internal/hub"
	"queryjam/internal/models"
)

// CreateSession inserts a new session owned by ownerID. The owner gets no
// member row: ownership alone grants full rights, and every access check
// tests IsOwner before consulting the member set. An access code is minted
// up front so others can join immediately.
func (s *Service) CreateSession(ctx context.Context, ownerID int64, name, description string, isPublic bool) (*models.Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("session name is required")
	}
	if ownerID <= 0 {
		return nil, errors.New("owner id is required")
	}

	code, err := generateAccessCode()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (name, description, owner_id, is_public, access_code, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		name, description, ownerID, isPublic, code, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("session id: %w", err)
	}
	return &models.Session{
		ID:          id,
		Name:        name,
		Description: description,
		OwnerID:     ownerID,
		Members:     []models.Member{},
		IsPublic:    isPublic,
		AccessCode:  code,
		CreatedAt:   now,
	}, nil
}

// GetSession loads one session with its member list.
func (s *Service) GetSession(ctx context.Context, sessionID int64) (*models.Session, error) {
	var (
		session       models.Session
		accessCode    sql.NullString
		activeDataset sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id, is_public, access_code, active_dataset_id, created_at
		 FROM sessions WHERE id = ?`, sessionID,
	).Scan(&session.ID, &session.Name, &session.Description, &session.OwnerID,
		&session.IsPublic, &accessCode, &activeDataset, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	session.AccessCode = accessCode.String
	session.ActiveDatasetID = activeDataset.Int64

	members, err := s.loadMembers(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	session.Members = members
	return &session, nil
}

func (s *Service) loadMembers(ctx context.Context, sessionID int64) ([]models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT m.user_id, u.username, m.role, m.joined_at
		 FROM session_members m JOIN users u ON u.id = m.user_id
		 WHERE m.session_id = ? ORDER BY m.joined_at ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Username, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListSessions returns sessions the user owns or is a member of, newest
// first.
func (s *Service) ListSessions(ctx context.Context, userID int64) ([]models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT s.id, s.name, s.description, s.owner_id, s.is_public, s.created_at
		 FROM sessions s LEFT JOIN session_members m ON m.session_id = s.id
		 WHERE s.owner_id = ? OR m.user_id = ?
		 ORDER BY s.created_at DESC`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		var se models.Session
		if err := rows.Scan(&se.ID, &se.Name, &se.Description, &se.OwnerID, &se.IsPublic, &se.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, se)
	}
	return sessions, rows.Err()
}

// ViewSession loads a session on behalf of userID, enforcing access. A
// non-member viewing a public session is added as a viewer; the owner check
// runs first so an owner never gains a member row in their own session.
func (s *Service) ViewSession(ctx context.Context, userID, sessionID int64) (*models.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsOwner(userID) || session.IsMember(userID) {
		return session, nil
	}
	if !session.IsPublic {
		return nil, ErrForbidden
	}
	if err := s.AddMember(ctx, sessionID, userID, models.RoleViewer); err != nil {
		return nil, err
	}
	return s.GetSession(ctx, sessionID)
}

// UpdateSession lets the owner change name, description and visibility.
func (s *Service) UpdateSession(ctx context.Context, userID, sessionID int64, name, description *string, isPublic *bool) (*models.Session, error) {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsOwner(userID) {
		return nil, ErrForbidden
	}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return nil, errors.New("session name cannot be empty")
		}
		session.Name = trimmed
	}
	if description != nil {
		session.Description = *description
	}
	if isPublic != nil {
		session.IsPublic = *isPublic
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE sessions SET name = ?, description = ?, is_public = ? WHERE id = ?`,
		session.Name, session.Description, session.IsPublic, sessionID)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	return session, nil
}

// SetActiveDataset marks the dataset the session is currently exploring.
func (s *Service) SetActiveDataset(ctx context.Context, userID, sessionID, datasetID int64) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.CanEdit(userID) {
		return ErrAccessDenied
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET active_dataset_id = ? WHERE id = ?`, datasetID, sessionID); err != nil {
		return fmt.Errorf("set active dataset: %w", err)
	}
	return nil
}

// DeleteSession removes a session with all queries, messages, members, and
// session-scoped datasets (dropping their collections). Owner only.
func (s *Service) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if !session.IsOwner(userID) {
		return ErrForbidden
	}

	datasets, err := s.ListDatasets(ctx, sessionID, 0)
	if err != nil {
		return err
	}
	for _, ds := range datasets {
		if err := s.store.DropCollection(ctx, ds.CollectionName); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	for _, stmt := range []string{
		`DELETE FROM datasets WHERE session_id = ?`,
		`DELETE FROM queries WHERE session_id = ?`,
		`DELETE FROM messages WHERE session_id = ?`,
		`DELETE FROM session_members WHERE session_id = ?`,
		`DELETE FROM sessions WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, stmt, sessionID); err != nil {
			tx.Rollback()
			return fmt.Errorf("delete session: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete session: %w", err)
	}
	return nil
}

// AddMember inserts a member row; adding an existing member is a no-op.
func (s *Service) AddMember(ctx context.Context, sessionID, userID int64, role models.Role) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM session_members WHERE session_id = ? AND user_id = ?)`,
		sessionID, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check member: %w", err)
	}
	if exists {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_members (session_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)`,
		sessionID, userID, role, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

// JoinByCode resolves the session whose access code matches (case-sensitive
// exact match) and adds the user as an editor. Owners and existing members
// are redirected without a new member row; only a genuinely new member
// triggers a member:joined broadcast.
func (s *Service) JoinByCode(ctx context.Context, userID int64, code string) (*models.Session, error) {
	if code == "" {
		return nil, ErrInvalidAccessCode
	}
	var sessionID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM sessions WHERE access_code = ?`, code,
	).Scan(&sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidAccessCode
		}
		return nil, fmt.Errorf("lookup access code: %w", err)
	}

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsOwner(userID) || session.IsMember(userID) {
		return session, nil
	}

	if err := s.AddMember(ctx, sessionID, userID, models.RoleEditor); err != nil {
		return nil, err
	}
	var username string
	_ = s.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = ?`, userID).Scan(&username)

	s.hub.Publish(hub.Event{
		Type:      hub.MemberJoined,
		SessionID: sessionID,
		Payload: map[string]any{
			"member": map[string]any{
				"user_id":  userID,
				"username": username,
				"role":     models.RoleEditor,
			},
		},
	})
	return s.GetSession(ctx, sessionID)
}

// LeaveSession removes the user's member row and broadcasts member:left.
// The owner cannot leave; deleting the session is the only way out.
func (s *Service) LeaveSession(ctx context.Context, userID, sessionID int64) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}
	if session.IsOwner(userID) {
		return ErrOwnerCannotLeave
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_members WHERE session_id = ? AND user_id = ?`,
		sessionID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	s.hub.Publish(hub.Event{
		Type:      hub.MemberLeft,
		SessionID: sessionID,
		Payload:   map[string]any{"user_id": userID},
	})
	return nil
}

// canView is the read-access predicate shared by history, messages, and the
// event stream: the owner or any member.
func canView(session *models.Session, userID int64) bool {
	return session.IsOwner(userID) || session.IsMember(userID)
}

func generateAccessCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate access code: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
