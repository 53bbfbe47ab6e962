package models

import "time"

// Role is a member's privilege level inside a session.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
	// RoleNone is the sentinel returned for users with no member entry.
	RoleNone Role = "none"
)

// Member is one user's membership record inside a session.
type Member struct {
	UserID   int64     `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Role     Role      `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Session is a shared workspace: one owner, a member set, and an optional
// active dataset. The owner holds full rights without a member entry and the
// member list conceptually excludes the owner, so every privilege check below
// tests IsOwner and the member role as two distinct conditions.
type Session struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	OwnerID         int64     `json:"owner_id"`
	Members         []Member  `json:"members"`
	IsPublic        bool      `json:"is_public"`
	AccessCode      string    `json:"access_code,omitempty"`
	ActiveDatasetID int64     `json:"active_dataset_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// IsOwner reports whether userID is the session owner.
func (s *Session) IsOwner(userID int64) bool {
	return userID > 0 && s.OwnerID == userID
}

// IsMember reports whether userID has a member entry. The owner is not
// automatically a member; access checks must also consult IsOwner.
func (s *Session) IsMember(userID int64) bool {
	for _, m := range s.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// RoleOf returns the member's role, or RoleNone when absent. Ownership is
// deliberately ignored here.
func (s *Session) RoleOf(userID int64) Role {
	for _, m := range s.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return RoleNone
}

// CanEdit reports whether userID may run queries and change session content:
// the owner always can, members can when their role is owner or editor.
func (s *Session) CanEdit(userID int64) bool {
	if userID <= 0 {
		return false
	}
	if s.IsOwner(userID) {
		return true
	}
	switch s.RoleOf(userID) {
	case RoleOwner, RoleEditor:
		return true
	}
	return false
}
