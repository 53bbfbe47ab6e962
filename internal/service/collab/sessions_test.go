package collab

import (
	"context"
	"errors"
	"testing"

	"queryjam/internal/config"
	"queryjam/internal/datastore"
	"queryjam/internal/hub"
	"queryjam/internal/models"
	"queryjam/internal/storage"
)

func openTestService(t *testing.T) (*Service, *hub.Hub) {
	t.Helper()
	return openTestServiceWithLimit(t, 0)
}

func openTestServiceWithLimit(t *testing.T, defaultQueryLimit int) (*Service, *hub.Hub) {
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
	bus := hub.New()
	return NewService(db, datastore.New(db, "sqlite3"), bus, defaultQueryLimit), bus
}

func registerTestUser(t *testing.T, svc *Service, username string) int64 {
	t.Helper()
	user, err := svc.RegisterUser(context.Background(), username, "secret")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user.ID
}

func createTestSession(t *testing.T, svc *Service, ownerID int64, isPublic bool) *models.Session {
	t.Helper()
	session, err := svc.CreateSession(context.Background(), ownerID, "exploration", "", isPublic)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return session
}

func TestCreateSessionOwnerGetsNoMemberRow(t *testing.T) {
	svc, _ := openTestService(t)
	owner := registerTestUser(t, svc, "alice")

	session := createTestSession(t, svc, owner, false)
	if session.AccessCode == "" {
		t.Fatal("expected access code at creation")
	}
	if len(session.Members) != 0 {
		t.Fatalf("owner must not appear in the member set, got %+v", session.Members)
	}
	if !session.IsOwner(owner) {
		t.Fatal("IsOwner should hold for the creator")
	}
	if session.IsMember(owner) {
		t.Fatal("IsMember must not hold for the owner")
	}
	if session.RoleOf(owner) != models.RoleNone {
		t.Fatalf("RoleOf owner should be none, got %s", session.RoleOf(owner))
	}
	if !session.CanEdit(owner) {
		t.Fatal("owner must be able to edit")
	}
}

func TestJoinByCodeAddsEditorAndBroadcasts(t *testing.T) {
	svc, bus := openTestService(t)
	owner := registerTestUser(t, svc, "alice")
	guest := registerTestUser(t, svc, "bob")
	session := createTestSession(t, svc, owner, false)

	var events []hub.Event
	bus.Subscribe(hub.MemberJoined, func(ev hub.Event) { events = append(events, ev) })

	joined, err := svc.JoinByCode(context.Background(), guest, session.AccessCode)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.RoleOf(guest) != models.RoleEditor {
		t.Fatalf("expected editor role, got %s", joined.RoleOf(guest))
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 member:joined event, got %d", len(events))
	}
	if events[0].SessionID != session.ID {
		t.Fatalf("event session %d, want %d", events[0].SessionID, session.ID)
	}

	// joining again is a no-op and stays silent
	again, err := svc.JoinByCode(context.Background(), guest, session.AccessCode)
	if err != nil {
		t.Fatalf("second join: %v", err)
	}
	if len(again.Members) != 1 {
		t.Fatalf("expected 1 member after rejoin, got %d", len(again.Members))
	}
	if len(events) != 1 {
		t.Fatalf("rejoin must not broadcast, got %d events", len(events))
	}
}

func TestJoinByCodeOwnerStaysOutOfMemberSet(t *testing.T) {
	svc, _ := openTestService(t)
	owner := registerTestUser(t, svc, "alice")
	session := createTestSession(t, svc, owner, false)

	joined, err := svc.JoinByCode(context.Background(), owner, session.AccessCode)
	if err != nil {
		t.Fatalf("owner join: %v", err)
	}
	if len(joined.Members) != 0 {
		t.Fatalf("owner joining own session must not add a member row: %+v", joined.Members)
	}
}

func TestJoinByCodeInvalidCode(t *testing.T) {
	svc, _ := openTestService(t)
	guest := registerTestUser(t, svc, "bob")

	if _, err := svc.JoinByCode(context.Background(), guest, "nope1234"); !errors.Is(err, ErrInvalidAccessCode) {
		t.Fatalf("expected ErrInvalidAccessCode, got %v", err)
	}
	if _, err := svc.JoinByCode(context.Background(), guest, ""); !errors.Is(err, ErrInvalidAccessCode) {
		t.Fatalf("expected ErrInvalidAccessCode for empty code, got %v", err)
	}
}

func TestViewSessionPublicAddsViewer(t *testing.T) {
	svc, _ := openTestService(t)
	owner := registerTestUser(t, svc, "alice")
	visitor := registerTestUser(t, svc, "carol")
	session := createTestSession(t, svc, owner, true)

	viewed, err := svc.ViewSession(context.Background(), visitor, session.ID)
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if viewed.RoleOf(visitor) != models.RoleViewer {
		t.Fatalf("expected viewer role, got %s", viewed.RoleOf(visitor))
	}
	if viewed.CanEdit(visitor) {
		t.Fatal("viewer must not be able to edit")
	}

	// the owner viewing their public session never gains a member row
	ownerView, err := svc.ViewSession(context.Background(), owner, session.ID)
	if err != nil {
		t.Fatalf("owner view: %v", err)
	}
	if ownerView.IsMember(owner) {
		t.Fatal("owner must not become a member by viewing")
	}
}

func TestViewSessionPrivateIsForbidden(t *testing.T) {
	svc, _ := openTestService(t)
	owner := registerTestUser(t, svc, "alice")
	outsider := registerTestUser(t, svc, "dave")
	session := createTestSession(t, svc, owner, false)

	if _, err := svc.ViewSession(context.Background(), outsider, session.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestLeaveSession(t *testing.T) {
	svc, bus := openTestService(t)
	owner := registerTestUser(t, svc, "alice")
	guest := registerTestUser(t, svc, "bob")
	session := createTestSession(t, svc, owner, false)
	if _, err := svc.JoinByCode(context.Background(), guest, session.AccessCode); err != nil {
		t.Fatalf("join: %v", err)
	}

	var left []hub.Event
	bus.Subscribe(hub.MemberLeft, func(ev hub.Event) { left = append(left, ev) })

	if err := svc.LeaveSession(context.Background(), guest, session.ID); err != nil {
		t.Fatalf("leave: %v", err)
	}
	after, err := svc.GetSession(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if after.IsMember(guest) {
		t.Fatal("member row should be gone after leave")
	}
	if len(left) != 1 || left[0].Payload["user_id"] != guest {
		t.Fatalf("expected member:left for guest, got %+v", left)
	}

	if err := svc.LeaveSession(context.Background(), owner, session.ID); !errors.Is(err, ErrOwnerCannotLeave) {
		t.Fatalf("expected ErrOwnerCannotLeave, got %v", err)
	}
}

func TestUpdateSessionOwnerOnly(t *testing.T) {
	svc, _ := openTestService(t)
	owner := registerTestUser(t, svc, "alice")
	guest := registerTestUser(t, svc, "bob")
	session := createTestSession(t, svc, owner, false)
	if _, err := svc.JoinByCode(context.Background(), guest, session.AccessCode); err != nil {
		t.Fatalf("join: %v", err)
	}

	newName := "renamed"
	if _, err := svc.UpdateSession(context.Background(), guest, session.ID, &newName, nil, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-owner update, got %v", err)
	}
	updated, err := svc.UpdateSession(context.Background(), owner, session.ID, &newName, nil, nil)
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Name != "renamed" {
		t.Fatalf("expected renamed, got %q", updated.Name)
	}
}

func TestListSessionsIncludesOwnedAndJoined(t *testing.T) {
	svc, _ := openTestService(t)
	alice := registerTestUser(t, svc, "alice")
	bob := registerTestUser(t, svc, "bob")
	mine := createTestSession(t, svc, alice, false)
	theirs := createTestSession(t, svc, bob, false)
	if _, err := svc.JoinByCode(context.Background(), alice, theirs.AccessCode); err != nil {
		t.Fatalf("join: %v", err)
	}
	createTestSession(t, svc, bob, false) // unrelated

	sessions, err := svc.ListSessions(context.Background(), alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	found := map[int64]bool{}
	for _, s := range sessions {
		found[s.ID] = true
	}
	if !found[mine.ID] || !found[theirs.ID] {
		t.Fatalf("expected sessions %d and %d, got %v", mine.ID, theirs.ID, found)
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	svc, _ := openTestService(t)
	owner := registerTestUser(t, svc, "alice")
	guest := registerTestUser(t, svc, "bob")
	session := createTestSession(t, svc, owner, false)
	ctx := context.Background()
	if _, err := svc.JoinByCode(ctx, guest, session.AccessCode); err != nil {
		t.Fatalf("join: %v", err)
	}
	dataset, err := svc.CreateSampleDataset(ctx, owner, session.ID, "products")
	if err != nil {
		t.Fatalf("sample dataset: %v", err)
	}

	if err := svc.DeleteSession(ctx, guest, session.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member delete, got %v", err)
	}
	if err := svc.DeleteSession(ctx, owner, session.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetSession(ctx, session.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.GetDataset(ctx, dataset.ID); !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("expected dataset gone, got %v", err)
	}
}
