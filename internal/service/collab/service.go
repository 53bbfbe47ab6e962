// Package collab implements the collaborative session domain: sessions and
// membership, dataset ingestion, the query lifecycle, and chat.
package collab

import (
	"database/sql"

	"queryjam/internal/datastore"
	"queryjam/internal/hub"
	"queryjam/internal/query"
)

// Service owns all session-scoped state transitions. Broadcasts go through
// the injected hub; there is no package-level event bus.
type Service struct {
	db           *sql.DB
	store        *datastore.Store
	engine       *query.Engine
	hub          *hub.Hub
	defaultLimit int
}

// NewService wires the domain service. defaultQueryLimit caps result pages
// for requests that omit their own limit; zero keeps the package default.
func NewService(db *sql.DB, store *datastore.Store, bus *hub.Hub, defaultQueryLimit int) *Service {
	if defaultQueryLimit <= 0 {
		defaultQueryLimit = query.DefaultLimit
	}
	return &Service{
		db:           db,
		store:        store,
		engine:       query.NewEngine(db, store),
		hub:          bus,
		defaultLimit: defaultQueryLimit,
	}
}

// Hub exposes the event bus for stream handlers.
func (s *Service) Hub() *hub.Hub {
	return s.hub
}
