package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/core"
	"github.com/hireeflow/interviewd/internal/domain"
)

type connEntry struct {
	sig   core.SignalConnection
	rooms map[domain.RoomID]struct{}
}

// Registry maps a connection id to its transport handle and the set of
// rooms the connection has joined. One entry per active transport
// session, created on accept and removed on disconnect.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ConnID]*connEntry)}
}

// Register is idempotent; a second register for a live id keeps the
// existing entry.
func (r *Registry) Register(id domain.ConnID, sig core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; ok {
		return
	}
	r.conns[id] = &connEntry{sig: sig, rooms: make(map[domain.RoomID]struct{})}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("connection registered")
}

// Unregister removes the entry and returns the rooms the connection
// belonged to so cleanup can unwind them. Unknown id returns nil,
// which makes a duplicate disconnect a total no-op.
func (r *Registry) Unregister(id domain.ConnID) []domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok {
		return nil
	}
	delete(r.conns, id)
	rooms := make([]domain.RoomID, 0, len(e.rooms))
	for room := range e.rooms {
		rooms = append(rooms, room)
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Int("rooms", len(rooms)).Msg("connection unregistered")
	return rooms
}

func (r *Registry) Signal(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[id]
	if !ok {
		return nil, false
	}
	return e.sig, true
}

func (r *Registry) TrackRoom(id domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		e.rooms[room] = struct{}{}
	}
}

func (r *Registry) ForgetRoom(id domain.ConnID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		delete(e.rooms, room)
	}
}
