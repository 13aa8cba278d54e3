package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/domain"
)

// roomTable tracks live rooms: absent -> active on first join,
// active -> absent when the last member leaves. The table mutex is
// held across the membership mutation so a concurrent join cannot land
// in a room that is being deleted.
type roomTable struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]RoomService
}

func NewRoomTable() RoomManager {
	return &roomTable{rooms: make(map[domain.RoomID]RoomService)}
}

func (t *roomTable) Join(room domain.RoomID, id domain.ConnID, sig SignalConnection, requested domain.Role, name string) JoinResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rooms[room]
	if !ok {
		r = NewRoomService(room)
		t.rooms[room] = r
		log.Info().Str("module", "core.rooms").Str("room", string(room)).Msg("room created")
	}
	return r.Join(id, sig, requested, name)
}

func (t *roomTable) Leave(room domain.RoomID, id domain.ConnID) (MemberView, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.rooms[room]
	if !ok {
		return MemberView{}, false
	}
	view, left := r.Leave(id)
	if r.MemberCount() == 0 {
		delete(t.rooms, room)
		log.Info().Str("module", "core.rooms").Str("room", string(room)).Msg("room removed, last member left")
	}
	return view, left
}

func (t *roomTable) Get(room domain.RoomID) (RoomService, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	r, ok := t.rooms[room]
	return r, ok
}

func (t *roomTable) List() []RoomInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]RoomInfo, 0, len(t.rooms))
	for id, r := range t.rooms {
		_, has := r.Interviewer()
		out = append(out, RoomInfo{ID: id, MemberCount: r.MemberCount(), HasInterviewer: has})
	}
	return out
}
