package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/domain"
)

type member struct {
	p   domain.Participant
	sig SignalConnection
}

// roomImpl is a threadsafe in-memory room. Arbitration and membership
// mutation share one critical section so the single-interviewer
// invariant holds under concurrent joins. It never closes
// adapter-owned resources.
type roomImpl struct {
	id domain.RoomID

	mu          sync.RWMutex
	order       []domain.ConnID
	members     map[domain.ConnID]*member
	interviewer domain.ConnID // "" when the slot is free
}

func NewRoomService(id domain.RoomID) RoomService {
	return &roomImpl{
		id:      id,
		members: make(map[domain.ConnID]*member),
	}
}

func (r *roomImpl) ID() domain.RoomID { return r.id }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

func (r *roomImpl) Interviewer() (domain.ConnID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.interviewer, r.interviewer != ""
}

func (r *roomImpl) MembersSnapshot() []MemberView {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked("")
}

// snapshotLocked lists members in join order, skipping exclude.
func (r *roomImpl) snapshotLocked(exclude domain.ConnID) []MemberView {
	out := make([]MemberView, 0, len(r.order))
	for _, cid := range r.order {
		if cid == exclude {
			continue
		}
		m := r.members[cid]
		out = append(out, MemberView{ID: m.p.ID, Name: m.p.Name, Role: m.p.Role})
	}
	return out
}

func (r *roomImpl) Join(id domain.ConnID, sig SignalConnection, requested domain.Role, name string) JoinResult {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing := r.snapshotLocked(id)
	taken := r.interviewer != "" && r.interviewer != id

	assigned := requested
	if requested == domain.RoleInterviewer {
		if taken {
			assigned = domain.RoleCandidate
		} else {
			r.interviewer = id
		}
	}
	// A re-join requesting any other role releases a slot this
	// connection previously held.
	if assigned != domain.RoleInterviewer && r.interviewer == id {
		r.interviewer = ""
	}

	if m, ok := r.members[id]; ok {
		m.p.Name = name
		m.p.Role = assigned
		m.sig = sig
	} else {
		r.members[id] = &member{
			p:   domain.Participant{ID: id, Name: name, Role: assigned},
			sig: sig,
		}
		r.order = append(r.order, id)
	}

	log.Info().
		Str("module", "core.room").
		Str("room", string(r.id)).
		Str("conn", string(id)).
		Str("requested", string(requested)).
		Str("assigned", string(assigned)).
		Msg("member joined")

	return JoinResult{
		AssignedRole:     assigned,
		ExistingMembers:  existing,
		InterviewerTaken: taken,
	}
}

func (r *roomImpl) Leave(id domain.ConnID) (MemberView, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return MemberView{}, false
	}
	delete(r.members, id)
	for i, cid := range r.order {
		if cid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	if r.interviewer == id {
		r.interviewer = ""
		log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).Msg("interviewer slot released")
	}
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("conn", string(id)).Msg("member left")
	return MemberView{ID: m.p.ID, Name: m.p.Name, Role: m.p.Role}, true
}

func (r *roomImpl) Broadcast(from domain.ConnID, data Frame) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := PublishResult{}
	for _, cid := range r.order {
		if cid == from {
			continue
		}
		if err := r.members[cid].sig.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SentTo++
	}
	log.Debug().
		Str("module", "core.room").
		Str("room", string(r.id)).
		Str("from", string(from)).
		Int("sent_to", res.SentTo).
		Int("dropped", len(res.Dropped)).
		Msg("broadcast result")
	return res
}
