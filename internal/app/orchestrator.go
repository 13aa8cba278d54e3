package app

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/core"
	"github.com/hireeflow/interviewd/internal/domain"
)

var (
	// ErrTargetUnreachable is reported back to a relay's sender when
	// the addressed connection is not registered or cannot accept the
	// frame. Never fatal to the process.
	ErrTargetUnreachable = errors.New("target unreachable")

	ErrNotRegistered = errors.New("connection not registered")
)

// Orchestrator coordinates the registry, the room table and the
// backpressure policy. It is the single entry point the transport
// adapter talks to.
type Orchestrator struct {
	Registry *Registry
	Rooms    core.RoomManager
	Policy   Policy
}

func (o *Orchestrator) Connect(id domain.ConnID, sig core.SignalConnection) {
	o.Registry.Register(id, sig)
}

// Join runs the join protocol: arbitration, membership insert and room
// tracking for later cleanup. The membership-changed fan-out is the
// adapter's job, using the returned result.
func (o *Orchestrator) Join(id domain.ConnID, room domain.RoomID, requested domain.Role, name string) (core.JoinResult, error) {
	sig, ok := o.Registry.Signal(id)
	if !ok {
		return core.JoinResult{}, ErrNotRegistered
	}
	res := o.Rooms.Join(room, id, sig, requested, name)
	o.Registry.TrackRoom(id, room)
	return res, nil
}

func (o *Orchestrator) Leave(id domain.ConnID, room domain.RoomID) (core.MemberView, bool) {
	view, ok := o.Rooms.Leave(room, id)
	o.Registry.ForgetRoom(id, room)
	return view, ok
}

// Broadcast fans out a frame to every member of the room except the
// sender. Unknown room is a no-op. Members whose send buffer is full
// are handed to the policy.
func (o *Orchestrator) Broadcast(room domain.RoomID, from domain.ConnID, data core.Frame) core.PublishResult {
	r, ok := o.Rooms.Get(room)
	if !ok {
		return core.PublishResult{}
	}
	res := r.Broadcast(from, data)
	if o.Policy == nil {
		return res
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackpressure(room, slow) {
		case KickMember:
			// Closing the transport lets the member's own read loop
			// run the full disconnect cleanup path.
			if sig, ok := o.Registry.Signal(slow); ok {
				log.Warn().Str("module", "app.orch").Str("room", string(room)).Str("conn", string(slow)).Msg("kicking slow member")
				sig.Close()
			}
		case DropFrame, NoAction:
		}
	}
	return res
}

// Relay delivers a frame to exactly one connection. The frame content
// is opaque; only addressing is validated.
func (o *Orchestrator) Relay(to domain.ConnID, data core.Frame) error {
	sig, ok := o.Registry.Signal(to)
	if !ok {
		return ErrTargetUnreachable
	}
	if err := sig.TrySend(data); err != nil {
		return fmt.Errorf("%w: %v", ErrTargetUnreachable, err)
	}
	return nil
}

// OnDisconnect unwinds a departing connection: unregister, then leave
// every room it belonged to. Returns the rooms actually departed so
// the adapter can notify remaining members. Idempotent: a second call
// for the same id finds no registry entry and returns nothing.
func (o *Orchestrator) OnDisconnect(id domain.ConnID) []domain.RoomID {
	rooms := o.Registry.Unregister(id)
	departed := make([]domain.RoomID, 0, len(rooms))
	for _, room := range rooms {
		if _, ok := o.Rooms.Leave(room, id); ok {
			departed = append(departed, room)
		}
	}
	if len(departed) > 0 {
		log.Info().Str("module", "app.orch").Str("conn", string(id)).Int("rooms", len(departed)).Msg("session cleaned up")
	}
	return departed
}
