package app

import "github.com/hireeflow/interviewd/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to a member whose send buffer is full
// during a broadcast.
type Policy interface {
	OnBackpressure(room domain.RoomID, member domain.ConnID) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackpressure(room domain.RoomID, member domain.ConnID) BackpressureAction {
	return KickMember
}
