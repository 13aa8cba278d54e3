package core

import "github.com/hireeflow/interviewd/internal/domain"

// Frame is an encoded outbound event.
type Frame []byte

// SignalConnection abstracts the system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MemberView is a read-only view for responses and APIs (no transport fields).
type MemberView struct {
	ID   domain.ConnID `json:"connectionId"`
	Name string        `json:"displayName"`
	Role domain.Role   `json:"role"`
}

// JoinResult is what the join protocol hands back to the new member.
// ExistingMembers is snapshotted before insertion so the joiner can
// enumerate who it may call.
type JoinResult struct {
	AssignedRole     domain.Role
	ExistingMembers  []MemberView
	InterviewerTaken bool
}

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []domain.ConnID
}

// RoomService is the core-facing API of one room. It owns the membership
// list and the interviewer slot but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	MembersSnapshot() []MemberView
	Interviewer() (domain.ConnID, bool)

	Join(id domain.ConnID, sig SignalConnection, requested domain.Role, name string) JoinResult
	Leave(id domain.ConnID) (MemberView, bool)
	Broadcast(from domain.ConnID, data Frame) PublishResult
}

type RoomInfo struct {
	ID             domain.RoomID `json:"id"`
	MemberCount    int           `json:"memberCount"`
	HasInterviewer bool          `json:"hasInterviewer"`
}

// RoomManager owns the room table. Rooms exist only while they have
// members: Join creates lazily, Leave deletes the room once the last
// member is gone. Join and Leave are serialized against each other so
// an emptied room cannot be resurrected mid-deletion.
type RoomManager interface {
	Join(room domain.RoomID, id domain.ConnID, sig SignalConnection, requested domain.Role, name string) JoinResult
	Leave(room domain.RoomID, id domain.ConnID) (MemberView, bool)
	Get(room domain.RoomID) (RoomService, bool)
	List() []RoomInfo
}
