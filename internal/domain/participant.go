// Package domain contains entity types without logic, just meta-data.
package domain

import "errors"

const MaxDisplayNameLen = 64

var (
	ErrNameEmpty   = errors.New("display name empty")
	ErrNameTooLong = errors.New("display name too long")
)

// ConnID identifies one active transport session.
type ConnID string

// Role is the tag a participant carries inside a room. Only
// RoleInterviewer is cardinality-constrained; anything else is
// granted as requested.
type Role string

const (
	RoleInterviewer Role = "interviewer"
	RoleCandidate   Role = "candidate"
)

// Participant is one connection's binding inside a room.
type Participant struct {
	ID   ConnID `json:"connectionId"`
	Name string `json:"displayName"`
	Role Role   `json:"role"`
}

// NewParticipant keeps construction and name validation in one place.
func NewParticipant(id ConnID, name string, role Role) (Participant, error) {
	if name == "" {
		return Participant{}, ErrNameEmpty
	}
	if len(name) > MaxDisplayNameLen {
		return Participant{}, ErrNameTooLong
	}
	if role == "" {
		role = RoleCandidate
	}
	return Participant{ID: id, Name: name, Role: role}, nil
}
