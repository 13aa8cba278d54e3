package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewParticipantDefaultsRole(t *testing.T) {
	p, err := NewParticipant("a", "Alice", "")
	if err != nil {
		t.Fatalf("NewParticipant returned error: %v", err)
	}
	if p.Role != RoleCandidate {
		t.Fatalf("empty role should default to candidate, got %s", p.Role)
	}
}

func TestNewParticipantValidatesName(t *testing.T) {
	if _, err := NewParticipant("a", "", RoleCandidate); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("expected ErrNameEmpty, got %v", err)
	}
	long := strings.Repeat("x", MaxDisplayNameLen+1)
	if _, err := NewParticipant("a", long, RoleCandidate); !errors.Is(err, ErrNameTooLong) {
		t.Fatalf("expected ErrNameTooLong, got %v", err)
	}
}
