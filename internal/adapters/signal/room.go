package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/core"
	"github.com/hireeflow/interviewd/internal/domain"
)

func (ctl *SignalWSController) handleJoinRoom(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type joinPayload struct {
		Type          string `json:"type"`
		RoomID        string `json:"roomId"`
		RequestedRole string `json:"requestedRole"`
		DisplayName   string `json:"displayName"`
	}
	var p joinPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.RoomID == "" {
		ctl.sendError(conn, "missing room id")
		return
	}
	participant, err := domain.NewParticipant(sid, p.DisplayName, domain.Role(p.RequestedRole))
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	roomID := domain.RoomID(p.RoomID)
	res, err := ctl.Orch.Join(sid, roomID, participant.Role, participant.Name)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("conn", string(sid)).Msg("join failed")
		ctl.sendError(conn, "join failed")
		return
	}

	log.Info().
		Str("module", "signal").
		Str("conn", string(sid)).
		Str("room", p.RoomID).
		Str("assigned", string(res.AssignedRole)).
		Msg("joined room")

	ctl.sendJSON(conn, struct {
		Type             string            `json:"type"`
		AssignedRole     domain.Role       `json:"assignedRole"`
		ExistingMembers  []core.MemberView `json:"existingMembers"`
		InterviewerTaken bool              `json:"interviewerAlreadyTaken"`
	}{"room-joined", res.AssignedRole, res.ExistingMembers, res.InterviewerTaken})

	ctl.broadcastJSON(roomID, sid, struct {
		Type   string        `json:"type"`
		ConnID domain.ConnID `json:"connectionId"`
		Name   string        `json:"displayName"`
		Role   domain.Role   `json:"assignedRole"`
	}{"member-joined", sid, participant.Name, res.AssignedRole})
}

// handleLeaveRoom is an explicit leave without dropping the connection.
func (ctl *SignalWSController) handleLeaveRoom(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type leavePayload struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}
	var p leavePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad leave payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.RoomID == "" {
		ctl.sendError(conn, "missing room id")
		return
	}

	roomID := domain.RoomID(p.RoomID)
	_, left := ctl.Orch.Leave(sid, roomID)
	ctl.sendJSON(conn, struct {
		Type   string `json:"type"`
		RoomID string `json:"roomId"`
	}{"room-left", p.RoomID})

	if left {
		ctl.broadcastJSON(roomID, sid, struct {
			Type   string        `json:"type"`
			ConnID domain.ConnID `json:"connectionId"`
		}{"member-left", sid})
	}
}
