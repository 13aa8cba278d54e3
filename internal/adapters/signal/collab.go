package signal

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/domain"
)

// Room-scoped collaboration events: editor content, language selection,
// chat, cursor position. All of them fan out to every member except the
// sender; none of them are retained server-side.

func (ctl *SignalWSController) allowEvent(sid domain.ConnID, conn replySink) bool {
	if ctl.Limiter.Allow(sid) {
		return true
	}
	log.Warn().Str("module", "signal").Str("conn", string(sid)).Msg("event rate limit exceeded")
	ctl.sendError(conn, "rate_limited")
	return false
}

func (ctl *SignalWSController) handleCodeChange(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type codePayload struct {
		Type     string `json:"type"`
		RoomID   string `json:"roomId"`
		Code     string `json:"code"`
		Language string `json:"language"`
	}
	var p codePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad code-change payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.RoomID == "" {
		ctl.sendError(conn, "missing room id")
		return
	}
	if !ctl.allowEvent(sid, conn) {
		return
	}

	ctl.broadcastJSON(domain.RoomID(p.RoomID), sid, struct {
		Type     string `json:"type"`
		Code     string `json:"code"`
		Language string `json:"language"`
	}{"code-update", p.Code, p.Language})
}

func (ctl *SignalWSController) handleLanguageChange(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type languagePayload struct {
		Type     string `json:"type"`
		RoomID   string `json:"roomId"`
		Language string `json:"language"`
	}
	var p languagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad language-change payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.RoomID == "" || p.Language == "" {
		ctl.sendError(conn, "missing room id or language")
		return
	}
	if !ctl.allowEvent(sid, conn) {
		return
	}

	ctl.broadcastJSON(domain.RoomID(p.RoomID), sid, struct {
		Type     string `json:"type"`
		Language string `json:"language"`
	}{"language-update", p.Language})
}

func (ctl *SignalWSController) handleChatMessage(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type chatPayload struct {
		Type      string `json:"type"`
		RoomID    string `json:"roomId"`
		Sender    string `json:"sender"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp,omitempty"`
	}
	var p chatPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.RoomID == "" || p.Text == "" {
		ctl.sendError(conn, "missing room id or text")
		return
	}
	if !ctl.allowEvent(sid, conn) {
		return
	}
	if p.Timestamp == "" {
		p.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	ctl.broadcastJSON(domain.RoomID(p.RoomID), sid, struct {
		Type      string `json:"type"`
		Sender    string `json:"sender"`
		Text      string `json:"text"`
		Timestamp string `json:"timestamp"`
	}{"chat-received", p.Sender, p.Text, p.Timestamp})
}

func (ctl *SignalWSController) handleCursorMove(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type cursorPayload struct {
		Type   string          `json:"type"`
		RoomID string          `json:"roomId"`
		Cursor json.RawMessage `json:"cursor"`
	}
	var p cursorPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad cursor payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.RoomID == "" || len(p.Cursor) == 0 {
		ctl.sendError(conn, "missing room id or cursor")
		return
	}
	if !ctl.allowEvent(sid, conn) {
		return
	}

	ctl.broadcastJSON(domain.RoomID(p.RoomID), sid, struct {
		Type   string          `json:"type"`
		Cursor json.RawMessage `json:"cursor"`
		ConnID domain.ConnID   `json:"connectionId"`
	}{"cursor-update", p.Cursor, sid})
}
