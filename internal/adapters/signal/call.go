package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/domain"
)

// The relay never parses signalPayload; session descriptions and ICE
// candidates pass through as raw bytes.

func (ctl *SignalWSController) handleCallRequest(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type callPayload struct {
		Type          string          `json:"type"`
		Target        string          `json:"targetConnectionId"`
		SignalPayload json.RawMessage `json:"signalPayload"`
		CallerName    string          `json:"callerDisplayName"`
	}
	var p callPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call-request payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Target == "" || len(p.SignalPayload) == 0 {
		ctl.sendError(conn, "missing target or signal")
		return
	}

	out, err := json.Marshal(struct {
		Type          string          `json:"type"`
		SignalPayload json.RawMessage `json:"signalPayload"`
		From          domain.ConnID   `json:"fromConnectionId"`
		CallerName    string          `json:"callerDisplayName"`
	}{"call-incoming", p.SignalPayload, sid, p.CallerName})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("call-incoming marshal")
		return
	}

	if err := ctl.Orch.Relay(domain.ConnID(p.Target), out); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("from", string(sid)).Str("to", p.Target).Msg("call-request relay failed")
		ctl.sendError(conn, "target_unreachable")
		return
	}
	log.Info().Str("module", "signal").Str("from", string(sid)).Str("to", p.Target).Msg("call-request relayed")
}

func (ctl *SignalWSController) handleCallAnswer(
	sid domain.ConnID,
	conn replySink,
	data []byte,
) {
	type answerPayload struct {
		Type          string          `json:"type"`
		Target        string          `json:"targetConnectionId"`
		SignalPayload json.RawMessage `json:"signalPayload"`
	}
	var p answerPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad call-answer payload")
		ctl.sendError(conn, "bad_payload")
		return
	}
	if p.Target == "" || len(p.SignalPayload) == 0 {
		ctl.sendError(conn, "missing target or signal")
		return
	}

	out, err := json.Marshal(struct {
		Type          string          `json:"type"`
		SignalPayload json.RawMessage `json:"signalPayload"`
		From          domain.ConnID   `json:"fromConnectionId"`
	}{"call-answered", p.SignalPayload, sid})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("call-answered marshal")
		return
	}

	if err := ctl.Orch.Relay(domain.ConnID(p.Target), out); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("from", string(sid)).Str("to", p.Target).Msg("call-answer relay failed")
		ctl.sendError(conn, "target_unreachable")
		return
	}
	log.Info().Str("module", "signal").Str("from", string(sid)).Str("to", p.Target).Msg("call-answer relayed")
}
