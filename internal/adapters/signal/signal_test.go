package signal

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hireeflow/interviewd/internal/app"
	"github.com/hireeflow/interviewd/internal/config"
	"github.com/hireeflow/interviewd/internal/core"
	"github.com/hireeflow/interviewd/internal/domain"
)

type fakeConn struct {
	frames []core.Frame
	fail   bool
	closed bool
}

func (f *fakeConn) TrySend(fr core.Frame) error {
	if f.fail {
		return errors.New("backpressure")
	}
	f.frames = append(f.frames, fr)
	return nil
}

func (f *fakeConn) Close() { f.closed = true }

func newController() *SignalWSController {
	orch := &app.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    core.NewRoomTable(),
		Policy:   app.SimplePolicy{},
	}
	cfg := &config.Config{
		ReadLimit:  32768,
		SendBuffer: 32,
		PingPeriod: time.Minute,
	}
	return NewSignalWSController(orch, app.NewRateLimiter(100, time.Minute), cfg)
}

func joinRoom(t *testing.T, ctl *SignalWSController, sid domain.ConnID, c *fakeConn, room, role, name string) {
	t.Helper()
	payload := fmt.Sprintf(`{"type":"join-room","roomId":%q,"requestedRole":%q,"displayName":%q}`, room, role, name)
	ctl.handleSignal(sid, c, []byte(payload))
}

func lastFrame(t *testing.T, c *fakeConn) map[string]any {
	t.Helper()
	if len(c.frames) == 0 {
		t.Fatalf("no frames received")
	}
	var m map[string]any
	if err := json.Unmarshal(c.frames[len(c.frames)-1], &m); err != nil {
		t.Fatalf("bad frame %q: %v", c.frames[len(c.frames)-1], err)
	}
	return m
}

func TestSessionIDsUniquePerTransport(t *testing.T) {
	ctl := newController()
	// Same browser, two tabs: one cookie token, two sockets. Each
	// upgrade must get its own registry entry.
	old := &fakeConn{}
	fresh := &fakeConn{}
	sid1 := ctl.newSession(old)
	sid2 := ctl.newSession(fresh)
	if sid1 == sid2 {
		t.Fatalf("two transport sessions must not share a connection id")
	}

	peer := &fakeConn{}
	pid := ctl.newSession(peer)
	joinRoom(t, ctl, sid2, fresh, "R1", "candidate", "Alice")
	joinRoom(t, ctl, pid, peer, "R1", "candidate", "Bob")

	freshBefore := len(fresh.frames)
	oldBefore := len(old.frames)
	ctl.handleSignal(pid, peer, []byte(`{"type":"code-change","roomId":"R1","code":"x=1","language":"python"}`))
	if len(fresh.frames) != freshBefore+1 {
		t.Fatalf("live session should receive the broadcast, got %d new frames", len(fresh.frames)-freshBefore)
	}
	if len(old.frames) != oldBefore {
		t.Fatalf("idle session must not receive frames for the live one")
	}

	// Tearing down the first session must not strand the second.
	ctl.Orch.OnDisconnect(sid1)
	if _, err := ctl.Orch.Join(sid2, "R2", domain.RoleCandidate, "Alice"); err != nil {
		t.Fatalf("live session stranded after sibling disconnect: %v", err)
	}
}

func TestJoinRoomArbitrationFlow(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	b := &fakeConn{}
	sidA := ctl.newSession(a)
	sidB := ctl.newSession(b)

	joinRoom(t, ctl, sidA, a, "R1", "interviewer", "Alice")
	reply := lastFrame(t, a)
	if reply["type"] != "room-joined" || reply["assignedRole"] != "interviewer" {
		t.Fatalf("unexpected first join reply %+v", reply)
	}

	joinRoom(t, ctl, sidB, b, "R1", "interviewer", "Bob")
	reply = lastFrame(t, b)
	if reply["assignedRole"] != "candidate" {
		t.Fatalf("second interviewer should be downgraded, got %+v", reply)
	}
	if reply["interviewerAlreadyTaken"] != true {
		t.Fatalf("expected interviewerAlreadyTaken, got %+v", reply)
	}

	notify := lastFrame(t, a)
	if notify["type"] != "member-joined" || notify["connectionId"] != string(sidB) {
		t.Fatalf("peer should see member-joined for b, got %+v", notify)
	}
}

func TestMalformedJoinNoFanout(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	b := &fakeConn{}
	sidA := ctl.newSession(a)
	sidB := ctl.newSession(b)
	joinRoom(t, ctl, sidB, b, "R1", "candidate", "Bob")

	before := len(b.frames)
	ctl.handleSignal(sidA, a, []byte(`{"type":"join-room","requestedRole":"candidate","displayName":"Alice"}`))
	reply := lastFrame(t, a)
	if reply["type"] != "error" {
		t.Fatalf("malformed join should get an error reply, got %+v", reply)
	}
	if len(b.frames) != before {
		t.Fatalf("malformed event must not fan out")
	}
	room, ok := ctl.Orch.Rooms.Get("R1")
	if !ok || room.MemberCount() != 1 {
		t.Fatalf("malformed join must not touch room state")
	}
}

func TestMalformedJSONGetsErrorReply(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	sid := ctl.newSession(a)

	ctl.handleSignal(sid, a, []byte(`{not json`))
	if reply := lastFrame(t, a); reply["type"] != "error" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
}

func TestUnknownEventGetsErrorReply(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	sid := ctl.newSession(a)

	ctl.handleSignal(sid, a, []byte(`{"type":"self-destruct"}`))
	if reply := lastFrame(t, a); reply["type"] != "error" {
		t.Fatalf("expected error reply, got %+v", reply)
	}
}

func TestChatTimestampStamped(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	b := &fakeConn{}
	sidA := ctl.newSession(a)
	sidB := ctl.newSession(b)
	joinRoom(t, ctl, sidA, a, "R1", "candidate", "Alice")
	joinRoom(t, ctl, sidB, b, "R1", "candidate", "Bob")

	aBefore := len(a.frames)
	ctl.handleSignal(sidA, a, []byte(`{"type":"chat-message","roomId":"R1","sender":"Alice","text":"hi"}`))

	msg := lastFrame(t, b)
	if msg["type"] != "chat-received" || msg["text"] != "hi" {
		t.Fatalf("unexpected chat frame %+v", msg)
	}
	ts, _ := msg["timestamp"].(string)
	if ts == "" {
		t.Fatalf("server should stamp a missing timestamp")
	}
	if _, err := time.Parse(time.RFC3339, ts); err != nil {
		t.Fatalf("stamped timestamp %q not RFC 3339: %v", ts, err)
	}
	if len(a.frames) != aBefore {
		t.Fatalf("sender must not receive its own chat message")
	}
}

func TestChatKeepsClientTimestamp(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	b := &fakeConn{}
	sidA := ctl.newSession(a)
	sidB := ctl.newSession(b)
	joinRoom(t, ctl, sidA, a, "R1", "candidate", "Alice")
	joinRoom(t, ctl, sidB, b, "R1", "candidate", "Bob")

	ctl.handleSignal(sidA, a, []byte(`{"type":"chat-message","roomId":"R1","sender":"Alice","text":"hi","timestamp":"10:15"}`))
	if msg := lastFrame(t, b); msg["timestamp"] != "10:15" {
		t.Fatalf("client timestamp should pass through, got %+v", msg)
	}
}

func TestCallRequestDelivered(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	b := &fakeConn{}
	sidA := ctl.newSession(a)
	sidB := ctl.newSession(b)

	payload := fmt.Sprintf(`{"type":"call-request","targetConnectionId":%q,"signalPayload":{"sdp":"offer"},"callerDisplayName":"Alice"}`, sidB)
	ctl.handleSignal(sidA, a, []byte(payload))

	msg := lastFrame(t, b)
	if msg["type"] != "call-incoming" || msg["fromConnectionId"] != string(sidA) {
		t.Fatalf("unexpected call-incoming frame %+v", msg)
	}
	if msg["callerDisplayName"] != "Alice" {
		t.Fatalf("caller name should travel with the request, got %+v", msg)
	}
	inner, _ := msg["signalPayload"].(map[string]any)
	if inner["sdp"] != "offer" {
		t.Fatalf("signal payload should pass through untouched, got %+v", msg)
	}
}

func TestCallRequestUnreachableTarget(t *testing.T) {
	ctl := newController()
	a := &fakeConn{}
	b := &fakeConn{}
	sidA := ctl.newSession(a)
	ctl.newSession(b)

	bBefore := len(b.frames)
	ctl.handleSignal(sidA, a, []byte(`{"type":"call-request","targetConnectionId":"never-registered","signalPayload":{"sdp":"offer"},"callerDisplayName":"Alice"}`))
	reply := lastFrame(t, a)
	if reply["type"] != "error" || reply["error"] != "target_unreachable" {
		t.Fatalf("caller should get target_unreachable, got %+v", reply)
	}
	if len(b.frames) != bBefore {
		t.Fatalf("bystander must observe nothing")
	}
}

func TestRateLimitedEventDropped(t *testing.T) {
	ctl := newController()
	ctl.Limiter = app.NewRateLimiter(1, time.Minute)
	a := &fakeConn{}
	b := &fakeConn{}
	sidA := ctl.newSession(a)
	sidB := ctl.newSession(b)
	joinRoom(t, ctl, sidA, a, "R1", "candidate", "Alice")
	joinRoom(t, ctl, sidB, b, "R1", "candidate", "Bob")

	ctl.handleSignal(sidA, a, []byte(`{"type":"code-change","roomId":"R1","code":"x=1","language":"python"}`))
	bBefore := len(b.frames)
	ctl.handleSignal(sidA, a, []byte(`{"type":"code-change","roomId":"R1","code":"x=2","language":"python"}`))
	if reply := lastFrame(t, a); reply["error"] != "rate_limited" {
		t.Fatalf("expected rate_limited reply, got %+v", reply)
	}
	if len(b.frames) != bBefore {
		t.Fatalf("rate-limited event must not fan out")
	}
}
