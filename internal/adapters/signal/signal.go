package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/app"
	"github.com/hireeflow/interviewd/internal/config"
	"github.com/hireeflow/interviewd/internal/core"
	"github.com/hireeflow/interviewd/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// replySink is the handler-facing side of one client connection. The
// pumps own the concrete *WsSignalConn; handlers only need to emit.
type replySink interface {
	TrySend(f core.Frame) error
}

type SignalWSController struct {
	Orch    *app.Orchestrator
	Limiter *app.RateLimiter
	Cfg     *config.Config
}

func NewSignalWSController(orch *app.Orchestrator, limiter *app.RateLimiter, cfg *config.Config) *SignalWSController {
	return &SignalWSController{Orch: orch, Limiter: limiter, Cfg: cfg}
}

type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	sid := ctl.newSession(conn)
	log.Info().Str("module", "signal").Str("user", token).Str("conn", string(sid)).Msg("new WS connection")

	// Announce the id so the client can hand it to peers for call
	// addressing.
	ctl.sendJSON(conn, struct {
		Type   string        `json:"type"`
		ConnID domain.ConnID `json:"connectionId"`
	}{"connected", sid})

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, conn)
}

// newSession mints the connection id for one transport session and
// registers it. The cookie token outlives the socket, so it cannot
// serve as the id: two tabs or an overlapping reconnect under one
// token would collide in the registry and strand the live session.
func (ctl *SignalWSController) newSession(conn core.SignalConnection) domain.ConnID {
	sid := domain.ConnID(uuid.NewString())
	ctl.Orch.Connect(sid, conn)
	return sid
}
