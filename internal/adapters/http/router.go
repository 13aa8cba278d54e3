package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/hireeflow/interviewd/internal/adapters/signal"
	"github.com/hireeflow/interviewd/internal/app"
	"github.com/hireeflow/interviewd/internal/config"
	"github.com/hireeflow/interviewd/internal/domain"
)

// ClientTokenMiddleware mints the opaque connection identity. The token
// doubles as the ConnID peers use to address call relays.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, orch *app.Orchestrator, limiter *app.RateLimiter) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("InterviewSessions", store))
	r.Use(ClientTokenMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := r.Group("/api")

	// GET /api/rooms lists rooms currently holding at least one member.
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": orch.Rooms.List()})
	})

	// GET /api/rooms/:id returns a membership snapshot. Rooms exist only
	// through joining, so there is no create endpoint.
	api.GET("/rooms/:id", func(c *gin.Context) {
		room, ok := orch.Rooms.Get(domain.RoomID(c.Param("id")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		_, hasInterviewer := room.Interviewer()
		c.JSON(http.StatusOK, gin.H{
			"id":             room.ID(),
			"members":        room.MembersSnapshot(),
			"memberCount":    room.MemberCount(),
			"hasInterviewer": hasInterviewer,
		})
	})

	// GET /api/webrtc/config returns ICE servers for the browser-side
	// RTCPeerConnection.
	api.GET("/webrtc/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, iceConfiguration(cfg))
	})

	ctrl := signal.NewSignalWSController(orch, limiter, cfg)
	api.GET("/ws/signal", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("conn", c.GetString("client_token")).Msg("ws signal endpoint hit")
		ctrl.HandleSignal(ctx, c)
	})

	return r
}
