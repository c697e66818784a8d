package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/service"
	ws "github.com/corridor/hallpass-backend/internal/websocket"
)

// heartbeatInterval bounds how stale a stream snapshot can get between
// lifecycle events; it also keeps countdown displays honest after an
// override with no follow-up event.
const heartbeatInterval = 15 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams active-pass snapshots to kiosk displays: the
// push-based alternative to polling the kiosk read endpoint.
type WSHandler struct {
	rdb          *redis.Client
	kioskService *service.KioskService
	log          zerolog.Logger
	upgrader     websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(rdb *redis.Client, kioskService *service.KioskService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		rdb:          rdb,
		kioskService: kioskService,
		log:          log.With().Str("component", "ws_handler").Logger(),
		upgrader:     buildUpgrader(allowedOrigins),
	}
}

// KioskStream godoc
// WS /ws/v1/kiosk/stream?token=
// Upgrades to WebSocket and pushes a full snapshot on every pass
// lifecycle event, plus a heartbeat snapshot. Scope rules match the
// polling endpoint exactly.
func (h *WSHandler) KioskStream(c *gin.Context) {
	ctx := c.Request.Context()
	token := c.Query("token")

	// Validate the credential before upgrading so an invalid token gets a
	// proper HTTP error instead of an immediately-closed socket.
	if _, err := h.kioskService.ScopeTeacherID(ctx, token); err != nil {
		failDomain(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	sub := h.rdb.Subscribe(ctx, config.CacheKey.PassEventsChannel())
	defer sub.Close()
	events := sub.Channel()

	push := func() bool {
		snapshots, err := h.kioskService.ListActive(ctx, token)
		if err != nil {
			_ = ws.WriteError(conn, "listing unavailable")
			return false
		}
		if err := ws.WriteTyped(conn, ws.SnapshotResponse{
			Event:     ws.EventSnapshot,
			Passes:    snapshots,
			Timestamp: time.Now().UTC(),
		}); err != nil {
			return false
		}
		return true
	}

	if !push() {
		return
	}

	// Drain reads so close frames are noticed; the stream itself is
	// one-directional.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-events:
			if !push() {
				return
			}
		case <-ticker.C:
			if !push() {
				return
			}
		}
	}
}
