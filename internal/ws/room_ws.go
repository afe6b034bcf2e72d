package ws

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"roomsync-service/internal/middleware"
	"roomsync-service/internal/observability"
	"roomsync-service/internal/repositories"
)

// RoomWebSocketHandler upgrades subscribers onto a room's live feed.
type RoomWebSocketHandler struct {
	hub      *Hub
	roomRepo repositories.RoomRepository
	log      zerolog.Logger
}

// NewRoomWebSocketHandler constructs a RoomWebSocketHandler.
func NewRoomWebSocketHandler(hub *Hub, roomRepo repositories.RoomRepository, logger zerolog.Logger) *RoomWebSocketHandler {
	return &RoomWebSocketHandler{hub: hub, roomRepo: roomRepo, log: logger}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle validates the room, upgrades the connection, and keeps it registered
// until the peer goes away. Subscribers only read; messages are sent over the
// HTTP API and come back through the feed.
func (h *RoomWebSocketHandler) Handle(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	ctx, span := otel.Tracer("roomsync-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	exists, err := h.roomRepo.Exists(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify room"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	info := ConnInfo{
		ConnID:      uuid.NewString(),
		AuthorID:    middleware.AuthorID(c),
		IP:          c.ClientIP(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(roomID, conn, info)
	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	h.log.Debug().Int64("room_id", roomID).Str("conn_id", info.ConnID).Msg("ws subscriber connected")

	go func() {
		defer func() {
			h.hub.RemoveClient(roomID, conn)
			observability.DecWSActive()
			observability.IncWSEvent("ws_disconnect")
			conn.Close()
			h.log.Debug().Int64("room_id", roomID).Str("conn_id", info.ConnID).
				Dur("connected", time.Since(info.ConnectedAt)).Msg("ws subscriber disconnected")
		}()
		for {
			// Inbound frames are drained and discarded; the feed is read-only.
			if _, _, err := conn.ReadMessage(); err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("ws_error")
				}
				return
			}
		}
	}()
}
