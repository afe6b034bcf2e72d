package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"roomsync-service/internal/middleware"
	"roomsync-service/internal/models"
	"roomsync-service/internal/observability"
	"roomsync-service/internal/rabbitmq"
	"roomsync-service/internal/repositories"
	"roomsync-service/internal/ws"
)

// RoomHandler manages room resolution, history, and message persistence.
type RoomHandler struct {
	roomRepo    repositories.RoomRepository
	messageRepo repositories.MessageRepository
	publisher   rabbitmq.Publisher
	hub         *ws.Hub
	log         zerolog.Logger
}

// NewRoomHandler builds a RoomHandler.
func NewRoomHandler(roomRepo repositories.RoomRepository, messageRepo repositories.MessageRepository, publisher rabbitmq.Publisher, hub *ws.Hub, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		publisher:   publisher,
		hub:         hub,
		log:         logger,
	}
}

// CreateRoom creates a room with a generated join code.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	room, err := h.roomRepo.Create(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create room"})
		return
	}
	c.JSON(http.StatusCreated, room)
}

// ResolveRoom resolves a join code passed as the code query parameter.
func (h *RoomHandler) ResolveRoom(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}

	room, err := h.roomRepo.GetByCode(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, repositories.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve room"})
		return
	}
	c.JSON(http.StatusOK, room)
}

// GetRoomMessages returns the room's messages ordered by creation time
// ascending. An optional after parameter (RFC3339Nano) limits the result to
// strictly newer messages for reconnect gap recovery.
func (h *RoomHandler) GetRoomMessages(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var after time.Time
	if raw := c.Query("after"); raw != "" {
		after, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after timestamp"})
			return
		}
	}

	exists, err := h.roomRepo.Exists(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify room"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	msgs, err := h.messageRepo.ListByRoom(c.Request.Context(), roomID, after)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostRoomMessage persists a message and fans it out to live subscribers. The
// author comes from the optional bearer token; anonymous sends are allowed.
// The response confirms persistence, but clients render the message only when
// it arrives back through the live feed.
func (h *RoomHandler) PostRoomMessage(c *gin.Context) {
	roomID, err := strconv.ParseInt(c.Param("room_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	exists, err := h.roomRepo.Exists(c.Request.Context(), roomID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify room"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	msg, err := h.messageRepo.Create(c.Request.Context(), roomID, middleware.AuthorID(c), req.Content)
	if err != nil {
		if errors.Is(err, repositories.ErrEmptyContent) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "content is empty"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}
	observability.IncMessageCreated()

	if rabbitmq.IsNoop(h.publisher) {
		// No broker to route through; fan out to local subscribers directly.
		h.hub.Broadcast(msg)
	} else if err := h.publisher.Publish(c.Request.Context(), rabbitmq.RoutingKeyMessageCreated, msg); err != nil {
		// Persisted but not fanned out; clients recover on their next resync.
		h.log.Warn().Err(err).Int64("message_id", msg.ID).Msg("fan-out publish failed")
	}

	c.JSON(http.StatusCreated, msg)
}
