package ws

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomsync-service/internal/models"
	"roomsync-service/internal/observability"
)

// Hub maintains the active websocket subscribers per room and fans out
// message-created events to them. Events are scoped to one room: a connection
// only ever receives events for the room it registered with.
type Hub struct {
	rooms map[int64]map[*websocket.Conn]ConnInfo
	mu    sync.RWMutex
	log   zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		rooms: make(map[int64]map[*websocket.Conn]ConnInfo),
		log:   logger,
	}
}

// AddClient registers a websocket connection as a subscriber of the room.
func (h *Hub) AddClient(roomID int64, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.rooms[roomID][conn] = info
}

// RemoveClient removes a room subscriber.
func (h *Hub) RemoveClient(roomID int64, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[roomID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Subscribers returns the number of connections registered for the room.
func (h *Hub) Subscribers(roomID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast sends a message-created event to every subscriber of its room.
// Connections that fail to write are closed and dropped.
func (h *Hub) Broadcast(msg models.Message) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[msg.RoomID]))
	for conn := range h.rooms[msg.RoomID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	event := models.RoomEvent{Type: models.EventTypeMessage, Message: &msg}
	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Warn().Err(err).Int64("room_id", msg.RoomID).Msg("websocket write error")
			conn.Close()
			h.RemoveClient(msg.RoomID, conn)
			observability.IncWSEvent("ws_error")
		}
	}
}
