package models

import "time"

// Message represents a room message. The id and creation timestamp are
// assigned by the persistence layer, never by a client.
type Message struct {
	ID        int64     `db:"id" json:"id"`
	RoomID    int64     `db:"room_id" json:"room_id"`
	AuthorID  *string   `db:"author_id" json:"author_id"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RoomEvent is broadcasted through websockets to room subscribers.
type RoomEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
}

// EventTypeMessage marks a message-created room event.
const EventTypeMessage = "message"
