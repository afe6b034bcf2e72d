package roomsync

import (
	"context"
	"time"

	"roomsync-service/internal/models"
)

// RoomResolver maps a user-entered code to a room. Implementations return
// errors wrapping ErrRoomNotFound when no room matches and ErrLookupFailed on
// transport or query errors.
type RoomResolver interface {
	ResolveRoom(ctx context.Context, code string) (models.Room, error)
}

// HistoryLoader fetches the messages of a room ordered by creation timestamp
// ascending. A non-zero after value restricts the fetch to messages created
// strictly later, which is how reconnect gap recovery re-reads the tail.
type HistoryLoader interface {
	History(ctx context.Context, roomID int64, after time.Time) ([]models.Message, error)
}

// Feed opens the live message-created event stream for a resolved room. Events
// must be scoped server-side to the given room.
type Feed interface {
	Subscribe(ctx context.Context, roomID int64) (Subscription, error)
}

// Subscription is one long-lived logical connection to a room's live feed.
// The events channel is closed when the transport drops. Close is idempotent.
type Subscription interface {
	Events() <-chan models.Message
	Close() error
}

// Sender persists an outgoing message. The store assigns the message id and
// timestamp; the confirmed record arrives back through the live feed.
type Sender interface {
	Send(ctx context.Context, roomID int64, content string) error
}
