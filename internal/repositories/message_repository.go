package repositories

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"roomsync-service/internal/models"
)

var ErrEmptyContent = errors.New("message content is empty")

// MessageRepository defines interactions for room messages. The database is
// the sole source of truth for message ids and creation timestamps.
type MessageRepository interface {
	Create(ctx context.Context, roomID int64, authorID *string, content string) (models.Message, error)
	ListByRoom(ctx context.Context, roomID int64, after time.Time) ([]models.Message, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create stores a message. A nil authorID records anonymous or system authorship.
func (r *MessageRepo) Create(ctx context.Context, roomID int64, authorID *string, content string) (models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyContent
	}

	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (room_id, author_id, content) VALUES ($1, $2, $3)
         RETURNING id, room_id, author_id, content, created_at`,
		roomID, authorID, content).
		Scan(&msg.ID, &msg.RoomID, &msg.AuthorID, &msg.Content, &msg.CreatedAt)
	return msg, err
}

// ListByRoom returns the room's messages ordered by creation time ascending.
// A non-zero after value limits the result to strictly newer messages, used
// to re-read the tail after a live feed reconnect.
func (r *MessageRepo) ListByRoom(ctx context.Context, roomID int64, after time.Time) ([]models.Message, error) {
	query := `SELECT id, room_id, author_id, content, created_at FROM messages
        WHERE room_id=$1 ORDER BY created_at ASC, id ASC`
	args := []interface{}{roomID}
	if !after.IsZero() {
		query = `SELECT id, room_id, author_id, content, created_at FROM messages
            WHERE room_id=$1 AND created_at > $2 ORDER BY created_at ASC, id ASC`
		args = append(args, after)
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, args...)
	return msgs, err
}
