package repositories

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"roomsync-service/internal/models"
)

var ErrRoomNotFound = errors.New("room not found")

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RoomRepository abstracts room persistence. The room code is a unique index.
type RoomRepository interface {
	GetByCode(ctx context.Context, code string) (models.Room, error)
	Create(ctx context.Context) (models.Room, error)
	Exists(ctx context.Context, roomID int64) (bool, error)
}

// RoomRepo is a sqlx-backed repository.
type RoomRepo struct {
	db *sqlx.DB
}

// NewRoomRepo constructs a RoomRepo.
func NewRoomRepo(db *sqlx.DB) *RoomRepo {
	return &RoomRepo{db: db}
}

// GetByCode resolves a trimmed, case-insensitive room code.
func (r *RoomRepo) GetByCode(ctx context.Context, code string) (models.Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var room models.Room
	err := r.db.GetContext(ctx, &room, `SELECT id, code, created_at FROM rooms WHERE code=$1`, code)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Room{}, ErrRoomNotFound
	}
	return room, err
}

// Create inserts a room with a freshly generated join code, retrying on the
// rare code collision.
func (r *RoomRepo) Create(ctx context.Context) (models.Room, error) {
	const attempts = 5

	var lastErr error
	for i := 0; i < attempts; i++ {
		code, err := newRoomCode()
		if err != nil {
			return models.Room{}, err
		}

		var room models.Room
		err = r.db.QueryRowxContext(ctx,
			`INSERT INTO rooms (code) VALUES ($1) ON CONFLICT (code) DO NOTHING RETURNING id, code, created_at`,
			code).Scan(&room.ID, &room.Code, &room.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			// Collision with an existing code, try another one.
			lastErr = fmt.Errorf("room code collision: %s", code)
			continue
		}
		if err != nil {
			return models.Room{}, err
		}
		return room, nil
	}
	return models.Room{}, lastErr
}

// Exists reports whether the room id is known.
func (r *RoomRepo) Exists(ctx context.Context, roomID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM rooms WHERE id=$1)`, roomID)
	return exists, err
}

// newRoomCode generates a 5-character uppercase join code.
func newRoomCode() (string, error) {
	buf := make([]byte, 5)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
