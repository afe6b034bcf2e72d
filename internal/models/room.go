package models

import "time"

// Room is a chat channel resolved from a short user-entered code.
type Room struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
