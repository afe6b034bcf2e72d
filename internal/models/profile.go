package models

import "time"

// Profile is author display metadata, fetched independently of messages.
// A nil AvatarURL means the renderer substitutes its default avatar.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	AvatarURL *string   `db:"avatar_url" json:"avatar_url"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
