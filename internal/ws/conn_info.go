package ws

import "time"

// ConnInfo carries per-connection identity captured at upgrade time.
type ConnInfo struct {
	ConnID      string
	AuthorID    *string
	IP          string
	ConnectedAt time.Time
}
