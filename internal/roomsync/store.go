package roomsync

import (
	"sort"
	"time"

	"roomsync-service/internal/models"
)

type storeEntry struct {
	msg models.Message
	seq int64
}

// Store is the ordered, deduplicated message collection of one room session.
// The message identifier is the sole deduplication key: a historical row and a
// live event with the same id are the same message.
//
// Individual merges append at the tail in arrival order. Batch merges (history
// seed, reconnect resync) restore timestamp order afterwards, with arrival
// sequence as the stable tie-breaker so already-displayed messages never swap.
type Store struct {
	byID    map[int64]struct{}
	entries []storeEntry
	nextSeq int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{byID: make(map[int64]struct{})}
}

// Merge inserts the message unless an entry with its id already exists.
// Returns true when the store state changed.
func (s *Store) Merge(msg models.Message) bool {
	if _, ok := s.byID[msg.ID]; ok {
		return false
	}
	s.byID[msg.ID] = struct{}{}
	s.entries = append(s.entries, storeEntry{msg: msg, seq: s.nextSeq})
	s.nextSeq++
	return true
}

// MergeBatch merges the messages in input order and then re-sorts the view by
// creation timestamp. Returns how many messages were accepted.
func (s *Store) MergeBatch(msgs []models.Message) int {
	accepted := 0
	for _, msg := range msgs {
		if s.Merge(msg) {
			accepted++
		}
	}
	if accepted > 0 {
		sort.SliceStable(s.entries, func(i, j int) bool {
			if !s.entries[i].msg.CreatedAt.Equal(s.entries[j].msg.CreatedAt) {
				return s.entries[i].msg.CreatedAt.Before(s.entries[j].msg.CreatedAt)
			}
			return s.entries[i].seq < s.entries[j].seq
		})
	}
	return accepted
}

// Messages returns a copy of the display-ordered view.
func (s *Store) Messages() []models.Message {
	out := make([]models.Message, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.msg
	}
	return out
}

// Contains reports whether a message with the id was merged.
func (s *Store) Contains(id int64) bool {
	_, ok := s.byID[id]
	return ok
}

// Len returns the number of distinct messages held.
func (s *Store) Len() int {
	return len(s.entries)
}

// Latest returns the newest creation timestamp seen, or the zero time when empty.
func (s *Store) Latest() time.Time {
	var latest time.Time
	for _, e := range s.entries {
		if e.msg.CreatedAt.After(latest) {
			latest = e.msg.CreatedAt
		}
	}
	return latest
}
