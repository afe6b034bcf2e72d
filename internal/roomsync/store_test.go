package roomsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync-service/internal/models"
)

func msgAt(id int64, ts time.Time) models.Message {
	return models.Message{ID: id, RoomID: 1, Content: "m", CreatedAt: ts}
}

func ids(msgs []models.Message) []int64 {
	out := make([]int64, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestStoreMergeDeduplicates(t *testing.T) {
	s := NewStore()
	base := time.Now()

	require.True(t, s.Merge(msgAt(1, base)))
	require.False(t, s.Merge(msgAt(1, base)))
	require.False(t, s.Merge(msgAt(1, base.Add(time.Hour))))

	assert.Equal(t, 1, s.Len())
	assert.True(t, s.Contains(1))
	assert.False(t, s.Contains(2))
}

func TestStoreMergeBatchOverlap(t *testing.T) {
	s := NewStore()
	base := time.Now()

	history := []models.Message{msgAt(1, base), msgAt(2, base.Add(time.Second)), msgAt(3, base.Add(2 * time.Second))}
	require.Equal(t, 3, s.MergeBatch(history))

	// A second batch sharing two ids only contributes the new one.
	overlap := []models.Message{msgAt(2, base.Add(time.Second)), msgAt(3, base.Add(2 * time.Second)), msgAt(4, base.Add(3 * time.Second))}
	require.Equal(t, 1, s.MergeBatch(overlap))

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(s.Messages()))
}

func TestStoreLiveAppendsAtTail(t *testing.T) {
	s := NewStore()
	base := time.Now()

	s.MergeBatch([]models.Message{msgAt(1, base), msgAt(2, base.Add(time.Second))})

	// A live event with an older timestamp still lands at the tail, because
	// individual merges never reorder the view.
	require.True(t, s.Merge(msgAt(3, base.Add(-time.Minute))))
	assert.Equal(t, []int64{1, 2, 3}, ids(s.Messages()))

	// A later batch merge restores timestamp order.
	s.MergeBatch([]models.Message{msgAt(4, base.Add(2 * time.Second))})
	assert.Equal(t, []int64{3, 1, 2, 4}, ids(s.Messages()))
}

func TestStoreBatchSortsByTimestamp(t *testing.T) {
	s := NewStore()
	base := time.Now()

	// A history batch arriving unordered is displayed sorted.
	s.MergeBatch([]models.Message{msgAt(3, base.Add(2 * time.Second)), msgAt(1, base), msgAt(2, base.Add(time.Second))})
	assert.Equal(t, []int64{1, 2, 3}, ids(s.Messages()))
}

func TestStoreEqualTimestampsKeepArrivalOrder(t *testing.T) {
	s := NewStore()
	ts := time.Now()

	require.True(t, s.Merge(msgAt(10, ts)))
	require.True(t, s.Merge(msgAt(11, ts)))
	s.MergeBatch([]models.Message{msgAt(12, ts)})

	// Equal timestamps never swap relative to the order they were merged.
	assert.Equal(t, []int64{10, 11, 12}, ids(s.Messages()))
}

func TestStoreMessagesReturnsCopy(t *testing.T) {
	s := NewStore()
	s.Merge(msgAt(1, time.Now()))

	view := s.Messages()
	view[0].ID = 99

	assert.Equal(t, []int64{1}, ids(s.Messages()))
}

func TestStoreLatest(t *testing.T) {
	s := NewStore()
	assert.True(t, s.Latest().IsZero())

	base := time.Now()
	s.MergeBatch([]models.Message{msgAt(2, base.Add(time.Minute)), msgAt(1, base)})
	assert.Equal(t, base.Add(time.Minute), s.Latest())
}
