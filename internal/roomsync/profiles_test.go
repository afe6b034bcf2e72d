package roomsync_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"roomsync-service/internal/mocks"
	"roomsync-service/internal/models"
	"roomsync-service/internal/roomsync"
)

func strptr(s string) *string { return &s }

func TestProfileCacheFetchesOnlyMissing(t *testing.T) {
	fetcher := new(mocks.ProfileFetcherMock)
	cache := roomsync.NewProfileCache(fetcher)

	fetcher.On("FetchProfiles", mock.Anything, []string{"a", "b"}).
		Return([]models.Profile{{ID: "a", Username: "alice"}, {ID: "b", Username: "bob"}}, nil).Once()
	require.NoError(t, cache.Resolve(context.Background(), []string{"a", "b"}))

	// Only "c" is missing now; "a" and "b" must not be refetched.
	fetcher.On("FetchProfiles", mock.Anything, []string{"c"}).
		Return([]models.Profile{{ID: "c", Username: "carol"}}, nil).Once()
	require.NoError(t, cache.Resolve(context.Background(), []string{"a", "c", "b"}))

	p, ok := cache.Get("c")
	require.True(t, ok)
	assert.Equal(t, "carol", p.Username)
	fetcher.AssertExpectations(t)
}

func TestProfileCacheZeroFetchWhenAllCached(t *testing.T) {
	fetcher := new(mocks.ProfileFetcherMock)
	cache := roomsync.NewProfileCache(fetcher)

	fetcher.On("FetchProfiles", mock.Anything, []string{"a"}).
		Return([]models.Profile{{ID: "a", Username: "alice"}}, nil).Once()
	require.NoError(t, cache.Resolve(context.Background(), []string{"a"}))

	// Every id cached: no fetcher call at all.
	require.NoError(t, cache.Resolve(context.Background(), []string{"a", "a", ""}))
	fetcher.AssertNumberOfCalls(t, "FetchProfiles", 1)
}

func TestProfileCacheFailureLeavesCacheUntouched(t *testing.T) {
	fetcher := new(mocks.ProfileFetcherMock)
	cache := roomsync.NewProfileCache(fetcher)

	fetcher.On("FetchProfiles", mock.Anything, []string{"a"}).
		Return([]models.Profile{{ID: "a", Username: "alice", AvatarURL: strptr("/a.png")}}, nil).Once()
	require.NoError(t, cache.Resolve(context.Background(), []string{"a"}))

	fetcher.On("FetchProfiles", mock.Anything, []string{"b"}).
		Return(([]models.Profile)(nil), assert.AnError).Once()
	err := cache.Resolve(context.Background(), []string{"a", "b"})
	require.ErrorIs(t, err, roomsync.ErrProfileFetchFailed)

	// The failed round merged nothing, and the earlier entry survived.
	assert.Equal(t, 1, cache.Len())
	p, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alice", p.Username)
	_, ok = cache.Get("b")
	assert.False(t, ok)
}

func TestProfileCacheRetryAfterFailure(t *testing.T) {
	fetcher := new(mocks.ProfileFetcherMock)
	cache := roomsync.NewProfileCache(fetcher)

	fetcher.On("FetchProfiles", mock.Anything, []string{"a"}).
		Return(([]models.Profile)(nil), assert.AnError).Once()
	require.Error(t, cache.Resolve(context.Background(), []string{"a"}))

	// A failed id stays missing and is fetched again next round.
	fetcher.On("FetchProfiles", mock.Anything, []string{"a"}).
		Return([]models.Profile{{ID: "a", Username: "alice"}}, nil).Once()
	require.NoError(t, cache.Resolve(context.Background(), []string{"a"}))
	fetcher.AssertExpectations(t)
}
