package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomsync-service/internal/models"
	"roomsync-service/internal/roomsync"
)

func TestAPIResolveRoom(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms", r.URL.Path)
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("code") {
		case "ABC12":
			json.NewEncoder(w).Encode(models.Room{ID: 7, Code: "ABC12"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "tok", zerolog.Nop())

	room, err := api.ResolveRoom(context.Background(), "ABC12")
	require.NoError(t, err)
	assert.Equal(t, int64(7), room.ID)

	_, err = api.ResolveRoom(context.Background(), "NOPE1")
	require.ErrorIs(t, err, roomsync.ErrRoomNotFound)
}

func TestAPIResolveRoomServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "", zerolog.Nop())
	_, err := api.ResolveRoom(context.Background(), "ABC12")
	require.ErrorIs(t, err, roomsync.ErrLookupFailed)
}

func TestAPIHistory(t *testing.T) {
	after := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rooms/7/messages", r.URL.Path)
		if raw := r.URL.Query().Get("after"); raw != "" {
			got, err := time.Parse(time.RFC3339Nano, raw)
			require.NoError(t, err)
			require.True(t, got.Equal(after))
			json.NewEncoder(w).Encode(map[string]any{"messages": []models.Message{{ID: 2, RoomID: 7}}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"messages": []models.Message{{ID: 1, RoomID: 7}, {ID: 2, RoomID: 7}}})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "", zerolog.Nop())

	full, err := api.History(context.Background(), 7, time.Time{})
	require.NoError(t, err)
	assert.Len(t, full, 2)

	tail, err := api.History(context.Background(), 7, after)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, int64(2), tail[0].ID)
}

func TestAPIHistoryError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "", zerolog.Nop())
	_, err := api.History(context.Background(), 7, time.Time{})
	require.ErrorIs(t, err, roomsync.ErrHistoryFetchFailed)
}

func TestAPIFetchProfiles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "u1,u2", r.URL.Query().Get("ids"))
		json.NewEncoder(w).Encode(map[string]any{"profiles": []models.Profile{{ID: "u1", Username: "alice"}}})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "", zerolog.Nop())

	profiles, err := api.FetchProfiles(context.Background(), []string{"u1", "u2"})
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "alice", profiles[0].Username)

	// No ids, no request.
	profiles, err = api.FetchProfiles(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

func TestAPISend(t *testing.T) {
	var gotContent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var req struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotContent = req.Content
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.Message{ID: 9, RoomID: 7, Content: req.Content})
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "", zerolog.Nop())
	require.NoError(t, api.Send(context.Background(), 7, "hello"))
	assert.Equal(t, "hello", gotContent)
}

func TestAPISendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	api := NewAPI(srv.URL, "", zerolog.Nop())
	require.Error(t, api.Send(context.Background(), 7, "hello"))
}
