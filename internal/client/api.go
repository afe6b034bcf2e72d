package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"roomsync-service/internal/models"
	"roomsync-service/internal/roomsync"
)

// API implements the sync engine's room resolution, history, profile, and
// send collaborators over the service HTTP interface.
type API struct {
	baseURL string
	token   string
	http    *http.Client
	log     zerolog.Logger
}

// NewAPI constructs an API client. token may be empty for anonymous use.
func NewAPI(baseURL, token string, logger zerolog.Logger) *API {
	return &API{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     logger,
	}
}

// ResolveRoom maps a join code to a room.
func (a *API) ResolveRoom(ctx context.Context, code string) (models.Room, error) {
	var room models.Room
	path := "/rooms?code=" + url.QueryEscape(code)
	status, err := a.getJSON(ctx, path, &room)
	if err != nil {
		return models.Room{}, fmt.Errorf("%w: %v", roomsync.ErrLookupFailed, err)
	}
	switch status {
	case http.StatusOK:
		return room, nil
	case http.StatusNotFound:
		return models.Room{}, roomsync.ErrRoomNotFound
	default:
		return models.Room{}, fmt.Errorf("%w: unexpected status %d", roomsync.ErrLookupFailed, status)
	}
}

// History fetches the room's ordered messages, optionally only those created
// after the given timestamp.
func (a *API) History(ctx context.Context, roomID int64, after time.Time) ([]models.Message, error) {
	path := fmt.Sprintf("/rooms/%d/messages", roomID)
	if !after.IsZero() {
		path += "?after=" + url.QueryEscape(after.Format(time.RFC3339Nano))
	}

	var resp struct {
		Messages []models.Message `json:"messages"`
	}
	status, err := a.getJSON(ctx, path, &resp)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", roomsync.ErrHistoryFetchFailed, err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", roomsync.ErrHistoryFetchFailed, status)
	}
	return resp.Messages, nil
}

// FetchProfiles loads profiles for the given author ids.
func (a *API) FetchProfiles(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return []models.Profile{}, nil
	}

	var resp struct {
		Profiles []models.Profile `json:"profiles"`
	}
	path := "/profiles?ids=" + url.QueryEscape(strings.Join(ids, ","))
	status, err := a.getJSON(ctx, path, &resp)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("fetch profiles: unexpected status %d", status)
	}
	return resp.Profiles, nil
}

// Send persists a message in the room. The created record is not returned to
// the caller; it arrives through the live feed.
func (a *API) Send(ctx context.Context, roomID int64, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/rooms/%d/messages", a.baseURL, roomID), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	a.authorize(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func (a *API) getJSON(ctx context.Context, path string, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return 0, err
	}
	a.authorize(req)

	resp, err := a.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, err
		}
	}
	return resp.StatusCode, nil
}

func (a *API) authorize(req *http.Request) {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
}

var (
	_ roomsync.RoomResolver   = (*API)(nil)
	_ roomsync.HistoryLoader  = (*API)(nil)
	_ roomsync.ProfileFetcher = (*API)(nil)
	_ roomsync.Sender         = (*API)(nil)
)
