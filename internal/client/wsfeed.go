package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"roomsync-service/internal/models"
	"roomsync-service/internal/roomsync"
)

// WSFeed implements the live subscription over the service websocket feed.
// Each Subscribe opens one long-lived connection scoped to a single room.
type WSFeed struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
	log     zerolog.Logger
}

// NewWSFeed constructs a WSFeed. baseURL uses the http or https scheme and is
// rewritten to ws or wss when dialing.
func NewWSFeed(baseURL, token string, logger zerolog.Logger) *WSFeed {
	return &WSFeed{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		dialer:  websocket.DefaultDialer,
		log:     logger,
	}
}

// Subscribe dials the room's feed endpoint. The returned subscription's
// events channel closes when the transport drops.
func (f *WSFeed) Subscribe(ctx context.Context, roomID int64) (roomsync.Subscription, error) {
	endpoint := wsScheme(f.baseURL) + fmt.Sprintf("/ws/rooms/%d", roomID)
	if f.token != "" {
		endpoint += "?token=" + url.QueryEscape(f.token)
	}

	conn, resp, err := f.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial feed: %w (status %d)", err, resp.StatusCode)
		}
		return nil, fmt.Errorf("dial feed: %w", err)
	}

	sub := &wsSubscription{
		conn:   conn,
		events: make(chan models.Message, 16),
		closed: make(chan struct{}),
		log:    f.log,
	}
	go sub.readLoop()
	return sub, nil
}

type wsSubscription struct {
	conn   *websocket.Conn
	events chan models.Message
	closed chan struct{}
	once   sync.Once
	log    zerolog.Logger
}

func (s *wsSubscription) Events() <-chan models.Message {
	return s.events
}

// Close releases the connection. Closing twice is a no-op.
func (s *wsSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		err = s.conn.Close()
	})
	return err
}

func (s *wsSubscription) readLoop() {
	defer close(s.events)
	for {
		var event models.RoomEvent
		if err := s.conn.ReadJSON(&event); err != nil {
			select {
			case <-s.closed:
				// Deliberate teardown, not a transport drop.
			default:
				s.log.Warn().Err(err).Msg("feed connection dropped")
			}
			return
		}
		if event.Type != models.EventTypeMessage || event.Message == nil {
			continue
		}
		select {
		case s.events <- *event.Message:
		case <-s.closed:
			return
		}
	}
}

func wsScheme(baseURL string) string {
	switch {
	case strings.HasPrefix(baseURL, "https://"):
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	case strings.HasPrefix(baseURL, "http://"):
		return "ws://" + strings.TrimPrefix(baseURL, "http://")
	default:
		return baseURL
	}
}

var _ roomsync.Feed = (*WSFeed)(nil)
