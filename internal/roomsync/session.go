package roomsync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"roomsync-service/internal/models"
)

// State is a phase of the session lifecycle.
type State int

const (
	StateIdle State = iota
	StateResolvingRoom
	StateLoadingHistory
	StateLive
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingRoom:
		return "resolving_room"
	case StateLoadingHistory:
		return "loading_history"
	case StateLive:
		return "live"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Signal is a lifecycle notification for the presentation layer. Err is set
// when entering StateFailed and carries the terminal failure.
type Signal struct {
	State State
	Err   error
}

// Deps are the external collaborators a session orchestrates.
type Deps struct {
	Rooms    RoomResolver
	History  HistoryLoader
	Profiles ProfileFetcher
	Feed     Feed
	Sender   Sender
	Logger   zerolog.Logger
}

// Session owns the message store and profile cache of one active room view,
// from code resolution to teardown. All merges happen sequentially on the
// goroutine running Run; the read accessors are safe for concurrent use.
type Session struct {
	deps     Deps
	profiles *ProfileCache

	signals chan Signal
	updates chan struct{}
	done    chan struct{}

	mu         sync.Mutex
	store      *Store
	state      State
	room       models.Room
	runStarted bool
	cancel     context.CancelFunc
	closeOnce  sync.Once
}

// NewSession constructs a session around the given collaborators. The store
// and profile cache are created empty and discarded with the session.
func NewSession(deps Deps) *Session {
	return &Session{
		deps:     deps,
		profiles: NewProfileCache(deps.Profiles),
		store:    NewStore(),
		signals:  make(chan Signal, 16),
		updates:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Run drives the session state machine for the given room code and blocks
// until teardown or terminal failure. It must be called at most once.
//
// Lifecycle: ResolvingRoom -> LoadingHistory -> Live, with Failed absorbing
// errors from the two fetch phases. The live subscription is opened only after
// the history batch is merged, so no event can arrive before the seed.
func (s *Session) Run(ctx context.Context, code string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.runStarted || s.state != StateIdle {
		s.mu.Unlock()
		return errors.New("session already started")
	}
	s.runStarted = true
	s.cancel = cancel
	s.setStateLocked(StateResolvingRoom, nil)
	s.mu.Unlock()

	defer close(s.done)
	// Failed is absorbing until the consumer ends the session via Close.
	defer func() {
		s.mu.Lock()
		if s.state != StateFailed {
			s.setStateLocked(StateClosed, nil)
		}
		s.mu.Unlock()
	}()

	room, err := s.deps.Rooms.ResolveRoom(ctx, NormalizeCode(code))
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) && !errors.Is(err, ErrLookupFailed) {
			err = fmt.Errorf("%w: %v", ErrLookupFailed, err)
		}
		return s.fail(err)
	}

	s.mu.Lock()
	s.room = room
	s.setStateLocked(StateLoadingHistory, nil)
	s.mu.Unlock()

	history, err := s.deps.History.History(ctx, room.ID, time.Time{})
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		if !errors.Is(err, ErrHistoryFetchFailed) {
			err = fmt.Errorf("%w: %v", ErrHistoryFetchFailed, err)
		}
		return s.fail(err)
	}
	s.mergeBatch(history)
	s.resolveProfiles(ctx, authorIDs(history))

	sub, err := s.deps.Feed.Subscribe(ctx, room.ID)
	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return s.fail(fmt.Errorf("open live subscription: %w", err))
	}
	defer func() { _ = sub.Close() }()

	s.setState(StateLive, nil)
	s.deps.Logger.Info().Int64("room_id", room.ID).Str("code", room.Code).
		Int("history", len(history)).Msg("session live")

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-sub.Events():
			if !ok {
				// Transport drop: re-open first so the resync window has no
				// trailing gap, then re-read messages newer than the last seen.
				// The session stays live throughout; transport trouble after
				// the seed is never terminal.
				_ = sub.Close()
				next, err := s.resubscribe(ctx, room.ID)
				if err != nil {
					return nil
				}
				sub = next
				s.resync(ctx)
				s.setState(StateLive, nil)
				continue
			}
			if msg.RoomID != room.ID {
				// Never mutate state for a room that is not this session's.
				continue
			}
			if s.merge(msg) {
				if msg.AuthorID != nil {
					s.resolveProfiles(ctx, []string{*msg.AuthorID})
				}
				s.notify()
			}
		}
	}
}

// Close tears the session down: the live subscription is released, in-flight
// fetch results are discarded, and the state becomes Closed. Safe to call more
// than once and before Run.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		started := s.runStarted
		if s.cancel != nil {
			s.cancel()
		}
		s.mu.Unlock()

		if started {
			<-s.done
		}
		s.enterClosed()
	})
}

// Send persists a message in the session's room. The content is trimmed and
// empty sends are ignored. Failures wrap ErrSendFailed and leave the store
// untouched; the confirmed message arrives through the live feed only.
func (s *Session) Send(ctx context.Context, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	s.mu.Lock()
	state := s.state
	room := s.room
	s.mu.Unlock()
	if state != StateLive {
		return ErrSessionClosed
	}

	if err := s.deps.Sender.Send(ctx, room.ID, content); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// Messages returns the ordered, deduplicated read view.
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Messages()
}

// Profile returns cached author metadata, if resolved.
func (s *Session) Profile(id string) (models.Profile, bool) {
	return s.profiles.Get(id)
}

// Room returns the resolved room; ok is false before resolution completes.
func (s *Session) Room() (models.Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room, s.room.ID != 0
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Signals delivers lifecycle transitions. Emission never blocks the session;
// a slow consumer loses intermediate transitions, not the terminal one kept
// queryable via State.
func (s *Session) Signals() <-chan Signal {
	return s.signals
}

// Updates is a coalesced notification channel pulsed after every accepted
// merge, for renderers that re-read Messages.
func (s *Session) Updates() <-chan struct{} {
	return s.updates
}

func (s *Session) merge(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Merge(msg)
}

func (s *Session) mergeBatch(msgs []models.Message) {
	s.mu.Lock()
	accepted := s.store.MergeBatch(msgs)
	s.mu.Unlock()
	if accepted > 0 {
		s.notify()
	}
}

// resubscribe keeps dialing the feed until it opens or the session context
// ends. Returns an error only when the context is done.
func (s *Session) resubscribe(ctx context.Context, roomID int64) (Subscription, error) {
	backoff := 250 * time.Millisecond
	for {
		sub, err := s.deps.Feed.Subscribe(ctx, roomID)
		if err == nil {
			return sub, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.deps.Logger.Warn().Err(err).Int64("room_id", roomID).Msg("reopen live subscription failed")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 4*time.Second {
			backoff *= 2
		}
	}
}

func (s *Session) resync(ctx context.Context) {
	s.mu.Lock()
	room := s.room
	latest := s.store.Latest()
	s.mu.Unlock()

	msgs, err := s.deps.History.History(ctx, room.ID, latest)
	if err != nil {
		// Non-fatal: the session stays live and may simply have missed events.
		s.deps.Logger.Warn().Err(err).Int64("room_id", room.ID).Msg("gap resync failed")
		return
	}
	s.mergeBatch(msgs)
	s.resolveProfiles(ctx, authorIDs(msgs))
	s.deps.Logger.Info().Int64("room_id", room.ID).Int("fetched", len(msgs)).Msg("gap resync done")
}

func (s *Session) resolveProfiles(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}
	if err := s.profiles.Resolve(ctx, ids); err != nil {
		// Unresolved authors render with the default avatar; never block display.
		s.deps.Logger.Warn().Err(err).Msg("profile resolve failed")
		return
	}
	s.notify()
}

func (s *Session) fail(err error) error {
	s.setState(StateFailed, err)
	s.deps.Logger.Error().Err(err).Msg("session failed")
	return err
}

func (s *Session) enterClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.setStateLocked(StateClosed, nil)
}

func (s *Session) setState(state State, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStateLocked(state, err)
}

func (s *Session) setStateLocked(state State, err error) {
	s.state = state
	select {
	case s.signals <- Signal{State: state, Err: err}:
	default:
	}
}

func (s *Session) notify() {
	select {
	case s.updates <- struct{}{}:
	default:
	}
}

// NormalizeCode canonicalizes a user-entered room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func authorIDs(msgs []models.Message) []string {
	seen := make(map[string]struct{}, len(msgs))
	var ids []string
	for _, m := range msgs {
		if m.AuthorID == nil || *m.AuthorID == "" {
			continue
		}
		if _, ok := seen[*m.AuthorID]; ok {
			continue
		}
		seen[*m.AuthorID] = struct{}{}
		ids = append(ids, *m.AuthorID)
	}
	return ids
}
