package roomsync

import "errors"

var (
	// ErrRoomNotFound means no room matches the entered code.
	ErrRoomNotFound = errors.New("room not found")
	// ErrLookupFailed means room resolution failed for transport or query reasons.
	ErrLookupFailed = errors.New("room lookup failed")
	// ErrHistoryFetchFailed means the historical message fetch failed.
	ErrHistoryFetchFailed = errors.New("history fetch failed")
	// ErrProfileFetchFailed means a profile batch fetch failed; the cache is left unchanged.
	ErrProfileFetchFailed = errors.New("profile fetch failed")
	// ErrSendFailed means the persistence write for an outgoing message was rejected.
	ErrSendFailed = errors.New("send failed")

	// ErrSessionClosed is returned by operations issued after teardown.
	ErrSessionClosed = errors.New("session closed")
)
