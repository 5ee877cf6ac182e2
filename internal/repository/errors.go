package repository

import "errors"

// Generic storage errors.
var (
	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("repository: record not found")
	// ErrDuplicateEntry means a unique constraint was violated.
	ErrDuplicateEntry = errors.New("repository: duplicate entry")
)

// Resource aliases, so callers can be explicit about what was missing.
var (
	ErrUserNotFound   = ErrNotFound
	ErrRoomNotFound   = ErrNotFound
	ErrBeerNotFound   = ErrNotFound
	ErrRatingNotFound = ErrNotFound
)

// Membership outcomes decided inside the join transaction.
var (
	ErrRoomFull      = errors.New("repository: room is full")
	ErrAlreadyMember = errors.New("repository: user already in room")
)

// ErrAlreadyHosting means the host still has a room that is not FINISHED.
var ErrAlreadyHosting = errors.New("repository: host already has an open room")
