package repository

import (
	"context"
	"time"

	"github.com/Alschn/Beerdegu/internal/domain"
)

// RoomRepository stores rooms and their membership roster.
type RoomRepository interface {
	// FindByName looks a room up by its normalized name, with the host preloaded.
	// Returns ErrRoomNotFound when absent.
	FindByName(ctx context.Context, name string) (*domain.Room, error)

	// List returns all rooms, newest first.
	List(ctx context.Context) ([]domain.Room, error)

	// Create inserts the room and, when it has a host, the host's membership
	// in one transaction. The host's user row is locked while their open
	// rooms are counted, so ErrAlreadyHosting holds under concurrent creates.
	// A taken name yields ErrDuplicateEntry.
	Create(ctx context.Context, room *domain.Room) error

	// UpdateState persists room.State.
	UpdateState(ctx context.Context, room *domain.Room) error

	// IsMember reports whether userID belongs to roomID.
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)

	// AddMember locks the room row, then inserts the membership if there is a
	// free slot. Returns ErrAlreadyMember or ErrRoomFull without writing.
	AddMember(ctx context.Context, roomID, userID uint) error

	// RemoveMember deletes the membership. ErrNotFound when the user is not in the room.
	RemoveMember(ctx context.Context, roomID, userID uint) error

	// TouchMember refreshes last_active. Missing memberships are ignored.
	TouchMember(ctx context.Context, roomID, userID uint, at time.Time) error

	// ListMembers first deletes memberships idle since before staleBefore and
	// then returns the remaining users ordered by join time, in one transaction.
	// A zero staleBefore skips pruning.
	ListMembers(ctx context.Context, roomID uint, staleBefore time.Time) ([]domain.User, error)

	// CountMembers returns the current roster size.
	CountMembers(ctx context.Context, roomID uint) (int64, error)

	// EvictIdleMembers deletes every membership idle since before staleBefore,
	// across all rooms, and reports how many were removed.
	EvictIdleMembers(ctx context.Context, staleBefore time.Time) (int64, error)
}
