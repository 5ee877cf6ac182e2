package repository

import (
	"context"

	"github.com/Alschn/Beerdegu/internal/domain"
)

// FlightRepository keeps the ordered list of beers in a room.
type FlightRepository interface {
	// List returns entries by position with beers (brewery, style) preloaded.
	List(ctx context.Context, roomID uint) ([]domain.FlightEntry, error)

	// Append adds the beer at the next position. ErrDuplicateEntry when the
	// beer is already in the room.
	Append(ctx context.Context, roomID, beerID uint) (*domain.FlightEntry, error)

	// Remove deletes the beer and shifts later positions down by one.
	// ErrNotFound when the beer is not in the room.
	Remove(ctx context.Context, roomID, beerID uint) error

	// Contains reports whether the beer is in the room's flight.
	Contains(ctx context.Context, roomID, beerID uint) (bool, error)
}
