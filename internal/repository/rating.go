package repository

import (
	"context"

	"github.com/Alschn/Beerdegu/internal/domain"
)

// BeerAverage is the mean note of one beer in one room. Average is nil
// when nobody rated it.
type BeerAverage struct {
	BeerID  uint
	Average *float64
}

// RatingRepository stores tasting notes.
type RatingRepository interface {
	// Upsert finds or creates the rating for key, then, when apply is not nil,
	// calls it with the row locked and saves the result. The row is returned.
	Upsert(ctx context.Context, key domain.RatingKey, apply func(*domain.Rating)) (*domain.Rating, error)

	// FindByID returns ErrRatingNotFound when absent. The room is preloaded.
	FindByID(ctx context.Context, id uint) (*domain.Rating, error)

	// ListByAuthor returns the user's ratings, newest first.
	ListByAuthor(ctx context.Context, userID uint) ([]domain.Rating, error)

	Update(ctx context.Context, rating *domain.Rating) error
	Delete(ctx context.Context, id uint) error

	// AverageNotes averages non-null notes per beer for a room.
	AverageNotes(ctx context.Context, roomID uint) ([]BeerAverage, error)

	// ListForRoomByAuthor returns the user's ratings in a room ordered by the
	// flight position of their beer. Ratings for beers no longer in the
	// flight are left out.
	ListForRoomByAuthor(ctx context.Context, roomID, userID uint) ([]domain.Rating, error)
}
