package repository

import (
	"context"

	"github.com/Alschn/Beerdegu/internal/domain"
)

// BeerRepository is the read side of the catalog plus simple creation.
type BeerRepository interface {
	// FindByID loads the beer with its brewery and style. ErrBeerNotFound when absent.
	FindByID(ctx context.Context, id uint) (*domain.Beer, error)
	// List returns beers whose name contains search (case-insensitive), all when empty.
	List(ctx context.Context, search string) ([]domain.Beer, error)
	Save(ctx context.Context, beer *domain.Beer) error
}
