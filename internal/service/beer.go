package service

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
)

// BeerService exposes the beer catalog.
type BeerService struct {
	beerRepo repository.BeerRepository
}

func NewBeerService(beerRepo repository.BeerRepository) *BeerService {
	if beerRepo == nil {
		panic("BeerRepository cannot be nil for BeerService")
	}
	return &BeerService{beerRepo: beerRepo}
}

// CreateBeerInput holds the catalog fields a client may set.
type CreateBeerInput struct {
	Name        string
	BreweryID   *uint
	StyleID     *uint
	Percentage  *float64
	VolumeML    *int
	HopRate     *float64
	Extract     *float64
	IBU         *int
	Description string
}

func (s *BeerService) ListBeers(ctx context.Context, search string) ([]domain.Beer, error) {
	beers, err := s.beerRepo.List(ctx, search)
	if err != nil {
		logrus.WithError(err).WithField("search", search).Error("Failed to list beers")
		return nil, ErrInternalServer
	}
	return beers, nil
}

func (s *BeerService) GetBeer(ctx context.Context, id uint) (*domain.Beer, error) {
	beer, err := s.beerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBeerNotFound) {
			return nil, ErrBeerNotFound
		}
		logrus.WithError(err).WithField("beer_id", id).Error("Failed to get beer")
		return nil, ErrInternalServer
	}
	return beer, nil
}

// CreateBeer adds a beer to the catalog and returns it with relations loaded.
func (s *BeerService) CreateBeer(ctx context.Context, in CreateBeerInput) (*domain.Beer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, newValidationError("name", "required", "Beer name is required.")
	}
	beer := &domain.Beer{
		Name:        name,
		BreweryID:   in.BreweryID,
		StyleID:     in.StyleID,
		Percentage:  in.Percentage,
		VolumeML:    in.VolumeML,
		HopRate:     in.HopRate,
		Extract:     in.Extract,
		IBU:         in.IBU,
		Description: in.Description,
	}
	if err := s.beerRepo.Save(ctx, beer); err != nil {
		logrus.WithError(err).WithField("name", name).Error("Failed to create beer")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"beer_id": beer.ID, "name": name}).Info("Beer created")

	created, err := s.beerRepo.FindByID(ctx, beer.ID)
	if err != nil {
		return beer, nil
	}
	return created, nil
}
