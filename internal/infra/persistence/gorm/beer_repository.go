package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
)

// GormBeerRepository implements repository.BeerRepository.
type GormBeerRepository struct {
	db *gorm.DB
}

func NewGormBeerRepository(db *gorm.DB) *GormBeerRepository {
	if db == nil {
		panic("database connection cannot be nil for GormBeerRepository")
	}
	return &GormBeerRepository{db: db}
}

func (r *GormBeerRepository) FindByID(ctx context.Context, id uint) (*domain.Beer, error) {
	var beer domain.Beer
	err := r.db.WithContext(ctx).
		Preload("Brewery").Preload("Style").Preload("Hops").
		First(&beer, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrBeerNotFound
		}
		return nil, fmt.Errorf("gorm: find beer by id %d: %w", id, err)
	}
	return &beer, nil
}

func (r *GormBeerRepository) List(ctx context.Context, search string) ([]domain.Beer, error) {
	var beers []domain.Beer
	q := r.db.WithContext(ctx).Preload("Brewery").Preload("Style").Order("name ASC")
	if s := strings.TrimSpace(search); s != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(s)+"%")
	}
	if err := q.Find(&beers).Error; err != nil {
		return nil, fmt.Errorf("gorm: list beers: %w", err)
	}
	return beers, nil
}

func (r *GormBeerRepository) Save(ctx context.Context, beer *domain.Beer) error {
	if err := r.db.WithContext(ctx).Save(beer).Error; err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save beer '%s': %w", beer.Name, err)
	}
	return nil
}
