package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
)

// GormRatingRepository implements repository.RatingRepository.
type GormRatingRepository struct {
	db *gorm.DB
}

func NewGormRatingRepository(db *gorm.DB) *GormRatingRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRatingRepository")
	}
	return &GormRatingRepository{db: db}
}

// Upsert relies on idx_rating_scope: the insert is a no-op when the row
// exists, and the locked select then sees exactly one row for the key.
func (r *GormRatingRepository) Upsert(ctx context.Context, key domain.RatingKey, apply func(*domain.Rating)) (*domain.Rating, error) {
	var rating domain.Rating
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userID, roomID := key.UserID, key.RoomID
		seed := domain.Rating{AddedByID: &userID, BeerID: key.BeerID, RoomID: &roomID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Omit("AddedBy", "Beer", "Room").
			Create(&seed).Error; err != nil {
			return err
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("added_by_id = ? AND beer_id = ? AND room_id = ?", key.UserID, key.BeerID, key.RoomID).
			First(&rating).Error; err != nil {
			return err
		}
		if apply == nil {
			return nil
		}
		apply(&rating)
		return tx.Omit("AddedBy", "Beer", "Room").Save(&rating).Error
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: upsert rating (user %d, beer %d, room %d): %w", key.UserID, key.BeerID, key.RoomID, mapError(err))
	}
	return &rating, nil
}

func (r *GormRatingRepository) FindByID(ctx context.Context, id uint) (*domain.Rating, error) {
	var rating domain.Rating
	if err := r.db.WithContext(ctx).Preload("Room").First(&rating, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRatingNotFound
		}
		return nil, fmt.Errorf("gorm: find rating by id %d: %w", id, err)
	}
	return &rating, nil
}

func (r *GormRatingRepository) ListByAuthor(ctx context.Context, userID uint) ([]domain.Rating, error) {
	var ratings []domain.Rating
	err := r.db.WithContext(ctx).
		Where("added_by_id = ?", userID).
		Order("created_at DESC").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list ratings of user %d: %w", userID, err)
	}
	return ratings, nil
}

func (r *GormRatingRepository) Update(ctx context.Context, rating *domain.Rating) error {
	if err := r.db.WithContext(ctx).Omit("AddedBy", "Beer", "Room").Save(rating).Error; err != nil {
		return fmt.Errorf("gorm: update rating %d: %w", rating.ID, err)
	}
	return nil
}

func (r *GormRatingRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.Rating{}, id)
	if res.Error != nil {
		return fmt.Errorf("gorm: delete rating %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrRatingNotFound
	}
	return nil
}

func (r *GormRatingRepository) AverageNotes(ctx context.Context, roomID uint) ([]repository.BeerAverage, error) {
	var rows []repository.BeerAverage
	err := r.db.WithContext(ctx).Model(&domain.Rating{}).
		Select("beer_id, AVG(note) AS average").
		Where("room_id = ? AND note IS NOT NULL", roomID).
		Group("beer_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: average notes in room %d: %w", roomID, err)
	}
	return rows, nil
}

func (r *GormRatingRepository) ListForRoomByAuthor(ctx context.Context, roomID, userID uint) ([]domain.Rating, error) {
	var ratings []domain.Rating
	err := r.db.WithContext(ctx).
		Select("ratings.*").
		Joins("JOIN flight_entries ON flight_entries.beer_id = ratings.beer_id AND flight_entries.room_id = ratings.room_id").
		Preload("Beer").Preload("Beer.Brewery").Preload("Beer.Style").
		Where("ratings.room_id = ? AND ratings.added_by_id = ?", roomID, userID).
		Order("flight_entries.position ASC").
		Find(&ratings).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list ratings of user %d in room %d: %w", userID, roomID, err)
	}
	return ratings, nil
}
