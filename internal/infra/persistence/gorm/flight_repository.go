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

// GormFlightRepository implements repository.FlightRepository on flight_entries.
type GormFlightRepository struct {
	db *gorm.DB
}

func NewGormFlightRepository(db *gorm.DB) *GormFlightRepository {
	if db == nil {
		panic("database connection cannot be nil for GormFlightRepository")
	}
	return &GormFlightRepository{db: db}
}

func (r *GormFlightRepository) List(ctx context.Context, roomID uint) ([]domain.FlightEntry, error) {
	var entries []domain.FlightEntry
	err := r.db.WithContext(ctx).
		Preload("Beer").Preload("Beer.Brewery").Preload("Beer.Style").
		Where("room_id = ?", roomID).
		Order("position ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: list flight of room %d: %w", roomID, err)
	}
	return entries, nil
}

// Append locks the room row so two hosts' tabs cannot take the same position.
func (r *GormFlightRepository) Append(ctx context.Context, roomID, beerID uint) (*domain.FlightEntry, error) {
	entry := &domain.FlightEntry{RoomID: roomID, BeerID: beerID}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room domain.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&room, roomID).Error; err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&domain.FlightEntry{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
			return err
		}
		entry.Position = int(count)
		return tx.Omit("Beer", "Room").Create(entry).Error
	})
	if err != nil {
		if mapped := mapError(err); errors.Is(mapped, repository.ErrNotFound) || errors.Is(mapped, repository.ErrDuplicateEntry) {
			return nil, mapped
		}
		return nil, fmt.Errorf("gorm: append beer %d to room %d: %w", beerID, roomID, err)
	}
	return entry, nil
}

func (r *GormFlightRepository) Remove(ctx context.Context, roomID, beerID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry domain.FlightEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("room_id = ? AND beer_id = ?", roomID, beerID).
			First(&entry).Error; err != nil {
			return err
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		return tx.Model(&domain.FlightEntry{}).
			Where("room_id = ? AND position > ?", roomID, entry.Position).
			UpdateColumn("position", gorm.Expr("position - 1")).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("gorm: remove beer %d from room %d: %w", beerID, roomID, err)
	}
	return nil
}

func (r *GormFlightRepository) Contains(ctx context.Context, roomID, beerID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.FlightEntry{}).
		Where("room_id = ? AND beer_id = ?", roomID, beerID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check beer %d in room %d: %w", beerID, roomID, err)
	}
	return count > 0, nil
}
