package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Alschn/Beerdegu/internal/domain"
	"github.com/Alschn/Beerdegu/internal/repository"
)

// GormRoomRepository implements repository.RoomRepository. Membership rows
// live in room_members.
type GormRoomRepository struct {
	db *gorm.DB
}

func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

func (r *GormRoomRepository) FindByName(ctx context.Context, name string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Preload("Host").Where("name = ?", name).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by name '%s': %w", name, err)
	}
	return &room, nil
}

func (r *GormRoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if err := r.db.WithContext(ctx).Preload("Host").Order("created_at DESC").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("gorm: list rooms: %w", err)
	}
	return rooms, nil
}

// Create serialises a host's concurrent creates on their user row.
func (r *GormRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if room.HostID != nil {
			var host domain.User
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&host, *room.HostID).Error; err != nil {
				return err
			}
			var open int64
			if err := tx.Model(&domain.Room{}).
				Where("host_id = ? AND state <> ?", *room.HostID, domain.RoomFinished).
				Count(&open).Error; err != nil {
				return err
			}
			if open > 0 {
				return repository.ErrAlreadyHosting
			}
		}
		if err := tx.Omit("Host").Create(room).Error; err != nil {
			return err
		}
		if room.HostID == nil {
			return nil
		}
		return tx.Create(&domain.Membership{
			RoomID:     room.ID,
			UserID:     *room.HostID,
			LastActive: time.Now(),
		}).Error
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyHosting):
			return err
		case errors.Is(err, gorm.ErrRecordNotFound):
			return repository.ErrUserNotFound
		case isDuplicateEntryError(err):
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: create room '%s': %w", room.Name, err)
	}
	return nil
}

func (r *GormRoomRepository) UpdateState(ctx context.Context, room *domain.Room) error {
	res := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ?", room.ID).
		Updates(map[string]any{"state": room.State, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("gorm: update state of room %d: %w", room.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrRoomNotFound
	}
	return nil
}

func (r *GormRoomRepository) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: check membership of user %d in room %d: %w", userID, roomID, err)
	}
	return count > 0, nil
}

// AddMember serialises concurrent joins on the room row so the slot check
// and the insert see the same roster.
func (r *GormRoomRepository) AddMember(ctx context.Context, roomID, userID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room domain.Room
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&room, roomID).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&domain.Membership{}).
			Where("room_id = ? AND user_id = ?", roomID, userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return repository.ErrAlreadyMember
		}

		var members int64
		if err := tx.Model(&domain.Membership{}).Where("room_id = ?", roomID).Count(&members).Error; err != nil {
			return err
		}
		if members >= int64(room.Slots) {
			return repository.ErrRoomFull
		}

		return tx.Create(&domain.Membership{RoomID: roomID, UserID: userID, LastActive: time.Now()}).Error
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrAlreadyMember), errors.Is(err, repository.ErrRoomFull):
		return err
	case isDuplicateEntryError(err):
		// lost a race against our own second tab
		return repository.ErrAlreadyMember
	}
	if mapped := mapError(err); errors.Is(mapped, repository.ErrNotFound) {
		return repository.ErrRoomNotFound
	}
	return fmt.Errorf("gorm: add user %d to room %d: %w", userID, roomID, err)
}

func (r *GormRoomRepository) RemoveMember(ctx context.Context, roomID, userID uint) error {
	res := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Delete(&domain.Membership{})
	if res.Error != nil {
		return fmt.Errorf("gorm: remove user %d from room %d: %w", userID, roomID, res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *GormRoomRepository) TouchMember(ctx context.Context, roomID, userID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.Membership{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("last_active", at).Error
	if err != nil {
		return fmt.Errorf("gorm: touch membership of user %d in room %d: %w", userID, roomID, err)
	}
	return nil
}

func (r *GormRoomRepository) ListMembers(ctx context.Context, roomID uint, staleBefore time.Time) ([]domain.User, error) {
	var users []domain.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !staleBefore.IsZero() {
			if err := tx.Where("room_id = ? AND last_active < ?", roomID, staleBefore).
				Delete(&domain.Membership{}).Error; err != nil {
				return err
			}
		}
		return tx.Model(&domain.User{}).
			Joins("JOIN room_members ON room_members.user_id = users.id").
			Where("room_members.room_id = ?", roomID).
			Order("room_members.joined_at ASC").
			Find(&users).Error
	})
	if err != nil {
		return nil, fmt.Errorf("gorm: list members of room %d: %w", roomID, err)
	}
	return users, nil
}

func (r *GormRoomRepository) CountMembers(ctx context.Context, roomID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Membership{}).Where("room_id = ?", roomID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("gorm: count members of room %d: %w", roomID, err)
	}
	return count, nil
}

func (r *GormRoomRepository) EvictIdleMembers(ctx context.Context, staleBefore time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("last_active < ?", staleBefore).Delete(&domain.Membership{})
	if res.Error != nil {
		return 0, fmt.Errorf("gorm: evict idle members: %w", res.Error)
	}
	return res.RowsAffected, nil
}
