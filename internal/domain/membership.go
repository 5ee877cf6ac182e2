package domain

import "time"

// Membership ties a user to a room and tracks presence.
type Membership struct {
	ID         uint      `gorm:"primaryKey"`
	RoomID     uint      `gorm:"uniqueIndex:idx_member_room_user;not null"`
	UserID     uint      `gorm:"uniqueIndex:idx_member_room_user;not null"`
	User       *User     `gorm:"constraint:OnDelete:CASCADE"`
	Room       *Room     `gorm:"constraint:OnDelete:CASCADE"`
	JoinedAt   time.Time `gorm:"autoCreateTime"`
	LastActive time.Time `gorm:"index;not null"`
}

func (Membership) TableName() string { return "room_members" }

// IsIdle reports whether the member has been silent longer than threshold.
func (m Membership) IsIdle(now time.Time, threshold time.Duration) bool {
	return now.Sub(m.LastActive) > threshold
}
