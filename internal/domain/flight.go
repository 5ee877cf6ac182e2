package domain

import "time"

// FlightEntry places a beer in a room's tasting order. Positions are
// 0..n-1 without gaps.
type FlightEntry struct {
	ID        uint      `gorm:"primaryKey"`
	RoomID    uint      `gorm:"uniqueIndex:idx_flight_room_beer;index:idx_flight_room_position;not null"`
	BeerID    uint      `gorm:"uniqueIndex:idx_flight_room_beer;not null"`
	Beer      *Beer     `gorm:"constraint:OnDelete:CASCADE"`
	Room      *Room     `gorm:"constraint:OnDelete:CASCADE"`
	Position  int       `gorm:"index:idx_flight_room_position;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (FlightEntry) TableName() string { return "flight_entries" }
