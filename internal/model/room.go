package model

import "time"

// Room is a unit of housing inside a building.
type Room struct {
	ID         int64    `gorm:"primaryKey" json:"id"`
	BuildingID int64    `gorm:"not null;uniqueIndex:idx_room_label,priority:1" json:"building_id"`
	Floor      int      `gorm:"not null;uniqueIndex:idx_room_label,priority:2" json:"floor"`
	Number     string   `gorm:"column:room_number;size:32;not null;uniqueIndex:idx_room_label,priority:3" json:"number"`
	Capacity   int      `gorm:"not null" json:"capacity"`
	Area       *float64 `json:"area,omitempty"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	// Associations
	Building Building `gorm:"constraint:OnDelete:RESTRICT" json:"building"`
}
