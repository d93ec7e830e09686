package model

import "time"

// Building represents a dormitory building.
type Building struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Number      string    `gorm:"column:building_number;uniqueIndex;size:32;not null" json:"number"`
	Address     string    `gorm:"size:256;not null" json:"address"`
	FloorsCount int       `gorm:"not null" json:"floors_count"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}
