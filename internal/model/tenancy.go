package model

import "time"

// DateLayout is the calendar format used for checkin and checkout dates.
const DateLayout = "2006-01-02"

// Checkin records a student moving into a room. Rows are append-only.
type Checkin struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	StudentID    int64     `gorm:"not null;index" json:"student_id"`
	RoomID       int64     `gorm:"not null;index" json:"room_id"`
	CommandantID int64     `gorm:"not null;index" json:"commandant_id"`
	Date         string    `gorm:"column:checkin_date;size:10;not null;index" json:"date"`
	CreatedAt    time.Time `json:"-"`

	// Associations
	Student    Student    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Room       Room       `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Commandant Commandant `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// Checkout closes exactly one Checkin.
type Checkout struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	CheckinID    int64     `gorm:"not null;uniqueIndex" json:"checkin_id"`
	CommandantID int64     `gorm:"not null;index" json:"commandant_id"`
	Date         string    `gorm:"column:checkout_date;size:10;not null" json:"date"`
	CreatedAt    time.Time `json:"-"`

	// Associations
	Checkin    Checkin    `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
	Commandant Commandant `gorm:"constraint:OnDelete:RESTRICT" json:"-"`
}

// CheckinRow is a checkin joined with the names needed for listings and export.
type CheckinRow struct {
	ID             int64  `json:"id"`
	StudentID      int64  `json:"student_id"`
	RoomID         int64  `json:"room_id"`
	CommandantID   int64  `json:"commandant_id"`
	Date           string `json:"date"`
	StudentName    string `json:"student_name"`
	CommandantName string `json:"commandant_name"`
	RoomNumber     string `json:"room_number"`
	Floor          int    `json:"floor"`
	BuildingNumber string `json:"building_number"`
	Address        string `json:"address"`
}

// CheckoutRow is a checkout joined with the originating checkin's context.
type CheckoutRow struct {
	ID             int64  `json:"id"`
	CheckinID      int64  `json:"checkin_id"`
	CommandantID   int64  `json:"commandant_id"`
	Date           string `json:"date"`
	CheckinDate    string `json:"checkin_date"`
	StudentName    string `json:"student_name"`
	CommandantName string `json:"commandant_name"`
	RoomNumber     string `json:"room_number"`
	Floor          int    `json:"floor"`
	BuildingNumber string `json:"building_number"`
	Address        string `json:"address"`
}
