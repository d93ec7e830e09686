package model

import "time"

// Commandant is the staff member of record for checkins and checkouts.
type Commandant struct {
	ID         int64   `gorm:"primaryKey" json:"id"`
	Surname    string  `gorm:"size:128;not null" json:"surname"`
	Name       string  `gorm:"size:128;not null" json:"name"`
	Patronymic *string `gorm:"size:128" json:"patronymic,omitempty"`
	Phone      string  `gorm:"size:32;not null" json:"phone"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// FullName joins surname, name and the optional patronymic.
func (c Commandant) FullName() string {
	return fullName(c.Surname, c.Name, c.Patronymic)
}
