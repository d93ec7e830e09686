package model

import "time"

// Gender is the closed two-value enumeration used for room homogeneity.
type Gender string

const (
	GenderMale   Gender = "М"
	GenderFemale Gender = "Ж"
)

// Valid reports whether g is one of the two known values.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// Student represents a person who can be checked into a room.
type Student struct {
	ID         int64   `gorm:"primaryKey" json:"id"`
	Surname    string  `gorm:"size:128;not null;index" json:"surname"`
	Name       string  `gorm:"size:128;not null" json:"name"`
	Patronymic *string `gorm:"size:128" json:"patronymic,omitempty"`
	Gender     Gender  `gorm:"size:8;not null" json:"gender"`
	Phone      string  `gorm:"size:32;not null" json:"phone"`
	Email      *string `gorm:"size:256" json:"email,omitempty"`
	Group      string  `gorm:"column:group_number;size:64;not null;index" json:"group"`

	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// FullName joins surname, name and the optional patronymic.
func (s Student) FullName() string {
	return fullName(s.Surname, s.Name, s.Patronymic)
}

func fullName(surname, name string, patronymic *string) string {
	out := surname + " " + name
	if patronymic != nil && *patronymic != "" {
		out += " " + *patronymic
	}
	return out
}
