// Package validate holds the field checks that gate every write.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
)

var (
	nameRe    = regexp.MustCompile(`^[а-яА-ЯёЁa-zA-Z\s-]+$`)
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	nonDigits = regexp.MustCompile(`\D`)
)

const (
	minNameLen    = 2
	minPhoneDigit = 10
	minAddressLen = 5
	maxFloors     = 100
	maxCapacity   = 20
	maxArea       = 1000

	// Column sizes in model.
	MaxNameLen    = 128
	MaxPhoneLen   = 32
	MaxEmailLen   = 256
	MaxAddressLen = 256
	MaxGroupLen   = 64
	MaxNumberLen  = 32
)

// Errors collects per-field messages. The zero value is not usable; use New.
type Errors map[string]string

// New returns an empty collector.
func New() Errors {
	return Errors{}
}

func (e Errors) add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Err returns a *apperr.ValidationError if any field failed, nil otherwise.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	fields := make(map[string]string, len(e))
	for k, v := range e {
		fields[k] = v
	}
	return &apperr.ValidationError{Fields: fields}
}

// MaxLen rejects a value longer than n characters after trimming.
func (e Errors) MaxLen(field, value string, n int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > n {
		e.add(field, fmt.Sprintf("не более %d символов", n))
	}
}

// Name checks a surname, given name or patronymic.
func (e Errors) Name(field, value string) {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		e.add(field, "обязательно к заполнению")
	case utf8.RuneCountInString(v) < minNameLen:
		e.add(field, "должно содержать минимум 2 символа")
	case utf8.RuneCountInString(v) > MaxNameLen:
		e.MaxLen(field, v, MaxNameLen)
	case !nameRe.MatchString(v):
		e.add(field, "должно содержать только буквы")
	}
}

// OptionalName checks value only when it is present.
func (e Errors) OptionalName(field string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	e.Name(field, *value)
}

// Phone requires at least ten digits once formatting is stripped.
func (e Errors) Phone(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.add(field, "номер телефона обязателен")
		return
	}
	if len(nonDigits.ReplaceAllString(value, "")) < minPhoneDigit {
		e.add(field, "номер телефона должен содержать минимум 10 цифр")
		return
	}
	e.MaxLen(field, value, MaxPhoneLen)
}

// Email checks an optional address.
func (e Errors) Email(field string, value *string) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return
	}
	if !emailRe.MatchString(strings.TrimSpace(*value)) {
		e.add(field, "некорректный формат email")
		return
	}
	e.MaxLen(field, *value, MaxEmailLen)
}

// Required rejects blank strings and strings longer than n characters.
func (e Errors) Required(field, value string, n int) {
	if strings.TrimSpace(value) == "" {
		e.add(field, "обязательное поле")
		return
	}
	e.MaxLen(field, value, n)
}

// Gender accepts only the two enumeration values.
func (e Errors) Gender(field string, value model.Gender) {
	if !value.Valid() {
		e.add(field, "пол должен быть 'М' или 'Ж'")
	}
}

// Address requires a non-blank value of at least five characters.
func (e Errors) Address(field, value string) {
	v := strings.TrimSpace(value)
	if v == "" {
		e.add(field, "адрес обязателен")
		return
	}
	if utf8.RuneCountInString(v) < minAddressLen {
		e.add(field, "адрес должен содержать минимум 5 символов")
		return
	}
	e.MaxLen(field, v, MaxAddressLen)
}

// FloorsCount accepts 1..100.
func (e Errors) FloorsCount(field string, value int) {
	switch {
	case value < 1:
		e.add(field, "количество этажей должно быть положительным числом")
	case value > maxFloors:
		e.add(field, "количество этажей не может превышать 100")
	}
}

// Floor accepts 1..floors. A non-positive floors disables the upper bound.
func (e Errors) Floor(field string, value, floors int) {
	switch {
	case value < 1:
		e.add(field, "этаж должен быть положительным числом")
	case floors > 0 && value > floors:
		e.add(field, "этаж превышает количество этажей корпуса")
	}
}

// Capacity accepts 1..20.
func (e Errors) Capacity(field string, value int) {
	switch {
	case value < 1:
		e.add(field, "вместимость должна быть положительным числом")
	case value > maxCapacity:
		e.add(field, "вместимость не может превышать 20 человек")
	}
}

// Area checks an optional area in 0..1000.
func (e Errors) Area(field string, value *float64) {
	if value == nil {
		return
	}
	switch {
	case *value < 0:
		e.add(field, "площадь не может быть отрицательной")
	case *value > maxArea:
		e.add(field, "площадь не может превышать 1000 м²")
	}
}

// Date requires a YYYY-MM-DD calendar date.
func (e Errors) Date(field, value string) {
	if strings.TrimSpace(value) == "" {
		e.add(field, "дата обязательна")
		return
	}
	if _, err := time.Parse(model.DateLayout, value); err != nil {
		e.add(field, "дата должна быть в формате YYYY-MM-DD")
	}
}

// ID requires a positive identifier.
func (e Errors) ID(field string, value int64) {
	if value <= 0 {
		e.add(field, "некорректный идентификатор")
	}
}
