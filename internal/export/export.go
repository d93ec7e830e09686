// Package export writes students and checkins as CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"dormitory-backend/internal/model"
)

// ContentType is the media type of every export.
const ContentType = "text/csv; charset=utf-8"

var (
	studentHeader = []string{"ID", "Фамилия", "Имя", "Отчество", "Пол", "Телефон", "Email", "Группа"}
	checkinHeader = []string{"ID", "Студент", "Комендант", "Корпус", "Адрес", "Этаж", "Комната", "Дата заселения"}
)

// Students writes one row per student after a header row.
func Students(w io.Writer, students []model.Student) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(studentHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range students {
		record := []string{
			strconv.FormatInt(s.ID, 10),
			s.Surname,
			s.Name,
			deref(s.Patronymic),
			string(s.Gender),
			s.Phone,
			deref(s.Email),
			s.Group,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write student %d: %w", s.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Checkins writes one row per checkin after a header row.
func Checkins(w io.Writer, rows []model.CheckinRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(checkinHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.ID, 10),
			r.StudentName,
			r.CommandantName,
			r.BuildingNumber,
			r.Address,
			strconv.Itoa(r.Floor),
			r.RoomNumber,
			r.Date,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write checkin %d: %w", r.ID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
