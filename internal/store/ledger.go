package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
)

const (
	activeJoin = "LEFT JOIN checkouts ON checkouts.checkin_id = checkins.id"

	studentNameExpr    = "students.surname || ' ' || students.name || COALESCE(' ' || students.patronymic, '')"
	commandantNameExpr = "commandants.surname || ' ' || commandants.name || COALESCE(' ' || commandants.patronymic, '')"
)

var checkinRowColumns = []string{
	"checkins.id AS id",
	"checkins.student_id AS student_id",
	"checkins.room_id AS room_id",
	"checkins.commandant_id AS commandant_id",
	"checkins.checkin_date AS date",
	studentNameExpr + " AS student_name",
	commandantNameExpr + " AS commandant_name",
	"rooms.room_number AS room_number",
	"rooms.floor AS floor",
	"buildings.building_number AS building_number",
	"buildings.address AS address",
}

var checkoutRowColumns = []string{
	"checkouts.id AS id",
	"checkouts.checkin_id AS checkin_id",
	"checkouts.commandant_id AS commandant_id",
	"checkouts.checkout_date AS date",
	"checkins.checkin_date AS checkin_date",
	studentNameExpr + " AS student_name",
	commandantNameExpr + " AS commandant_name",
	"rooms.room_number AS room_number",
	"rooms.floor AS floor",
	"buildings.building_number AS building_number",
	"buildings.address AS address",
}

func (s *gormStore) CreateCheckin(ctx context.Context, c *model.Checkin) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		return fmt.Errorf("create checkin: %w", err)
	}
	return nil
}

func (s *gormStore) GetCheckin(ctx context.Context, id int64) (model.Checkin, error) {
	var c model.Checkin
	err := s.db.WithContext(ctx).First(&c, id).Error
	return c, notFound(err, "checkin", id)
}

func (s *gormStore) CreateCheckout(ctx context.Context, c *model.Checkout) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error; err != nil {
		if isDuplicate(err) {
			return &apperr.AlreadyCheckedOutError{CheckinID: c.CheckinID}
		}
		return fmt.Errorf("create checkout: %w", err)
	}
	return nil
}

// CheckoutForCheckin returns the checkout closing checkinID, or nil.
func (s *gormStore) CheckoutForCheckin(ctx context.Context, checkinID int64) (*model.Checkout, error) {
	var checkouts []model.Checkout
	if err := s.db.WithContext(ctx).Where("checkin_id = ?", checkinID).Limit(1).Find(&checkouts).Error; err != nil {
		return nil, fmt.Errorf("find checkout for checkin %d: %w", checkinID, err)
	}
	if len(checkouts) == 0 {
		return nil, nil
	}
	return &checkouts[0], nil
}

// ActiveCheckinForStudent returns the oldest active checkin of the student, or nil.
func (s *gormStore) ActiveCheckinForStudent(ctx context.Context, studentID int64) (*model.Checkin, error) {
	var checkins []model.Checkin
	err := s.db.WithContext(ctx).
		Model(&model.Checkin{}).
		Select("checkins.*").
		Joins(activeJoin).
		Where("checkins.student_id = ? AND checkouts.id IS NULL", studentID).
		Order("checkins.id").
		Limit(1).
		Find(&checkins).Error
	if err != nil {
		return nil, fmt.Errorf("find active checkin for student %d: %w", studentID, err)
	}
	if len(checkins) == 0 {
		return nil, nil
	}
	return &checkins[0], nil
}

func (s *gormStore) checkinRows(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("checkins").
		Select(checkinRowColumns).
		Joins("JOIN students ON students.id = checkins.student_id").
		Joins("JOIN commandants ON commandants.id = checkins.commandant_id").
		Joins("JOIN rooms ON rooms.id = checkins.room_id").
		Joins("JOIN buildings ON buildings.id = rooms.building_id")
}

// ActiveCheckins lists checkins without a checkout, newest first.
func (s *gormStore) ActiveCheckins(ctx context.Context) ([]model.CheckinRow, error) {
	var rows []model.CheckinRow
	err := s.checkinRows(ctx).
		Joins(activeJoin).
		Where("checkouts.id IS NULL").
		Order("checkins.checkin_date DESC, checkins.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list active checkins: %w", err)
	}
	return rows, nil
}

// AllCheckins lists every checkin, newest first.
func (s *gormStore) AllCheckins(ctx context.Context) ([]model.CheckinRow, error) {
	var rows []model.CheckinRow
	err := s.checkinRows(ctx).
		Order("checkins.checkin_date DESC, checkins.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list checkins: %w", err)
	}
	return rows, nil
}

// AllCheckouts lists every checkout with the context of its checkin, newest first.
func (s *gormStore) AllCheckouts(ctx context.Context) ([]model.CheckoutRow, error) {
	var rows []model.CheckoutRow
	err := s.db.WithContext(ctx).
		Table("checkouts").
		Select(checkoutRowColumns).
		Joins("JOIN checkins ON checkins.id = checkouts.checkin_id").
		Joins("JOIN students ON students.id = checkins.student_id").
		Joins("JOIN commandants ON commandants.id = checkouts.commandant_id").
		Joins("JOIN rooms ON rooms.id = checkins.room_id").
		Joins("JOIN buildings ON buildings.id = rooms.building_id").
		Order("checkouts.checkout_date DESC, checkouts.id DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list checkouts: %w", err)
	}
	return rows, nil
}

// CountActiveInRoom counts checkins for roomID that have no checkout.
func (s *gormStore) CountActiveInRoom(ctx context.Context, roomID int64) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&model.Checkin{}).
		Joins(activeJoin).
		Where("checkins.room_id = ? AND checkouts.id IS NULL", roomID).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count active checkins in room %d: %w", roomID, err)
	}
	return int(n), nil
}

// ActiveGendersInRoom returns the distinct genders of the room's current occupants.
func (s *gormStore) ActiveGendersInRoom(ctx context.Context, roomID int64) ([]model.Gender, error) {
	var raw []string
	err := s.db.WithContext(ctx).
		Model(&model.Checkin{}).
		Joins("JOIN students ON students.id = checkins.student_id").
		Joins(activeJoin).
		Where("checkins.room_id = ? AND checkouts.id IS NULL", roomID).
		Distinct().
		Order("students.gender").
		Pluck("students.gender", &raw).Error
	if err != nil {
		return nil, fmt.Errorf("list genders in room %d: %w", roomID, err)
	}
	genders := make([]model.Gender, len(raw))
	for i, g := range raw {
		genders[i] = model.Gender(g)
	}
	return genders, nil
}

// ActiveCountsByRoom maps room id to its number of active checkins. Empty
// rooms are absent.
func (s *gormStore) ActiveCountsByRoom(ctx context.Context) (map[int64]int, error) {
	type aggRow struct {
		RoomID int64
		N      int
	}
	var aggs []aggRow
	err := s.db.WithContext(ctx).
		Model(&model.Checkin{}).
		Select("checkins.room_id AS room_id, COUNT(*) AS n").
		Joins(activeJoin).
		Where("checkouts.id IS NULL").
		Group("checkins.room_id").
		Scan(&aggs).Error
	if err != nil {
		return nil, fmt.Errorf("aggregate active checkins: %w", err)
	}
	counts := make(map[int64]int, len(aggs))
	for _, a := range aggs {
		counts[a.RoomID] = a.N
	}
	return counts, nil
}
