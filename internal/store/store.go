package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
)

// Store defines the interface for all database operations.
//
// Lookups of a missing id return *apperr.NotFoundError. Unique-key
// violations on labelled entities return *apperr.ValidationError. Other
// failures are returned wrapped and are the caller's to classify.
type Store interface {
	// Transaction runs fn against a store bound to a single transaction.
	// Returning an error from fn rolls the transaction back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// LockRoom takes a row lock on the room for the rest of the transaction
	// where the dialect supports it.
	LockRoom(ctx context.Context, roomID int64) error

	CreateStudent(ctx context.Context, s *model.Student) error
	UpdateStudent(ctx context.Context, s *model.Student) error
	GetStudent(ctx context.Context, id int64) (model.Student, error)
	ListStudents(ctx context.Context, f StudentFilter) ([]model.Student, error)
	DeleteStudent(ctx context.Context, id int64) error

	CreateCommandant(ctx context.Context, c *model.Commandant) error
	UpdateCommandant(ctx context.Context, c *model.Commandant) error
	GetCommandant(ctx context.Context, id int64) (model.Commandant, error)
	ListCommandants(ctx context.Context) ([]model.Commandant, error)
	DeleteCommandant(ctx context.Context, id int64) error

	CreateBuilding(ctx context.Context, b *model.Building) error
	UpdateBuilding(ctx context.Context, b *model.Building) error
	GetBuilding(ctx context.Context, id int64) (model.Building, error)
	ListBuildings(ctx context.Context, f BuildingFilter) ([]model.Building, error)
	DeleteBuilding(ctx context.Context, id int64) error

	CreateRoom(ctx context.Context, r *model.Room) error
	UpdateRoom(ctx context.Context, r *model.Room) error
	GetRoom(ctx context.Context, id int64) (model.Room, error)
	ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, error)
	DeleteRoom(ctx context.Context, id int64) error

	CreateCheckin(ctx context.Context, c *model.Checkin) error
	GetCheckin(ctx context.Context, id int64) (model.Checkin, error)
	CreateCheckout(ctx context.Context, c *model.Checkout) error
	CheckoutForCheckin(ctx context.Context, checkinID int64) (*model.Checkout, error)
	ActiveCheckinForStudent(ctx context.Context, studentID int64) (*model.Checkin, error)
	ActiveCheckins(ctx context.Context) ([]model.CheckinRow, error)
	AllCheckins(ctx context.Context) ([]model.CheckinRow, error)
	AllCheckouts(ctx context.Context) ([]model.CheckoutRow, error)

	CountActiveInRoom(ctx context.Context, roomID int64) (int, error)
	ActiveGendersInRoom(ctx context.Context, roomID int64) ([]model.Gender, error)
	ActiveCountsByRoom(ctx context.Context) (map[int64]int, error)

	CountCheckinsByStudent(ctx context.Context, studentID int64) (int64, error)
	CountCheckinsByRoom(ctx context.Context, roomID int64) (int64, error)
	CountCheckinsByCommandant(ctx context.Context, commandantID int64) (int64, error)
	CountCheckoutsByCommandant(ctx context.Context, commandantID int64) (int64, error)
	CountRoomsByBuilding(ctx context.Context, buildingID int64) (int64, error)

	PutSubscription(ctx context.Context, sub *model.PushSubscription, roomIDs []int64) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	SubscriptionsForRoom(ctx context.Context, roomID int64) ([]model.PushSubscription, error)
}

// StudentFilter narrows ListStudents. Zero fields are ignored.
type StudentFilter struct {
	Group  string
	Gender model.Gender
}

// BuildingFilter narrows ListBuildings by address substring.
type BuildingFilter struct {
	Address string
}

// RoomFilter narrows ListRooms to one building.
type RoomFilter struct {
	BuildingID int64
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// Transaction implements Store.
func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// LockRoom implements Store. SQLite serializes writers itself, so only
// postgres gets a row lock.
func (s *gormStore) LockRoom(ctx context.Context, roomID int64) error {
	if s.db.Dialector.Name() != "postgres" {
		return nil
	}
	var room model.Room
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&room, roomID).Error
	return notFound(err, "room", roomID)
}

// notFound converts gorm.ErrRecordNotFound into an app error.
func notFound(err error, entity string, id int64) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &apperr.NotFoundError{Entity: entity, ID: id}
	}
	if err != nil {
		return fmt.Errorf("get %s %d: %w", entity, id, err)
	}
	return nil
}

// deleted checks the outcome of a delete by primary key.
func deleted(res *gorm.DB, entity string, id int64) error {
	if res.Error != nil {
		return fmt.Errorf("delete %s %d: %w", entity, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}

func isDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
