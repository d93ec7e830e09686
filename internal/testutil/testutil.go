// Package testutil provides an in-memory database and fixtures for tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dormitory-backend/internal/db"
	"dormitory-backend/internal/model"
)

var seq atomic.Int64

// NewSQLite opens a migrated in-memory SQLite database private to t.
func NewSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=1", name, seq.Add(1))

	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

// Fixtures inserts valid rows directly, bypassing the service layer.
type Fixtures struct {
	t  *testing.T
	db *gorm.DB
	n  int
}

// NewFixtures returns a fixture helper bound to db.
func NewFixtures(t *testing.T, db *gorm.DB) *Fixtures {
	return &Fixtures{t: t, db: db}
}

func (f *Fixtures) next() int {
	f.n++
	return f.n
}

// Building inserts a five-floor building.
func (f *Fixtures) Building() model.Building {
	f.t.Helper()
	n := f.next()
	b := model.Building{Number: fmt.Sprintf("B%d", n), Address: fmt.Sprintf("ул. Ленина, %d", n), FloorsCount: 5}
	require.NoError(f.t, f.db.Create(&b).Error)
	return b
}

// Room inserts a room with the given capacity into buildingID.
func (f *Fixtures) Room(buildingID int64, capacity int) model.Room {
	f.t.Helper()
	r := model.Room{BuildingID: buildingID, Floor: 1, Number: fmt.Sprintf("%d", 100+f.next()), Capacity: capacity}
	require.NoError(f.t, f.db.Omit("Building").Create(&r).Error)
	return r
}

// Student inserts a student of gender g.
func (f *Fixtures) Student(g model.Gender) model.Student {
	f.t.Helper()
	n := f.next()
	s := model.Student{
		Surname: fmt.Sprintf("Иванов%c", 'а'+rune(n%26)),
		Name:    "Иван",
		Gender:  g,
		Phone:   "+79001234567",
		Group:   "ИВТ-21",
	}
	require.NoError(f.t, f.db.Create(&s).Error)
	return s
}

// Commandant inserts a commandant.
func (f *Fixtures) Commandant() model.Commandant {
	f.t.Helper()
	c := model.Commandant{Surname: "Петров", Name: "Петр", Phone: "+79007654321"}
	require.NoError(f.t, f.db.Create(&c).Error)
	return c
}

// Checkin inserts a checkin row without any admission checks.
func (f *Fixtures) Checkin(studentID, roomID, commandantID int64, date string) model.Checkin {
	f.t.Helper()
	c := model.Checkin{StudentID: studentID, RoomID: roomID, CommandantID: commandantID, Date: date}
	require.NoError(f.t, f.db.Omit("Student", "Room", "Commandant").Create(&c).Error)
	return c
}

// Checkout inserts a checkout row for checkinID.
func (f *Fixtures) Checkout(checkinID, commandantID int64, date string) model.Checkout {
	f.t.Helper()
	c := model.Checkout{CheckinID: checkinID, CommandantID: commandantID, Date: date}
	require.NoError(f.t, f.db.Omit("Checkin", "Commandant").Create(&c).Error)
	return c
}
