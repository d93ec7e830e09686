package registry_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/registry"
	"dormitory-backend/internal/store"
	"dormitory-backend/internal/testutil"
)

func newRegistry(t *testing.T) (*registry.Registry, *testutil.Fixtures) {
	t.Helper()
	gormDB := testutil.NewSQLite(t)
	return registry.New(store.NewGormStore(gormDB), lock.NewKeyedMutex()), testutil.NewFixtures(t, gormDB)
}

func fields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	return ve.Fields
}

func ptr[T any](v T) *T { return &v }

func TestCreateStudent(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		student model.Student
		invalid []string
	}{
		{
			name: "valid",
			student: model.Student{
				Surname: "  Сидорова ", Name: "Анна", Patronymic: ptr(""), Gender: model.GenderFemale,
				Phone: "+7 (900) 123-45-67", Email: ptr("anna@example.com"), Group: "ПМ-22",
			},
		},
		{
			name:    "everything missing",
			student: model.Student{},
			invalid: []string{"surname", "name", "gender", "phone", "group"},
		},
		{
			name: "bad formats",
			student: model.Student{
				Surname: "Smith1", Name: "J", Gender: "X", Phone: "12345",
				Email: ptr("not-an-email"), Group: "A",
			},
			invalid: []string{"surname", "name", "gender", "phone", "email"},
		},
		{
			name: "too long for the columns",
			student: model.Student{
				Surname: strings.Repeat("Щ", 200), Name: "Анна", Gender: model.GenderFemale,
				Phone: "+7 900 123 45 67 89 01 23 45 67 89 01", Group: strings.Repeat("Г", 65),
			},
			invalid: []string{"surname", "phone", "group"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.student
			err := reg.CreateStudent(ctx, &s)
			if len(tt.invalid) == 0 {
				require.NoError(t, err)
				assert.NotZero(t, s.ID)
				assert.Equal(t, "Сидорова", s.Surname)
				assert.Nil(t, s.Patronymic)
				return
			}
			f := fields(t, err)
			for _, name := range tt.invalid {
				assert.Contains(t, f, name)
			}
			assert.Len(t, f, len(tt.invalid))
		})
	}
}

func TestUpdateStudentGenderWhileHoused(t *testing.T) {
	reg, fx := newRegistry(t)
	ctx := context.Background()

	b := fx.Building()
	room := fx.Room(b.ID, 2)
	cmd := fx.Commandant()
	s := fx.Student(model.GenderMale)
	in := fx.Checkin(s.ID, room.ID, cmd.ID, "2024-09-01")

	edit := s
	edit.Gender = model.GenderFemale
	_, err := reg.UpdateStudent(ctx, s.ID, edit)
	assert.Contains(t, fields(t, err), "gender")

	edit = s
	edit.Phone = "89001112233"
	got, err := reg.UpdateStudent(ctx, s.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, "89001112233", got.Phone)

	fx.Checkout(in.ID, cmd.ID, "2024-10-01")
	edit.Gender = model.GenderFemale
	got, err = reg.UpdateStudent(ctx, s.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, model.GenderFemale, got.Gender)

	_, err = reg.UpdateStudent(ctx, 999, edit)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestListStudentsRejectsUnknownGender(t *testing.T) {
	reg, fx := newRegistry(t)
	fx.Student(model.GenderMale)

	_, err := reg.ListStudents(context.Background(), store.StudentFilter{Gender: "?"})
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	list, err := reg.ListStudents(context.Background(), store.StudentFilter{Gender: model.GenderMale})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCommandants(t *testing.T) {
	reg, _ := newRegistry(t)
	ctx := context.Background()

	c := model.Commandant{Surname: "Кузнецова", Name: "Мария", Phone: "8-900-000-00-00"}
	require.NoError(t, reg.CreateCommandant(ctx, &c))

	c.Phone = "123"
	_, err := reg.UpdateCommandant(ctx, c.ID, c)
	assert.Contains(t, fields(t, err), "phone")

	c.Patronymic = ptr("Ивановна")
	c.Phone = "89000000001"
	got, err := reg.UpdateCommandant(ctx, c.ID, c)
	require.NoError(t, err)
	assert.Equal(t, "Кузнецова Мария Ивановна", got.FullName())

	list, err := reg.ListCommandants(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBuildings(t *testing.T) {
	reg, fx := newRegistry(t)
	ctx := context.Background()

	b := model.Building{Number: "7", Address: "пр. Мира, 12", FloorsCount: 9}
	require.NoError(t, reg.CreateBuilding(ctx, &b))

	dup := model.Building{Number: "7", Address: "пр. Мира, 14", FloorsCount: 5}
	assert.Contains(t, fields(t, reg.CreateBuilding(ctx, &dup)), "number")

	bad := model.Building{Number: "", Address: "x", FloorsCount: 101}
	assert.Len(t, fields(t, reg.CreateBuilding(ctx, &bad)), 3)

	room := model.Room{BuildingID: b.ID, Floor: 8, Number: "801", Capacity: 2}
	require.NoError(t, reg.CreateRoom(ctx, &room))

	b.FloorsCount = 5
	_, err := reg.UpdateBuilding(ctx, b.ID, b)
	assert.Contains(t, fields(t, err), "floors_count")

	b.FloorsCount = 8
	got, err := reg.UpdateBuilding(ctx, b.ID, b)
	require.NoError(t, err)
	assert.Equal(t, 8, got.FloorsCount)

	fx.Building()
	list, err := reg.ListBuildings(ctx, store.BuildingFilter{Address: " Мира "})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "7", list[0].Number)
}

func TestCreateRoom(t *testing.T) {
	reg, fx := newRegistry(t)
	ctx := context.Background()
	b := fx.Building() // five floors

	tests := []struct {
		name    string
		room    model.Room
		invalid string
	}{
		{"valid", model.Room{BuildingID: b.ID, Floor: 5, Number: "501", Capacity: 3, Area: ptr(18.5)}, ""},
		{"floor above building", model.Room{BuildingID: b.ID, Floor: 6, Number: "601", Capacity: 3}, "floor"},
		{"missing building", model.Room{BuildingID: 999, Floor: 1, Number: "101", Capacity: 3}, "building_id"},
		{"capacity too large", model.Room{BuildingID: b.ID, Floor: 1, Number: "102", Capacity: 21}, "capacity"},
		{"negative area", model.Room{BuildingID: b.ID, Floor: 1, Number: "103", Capacity: 1, Area: ptr(-1.0)}, "area"},
		{"duplicate label", model.Room{BuildingID: b.ID, Floor: 5, Number: "501", Capacity: 3}, "number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room := tt.room
			err := reg.CreateRoom(ctx, &room)
			if tt.invalid == "" {
				require.NoError(t, err)
				assert.NotZero(t, room.ID)
				return
			}
			assert.Contains(t, fields(t, err), tt.invalid)
		})
	}
}

func TestUpdateRoomCapacityBelowOccupancy(t *testing.T) {
	reg, fx := newRegistry(t)
	ctx := context.Background()
	b := fx.Building()
	room := fx.Room(b.ID, 3)
	cmd := fx.Commandant()
	fx.Checkin(fx.Student(model.GenderMale).ID, room.ID, cmd.ID, "2024-09-01")
	fx.Checkin(fx.Student(model.GenderMale).ID, room.ID, cmd.ID, "2024-09-01")

	edit := room
	edit.Capacity = 1
	_, err := reg.UpdateRoom(ctx, room.ID, edit)
	assert.Contains(t, fields(t, err), "capacity")

	edit.Capacity = 2
	got, err := reg.UpdateRoom(ctx, room.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Capacity)
	assert.Equal(t, b.Number, got.Building.Number)

	_, err = reg.UpdateRoom(ctx, 999, edit)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}
