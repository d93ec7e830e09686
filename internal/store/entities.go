package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
)

func (s *gormStore) CreateStudent(ctx context.Context, st *model.Student) error {
	if err := s.db.WithContext(ctx).Create(st).Error; err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateStudent(ctx context.Context, st *model.Student) error {
	if err := s.db.WithContext(ctx).Save(st).Error; err != nil {
		return fmt.Errorf("update student %d: %w", st.ID, err)
	}
	return nil
}

func (s *gormStore) GetStudent(ctx context.Context, id int64) (model.Student, error) {
	var st model.Student
	err := s.db.WithContext(ctx).First(&st, id).Error
	return st, notFound(err, "student", id)
}

func (s *gormStore) ListStudents(ctx context.Context, f StudentFilter) ([]model.Student, error) {
	q := s.db.WithContext(ctx).Model(&model.Student{})
	if f.Group != "" {
		q = q.Where("group_number = ?", f.Group)
	}
	if f.Gender != "" {
		q = q.Where("gender = ?", f.Gender)
	}
	var students []model.Student
	if err := q.Order("surname, name, id").Find(&students).Error; err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (s *gormStore) DeleteStudent(ctx context.Context, id int64) error {
	return deleted(s.db.WithContext(ctx).Delete(&model.Student{}, id), "student", id)
}

func (s *gormStore) CreateCommandant(ctx context.Context, c *model.Commandant) error {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create commandant: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateCommandant(ctx context.Context, c *model.Commandant) error {
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return fmt.Errorf("update commandant %d: %w", c.ID, err)
	}
	return nil
}

func (s *gormStore) GetCommandant(ctx context.Context, id int64) (model.Commandant, error) {
	var c model.Commandant
	err := s.db.WithContext(ctx).First(&c, id).Error
	return c, notFound(err, "commandant", id)
}

func (s *gormStore) ListCommandants(ctx context.Context) ([]model.Commandant, error) {
	var commandants []model.Commandant
	if err := s.db.WithContext(ctx).Order("surname, name, id").Find(&commandants).Error; err != nil {
		return nil, fmt.Errorf("list commandants: %w", err)
	}
	return commandants, nil
}

func (s *gormStore) DeleteCommandant(ctx context.Context, id int64) error {
	return deleted(s.db.WithContext(ctx).Delete(&model.Commandant{}, id), "commandant", id)
}

func (s *gormStore) CreateBuilding(ctx context.Context, b *model.Building) error {
	if err := s.db.WithContext(ctx).Create(b).Error; err != nil {
		if isDuplicate(err) {
			return apperr.NewValidation("number", "корпус с таким номером уже существует")
		}
		return fmt.Errorf("create building: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateBuilding(ctx context.Context, b *model.Building) error {
	if err := s.db.WithContext(ctx).Save(b).Error; err != nil {
		if isDuplicate(err) {
			return apperr.NewValidation("number", "корпус с таким номером уже существует")
		}
		return fmt.Errorf("update building %d: %w", b.ID, err)
	}
	return nil
}

func (s *gormStore) GetBuilding(ctx context.Context, id int64) (model.Building, error) {
	var b model.Building
	err := s.db.WithContext(ctx).First(&b, id).Error
	return b, notFound(err, "building", id)
}

func (s *gormStore) ListBuildings(ctx context.Context, f BuildingFilter) ([]model.Building, error) {
	q := s.db.WithContext(ctx).Model(&model.Building{})
	if f.Address != "" {
		q = q.Where("address LIKE ?", "%"+f.Address+"%")
	}
	var buildings []model.Building
	if err := q.Order("building_number, id").Find(&buildings).Error; err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return buildings, nil
}

func (s *gormStore) DeleteBuilding(ctx context.Context, id int64) error {
	return deleted(s.db.WithContext(ctx).Delete(&model.Building{}, id), "building", id)
}

func (s *gormStore) CreateRoom(ctx context.Context, r *model.Room) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error; err != nil {
		if isDuplicate(err) {
			return apperr.NewValidation("number", "комната с таким номером уже существует в этом корпусе на этом этаже")
		}
		return fmt.Errorf("create room: %w", err)
	}
	return nil
}

func (s *gormStore) UpdateRoom(ctx context.Context, r *model.Room) error {
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(r).Error; err != nil {
		if isDuplicate(err) {
			return apperr.NewValidation("number", "комната с таким номером уже существует в этом корпусе на этом этаже")
		}
		return fmt.Errorf("update room %d: %w", r.ID, err)
	}
	return nil
}

func (s *gormStore) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	var r model.Room
	err := s.db.WithContext(ctx).Preload("Building").First(&r, id).Error
	return r, notFound(err, "room", id)
}

func (s *gormStore) ListRooms(ctx context.Context, f RoomFilter) ([]model.Room, error) {
	q := s.db.WithContext(ctx).Model(&model.Room{}).
		Preload("Building").
		Joins("JOIN buildings ON buildings.id = rooms.building_id")
	if f.BuildingID != 0 {
		q = q.Where("rooms.building_id = ?", f.BuildingID)
	}
	var rooms []model.Room
	if err := q.Order("buildings.building_number, rooms.floor, rooms.room_number").Find(&rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}

// DeleteRoom also drops push subscriptions to the room; they are not
// references that block a delete.
func (s *gormStore) DeleteRoom(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Exec("DELETE FROM subscription_room_mapping WHERE room_id = ?", id).Error; err != nil {
		return fmt.Errorf("unsubscribe room %d: %w", id, err)
	}
	return deleted(s.db.WithContext(ctx).Delete(&model.Room{}, id), "room", id)
}
