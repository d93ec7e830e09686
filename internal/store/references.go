package store

import (
	"context"
	"fmt"

	"dormitory-backend/internal/model"
)

func (s *gormStore) count(ctx context.Context, m any, column string, id int64) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(m).Where(column+" = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count by %s %d: %w", column, id, err)
	}
	return n, nil
}

func (s *gormStore) CountCheckinsByStudent(ctx context.Context, studentID int64) (int64, error) {
	return s.count(ctx, &model.Checkin{}, "student_id", studentID)
}

func (s *gormStore) CountCheckinsByRoom(ctx context.Context, roomID int64) (int64, error) {
	return s.count(ctx, &model.Checkin{}, "room_id", roomID)
}

func (s *gormStore) CountCheckinsByCommandant(ctx context.Context, commandantID int64) (int64, error) {
	return s.count(ctx, &model.Checkin{}, "commandant_id", commandantID)
}

func (s *gormStore) CountCheckoutsByCommandant(ctx context.Context, commandantID int64) (int64, error) {
	return s.count(ctx, &model.Checkout{}, "commandant_id", commandantID)
}

func (s *gormStore) CountRoomsByBuilding(ctx context.Context, buildingID int64) (int64, error) {
	return s.count(ctx, &model.Room{}, "building_id", buildingID)
}
