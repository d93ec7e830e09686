package registry

import (
	"context"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
	"dormitory-backend/internal/validate"
)

func validateBuilding(b model.Building) error {
	v := validate.New()
	v.Required("number", b.Number, validate.MaxNumberLen)
	v.Address("address", b.Address)
	v.FloorsCount("floors_count", b.FloorsCount)
	return v.Err()
}

// CreateBuilding validates and stores a new building. Numbers are unique.
func (r *Registry) CreateBuilding(ctx context.Context, b *model.Building) error {
	b.ID = 0
	b.Number, b.Address = trim(b.Number), trim(b.Address)
	if err := validateBuilding(*b); err != nil {
		return err
	}
	return apperr.Logged("create building", r.store.CreateBuilding(ctx, b))
}

// UpdateBuilding replaces the editable fields of building id. The floors
// count cannot drop below the highest floor that has a room.
func (r *Registry) UpdateBuilding(ctx context.Context, id int64, in model.Building) (model.Building, error) {
	in.Number, in.Address = trim(in.Number), trim(in.Address)
	if err := validateBuilding(in); err != nil {
		return model.Building{}, err
	}

	var out model.Building
	err := r.locked(ctx, "update building", []string{lock.BuildingKey(id)}, func(tx store.Store) error {
		cur, err := tx.GetBuilding(ctx, id)
		if err != nil {
			return err
		}
		if in.FloorsCount < cur.FloorsCount {
			rooms, err := tx.ListRooms(ctx, store.RoomFilter{BuildingID: id})
			if err != nil {
				return err
			}
			for _, room := range rooms {
				if room.Floor > in.FloorsCount {
					return apperr.NewValidation("floors_count", "в корпусе есть комнаты выше этого этажа")
				}
			}
		}
		cur.Number, cur.Address, cur.FloorsCount = in.Number, in.Address, in.FloorsCount
		if err := tx.UpdateBuilding(ctx, &cur); err != nil {
			return err
		}
		out = cur
		return nil
	})
	return out, err
}

// GetBuilding returns building id.
func (r *Registry) GetBuilding(ctx context.Context, id int64) (model.Building, error) {
	b, err := r.store.GetBuilding(ctx, id)
	return b, apperr.Logged("get building", err)
}

// ListBuildings lists buildings whose address contains f.Address.
func (r *Registry) ListBuildings(ctx context.Context, f store.BuildingFilter) ([]model.Building, error) {
	f.Address = trim(f.Address)
	list, err := r.store.ListBuildings(ctx, f)
	return list, apperr.Logged("list buildings", err)
}

func normalizeRoom(room *model.Room) {
	room.Number = trim(room.Number)
	room.Building = model.Building{}
}

// checkBuilding requires room's building to exist and to have its floor.
func checkBuilding(ctx context.Context, tx store.Store, room model.Room) error {
	b, err := tx.GetBuilding(ctx, room.BuildingID)
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return apperr.NewValidation("building_id", "корпус не найден")
	}
	if err != nil {
		return err
	}
	v := validate.New()
	v.Floor("floor", room.Floor, b.FloorsCount)
	return v.Err()
}

func validateRoomFields(room model.Room) error {
	v := validate.New()
	v.ID("building_id", room.BuildingID)
	v.Required("number", room.Number, validate.MaxNumberLen)
	v.Floor("floor", room.Floor, 0)
	v.Capacity("capacity", room.Capacity)
	v.Area("area", room.Area)
	return v.Err()
}

// CreateRoom validates and stores a new room. The building must exist and
// have the room's floor.
func (r *Registry) CreateRoom(ctx context.Context, room *model.Room) error {
	room.ID = 0
	normalizeRoom(room)
	if err := validateRoomFields(*room); err != nil {
		return err
	}
	return r.locked(ctx, "create room", []string{lock.BuildingKey(room.BuildingID)}, func(tx store.Store) error {
		if err := checkBuilding(ctx, tx, *room); err != nil {
			return err
		}
		return tx.CreateRoom(ctx, room)
	})
}

// UpdateRoom replaces the editable fields of room id. Capacity cannot drop
// below the room's current occupancy.
func (r *Registry) UpdateRoom(ctx context.Context, id int64, in model.Room) (model.Room, error) {
	normalizeRoom(&in)
	if err := validateRoomFields(in); err != nil {
		return model.Room{}, err
	}

	var out model.Room
	keys := []string{lock.RoomKey(id), lock.BuildingKey(in.BuildingID)}
	err := r.locked(ctx, "update room", keys, func(tx store.Store) error {
		if err := tx.LockRoom(ctx, id); err != nil {
			return err
		}
		cur, err := tx.GetRoom(ctx, id)
		if err != nil {
			return err
		}
		if err := checkBuilding(ctx, tx, in); err != nil {
			return err
		}
		occupied, err := tx.CountActiveInRoom(ctx, id)
		if err != nil {
			return err
		}
		if in.Capacity < occupied {
			return apperr.NewValidation("capacity", "вместимость меньше числа проживающих")
		}

		cur.BuildingID, cur.Floor, cur.Number = in.BuildingID, in.Floor, in.Number
		cur.Capacity, cur.Area = in.Capacity, in.Area
		cur.Building = model.Building{}
		if err := tx.UpdateRoom(ctx, &cur); err != nil {
			return err
		}
		out, err = tx.GetRoom(ctx, id)
		return err
	})
	return out, err
}

// GetRoom returns room id with its building.
func (r *Registry) GetRoom(ctx context.Context, id int64) (model.Room, error) {
	room, err := r.store.GetRoom(ctx, id)
	return room, apperr.Logged("get room", err)
}

// ListRooms lists rooms, optionally of one building.
func (r *Registry) ListRooms(ctx context.Context, f store.RoomFilter) ([]model.Room, error) {
	rooms, err := r.store.ListRooms(ctx, f)
	return rooms, apperr.Logged("list rooms", err)
}
