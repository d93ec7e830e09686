// Package stats computes the dashboard figures from the entity store and the
// ledger.
package stats

import (
	"context"
	"math"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
)

// Dashboard is a point-in-time summary of the dormitory.
type Dashboard struct {
	TotalStudents      int            `json:"total_students"`
	TotalRooms         int            `json:"total_rooms"`
	TotalBuildings     int            `json:"total_buildings"`
	OccupiedRooms      int            `json:"occupied_rooms"`
	TotalCheckins      int            `json:"total_checkins"`
	ActiveCheckins     int            `json:"active_checkins"`
	TotalCapacity      int            `json:"total_capacity"`
	OccupancyRate      float64        `json:"occupancy_rate"`
	GenderDistribution map[string]int `json:"gender_distribution"`
}

// Service computes dashboards.
type Service struct {
	store store.Store
}

// New creates a stats Service.
func New(st store.Store) *Service {
	return &Service{store: st}
}

// Dashboard reads everything in one transaction so the figures agree with
// each other.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		students, err := tx.ListStudents(ctx, store.StudentFilter{})
		if err != nil {
			return err
		}
		rooms, err := tx.ListRooms(ctx, store.RoomFilter{})
		if err != nil {
			return err
		}
		buildings, err := tx.ListBuildings(ctx, store.BuildingFilter{})
		if err != nil {
			return err
		}
		all, err := tx.AllCheckins(ctx)
		if err != nil {
			return err
		}
		counts, err := tx.ActiveCountsByRoom(ctx)
		if err != nil {
			return err
		}

		d = summarize(students, rooms, counts)
		d.TotalBuildings = len(buildings)
		d.TotalCheckins = len(all)
		return nil
	})
	if err != nil {
		return Dashboard{}, apperr.Logged("dashboard", err)
	}
	return d, nil
}

func summarize(students []model.Student, rooms []model.Room, active map[int64]int) Dashboard {
	d := Dashboard{
		TotalStudents: len(students),
		TotalRooms:    len(rooms),
		GenderDistribution: map[string]int{
			string(model.GenderMale):   0,
			string(model.GenderFemale): 0,
			"Всего":                    len(students),
		},
	}
	for _, s := range students {
		d.GenderDistribution[string(s.Gender)]++
	}

	occupied := 0
	for _, r := range rooms {
		d.TotalCapacity += r.Capacity
		n := active[r.ID]
		occupied += n
		d.ActiveCheckins += n
		if n > 0 {
			d.OccupiedRooms++
		}
	}
	d.OccupancyRate = rate(occupied, d.TotalCapacity)
	return d
}

// rate is occupied/capacity as a percentage rounded to two decimals.
func rate(occupied, capacity int) float64 {
	if capacity == 0 {
		return 0
	}
	return math.Round(float64(occupied)/float64(capacity)*10000) / 100
}
