// Package guard deletes entities only when nothing in the ledger or the
// building plan still references them. Deletes never cascade.
package guard

import (
	"context"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/store"
)

// reference is one relation that blocks a delete while its count is nonzero.
type reference struct {
	relation string
	count    func(ctx context.Context, tx store.Store, id int64) (int64, error)
}

// Guards runs reference checks and deletes in the same lock domain as the
// occupancy engine.
type Guards struct {
	store  store.Store
	locker lock.Locker
}

// New creates Guards. locker must be the one the occupancy engine uses.
func New(st store.Store, locker lock.Locker) *Guards {
	return &Guards{store: st, locker: locker}
}

// DeleteStudent deletes a student with no checkins.
func (g *Guards) DeleteStudent(ctx context.Context, id int64) error {
	return g.delete(ctx, "student", id, lock.StudentKey(id),
		func(ctx context.Context, tx store.Store) error {
			_, err := tx.GetStudent(ctx, id)
			return err
		},
		[]reference{
			{"checkins", func(ctx context.Context, tx store.Store, id int64) (int64, error) {
				return tx.CountCheckinsByStudent(ctx, id)
			}},
		},
		func(ctx context.Context, tx store.Store) error { return tx.DeleteStudent(ctx, id) },
	)
}

// DeleteCommandant deletes a commandant who recorded no checkin or checkout.
func (g *Guards) DeleteCommandant(ctx context.Context, id int64) error {
	return g.delete(ctx, "commandant", id, lock.CommandantKey(id),
		func(ctx context.Context, tx store.Store) error {
			_, err := tx.GetCommandant(ctx, id)
			return err
		},
		[]reference{
			{"checkins", func(ctx context.Context, tx store.Store, id int64) (int64, error) {
				return tx.CountCheckinsByCommandant(ctx, id)
			}},
			{"checkouts", func(ctx context.Context, tx store.Store, id int64) (int64, error) {
				return tx.CountCheckoutsByCommandant(ctx, id)
			}},
		},
		func(ctx context.Context, tx store.Store) error { return tx.DeleteCommandant(ctx, id) },
	)
}

// DeleteBuilding deletes a building with no rooms.
func (g *Guards) DeleteBuilding(ctx context.Context, id int64) error {
	return g.delete(ctx, "building", id, lock.BuildingKey(id),
		func(ctx context.Context, tx store.Store) error {
			_, err := tx.GetBuilding(ctx, id)
			return err
		},
		[]reference{
			{"rooms", func(ctx context.Context, tx store.Store, id int64) (int64, error) {
				return tx.CountRoomsByBuilding(ctx, id)
			}},
		},
		func(ctx context.Context, tx store.Store) error { return tx.DeleteBuilding(ctx, id) },
	)
}

// DeleteRoom deletes a room that never had a checkin, active or closed.
func (g *Guards) DeleteRoom(ctx context.Context, id int64) error {
	return g.delete(ctx, "room", id, lock.RoomKey(id),
		func(ctx context.Context, tx store.Store) error {
			_, err := tx.GetRoom(ctx, id)
			return err
		},
		[]reference{
			{"checkins", func(ctx context.Context, tx store.Store, id int64) (int64, error) {
				return tx.CountCheckinsByRoom(ctx, id)
			}},
		},
		func(ctx context.Context, tx store.Store) error { return tx.DeleteRoom(ctx, id) },
	)
}

func (g *Guards) delete(
	ctx context.Context,
	entity string,
	id int64,
	key string,
	exists func(context.Context, store.Store) error,
	refs []reference,
	remove func(context.Context, store.Store) error,
) error {
	unlock, err := g.locker.Lock(ctx, key)
	if err != nil {
		return err
	}
	defer unlock()

	err = g.store.Transaction(ctx, func(tx store.Store) error {
		if err := exists(ctx, tx); err != nil {
			return err
		}
		for _, ref := range refs {
			n, err := ref.count(ctx, tx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return &apperr.ReferentialConflictError{Entity: entity, ID: id, Relation: ref.relation, Count: n}
			}
		}
		return remove(ctx, tx)
	})
	return apperr.Logged("delete "+entity, err)
}
