// Package occupancy derives room occupancy from the tenancy ledger and is the
// only write path for checkins and checkouts.
//
// Occupancy is never stored. A checkin is active while no checkout references
// it, and a room's occupants are its active checkins. Admission checks and the
// ledger append run under the room, student and commandant lock keys and in a
// single store transaction.
package occupancy

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/patrickmn/go-cache"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/model"
	"dormitory-backend/internal/store"
	"dormitory-backend/internal/validate"
)

// Kind classifies the genders of a room's current occupants.
type Kind string

const (
	Unoccupied Kind = "unoccupied"
	Single     Kind = "single"
	Mixed      Kind = "mixed"
)

// Composition is a room's gender composition. Gender is set only for Single.
type Composition struct {
	Kind   Kind         `json:"kind"`
	Gender model.Gender `json:"gender,omitempty"`
}

// RoomState is a room's occupancy and composition read under one lock.
type RoomState struct {
	Occupancy   int         `json:"occupancy"`
	Composition Composition `json:"composition"`
}

// Notifier is told about rooms that just gained a free place.
type Notifier interface {
	Dispatch(roomID int64)
}

// Admission is a caller-proposed move-in.
type Admission struct {
	StudentID    int64  `json:"student_id"`
	RoomID       int64  `json:"room_id"`
	CommandantID int64  `json:"commandant_id"`
	Date         string `json:"date"`
}

// Release is a move-out of one checkin.
type Release struct {
	CheckinID    int64  `json:"checkin_id"`
	CommandantID int64  `json:"commandant_id"`
	Date         string `json:"date"`
}

// Engine evaluates and records move-ins and move-outs.
type Engine struct {
	store        store.Store
	locker       lock.Locker
	cache        *cache.Cache
	notifier     Notifier
	singleActive bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSingleActiveTenancy rejects a checkin for a student who is already
// housed somewhere.
func WithSingleActiveTenancy(enabled bool) Option {
	return func(e *Engine) { e.singleActive = enabled }
}

// WithCacheTTL sets how long a room state may be served without a write. A
// non-positive ttl turns the cache off.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl <= 0 {
			e.cache = nil
			return
		}
		e.cache = cache.New(ttl, 2*ttl)
	}
}

// WithNotifier registers n to hear about freed places.
func WithNotifier(n Notifier) Option {
	return func(e *Engine) { e.notifier = n }
}

// NewEngine creates an Engine over st. locker must be shared with every
// other writer of the same entities.
//
// Room states are cached only with an in-process *lock.KeyedMutex. Any other
// Locker means other processes write the same ledger and only this engine's
// cache would see its own writes, so every read goes to the store.
func NewEngine(st store.Store, locker lock.Locker, opts ...Option) *Engine {
	e := &Engine{
		store:        st,
		locker:       locker,
		cache:        cache.New(5*time.Minute, 10*time.Minute),
		singleActive: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, local := locker.(*lock.KeyedMutex); !local {
		e.cache = nil
	}
	return e
}

func cacheKey(roomID int64) string {
	return fmt.Sprintf("room:%d", roomID)
}

// CurrentOccupancy returns the number of active checkins in roomID. An
// unknown room has no checkins and reports 0.
func (e *Engine) CurrentOccupancy(ctx context.Context, roomID int64) (int, error) {
	st, err := e.RoomState(ctx, roomID)
	if err != nil {
		return 0, err
	}
	return st.Occupancy, nil
}

// RoomGenderComposition classifies the genders of roomID's active occupants.
func (e *Engine) RoomGenderComposition(ctx context.Context, roomID int64) (Composition, error) {
	st, err := e.RoomState(ctx, roomID)
	if err != nil {
		return Composition{}, err
	}
	return st.Composition, nil
}

// RoomState returns occupancy and composition from a single read of roomID.
func (e *Engine) RoomState(ctx context.Context, roomID int64) (RoomState, error) {
	unlock, err := e.locker.Lock(ctx, lock.RoomKey(roomID))
	if err != nil {
		return RoomState{}, err
	}
	defer unlock()

	if e.cache != nil {
		if v, ok := e.cache.Get(cacheKey(roomID)); ok {
			return v.(RoomState), nil
		}
	}
	st, err := compute(ctx, e.store, roomID)
	if err != nil {
		return RoomState{}, apperr.Logged("read room occupancy", err)
	}
	if e.cache != nil {
		e.cache.SetDefault(cacheKey(roomID), st)
	}
	return st, nil
}

// invalidate must run before the room key is released.
func (e *Engine) invalidate(roomID int64) {
	if e.cache != nil {
		e.cache.Delete(cacheKey(roomID))
	}
}

// compute scans the ledger for roomID through st.
func compute(ctx context.Context, st store.Store, roomID int64) (RoomState, error) {
	n, err := st.CountActiveInRoom(ctx, roomID)
	if err != nil {
		return RoomState{}, err
	}
	genders, err := st.ActiveGendersInRoom(ctx, roomID)
	if err != nil {
		return RoomState{}, err
	}
	return RoomState{Occupancy: n, Composition: classify(genders)}, nil
}

func classify(genders []model.Gender) Composition {
	switch len(genders) {
	case 0:
		return Composition{Kind: Unoccupied}
	case 1:
		return Composition{Kind: Single, Gender: genders[0]}
	default:
		return Composition{Kind: Mixed}
	}
}

// AdmitCheckin validates a proposed move-in against the room's current state
// and appends the checkin if it is admissible.
//
// Errors, in the order they are checked: ValidationError for malformed input,
// NotFoundError for a missing room, student or commandant, RoomFullError,
// GenderMismatchError, and AlreadyHousedError when single active tenancy is
// enforced. A mixed room does not block admission.
func (e *Engine) AdmitCheckin(ctx context.Context, a Admission) (model.Checkin, error) {
	v := validate.New()
	v.ID("student_id", a.StudentID)
	v.ID("room_id", a.RoomID)
	v.ID("commandant_id", a.CommandantID)
	v.Date("date", a.Date)
	if err := v.Err(); err != nil {
		return model.Checkin{}, err
	}

	unlock, err := e.locker.Lock(ctx,
		lock.RoomKey(a.RoomID), lock.StudentKey(a.StudentID), lock.CommandantKey(a.CommandantID))
	if err != nil {
		return model.Checkin{}, err
	}
	defer unlock()

	var checkin model.Checkin
	err = e.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.LockRoom(ctx, a.RoomID); err != nil {
			return err
		}
		room, err := tx.GetRoom(ctx, a.RoomID)
		if err != nil {
			return err
		}
		student, err := tx.GetStudent(ctx, a.StudentID)
		if err != nil {
			return err
		}
		if _, err := tx.GetCommandant(ctx, a.CommandantID); err != nil {
			return err
		}

		state, err := compute(ctx, tx, a.RoomID)
		if err != nil {
			return err
		}
		if state.Occupancy >= room.Capacity {
			return &apperr.RoomFullError{RoomID: room.ID, Occupancy: state.Occupancy, Capacity: room.Capacity}
		}
		if c := state.Composition; c.Kind == Single && c.Gender != student.Gender {
			return &apperr.GenderMismatchError{
				RoomID:        room.ID,
				StudentGender: string(student.Gender),
				RoomGender:    string(c.Gender),
			}
		}
		if e.singleActive {
			active, err := tx.ActiveCheckinForStudent(ctx, student.ID)
			if err != nil {
				return err
			}
			if active != nil {
				return &apperr.AlreadyHousedError{StudentID: student.ID, CheckinID: active.ID}
			}
		}

		checkin = model.Checkin{
			StudentID:    student.ID,
			RoomID:       room.ID,
			CommandantID: a.CommandantID,
			Date:         a.Date,
		}
		return tx.CreateCheckin(ctx, &checkin)
	})
	if err != nil {
		return model.Checkin{}, apperr.Logged("admit checkin", err)
	}

	e.invalidate(a.RoomID)
	log.Printf("checkin %d: student %d -> room %d", checkin.ID, checkin.StudentID, checkin.RoomID)
	return checkin, nil
}

// AdmitCheckout closes an active checkin.
//
// Errors: ValidationError for malformed input or a date before the checkin
// date, NotFoundError for a missing checkin or commandant, and
// AlreadyCheckedOutError if the checkin is already closed.
func (e *Engine) AdmitCheckout(ctx context.Context, r Release) (model.Checkout, error) {
	v := validate.New()
	v.ID("checkin_id", r.CheckinID)
	v.ID("commandant_id", r.CommandantID)
	v.Date("date", r.Date)
	if err := v.Err(); err != nil {
		return model.Checkout{}, err
	}

	// A checkin's room never changes, so it can be read before locking.
	origin, err := e.store.GetCheckin(ctx, r.CheckinID)
	if err != nil {
		return model.Checkout{}, apperr.Logged("admit checkout", err)
	}

	unlock, err := e.locker.Lock(ctx,
		lock.RoomKey(origin.RoomID), lock.StudentKey(origin.StudentID), lock.CommandantKey(r.CommandantID))
	if err != nil {
		return model.Checkout{}, err
	}
	defer unlock()

	var checkout model.Checkout
	err = e.store.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.GetCommandant(ctx, r.CommandantID); err != nil {
			return err
		}
		existing, err := tx.CheckoutForCheckin(ctx, r.CheckinID)
		if err != nil {
			return err
		}
		if existing != nil {
			return &apperr.AlreadyCheckedOutError{CheckinID: r.CheckinID}
		}
		if r.Date < origin.Date {
			return apperr.NewValidation("date", "дата выселения раньше даты заселения")
		}

		checkout = model.Checkout{CheckinID: r.CheckinID, CommandantID: r.CommandantID, Date: r.Date}
		return tx.CreateCheckout(ctx, &checkout)
	})
	if err != nil {
		return model.Checkout{}, apperr.Logged("admit checkout", err)
	}

	e.invalidate(origin.RoomID)
	log.Printf("checkout %d: checkin %d closed, room %d", checkout.ID, checkout.CheckinID, origin.RoomID)
	if e.notifier != nil {
		e.notifier.Dispatch(origin.RoomID)
	}
	return checkout, nil
}

// ActiveCheckins lists open checkins, newest first.
func (e *Engine) ActiveCheckins(ctx context.Context) ([]model.CheckinRow, error) {
	rows, err := e.store.ActiveCheckins(ctx)
	return rows, apperr.Logged("list active checkins", err)
}

// AllCheckins lists every checkin, newest first.
func (e *Engine) AllCheckins(ctx context.Context) ([]model.CheckinRow, error) {
	rows, err := e.store.AllCheckins(ctx)
	return rows, apperr.Logged("list checkins", err)
}

// AllCheckouts lists every checkout, newest first.
func (e *Engine) AllCheckouts(ctx context.Context) ([]model.CheckoutRow, error) {
	rows, err := e.store.AllCheckouts(ctx)
	return rows, apperr.Logged("list checkouts", err)
}
