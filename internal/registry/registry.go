// Package registry is the validated create, read and update surface for
// students, commandants, buildings and rooms. Deletes go through guard.
package registry

import (
	"context"
	"strings"

	"dormitory-backend/internal/apperr"
	"dormitory-backend/internal/lock"
	"dormitory-backend/internal/store"
)

// Registry validates input before any write reaches the store.
type Registry struct {
	store  store.Store
	locker lock.Locker
}

// New creates a Registry. locker must be shared with the occupancy engine
// and the guards.
func New(st store.Store, locker lock.Locker) *Registry {
	return &Registry{store: st, locker: locker}
}

// locked runs fn in a transaction while holding keys.
func (r *Registry) locked(ctx context.Context, op string, keys []string, fn func(tx store.Store) error) error {
	unlock, err := r.locker.Lock(ctx, keys...)
	if err != nil {
		return err
	}
	defer unlock()
	return apperr.Logged(op, r.store.Transaction(ctx, fn))
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
