// Package lock provides the mutual-exclusion domain shared by ledger writes
// and lifecycle guards.
//
// Every check-then-write sequence that touches a room, student, commandant
// or building acquires the keys of all entities it reads or references.
// Keys are always taken in sorted order so two callers with overlapping key
// sets cannot deadlock.
package lock

import (
	"context"
	"sort"
	"strconv"
)

// Locker acquires a set of keys. The returned function releases all of them.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (unlock func(), err error)
}

func RoomKey(id int64) string       { return "room:" + strconv.FormatInt(id, 10) }
func StudentKey(id int64) string    { return "student:" + strconv.FormatInt(id, 10) }
func CommandantKey(id int64) string { return "commandant:" + strconv.FormatInt(id, 10) }
func BuildingKey(id int64) string   { return "building:" + strconv.FormatInt(id, 10) }

// normalize sorts keys and drops duplicates and empty strings.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	uniq := out[:0]
	for i, k := range out {
		if i == 0 || k != out[i-1] {
			uniq = append(uniq, k)
		}
	}
	return uniq
}
