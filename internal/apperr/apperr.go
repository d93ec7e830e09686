// Package apperr defines the error kinds surfaced by the dormitory core.
//
// Validation and business-rule errors are recoverable and carry enough
// structure for a caller to render a specific message. StoreError wraps
// persistence failures; its cause is logged and the caller gets a coarse
// failure.
package apperr

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
)

// Code identifies an error kind.
type Code string

const (
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeNotFound            Code = "NOT_FOUND"
	CodeRoomFull            Code = "ROOM_FULL"
	CodeGenderMismatch      Code = "GENDER_MISMATCH"
	CodeAlreadyCheckedOut   Code = "ALREADY_CHECKED_OUT"
	CodeAlreadyHoused       Code = "ALREADY_HOUSED"
	CodeReferentialConflict Code = "REFERENTIAL_CONFLICT"
	CodeStore               Code = "STORE_ERROR"
)

type coder interface {
	Code() Code
}

// CodeOf returns the Code of the first coded error in err's chain, or an
// empty Code if there is none.
func CodeOf(err error) Code {
	var c coder
	if errors.As(err, &c) {
		return c.Code()
	}
	return ""
}

// ValidationError reports malformed or missing input fields. Fields maps a
// field name to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

// NewValidation returns a ValidationError for a single field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Code() Code { return CodeValidation }

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports a referenced id that does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Code() Code { return CodeNotFound }

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

// RoomFullError reports that a room is at capacity.
type RoomFullError struct {
	RoomID    int64
	Occupancy int
	Capacity  int
}

func (e *RoomFullError) Code() Code { return CodeRoomFull }

func (e *RoomFullError) Error() string {
	return fmt.Sprintf("room %d is full: %d/%d", e.RoomID, e.Occupancy, e.Capacity)
}

// GenderMismatchError reports that the student's gender differs from the
// gender of the room's current occupants.
type GenderMismatchError struct {
	RoomID        int64
	StudentGender string
	RoomGender    string
}

func (e *GenderMismatchError) Code() Code { return CodeGenderMismatch }

func (e *GenderMismatchError) Error() string {
	return fmt.Sprintf("student gender %s does not match room %d occupants (%s)", e.StudentGender, e.RoomID, e.RoomGender)
}

// AlreadyCheckedOutError reports a second checkout of the same checkin.
type AlreadyCheckedOutError struct {
	CheckinID int64
}

func (e *AlreadyCheckedOutError) Code() Code { return CodeAlreadyCheckedOut }

func (e *AlreadyCheckedOutError) Error() string {
	return fmt.Sprintf("checkin %d is already checked out", e.CheckinID)
}

// AlreadyHousedError reports that a student already holds an active checkin.
type AlreadyHousedError struct {
	StudentID int64
	CheckinID int64
}

func (e *AlreadyHousedError) Code() Code { return CodeAlreadyHoused }

func (e *AlreadyHousedError) Error() string {
	return fmt.Sprintf("student %d already has active checkin %d", e.StudentID, e.CheckinID)
}

// ReferentialConflictError reports that an entity cannot be deleted because
// Relation still references it.
type ReferentialConflictError struct {
	Entity   string
	ID       int64
	Relation string
	Count    int64
}

func (e *ReferentialConflictError) Code() Code { return CodeReferentialConflict }

func (e *ReferentialConflictError) Error() string {
	return fmt.Sprintf("%s %d is referenced by %d %s", e.Entity, e.ID, e.Count, e.Relation)
}

// StoreError wraps an underlying persistence failure.
type StoreError struct {
	Op  string
	Err error
}

// NewStore wraps err unless it already carries an app error code.
func NewStore(op string, err error) error {
	if err == nil {
		return nil
	}
	if CodeOf(err) != "" {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// Logged is NewStore that also logs the cause when err is a store failure.
// Business-rule errors pass through silently.
func Logged(op string, err error) error {
	err = NewStore(op, err)
	var se *StoreError
	if errors.As(err, &se) {
		log.Printf("%s: %v", op, se.Err)
	}
	return err
}

func (e *StoreError) Code() Code { return CodeStore }

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
