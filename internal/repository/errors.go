package repository

import "errors"

var (
	// ErrDuplicateEmail is returned when a parent email is already registered
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrDuplicatePIN is returned when a learner PIN is already taken
	ErrDuplicatePIN = errors.New("pin already in use")
	// ErrNotFound is returned by updates and deletes that matched no row
	ErrNotFound = errors.New("record not found")
)
