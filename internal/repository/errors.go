package repository

import "errors"

var (
	// ErrNotFound is returned when a record referenced by id does not exist for the user.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFormat is returned when an import payload is not a JSON array of records.
	ErrInvalidFormat = errors.New("invalid format")
)
