package books

import "errors"

var (
	// ErrInvalidArgument is returned for positions, destinations or field
	// names that do not fit the current collection.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound marks a lookup by id that matched no record. FindIndex
	// panics with an error wrapping it.
	ErrNotFound = errors.New("book not found")

	// ErrDuplicateID is returned when appending a book whose id is already
	// present.
	ErrDuplicateID = errors.New("duplicate book id")
)
