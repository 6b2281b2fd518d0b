package interfaces

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write would break a uniqueness or
	// immutability rule of the store
	ErrConflict = errors.New("conflict")
)

// Repository defines the interface for data persistence
type Repository interface {
	Case() CaseRepository

	Close() error
}
