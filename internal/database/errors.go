package database

import "errors"

var (
	// ErrInvalidInput covers empty names and malformed dates. Nothing is changed.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when removing an identity that is not registered.
	ErrNotFound = errors.New("not found")
	// ErrStorageUnreadable marks a store that exists but could not be parsed.
	// Loaders degrade to empty state and log it instead of returning it.
	ErrStorageUnreadable = errors.New("storage unreadable")
	// ErrStorageWrite means a mutation could not be persisted. The previous
	// durable state is left intact.
	ErrStorageWrite = errors.New("storage write failed")
)
