package entity

import "errors"

// Error kinds surfaced by every RecruitmentStore implementation.
// Callers classify failures with errors.Is; the wrapped message names the rule that was violated.
var (
	// ErrInvalidArgument is returned when a required field is empty on a write.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists is returned when an offer or application identity is already taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrNotFound is returned when a lookup, update or listing matches no records.
	ErrNotFound = errors.New("not found")
)
