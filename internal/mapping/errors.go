package mapping

import "errors"

var (
	// ErrMissingAggregate is returned when a round event arrives for a vault
	// round whose VaultRoundAnalytic has not been created yet.
	ErrMissingAggregate = errors.New("vault round analytic not found")

	// ErrExternalRead is returned when a contract or oracle read fails.
	ErrExternalRead = errors.New("external read failed")

	// ErrInvalidEvent is returned for events whose fields are inconsistent.
	ErrInvalidEvent = errors.New("invalid event")
)
