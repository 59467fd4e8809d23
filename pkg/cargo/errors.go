package cargo

import "errors"

var (
	// ErrInvalidInput marks a malformed or contradictory request.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a reference to an unknown item or container.
	ErrNotFound = errors.New("not found")
	// ErrNoCapacity marks an item that fits nowhere, even after rearrangement.
	ErrNoCapacity = errors.New("no capacity")
	// ErrInfeasible marks a rearrangement search that found no fitting slot.
	ErrInfeasible = errors.New("rearrangement infeasible")
	// ErrConflictingState marks a mutation that would break the no-overlap invariant.
	ErrConflictingState = errors.New("conflicting state")
)
