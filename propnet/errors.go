package propnet

import "errors"

var (
	// ErrGraphFrozen is raised when the structure of a crystallized net is
	// mutated, and returned when a net is crystallized twice.
	ErrGraphFrozen = errors.New("propnet is frozen")

	// ErrNotFrozen is returned by consumers that need a crystallized net.
	ErrNotFrozen = errors.New("propnet is not crystallized")

	// ErrMalformedNet is returned by Crystallize when a structural invariant
	// does not hold.
	ErrMalformedNet = errors.New("malformed propnet")
)
