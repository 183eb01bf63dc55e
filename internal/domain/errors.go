package domain

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrContextDone   = errors.New("context cancelled")

	// ErrLeaseHeld is returned when another indexer instance already holds
	// the single-writer lease.
	ErrLeaseHeld = errors.New("lease held")
)
