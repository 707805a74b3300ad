package repositories

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	// ErrStoreFailure marks backend failures (I/O, network, decoding) as
	// opposed to missing records.
	ErrStoreFailure = errors.New("store failure")
)
