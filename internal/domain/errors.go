package domain

import "errors"

var (
	ErrSoldOut             = errors.New("venue sold out")
	ErrInvalidPosition     = errors.New("invalid position")
	ErrInvalidVenue        = errors.New("invalid venue")
	ErrSameVenue           = errors.New("source and destination venue must differ")
	ErrStaleNightHint      = errors.New("stale night hint")
	ErrInvalidNight        = errors.New("invalid night")
	ErrNotFound            = errors.New("allocation not found")
	ErrExternalIDRequired  = errors.New("external id required")
	ErrHolderRequired      = errors.New("holder id required")
	ErrIdempotencyConflict = errors.New("external id already recorded for a different holder")
	ErrPoolExhausted       = errors.New("passphrase pool exhausted")
)
