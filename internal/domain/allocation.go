package domain

import "time"

// AllocationRecord is one sold slot in a venue's nightly list.
type AllocationRecord struct {
	Night    NightKey
	Venue    Venue
	Position int
	// ExternalID is the idempotency key from the payment-confirmation
	// source, or a synthesized "manual-" id for admin-created records.
	ExternalID string
	HolderID   string
	// Passphrase is frozen when the record is created and survives later
	// position shifts and venue moves; removal returns it to the night's
	// free pool.
	Passphrase string
	CreatedAt  time.Time
}

// Allocation is the result handed to the notification sink after a
// successful confirmation or admin mutation.
type Allocation struct {
	Night      NightKey `json:"night"`
	Venue      Venue    `json:"venue"`
	Position   int      `json:"position"`
	Capacity   int      `json:"capacity"`
	Passphrase string   `json:"passphrase"`
	HolderID   string   `json:"holder_id"`
	ExternalID string   `json:"external_id"`
	// Created is false on an idempotent replay of an already-recorded
	// confirmation.
	Created bool `json:"created"`
}
