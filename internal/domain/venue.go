package domain

import "strings"

// Venue is the code of one of the fixed sale locations (e.g. "ATL", "FL").
type Venue string

// VenueSet is the configured venue enumeration with its shared per-night
// capacity. The set is fixed at startup.
type VenueSet struct {
	codes    []Venue
	capacity int
}

func NewVenueSet(codes []Venue, capacity int) VenueSet {
	return VenueSet{codes: codes, capacity: capacity}
}

// Resolve normalizes a raw venue code and reports whether it is known.
func (s VenueSet) Resolve(raw string) (Venue, bool) {
	v := Venue(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range s.codes {
		if c == v {
			return v, true
		}
	}
	return "", false
}

// Codes returns the venues in configuration order.
func (s VenueSet) Codes() []Venue {
	out := make([]Venue, len(s.codes))
	copy(out, s.codes)
	return out
}

// Capacity is the per-venue, per-night slot limit.
func (s VenueSet) Capacity() int { return s.capacity }
