package clock

import (
	"time"

	"github.com/lex-codes11/skipbot/internal/domain"
)

// Clock allows injecting time in domain/services.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns a clock backed by time.Now.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock that always returns the same instant (useful for tests).
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}

// Resolver maps an instant to the sale night it belongs to. Activity in the
// configured civil time zone before CutoverHour counts toward the previous
// calendar date, so a 00:30 purchase still lands on "tonight's" list.
type Resolver struct {
	loc         *time.Location
	cutoverHour int
}

// NewResolver builds a resolver for the named IANA time zone. An unknown
// zone name is a configuration error; callers treat it as fatal at startup.
func NewResolver(timezone string, cutoverHour int) (*Resolver, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &Resolver{loc: loc, cutoverHour: cutoverHour}, nil
}

// Resolve returns the sale night for the given instant.
func (r *Resolver) Resolve(t time.Time) domain.NightKey {
	local := t.In(r.loc)
	if local.Hour() < r.cutoverHour {
		local = local.AddDate(0, 0, -1)
	}
	return domain.NightOf(local)
}

// Current returns the sale night for "now" on the given clock.
func (r *Resolver) Current(clk Clock) domain.NightKey {
	return r.Resolve(clk.Now())
}
