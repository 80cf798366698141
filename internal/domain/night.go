package domain

import "time"

// NightKey identifies one sale night as an ISO calendar date ("2006-01-02").
// Activity before the configured cutover hour belongs to the previous date.
type NightKey string

const nightLayout = "2006-01-02"

// NightOf returns the key for a civil date.
func NightOf(t time.Time) NightKey {
	return NightKey(t.Format(nightLayout))
}

// ParseNight validates an ISO date string and returns it as a key.
func ParseNight(s string) (NightKey, error) {
	t, err := time.Parse(nightLayout, s)
	if err != nil {
		return "", ErrInvalidNight
	}
	return NightOf(t), nil
}

// Date returns the key's calendar date at midnight UTC.
func (n NightKey) Date() time.Time {
	t, _ := time.Parse(nightLayout, string(n))
	return t
}

// Human renders the night for operator-facing output,
// e.g. "Friday, January 2, 2026".
func (n NightKey) Human() string {
	return n.Date().Format("Monday, January 2, 2006")
}

// DaysApart returns the absolute distance in calendar days between two keys.
func (n NightKey) DaysApart(other NightKey) int {
	d := int(n.Date().Sub(other.Date()).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d
}

func (n NightKey) String() string { return string(n) }
