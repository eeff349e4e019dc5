package booking

import (
	"fmt"
	"time"
)

// DefaultCheckoutCutoff is the time of day after which a check-out date counts as passed.
const DefaultCheckoutCutoff = 12 * time.Hour

// CheckoutPolicy evaluates calendar rules in the hotel's time zone.
// It is the single definition of "today" and "after checkout" used by every caller.
type CheckoutPolicy struct {
	loc    *time.Location
	cutoff time.Duration
}

// NewCheckoutPolicy creates a policy for loc with the given cutoff offset from midnight.
func NewCheckoutPolicy(loc *time.Location, cutoff time.Duration) (CheckoutPolicy, error) {
	if loc == nil {
		loc = time.UTC
	}
	if cutoff < 0 || cutoff >= 24*time.Hour {
		return CheckoutPolicy{}, fmt.Errorf("checkout cutoff %s out of range", cutoff)
	}
	return CheckoutPolicy{loc: loc, cutoff: cutoff}, nil
}

// ParseCutoff parses an "HH:MM" time of day.
func ParseCutoff(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid checkout cutoff %q: expected HH:MM", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// DefaultCheckoutPolicy is UTC with a 12:00 cutoff.
func DefaultCheckoutPolicy() CheckoutPolicy {
	return CheckoutPolicy{loc: time.UTC, cutoff: DefaultCheckoutCutoff}
}

// Location returns the policy time zone.
func (p CheckoutPolicy) Location() *time.Location {
	if p.loc == nil {
		return time.UTC
	}
	return p.loc
}

// Cutoff returns the cutoff offset from midnight.
func (p CheckoutPolicy) Cutoff() time.Duration { return p.cutoff }

// Today returns the calendar date of now in the policy time zone.
func (p CheckoutPolicy) Today(now time.Time) time.Time {
	return Date(now, p.Location())
}

// IsAfterCheckout reports whether now is past checkout for a stay ending on checkOut:
// the local date of now is later than checkOut, or it is checkOut and the cutoff has been reached.
func (p CheckoutPolicy) IsAfterCheckout(checkOut, now time.Time) bool {
	local := now.In(p.Location())
	today := Date(local, nil)
	out := Date(checkOut, nil)

	if today.After(out) {
		return true
	}
	if today.Equal(out) {
		sinceMidnight := time.Duration(local.Hour())*time.Hour +
			time.Duration(local.Minute())*time.Minute +
			time.Duration(local.Second())*time.Second +
			time.Duration(local.Nanosecond())
		return sinceMidnight >= p.cutoff
	}
	return false
}
