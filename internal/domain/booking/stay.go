package booking

import (
	"fmt"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// MaxStayNights is the longest stay a single booking may cover.
const MaxStayNights = 365

const secondsPerDay = 24 * 60 * 60

// Date truncates t to its calendar date in loc and returns that date as midnight UTC.
// All booking dates are held in this form so they compare and subtract exactly.
func Date(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Stay is the half-open date range [CheckIn, CheckOut) a booking occupies.
type Stay struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// NewStay normalises both dates and checks that check-out is after check-in and that the stay
// is at most MaxStayNights long.
func NewStay(checkIn, checkOut time.Time) (Stay, error) {
	s := Stay{CheckIn: Date(checkIn, nil), CheckOut: Date(checkOut, nil)}
	if !s.CheckOut.After(s.CheckIn) {
		return Stay{}, ErrInvalidRange.WithMessage(fmt.Sprintf(
			"check-out %s must be after check-in %s",
			s.CheckOut.Format(DateLayout), s.CheckIn.Format(DateLayout)))
	}
	if s.Nights() > MaxStayNights {
		return Stay{}, ErrInvalidRange.WithMessage(fmt.Sprintf(
			"a stay may be at most %d nights", MaxStayNights))
	}
	return s, nil
}

// Nights returns the number of nights in the stay. Computed from Unix seconds since a
// time.Duration saturates after about 292 years.
func (s Stay) Nights() int {
	return int((s.CheckOut.Unix() - s.CheckIn.Unix()) / secondsPerDay)
}

// Overlaps applies the half-open interval test: a check-out day may be another stay's check-in day.
func (s Stay) Overlaps(other Stay) bool {
	return s.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(s.CheckOut)
}

// String formats the stay as "YYYY-MM-DD/YYYY-MM-DD".
func (s Stay) String() string {
	return s.CheckIn.Format(DateLayout) + "/" + s.CheckOut.Format(DateLayout)
}
