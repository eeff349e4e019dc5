package booking

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustStay(t *testing.T, in, out string) Stay {
	t.Helper()
	s, err := NewStay(mustDate(t, in), mustDate(t, out))
	require.NoError(t, err)
	return s
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return ts
}

func bookingIn(t *testing.T, status BookingStatus, in, out string, owner uuid.UUID) *Booking {
	t.Helper()
	created := mustDate(t, in).Add(-72 * time.Hour)
	return ReconstructBooking(
		uuid.New(), "BK-TEST01", uuid.New(), uuid.New(), owner,
		mustStay(t, in, out), status, nil, nil,
		decimal.NewFromInt(100), "VND", nil, "", 3,
		created, created, nil, nil, nil, nil,
	)
}
