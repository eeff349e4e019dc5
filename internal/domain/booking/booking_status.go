package booking

import "fmt"

// BookingStatus represents the current state of a booking in its lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// validTransitions defines which statuses can follow each status.
var validTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCancelled, StatusCompleted},
	StatusCancelled: {},
	StatusCompleted: {},
}

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

// ActiveStatuses are the statuses that occupy a room.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCompleted}

// IsValid returns true if the status is a recognized booking status.
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition from this status to the target is allowed.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible from this status.
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// IsActive reports whether a booking in this status blocks the room.
func (s BookingStatus) IsActive() bool {
	return s != StatusCancelled && s.IsValid()
}

// String returns the string representation of the status.
func (s BookingStatus) String() string {
	return string(s)
}

// ParseBookingStatus converts a string to a BookingStatus, returning an error if invalid.
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("invalid booking status: %s", s)
	}
	return status, nil
}

// CancellationType records who cancelled a booking.
type CancellationType string

const (
	CancelledByAdmin  CancellationType = "admin"
	CancelledByUser   CancellationType = "user"
	CancelledBySystem CancellationType = "system"
)

// IsValid reports whether t is a known cancellation type.
func (t CancellationType) IsValid() bool {
	switch t {
	case CancelledByAdmin, CancelledByUser, CancelledBySystem:
		return true
	}
	return false
}
