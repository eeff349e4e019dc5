package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/clock"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
)

// AvailabilityResult is the answer to an availability query.
type AvailabilityResult struct {
	RoomID                uuid.UUID   `json:"room_id"`
	CheckIn               string      `json:"check_in"`
	CheckOut              string      `json:"check_out"`
	Available             bool        `json:"available"`
	ConflictingBookingIDs []uuid.UUID `json:"conflicting_booking_ids"`
}

// AvailabilityService answers whether a room is free for a date range. It never writes.
type AvailabilityService struct {
	repo   bookingDomain.BookingRepository
	policy bookingDomain.CheckoutPolicy
	clock  clock.Clock
}

// NewAvailabilityService creates a new AvailabilityService.
func NewAvailabilityService(repo bookingDomain.BookingRepository, policy bookingDomain.CheckoutPolicy, clk clock.Clock) *AvailabilityService {
	return &AvailabilityService{repo: repo, policy: policy, clock: clk}
}

// ValidateStay builds a Stay and rejects empty or inverted ranges and check-ins before today.
func (s *AvailabilityService) ValidateStay(checkIn, checkOut time.Time) (bookingDomain.Stay, error) {
	stay, err := bookingDomain.NewStay(checkIn, checkOut)
	if err != nil {
		return bookingDomain.Stay{}, err
	}
	today := s.policy.Today(s.clock.Now())
	if stay.CheckIn.Before(today) {
		return bookingDomain.Stay{}, bookingDomain.ErrPastDate.WithMessage(fmt.Sprintf(
			"check-in %s is before today (%s)",
			stay.CheckIn.Format(bookingDomain.DateLayout), today.Format(bookingDomain.DateLayout)))
	}
	return stay, nil
}

// IsAvailable reports whether roomID is free on [checkIn, checkOut) and lists the bookings in the way.
func (s *AvailabilityService) IsAvailable(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time) (*AvailabilityResult, error) {
	stay, err := s.ValidateStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindActiveOverlapping(ctx, roomID, stay)
	if err != nil {
		return nil, err
	}

	conflicts := make([]uuid.UUID, 0, len(existing))
	for _, b := range existing {
		if b.Status().IsActive() && b.Stay().Overlaps(stay) {
			conflicts = append(conflicts, b.ID())
		}
	}

	return &AvailabilityResult{
		RoomID:                roomID,
		CheckIn:               stay.CheckIn.Format(bookingDomain.DateLayout),
		CheckOut:              stay.CheckOut.Format(bookingDomain.DateLayout),
		Available:             len(conflicts) == 0,
		ConflictingBookingIDs: conflicts,
	}, nil
}
