package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows admin booking listings. Zero values mean "no filter".
type ListFilter struct {
	Status       BookingStatus
	RoomID       uuid.UUID
	HotelID      uuid.UUID
	UserID       uuid.UUID
	CheckInFrom  time.Time
	CheckInUntil time.Time
}

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// FindByNumber retrieves a booking by its human-readable booking number.
	FindByNumber(ctx context.Context, number string) (*Booking, error)

	// FindByUserID retrieves a guest's bookings with pagination, newest first.
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*Booking, int64, error)

	// FindActiveOverlapping returns active bookings on the room whose stay overlaps stay.
	FindActiveOverlapping(ctx context.Context, roomID uuid.UUID, stay Stay) ([]*Booking, error)

	// FindDueForSweep returns pending or confirmed bookings with check-out on or before the given date.
	FindDueForSweep(ctx context.Context, checkOutOnOrBefore time.Time, limit int) ([]*Booking, error)

	// List retrieves bookings matching filter with pagination (admin).
	List(ctx context.Context, filter ListFilter, page, limit int) ([]*Booking, int64, error)

	// ListAll retrieves bookings matching filter, ordered by check-in (export). A positive
	// limit caps the number of rows returned.
	ListAll(ctx context.Context, filter ListFilter, limit int) ([]*Booking, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// CreateIfAvailable inserts b only if no active booking on the same room overlaps it.
	// The check and the insert are atomic; a conflict returns ErrRoomUnavailable.
	CreateIfAvailable(ctx context.Context, b *Booking) error

	// ApplyTransition persists a status change made by Lifecycle.Transition and records it in the
	// transition history. The write succeeds only if the stored row still has result.From and the
	// version preceding b.Version(); otherwise a conflict error is returned and nothing is written.
	ApplyTransition(ctx context.Context, b *Booking, result *TransitionResult) error

	// UpdatePayment persists payment fields with optimistic locking.
	UpdatePayment(ctx context.Context, b *Booking) error
}
