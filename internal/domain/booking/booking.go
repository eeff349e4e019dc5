package booking

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/shopspring/decimal"
)

const bookingNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MaxPaymentMethodLength is the longest payment method label accepted, in characters.
const MaxPaymentMethodLength = 50

// Booking is the aggregate root for a room reservation.
type Booking struct {
	id            uuid.UUID
	bookingNumber string
	roomID        uuid.UUID
	hotelID       uuid.UUID
	userID        uuid.UUID
	stay          Stay
	status        BookingStatus

	cancellationType   *CancellationType
	cancellationReason *string

	totalPrice    decimal.Decimal
	currency      string
	paymentMethod *string
	notes         string

	version     int64
	createdAt   time.Time
	updatedAt   time.Time
	confirmedAt *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	paidAt      *time.Time
}

// generateBookingNumber creates a booking number in the format "BK-XXXXXX".
func generateBookingNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(bookingNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate booking number: %w", err)
		}
		result[i] = bookingNumberChars[n.Int64()]
	}
	return "BK-" + string(result), nil
}

// NewBooking creates a pending booking. The total price is fixed here and never recomputed.
func NewBooking(
	roomID uuid.UUID,
	hotelID uuid.UUID,
	userID uuid.UUID,
	stay Stay,
	totalPrice decimal.Decimal,
	currency string,
	notes string,
	now time.Time,
) (*Booking, error) {
	if roomID == uuid.Nil {
		return nil, domain.NewValidationError("room ID is required")
	}
	if hotelID == uuid.Nil {
		return nil, domain.NewValidationError("hotel ID is required")
	}
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if !stay.CheckOut.After(stay.CheckIn) {
		return nil, ErrInvalidRange
	}
	if !totalPrice.IsPositive() {
		return nil, domain.NewValidationError("total price must be positive")
	}
	if len(notes) > 1000 {
		return nil, domain.NewValidationError("notes must be at most 1000 characters")
	}

	bookingNumber, err := generateBookingNumber()
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Booking{
		id:            uuid.New(),
		bookingNumber: bookingNumber,
		roomID:        roomID,
		hotelID:       hotelID,
		userID:        userID,
		stay:          stay,
		status:        StatusPending,
		totalPrice:    totalPrice,
		currency:      currency,
		notes:         strings.TrimSpace(notes),
		version:       1,
		createdAt:     now,
		updatedAt:     now,
	}, nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	bookingNumber string,
	roomID uuid.UUID,
	hotelID uuid.UUID,
	userID uuid.UUID,
	stay Stay,
	status BookingStatus,
	cancellationType *CancellationType,
	cancellationReason *string,
	totalPrice decimal.Decimal,
	currency string,
	paymentMethod *string,
	notes string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
	confirmedAt *time.Time,
	completedAt *time.Time,
	cancelledAt *time.Time,
	paidAt *time.Time,
) *Booking {
	return &Booking{
		id:                 id,
		bookingNumber:      bookingNumber,
		roomID:             roomID,
		hotelID:            hotelID,
		userID:             userID,
		stay:               stay,
		status:             status,
		cancellationType:   cancellationType,
		cancellationReason: cancellationReason,
		totalPrice:         totalPrice,
		currency:           currency,
		paymentMethod:      paymentMethod,
		notes:              notes,
		version:            version,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
		confirmedAt:        confirmedAt,
		completedAt:        completedAt,
		cancelledAt:        cancelledAt,
		paidAt:             paidAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// BookingNumber returns the human-readable booking number.
func (b *Booking) BookingNumber() string { return b.bookingNumber }

// RoomID returns the booked room.
func (b *Booking) RoomID() uuid.UUID { return b.roomID }

// HotelID returns the hotel the room belongs to.
func (b *Booking) HotelID() uuid.UUID { return b.hotelID }

// UserID returns the guest who made the booking.
func (b *Booking) UserID() uuid.UUID { return b.userID }

// Stay returns the booked date range.
func (b *Booking) Stay() Stay { return b.stay }

// CheckIn returns the check-in date.
func (b *Booking) CheckIn() time.Time { return b.stay.CheckIn }

// CheckOut returns the check-out date.
func (b *Booking) CheckOut() time.Time { return b.stay.CheckOut }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// CancellationType returns who cancelled the booking, or nil.
func (b *Booking) CancellationType() *CancellationType { return b.cancellationType }

// CancellationReason returns the cancellation reason, or nil.
func (b *Booking) CancellationReason() *string { return b.cancellationReason }

// TotalPrice returns the price fixed at creation.
func (b *Booking) TotalPrice() decimal.Decimal { return b.totalPrice }

// Currency returns the currency code.
func (b *Booking) Currency() string { return b.currency }

// PaymentMethod returns the recorded payment method, or nil before payment.
func (b *Booking) PaymentMethod() *string { return b.paymentMethod }

// Notes returns the guest's notes.
func (b *Booking) Notes() string { return b.notes }

// Version returns the entity version for optimistic locking.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// ConfirmedAt returns when the booking was confirmed.
func (b *Booking) ConfirmedAt() *time.Time { return b.confirmedAt }

// CompletedAt returns when the booking was completed.
func (b *Booking) CompletedAt() *time.Time { return b.completedAt }

// CancelledAt returns when the booking was cancelled.
func (b *Booking) CancelledAt() *time.Time { return b.cancelledAt }

// PaidAt returns when payment was recorded.
func (b *Booking) PaidAt() *time.Time { return b.paidAt }

// IsPaid reports whether a payment has been recorded.
func (b *Booking) IsPaid() bool { return b.paidAt != nil }

// --- Behavior ---

// confirm, cancel and complete are only reachable through Lifecycle.Transition,
// which has already checked the guards.

func (b *Booking) confirm(now time.Time) {
	b.status = StatusConfirmed
	b.confirmedAt = &now
	b.updatedAt = now
}

func (b *Booking) cancel(by CancellationType, reason string, now time.Time) {
	b.status = StatusCancelled
	b.cancellationType = &by
	b.cancellationReason = &reason
	b.cancelledAt = &now
	b.updatedAt = now
}

func (b *Booking) complete(now time.Time) {
	b.status = StatusCompleted
	b.completedAt = &now
	b.updatedAt = now
}

// RecordPayment stores the payment method once, while the booking is still pending or confirmed.
func (b *Booking) RecordPayment(method string, now time.Time) error {
	method = strings.TrimSpace(method)
	if method == "" {
		return domain.NewValidationError("payment method is required")
	}
	if utf8.RuneCountInString(method) > MaxPaymentMethodLength {
		return domain.NewValidationError(
			fmt.Sprintf("payment method must be at most %d characters", MaxPaymentMethodLength))
	}
	if b.status != StatusPending && b.status != StatusConfirmed {
		return domain.NewInvalidStateError(string(b.status), "paid")
	}
	if b.paidAt != nil {
		return ErrAlreadyPaid
	}
	now = now.UTC()
	b.paymentMethod = &method
	b.paidAt = &now
	b.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (b *Booking) IncrementVersion() {
	b.version++
}
