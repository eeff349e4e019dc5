// Package events defines the topics, event types and payloads exchanged over Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Topics.
const (
	TopicBookingEvents = "booking.events"
	TopicPaymentEvents = "payment.events"
)

// Booking event types.
const (
	BookingCreated   = "booking.created"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingCompleted = "booking.completed"
	BookingPaid      = "booking.paid"
)

// Payment event types.
const (
	PaymentCaptured = "payment.captured"
)

// BookingCreatedEvent is published when a guest books a room.
type BookingCreatedEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	RoomID        uuid.UUID       `json:"room_id"`
	HotelID       uuid.UUID       `json:"hotel_id"`
	UserID        uuid.UUID       `json:"user_id"`
	CheckIn       string          `json:"check_in"`
	CheckOut      string          `json:"check_out"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// BookingStatusChangedEvent is published for confirm, cancel and complete transitions.
type BookingStatusChangedEvent struct {
	BookingID        uuid.UUID  `json:"booking_id"`
	BookingNumber    string     `json:"booking_number"`
	RoomID           uuid.UUID  `json:"room_id"`
	UserID           uuid.UUID  `json:"user_id"`
	FromStatus       string     `json:"from_status"`
	ToStatus         string     `json:"to_status"`
	Action           string     `json:"action"`
	ActorType        string     `json:"actor_type"`
	ActorID          *uuid.UUID `json:"actor_id,omitempty"`
	CancellationType string     `json:"cancellation_type,omitempty"`
	Reason           string     `json:"reason,omitempty"`
	EarlyCheckout    bool       `json:"early_checkout,omitempty"`
	OccurredAt       time.Time  `json:"occurred_at"`
}

// BookingPaidEvent is published when a payment method is recorded.
type BookingPaidEvent struct {
	BookingID     uuid.UUID       `json:"booking_id"`
	BookingNumber string          `json:"booking_number"`
	UserID        uuid.UUID       `json:"user_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// PaymentCapturedEvent is consumed from the payment service.
type PaymentCapturedEvent struct {
	PaymentID     uuid.UUID       `json:"payment_id"`
	BookingID     uuid.UUID       `json:"booking_id"`
	PaymentMethod string          `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
