package room

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/shopspring/decimal"
)

// RoomStatus represents whether a room can still be booked.
type RoomStatus string

const (
	RoomStatusActive   RoomStatus = "active"
	RoomStatusArchived RoomStatus = "archived"
)

// ErrRoomArchived is returned when booking or editing an archived room.
var ErrRoomArchived = domain.New(http.StatusConflict, "ROOM_ARCHIVED", "room is archived")

// Room is the aggregate root for a bookable hotel room.
type Room struct {
	id            uuid.UUID
	hotelID       uuid.UUID
	name          string
	roomType      string
	capacity      int
	pricePerNight decimal.Decimal
	currency      string
	status        RoomStatus
	version       int64
	createdAt     time.Time
	updatedAt     time.Time
}

// NewRoom creates a new active room with validated fields.
func NewRoom(
	hotelID uuid.UUID,
	name, roomType string,
	capacity int,
	pricePerNight decimal.Decimal,
	currency string,
) (*Room, error) {
	if hotelID == uuid.Nil {
		return nil, domain.NewValidationError("hotel ID is required")
	}
	r := &Room{id: uuid.New(), hotelID: hotelID, status: RoomStatusActive, version: 1}
	if err := r.apply(name, roomType, capacity, pricePerNight, currency); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	r.createdAt = now
	r.updatedAt = now
	return r, nil
}

// Reconstruct rebuilds a Room from persistence data (no validation).
func Reconstruct(
	id, hotelID uuid.UUID,
	name, roomType string,
	capacity int,
	pricePerNight decimal.Decimal,
	currency string,
	status RoomStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Room {
	return &Room{
		id:            id,
		hotelID:       hotelID,
		name:          name,
		roomType:      roomType,
		capacity:      capacity,
		pricePerNight: pricePerNight,
		currency:      currency,
		status:        status,
		version:       version,
		createdAt:     createdAt,
		updatedAt:     updatedAt,
	}
}

// ID returns the room's unique identifier.
func (r *Room) ID() uuid.UUID { return r.id }

// HotelID returns the hotel the room belongs to.
func (r *Room) HotelID() uuid.UUID { return r.hotelID }

// Name returns the display name.
func (r *Room) Name() string { return r.name }

// RoomType returns the room category, e.g. "deluxe".
func (r *Room) RoomType() string { return r.roomType }

// Capacity returns the maximum number of guests.
func (r *Room) Capacity() int { return r.capacity }

// PricePerNight returns the current nightly rate.
func (r *Room) PricePerNight() decimal.Decimal { return r.pricePerNight }

// Currency returns the currency code of the rate.
func (r *Room) Currency() string { return r.currency }

// Status returns the room status.
func (r *Room) Status() RoomStatus { return r.status }

// IsBookable reports whether new bookings may be made for the room.
func (r *Room) IsBookable() bool { return r.status == RoomStatusActive }

// Version returns the entity version for optimistic locking.
func (r *Room) Version() int64 { return r.version }

// CreatedAt returns the creation timestamp.
func (r *Room) CreatedAt() time.Time { return r.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (r *Room) UpdatedAt() time.Time { return r.updatedAt }

// Update replaces the editable fields. Existing bookings keep the price they were created with.
func (r *Room) Update(name, roomType string, capacity int, pricePerNight decimal.Decimal, currency string) error {
	if !r.IsBookable() {
		return ErrRoomArchived
	}
	if err := r.apply(name, roomType, capacity, pricePerNight, currency); err != nil {
		return err
	}
	r.updatedAt = time.Now().UTC()
	return nil
}

// Archive takes the room out of sale.
func (r *Room) Archive() error {
	if r.status == RoomStatusArchived {
		return ErrRoomArchived
	}
	r.status = RoomStatusArchived
	r.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (r *Room) IncrementVersion() {
	r.version++
}

func (r *Room) apply(name, roomType string, capacity int, pricePerNight decimal.Decimal, currency string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.NewValidationError("room name is required")
	}
	if capacity < 1 {
		return domain.NewValidationError("capacity must be at least 1")
	}
	if !pricePerNight.IsPositive() {
		return domain.NewValidationError("price per night must be positive")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = domain.CurrencyVND
	}
	if len(currency) != 3 {
		return domain.NewValidationError("currency must be a 3-letter code")
	}
	r.name = name
	r.roomType = strings.TrimSpace(roomType)
	r.capacity = capacity
	r.pricePerNight = pricePerNight
	r.currency = currency
	return nil
}
