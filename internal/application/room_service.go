package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	roomDomain "github.com/hotelhub/service-booking/internal/domain/room"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateRoomRequest holds the data needed to add a room to a hotel.
type CreateRoomRequest struct {
	HotelID       uuid.UUID       `json:"hotel_id" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	RoomType      string          `json:"room_type"`
	Capacity      int             `json:"capacity" binding:"required,min=1"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Currency      string          `json:"currency"`
}

// UpdateRoomRequest holds the editable room fields.
type UpdateRoomRequest struct {
	Name          string          `json:"name" binding:"required"`
	RoomType      string          `json:"room_type"`
	Capacity      int             `json:"capacity" binding:"required,min=1"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Currency      string          `json:"currency"`
}

// RoomDTO is the response representation of a room.
type RoomDTO struct {
	ID            uuid.UUID       `json:"id"`
	HotelID       uuid.UUID       `json:"hotel_id"`
	Name          string          `json:"name"`
	RoomType      string          `json:"room_type,omitempty"`
	Capacity      int             `json:"capacity"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// RoomAvailabilityDTO is the public answer to an availability query. Conflicting
// bookings are reported as a count only.
type RoomAvailabilityDTO struct {
	RoomID        uuid.UUID `json:"room_id"`
	CheckIn       string    `json:"check_in"`
	CheckOut      string    `json:"check_out"`
	Nights        int       `json:"nights"`
	Available     bool      `json:"available"`
	ConflictCount int       `json:"conflict_count"`
}

// RoomService handles the room catalog.
type RoomService struct {
	repo         roomDomain.RoomRepository
	availability *AvailabilityService
	logger       *zap.Logger
}

// NewRoomService creates a new RoomService.
func NewRoomService(repo roomDomain.RoomRepository, availability *AvailabilityService, logger *zap.Logger) *RoomService {
	return &RoomService{repo: repo, availability: availability, logger: logger}
}

// CreateRoom adds a room (admin).
func (s *RoomService) CreateRoom(ctx context.Context, req CreateRoomRequest) (*RoomDTO, error) {
	room, err := roomDomain.NewRoom(req.HotelID, req.Name, req.RoomType, req.Capacity, req.PricePerNight, req.Currency)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("room created",
		zap.String("room_id", room.ID().String()),
		zap.String("hotel_id", room.HotelID().String()),
	)
	result := toRoomDTO(room)
	return &result, nil
}

// UpdateRoom replaces the editable fields of a room (admin). Existing bookings keep their price.
func (s *RoomService) UpdateRoom(ctx context.Context, roomID uuid.UUID, req UpdateRoomRequest) (*RoomDTO, error) {
	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := room.Update(req.Name, req.RoomType, req.Capacity, req.PricePerNight, req.Currency); err != nil {
		return nil, err
	}

	room.IncrementVersion()
	if err := s.repo.Update(ctx, room); err != nil {
		return nil, err
	}

	s.logger.Info("room updated", zap.String("room_id", room.ID().String()))
	result := toRoomDTO(room)
	return &result, nil
}

// ArchiveRoom takes a room out of sale (admin). Existing bookings are not touched.
func (s *RoomService) ArchiveRoom(ctx context.Context, roomID uuid.UUID) error {
	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return err
	}
	if err := room.Archive(); err != nil {
		return err
	}

	room.IncrementVersion()
	if err := s.repo.Update(ctx, room); err != nil {
		return err
	}

	s.logger.Info("room archived", zap.String("room_id", room.ID().String()))
	return nil
}

// GetRoom retrieves a room by ID.
func (s *RoomService) GetRoom(ctx context.Context, roomID uuid.UUID) (*RoomDTO, error) {
	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	result := toRoomDTO(room)
	return &result, nil
}

// ListRooms lists active rooms, optionally for one hotel.
func (s *RoomService) ListRooms(ctx context.Context, hotelID uuid.UUID, page, limit int) (*domain.PaginatedResult[RoomDTO], error) {
	rooms, total, err := s.repo.List(ctx, hotelID, false, page, limit)
	if err != nil {
		return nil, err
	}
	dtos := make([]RoomDTO, len(rooms))
	for i, r := range rooms {
		dtos[i] = toRoomDTO(r)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetRoomAvailability checks whether a room can be booked for [checkIn, checkOut).
// An archived room is never available.
func (s *RoomService) GetRoomAvailability(ctx context.Context, roomID uuid.UUID, checkIn, checkOut string) (*RoomAvailabilityDTO, error) {
	in, err := bookingDomain.ParseDate(checkIn)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	out, err := bookingDomain.ParseDate(checkOut)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	room, err := s.repo.FindByID(ctx, roomID)
	if err != nil {
		return nil, err
	}

	res, err := s.availability.IsAvailable(ctx, room.ID(), in, out)
	if err != nil {
		return nil, err
	}

	stay, _ := bookingDomain.NewStay(in, out)
	return &RoomAvailabilityDTO{
		RoomID:        room.ID(),
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
		Nights:        stay.Nights(),
		Available:     res.Available && room.IsBookable(),
		ConflictCount: len(res.ConflictingBookingIDs),
	}, nil
}

func toRoomDTO(r *roomDomain.Room) RoomDTO {
	return RoomDTO{
		ID:            r.ID(),
		HotelID:       r.HotelID(),
		Name:          r.Name(),
		RoomType:      r.RoomType(),
		Capacity:      r.Capacity(),
		PricePerNight: r.PricePerNight(),
		Currency:      r.Currency(),
		Status:        string(r.Status()),
		Version:       r.Version(),
		CreatedAt:     r.CreatedAt(),
		UpdatedAt:     r.UpdatedAt(),
	}
}
