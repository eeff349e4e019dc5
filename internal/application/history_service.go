package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/internal/domain/history"
)

// HistoryEntryDTO is one recorded status transition.
type HistoryEntryDTO struct {
	ID         uuid.UUID  `json:"id"`
	FromStatus string     `json:"from_status"`
	ToStatus   string     `json:"to_status"`
	Action     string     `json:"action"`
	ActorType  string     `json:"actor_type"`
	ActorID    *uuid.UUID `json:"actor_id,omitempty"`
	Reason     string     `json:"reason,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// HistoryService reads the transition audit trail of a booking.
type HistoryService struct {
	bookings bookingDomain.BookingRepository
	repo     history.HistoryRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(bookings bookingDomain.BookingRepository, repo history.HistoryRepository) *HistoryService {
	return &HistoryService{bookings: bookings, repo: repo}
}

// GetHistory returns the transitions of a booking, oldest first. Guests may only read their own.
func (s *HistoryService) GetHistory(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor) ([]HistoryEntryDTO, error) {
	bk, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.Type == bookingDomain.ActorGuest && bk.UserID() != actor.UserID {
		return nil, bookingDomain.ErrNotOwner
	}

	entries, err := s.repo.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	dtos := make([]HistoryEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = HistoryEntryDTO{
			ID:         e.ID(),
			FromStatus: e.FromStatus(),
			ToStatus:   e.ToStatus(),
			Action:     e.Action(),
			ActorType:  e.ActorType(),
			ActorID:    e.ActorID(),
			Reason:     e.Reason(),
			OccurredAt: e.OccurredAt(),
		}
	}
	return dtos, nil
}
