package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/internal/domain/history"
	"github.com/hotelhub/service-booking/pkg/domain"
	"gorm.io/gorm"
)

// TransitionModel is the GORM model for the booking_transitions table.
type TransitionModel struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID  `gorm:"type:uuid;index;not null"`
	FromStatus string     `gorm:"not null;size:20"`
	ToStatus   string     `gorm:"not null;size:20"`
	Action     string     `gorm:"not null;size:20"`
	ActorType  string     `gorm:"not null;size:10"`
	ActorID    *uuid.UUID `gorm:"type:uuid"`
	Reason     string     `gorm:"size:500"`
	OccurredAt time.Time  `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TransitionModel) TableName() string {
	return "booking_transitions"
}

// GormHistoryRepository implements HistoryRepository using GORM.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewGormHistoryRepository creates a new GormHistoryRepository.
func NewGormHistoryRepository(db *gorm.DB) *GormHistoryRepository {
	return &GormHistoryRepository{db: db}
}

// FindByBookingID returns a booking's transitions, oldest first.
func (r *GormHistoryRepository) FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*history.Entry, error) {
	var models []TransitionModel
	if err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("occurred_at ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("find booking history", err)
	}

	entries := make([]*history.Entry, len(models))
	for i, m := range models {
		entries[i] = history.Reconstruct(m.ID, m.BookingID, m.FromStatus, m.ToStatus, m.Action, m.ActorType, m.ActorID, m.Reason, m.OccurredAt)
	}
	return entries, nil
}

func toTransitionModel(res *bookingDomain.TransitionResult) *TransitionModel {
	var actorID *uuid.UUID
	if res.Actor.UserID != uuid.Nil {
		id := res.Actor.UserID
		actorID = &id
	}
	e := history.NewEntry(res.BookingID, string(res.From), string(res.To), string(res.Action),
		string(res.Actor.Type), actorID, res.Reason, res.OccurredAt)

	return &TransitionModel{
		ID:         e.ID(),
		BookingID:  e.BookingID(),
		FromStatus: e.FromStatus(),
		ToStatus:   e.ToStatus(),
		Action:     e.Action(),
		ActorType:  e.ActorType(),
		ActorID:    e.ActorID(),
		Reason:     e.Reason(),
		OccurredAt: e.OccurredAt(),
	}
}
