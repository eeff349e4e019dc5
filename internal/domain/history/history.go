// Package history holds the audit trail of booking status transitions.
package history

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one applied status transition.
type Entry struct {
	id         uuid.UUID
	bookingID  uuid.UUID
	fromStatus string
	toStatus   string
	action     string
	actorType  string
	actorID    *uuid.UUID
	reason     string
	occurredAt time.Time
}

// NewEntry creates an Entry. A nil actorID means the system acted.
func NewEntry(bookingID uuid.UUID, fromStatus, toStatus, action, actorType string, actorID *uuid.UUID, reason string, occurredAt time.Time) *Entry {
	return &Entry{
		id:         uuid.New(),
		bookingID:  bookingID,
		fromStatus: fromStatus,
		toStatus:   toStatus,
		action:     action,
		actorType:  actorType,
		actorID:    actorID,
		reason:     reason,
		occurredAt: occurredAt.UTC(),
	}
}

// Reconstruct rebuilds an Entry from persistence.
func Reconstruct(id, bookingID uuid.UUID, fromStatus, toStatus, action, actorType string, actorID *uuid.UUID, reason string, occurredAt time.Time) *Entry {
	return &Entry{
		id:         id,
		bookingID:  bookingID,
		fromStatus: fromStatus,
		toStatus:   toStatus,
		action:     action,
		actorType:  actorType,
		actorID:    actorID,
		reason:     reason,
		occurredAt: occurredAt,
	}
}

func (e *Entry) ID() uuid.UUID { return e.id }
func (e *Entry) BookingID() uuid.UUID { return e.bookingID }
func (e *Entry) FromStatus() string { return e.fromStatus }
func (e *Entry) ToStatus() string { return e.toStatus }
func (e *Entry) Action() string { return e.action }
func (e *Entry) ActorType() string { return e.actorType }
func (e *Entry) ActorID() *uuid.UUID { return e.actorID }
func (e *Entry) Reason() string { return e.reason }
func (e *Entry) OccurredAt() time.Time { return e.occurredAt }
