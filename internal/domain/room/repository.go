package room

import (
	"context"

	"github.com/google/uuid"
)

// RoomRepository defines persistence operations for rooms.
type RoomRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Room, error)
	// List returns rooms, optionally restricted to one hotel (uuid.Nil for all).
	List(ctx context.Context, hotelID uuid.UUID, includeArchived bool, page, limit int) ([]*Room, int64, error)
	Save(ctx context.Context, room *Room) error
	// Update persists changes with optimistic locking on Version()-1.
	Update(ctx context.Context, room *Room) error
}
