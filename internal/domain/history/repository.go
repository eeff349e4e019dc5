package history

import (
	"context"

	"github.com/google/uuid"
)

// HistoryRepository reads the transition audit trail. Entries are written together with the
// status change they describe, by the booking repository.
type HistoryRepository interface {
	FindByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*Entry, error)
}
