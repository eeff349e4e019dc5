package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	roomDomain "github.com/hotelhub/service-booking/internal/domain/room"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	BookingNumber      string          `gorm:"uniqueIndex;not null;size:20"`
	RoomID             uuid.UUID       `gorm:"type:uuid;index;not null"`
	HotelID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID             uuid.UUID       `gorm:"type:uuid;index;not null"`
	CheckIn            time.Time       `gorm:"type:date;not null"`
	CheckOut           time.Time       `gorm:"type:date;not null"`
	Status             string          `gorm:"not null;size:20;index"`
	CancellationType   *string         `gorm:"size:10"`
	CancellationReason *string         `gorm:"size:500"`
	TotalPrice         decimal.Decimal `gorm:"type:numeric(14,2);not null"`
	Currency           string          `gorm:"not null;size:3"`
	PaymentMethod      *string         `gorm:"size:50"`
	Notes              string          `gorm:"size:1000"`
	Version            int64           `gorm:"not null;default:1"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
	ConfirmedAt        *time.Time
	CompletedAt        *time.Time
	CancelledAt        *time.Time
	PaidAt             *time.Time
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", id.String())
		}
		return nil, domain.NewStorageError("find booking", err)
	}
	return toDomainBooking(&model)
}

// FindByNumber retrieves a booking by its booking number.
func (r *GormBookingRepository) FindByNumber(ctx context.Context, number string) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.db.WithContext(ctx).Where("booking_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Booking", number)
		}
		return nil, domain.NewStorageError("find booking", err)
	}
	return toDomainBooking(&model)
}

// FindByUserID retrieves a guest's bookings with pagination.
func (r *GormBookingRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	return r.List(ctx, bookingDomain.ListFilter{UserID: userID}, page, limit)
}

// FindActiveOverlapping returns non-cancelled bookings on the room that overlap stay.
func (r *GormBookingRepository) FindActiveOverlapping(ctx context.Context, roomID uuid.UUID, stay bookingDomain.Stay) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	if err := overlapping(r.db.WithContext(ctx), roomID, stay).
		Order("check_in ASC").
		Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("find overlapping bookings", err)
	}
	return toDomainBookings(models)
}

// FindDueForSweep returns pending or confirmed bookings whose check-out is on or before the date.
func (r *GormBookingRepository) FindDueForSweep(ctx context.Context, checkOutOnOrBefore time.Time, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	q := r.db.WithContext(ctx).
		Where("status IN ?", []string{string(bookingDomain.StatusPending), string(bookingDomain.StatusConfirmed)}).
		Where("check_out <= ?", checkOutOnOrBefore).
		Order("check_out ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("find bookings due for sweep", err)
	}
	return toDomainBookings(models)
}

// List retrieves bookings matching filter with pagination, newest first.
func (r *GormBookingRepository) List(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&BookingModel{}), filter).Count(&total).Error; err != nil {
		return nil, 0, domain.NewStorageError("count bookings", err)
	}

	var models []BookingModel
	offset := (page - 1) * limit
	if err := applyFilter(r.db.WithContext(ctx), filter).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, domain.NewStorageError("list bookings", err)
	}

	bookings, err := toDomainBookings(models)
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// ListAll retrieves bookings matching filter ordered by check-in, at most limit rows when
// limit is positive.
func (r *GormBookingRepository) ListAll(ctx context.Context, filter bookingDomain.ListFilter, limit int) ([]*bookingDomain.Booking, error) {
	var models []BookingModel
	q := applyFilter(r.db.WithContext(ctx), filter).Order("check_in ASC, created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, domain.NewStorageError("list bookings", err)
	}
	return toDomainBookings(models)
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, domain.NewStorageError("count bookings by status", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// CreateIfAvailable locks the room row, re-checks overlap and inserts, all in one transaction.
// The bookings_no_overlap exclusion constraint catches anything that slips past the lock.
func (r *GormBookingRepository) CreateIfAvailable(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var room RoomModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", bk.RoomID()).
			First(&room).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.NewNotFoundError("Room", bk.RoomID().String())
			}
			return err
		}
		if room.Status != string(roomDomain.RoomStatusActive) {
			return roomDomain.ErrRoomArchived
		}

		var conflicts []uuid.UUID
		if err := overlapping(tx.Model(&BookingModel{}), bk.RoomID(), bk.Stay()).
			Pluck("id", &conflicts).Error; err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return bookingDomain.ErrRoomUnavailable
		}

		return tx.Create(model).Error
	})

	switch {
	case err == nil:
		return nil
	case isExclusionViolation(err), isRetryable(err):
		return bookingDomain.ErrRoomUnavailable
	case isForeignKeyViolation(err):
		return domain.NewNotFoundError("Room", bk.RoomID().String())
	case isUniqueViolation(err):
		return domain.NewConflictError("booking number already in use")
	}
	if _, ok := domain.AsAppError(err); ok {
		return err
	}
	return domain.NewStorageError("create booking", err)
}

// ApplyTransition writes a status change with compare-and-set on (id, status, version) and
// appends the matching history row in the same transaction.
func (r *GormBookingRepository) ApplyTransition(ctx context.Context, bk *bookingDomain.Booking, result *bookingDomain.TransitionResult) error {
	model := toBookingModel(bk)
	expectedVersion := bk.Version() - 1

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&BookingModel{}).
			Where("id = ? AND status = ? AND version = ?", model.ID, string(result.From), expectedVersion).
			Updates(map[string]interface{}{
				"status":              model.Status,
				"cancellation_type":   model.CancellationType,
				"cancellation_reason": model.CancellationReason,
				"confirmed_at":        model.ConfirmedAt,
				"completed_at":        model.CompletedAt,
				"cancelled_at":        model.CancelledAt,
				"version":             model.Version,
				"updated_at":          model.UpdatedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NewConflictError("booking was modified by another transaction")
		}

		return tx.Create(toTransitionModel(result)).Error
	})
	if err == nil {
		return nil
	}
	if _, ok := domain.AsAppError(err); ok {
		return err
	}
	if isRetryable(err) {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return domain.NewStorageError("update booking status", err)
}

// UpdatePayment persists payment fields with optimistic locking.
func (r *GormBookingRepository) UpdatePayment(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND version = ?", model.ID, bk.Version()-1).
		Where("status IN ?", []string{string(bookingDomain.StatusPending), string(bookingDomain.StatusConfirmed)}).
		Updates(map[string]interface{}{
			"payment_method": model.PaymentMethod,
			"paid_at":        model.PaidAt,
			"version":        model.Version,
			"updated_at":     model.UpdatedAt,
		})
	if result.Error != nil {
		return domain.NewStorageError("update booking payment", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	return nil
}

// --- Query Helpers ---

// overlapping selects active bookings on roomID whose [check_in, check_out) intersects stay.
func overlapping(q *gorm.DB, roomID uuid.UUID, stay bookingDomain.Stay) *gorm.DB {
	return q.Where("room_id = ?", roomID).
		Where("status <> ?", string(bookingDomain.StatusCancelled)).
		Where("check_in < ? AND ? < check_out", stay.CheckOut, stay.CheckIn)
}

func applyFilter(q *gorm.DB, f bookingDomain.ListFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.RoomID != uuid.Nil {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.HotelID != uuid.Nil {
		q = q.Where("hotel_id = ?", f.HotelID)
	}
	if f.UserID != uuid.Nil {
		q = q.Where("user_id = ?", f.UserID)
	}
	if !f.CheckInFrom.IsZero() {
		q = q.Where("check_in >= ?", f.CheckInFrom)
	}
	if !f.CheckInUntil.IsZero() {
		q = q.Where("check_in <= ?", f.CheckInUntil)
	}
	return q
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	var cancellationType *string
	if ct := bk.CancellationType(); ct != nil {
		s := string(*ct)
		cancellationType = &s
	}

	return &BookingModel{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		RoomID:             bk.RoomID(),
		HotelID:            bk.HotelID(),
		UserID:             bk.UserID(),
		CheckIn:            bk.CheckIn(),
		CheckOut:           bk.CheckOut(),
		Status:             string(bk.Status()),
		CancellationType:   cancellationType,
		CancellationReason: bk.CancellationReason(),
		TotalPrice:         bk.TotalPrice(),
		Currency:           bk.Currency(),
		PaymentMethod:      bk.PaymentMethod(),
		Notes:              bk.Notes(),
		Version:            bk.Version(),
		CreatedAt:          bk.CreatedAt(),
		UpdatedAt:          bk.UpdatedAt(),
		ConfirmedAt:        bk.ConfirmedAt(),
		CompletedAt:        bk.CompletedAt(),
		CancelledAt:        bk.CancelledAt(),
		PaidAt:             bk.PaidAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, domain.NewStorageError("decode booking", err)
	}

	var cancellationType *bookingDomain.CancellationType
	if m.CancellationType != nil {
		ct := bookingDomain.CancellationType(*m.CancellationType)
		if !ct.IsValid() {
			return nil, domain.NewStorageError("decode booking", fmt.Errorf("invalid cancellation type %q", *m.CancellationType))
		}
		cancellationType = &ct
	}

	stay := bookingDomain.Stay{
		CheckIn:  bookingDomain.Date(m.CheckIn, nil),
		CheckOut: bookingDomain.Date(m.CheckOut, nil),
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		m.BookingNumber,
		m.RoomID,
		m.HotelID,
		m.UserID,
		stay,
		status,
		cancellationType,
		m.CancellationReason,
		m.TotalPrice,
		m.Currency,
		m.PaymentMethod,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
		m.ConfirmedAt,
		m.CompletedAt,
		m.CancelledAt,
		m.PaidAt,
	), nil
}

func toDomainBookings(models []BookingModel) ([]*bookingDomain.Booking, error) {
	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}
