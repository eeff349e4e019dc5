package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/clock"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	roomDomain "github.com/hotelhub/service-booking/internal/domain/room"
	"github.com/hotelhub/service-booking/internal/metrics"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/hotelhub/service-booking/pkg/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	RoomID   uuid.UUID `json:"room_id" binding:"required"`
	CheckIn  string    `json:"check_in" binding:"required"`
	CheckOut string    `json:"check_out" binding:"required"`
	Notes    string    `json:"notes"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID                 uuid.UUID       `json:"id"`
	BookingNumber      string          `json:"booking_number"`
	RoomID             uuid.UUID       `json:"room_id"`
	HotelID            uuid.UUID       `json:"hotel_id"`
	UserID             uuid.UUID       `json:"user_id"`
	CheckIn            string          `json:"check_in"`
	CheckOut           string          `json:"check_out"`
	Nights             int             `json:"nights"`
	Status             string          `json:"status"`
	CancellationType   *string         `json:"cancellation_type,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Currency           string          `json:"currency"`
	PaymentMethod      *string         `json:"payment_method,omitempty"`
	Notes              string          `json:"notes,omitempty"`
	Version            int64           `json:"version"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	ConfirmedAt        *time.Time      `json:"confirmed_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	PaidAt             *time.Time      `json:"paid_at,omitempty"`
}

// TransitionDTO is the response to an explicit status change.
type TransitionDTO struct {
	Booking       BookingDTO `json:"booking"`
	From          string     `json:"from"`
	To            string     `json:"to"`
	EarlyCheckout bool       `json:"early_checkout,omitempty"`
}

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// BookingServiceConfig holds lifecycle settings for BookingService.
type BookingServiceConfig struct {
	// ReconcileOnRead applies a due system transition when a booking is read.
	ReconcileOnRead bool

	// ExportMaxRows caps a single export. Non-positive uses DefaultExportMaxRows.
	ExportMaxRows int
}

const (
	// DefaultExportMaxRows is the export row cap used when none is configured.
	DefaultExportMaxRows = 10000

	// MaxExportSpanDays is the widest check-in range a single export may cover.
	MaxExportSpanDays = 366
)

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo         bookingDomain.BookingRepository
	rooms        roomDomain.RoomRepository
	availability *AvailabilityService
	lifecycle    *bookingDomain.Lifecycle
	pricing      bookingDomain.PricingStrategy
	clock        clock.Clock
	publisher    EventPublisher
	metrics      *metrics.Metrics
	cfg          BookingServiceConfig
	logger       *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	rooms roomDomain.RoomRepository,
	availability *AvailabilityService,
	lifecycle *bookingDomain.Lifecycle,
	pricing bookingDomain.PricingStrategy,
	clk clock.Clock,
	publisher EventPublisher,
	m *metrics.Metrics,
	cfg BookingServiceConfig,
	logger *zap.Logger,
) *BookingService {
	if cfg.ExportMaxRows <= 0 {
		cfg.ExportMaxRows = DefaultExportMaxRows
	}
	return &BookingService{
		repo:         repo,
		rooms:        rooms,
		availability: availability,
		lifecycle:    lifecycle,
		pricing:      pricing,
		clock:        clk,
		publisher:    publisher,
		metrics:      m,
		cfg:          cfg,
		logger:       logger,
	}
}

// CreateBooking validates the stay, prices it from the room's current rate and inserts a
// pending booking atomically with the availability check.
func (s *BookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	checkIn, err := bookingDomain.ParseDate(req.CheckIn)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	checkOut, err := bookingDomain.ParseDate(req.CheckOut)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	stay, err := s.availability.ValidateStay(checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	room, err := s.rooms.FindByID(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}
	if !room.IsBookable() {
		return nil, roomDomain.ErrRoomArchived
	}

	total, err := s.pricing.Calculate(bookingDomain.PricingParams{
		PricePerNight: room.PricePerNight(),
		Stay:          stay,
	})
	if err != nil {
		return nil, domain.NewValidationError("pricing error: " + err.Error())
	}

	bk, err := bookingDomain.NewBooking(
		room.ID(),
		room.HotelID(),
		userID,
		stay,
		total,
		room.Currency(),
		req.Notes,
		s.clock.Now(),
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateIfAvailable(ctx, bk); err != nil {
		if errors.Is(err, bookingDomain.ErrRoomUnavailable) {
			s.logger.Info("booking rejected, room unavailable",
				zap.String("room_id", room.ID().String()),
				zap.String("stay", stay.String()),
			)
		}
		return nil, err
	}

	s.metrics.IncCreated()
	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("booking_number", bk.BookingNumber()),
		zap.String("room_id", bk.RoomID().String()),
		zap.String("stay", stay.String()),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingCreated, bk.ID().String(),
		events.BookingCreatedEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			RoomID:        bk.RoomID(),
			HotelID:       bk.HotelID(),
			UserID:        bk.UserID(),
			CheckIn:       stay.CheckIn.Format(bookingDomain.DateLayout),
			CheckOut:      stay.CheckOut.Format(bookingDomain.DateLayout),
			TotalPrice:    bk.TotalPrice(),
			Currency:      bk.Currency(),
			OccurredAt:    bk.CreatedAt(),
		})

	result := toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking moves a pending booking to confirmed (admin).
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, adminID uuid.UUID) (*TransitionDTO, error) {
	return s.TransitionBooking(ctx, bookingID, bookingDomain.TransitionRequest{
		Action: bookingDomain.ActionConfirm,
		Actor:  bookingDomain.Actor{Type: bookingDomain.ActorAdmin, UserID: adminID},
	})
}

// CompleteBooking moves a confirmed booking to completed (admin), even before checkout.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, adminID uuid.UUID) (*TransitionDTO, error) {
	return s.TransitionBooking(ctx, bookingID, bookingDomain.TransitionRequest{
		Action: bookingDomain.ActionComplete,
		Actor:  bookingDomain.Actor{Type: bookingDomain.ActorAdmin, UserID: adminID},
	})
}

// CancelBooking cancels a booking on behalf of a guest or an admin.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor, reason string) (*TransitionDTO, error) {
	return s.TransitionBooking(ctx, bookingID, bookingDomain.TransitionRequest{
		Action: bookingDomain.ActionCancel,
		Actor:  actor,
		Reason: reason,
	})
}

// TransitionBooking loads a booking and applies one lifecycle action to it.
func (s *BookingService) TransitionBooking(ctx context.Context, bookingID uuid.UUID, req bookingDomain.TransitionRequest) (*TransitionDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	res, err := s.applyTransition(ctx, bk, req, s.clock.Now())
	if err != nil {
		return nil, err
	}

	return &TransitionDTO{
		Booking:       toBookingDTO(bk),
		From:          string(res.From),
		To:            string(res.To),
		EarlyCheckout: res.EarlyCheckout,
	}, nil
}

// applyTransition runs the lifecycle guards, writes the result with compare-and-set and emits
// the follow-up log, metric and event. It is shared by human actions, the sweeper and
// reconcile-on-read.
func (s *BookingService) applyTransition(ctx context.Context, bk *bookingDomain.Booking, req bookingDomain.TransitionRequest, now time.Time) (*bookingDomain.TransitionResult, error) {
	res, err := s.lifecycle.Transition(bk, req, now)
	if err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.ApplyTransition(ctx, bk, res); err != nil {
		return nil, err
	}

	s.metrics.IncTransition(string(res.From), string(res.To), string(res.Actor.Type))

	fields := []zap.Field{
		zap.String("booking_id", bk.ID().String()),
		zap.String("from", string(res.From)),
		zap.String("to", string(res.To)),
		zap.String("action", string(res.Action)),
		zap.String("actor", string(res.Actor.Type)),
	}
	if res.EarlyCheckout {
		s.logger.Warn("booking completed before checkout", fields...)
	} else {
		s.logger.Info("booking transitioned", fields...)
	}

	s.publishTransition(ctx, bk, res)
	return res, nil
}

// GetBooking returns a booking. Guests may only read their own bookings.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID, actor bookingDomain.Actor) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, bk, actor)
}

// GetBookingByNumber returns the booking with the given booking number, under the same
// ownership rules as GetBooking.
func (s *BookingService) GetBookingByNumber(ctx context.Context, number string, actor bookingDomain.Actor) (*BookingDTO, error) {
	number = strings.ToUpper(strings.TrimSpace(number))
	if number == "" {
		return nil, domain.NewValidationError("booking number is required")
	}
	bk, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, bk, actor)
}

func (s *BookingService) view(ctx context.Context, bk *bookingDomain.Booking, actor bookingDomain.Actor) (*BookingDTO, error) {
	if actor.Type == bookingDomain.ActorGuest && bk.UserID() != actor.UserID {
		return nil, bookingDomain.ErrNotOwner
	}

	if s.cfg.ReconcileOnRead {
		bk = s.reconcile(ctx, bk)
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// reconcile applies a due system transition to bk. Any failure leaves the stored booking as it
// was; the caller sees either the reconciled booking or a fresh read.
func (s *BookingService) reconcile(ctx context.Context, bk *bookingDomain.Booking) *bookingDomain.Booking {
	now := s.clock.Now()
	action, due := s.lifecycle.DueAction(bk, now)
	if !due {
		return bk
	}

	if _, err := s.applyTransition(ctx, bk, bookingDomain.TransitionRequest{Action: action, Actor: bookingDomain.SystemActor}, now); err != nil {
		s.logger.Debug("reconcile on read skipped",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
		fresh, ferr := s.repo.FindByID(ctx, bk.ID())
		if ferr != nil {
			return bk
		}
		return fresh
	}
	return bk
}

// RecordPayment stores the payment method for a booking. A nil actor means the call comes from
// the payment service rather than the guest.
func (s *BookingService) RecordPayment(ctx context.Context, bookingID uuid.UUID, actor *bookingDomain.Actor, method string) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor != nil && actor.Type == bookingDomain.ActorGuest && bk.UserID() != actor.UserID {
		return nil, bookingDomain.ErrNotOwner
	}

	if err := bk.RecordPayment(method, s.clock.Now()); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.UpdatePayment(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking payment recorded",
		zap.String("booking_id", bk.ID().String()),
		zap.String("payment_method", *bk.PaymentMethod()),
	)

	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, events.BookingPaid, bk.ID().String(),
		events.BookingPaidEvent{
			BookingID:     bk.ID(),
			BookingNumber: bk.BookingNumber(),
			UserID:        bk.UserID(),
			PaymentMethod: *bk.PaymentMethod(),
			Amount:        bk.TotalPrice(),
			Currency:      bk.Currency(),
			OccurredAt:    *bk.PaidAt(),
		})

	result := toBookingDTO(bk)
	return &result, nil
}

// GetUserBookings retrieves paginated bookings for a guest.
func (s *BookingService) GetUserBookings(ctx context.Context, userID uuid.UUID, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// --- Admin methods ---

// ListAllBookings returns a filtered, paginated list of bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, filter bookingDomain.ListFilter, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.List(ctx, filter, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toBookingDTOs(bookings), total, page, limit)
	return &result, nil
}

// ExportBookings returns every booking matching filter, ordered by check-in (admin). The
// filter must bound check-in on both ends, and a result larger than the row cap is rejected
// rather than truncated.
func (s *BookingService) ExportBookings(ctx context.Context, filter bookingDomain.ListFilter) ([]BookingDTO, error) {
	if filter.CheckInFrom.IsZero() || filter.CheckInUntil.IsZero() {
		return nil, domain.NewValidationError("check_in_from and check_in_until are required for an export")
	}
	if filter.CheckInUntil.Before(filter.CheckInFrom) {
		return nil, domain.NewValidationError("check_in_until must not be before check_in_from")
	}
	if filter.CheckInUntil.Sub(filter.CheckInFrom) > MaxExportSpanDays*24*time.Hour {
		return nil, domain.NewValidationError(fmt.Sprintf("an export may cover at most %d days of check-ins", MaxExportSpanDays))
	}

	bookings, err := s.repo.ListAll(ctx, filter, s.cfg.ExportMaxRows+1)
	if err != nil {
		return nil, err
	}
	if len(bookings) > s.cfg.ExportMaxRows {
		return nil, domain.NewValidationError(fmt.Sprintf(
			"export matches more than %d bookings, narrow the filter", s.cfg.ExportMaxRows))
	}
	return toBookingDTOs(bookings), nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	byStatus := make(map[string]int64, len(bookingDomain.AllStatuses))
	for _, st := range bookingDomain.AllStatuses {
		byStatus[string(st)] = 0
	}
	var total int64
	for status, c := range counts {
		byStatus[status] = c
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      byStatus,
	}, nil
}

// --- Helpers ---

func (s *BookingService) publishTransition(ctx context.Context, bk *bookingDomain.Booking, res *bookingDomain.TransitionResult) {
	var eventType string
	switch res.To {
	case bookingDomain.StatusConfirmed:
		eventType = events.BookingConfirmed
	case bookingDomain.StatusCancelled:
		eventType = events.BookingCancelled
	case bookingDomain.StatusCompleted:
		eventType = events.BookingCompleted
	default:
		return
	}

	evt := events.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		RoomID:        bk.RoomID(),
		UserID:        bk.UserID(),
		FromStatus:    string(res.From),
		ToStatus:      string(res.To),
		Action:        string(res.Action),
		ActorType:     string(res.Actor.Type),
		Reason:        res.Reason,
		EarlyCheckout: res.EarlyCheckout,
		OccurredAt:    res.OccurredAt,
	}
	if res.Actor.UserID != uuid.Nil {
		id := res.Actor.UserID
		evt.ActorID = &id
	}
	if ct := bk.CancellationType(); ct != nil {
		evt.CancellationType = string(*ct)
	}
	publishEvent(ctx, s.publisher, s.logger, events.TopicBookingEvents, eventType, bk.ID().String(), evt)
}

func toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	var cancellationType *string
	if ct := bk.CancellationType(); ct != nil {
		s := string(*ct)
		cancellationType = &s
	}
	return BookingDTO{
		ID:                 bk.ID(),
		BookingNumber:      bk.BookingNumber(),
		RoomID:             bk.RoomID(),
		HotelID:            bk.HotelID(),
		UserID:             bk.UserID(),
		CheckIn:            bk.CheckIn().Format(bookingDomain.DateLayout),
		CheckOut:           bk.CheckOut().Format(bookingDomain.DateLayout),
		Nights:             bk.Stay().Nights(),
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

func toBookingDTOs(bookings []*bookingDomain.Booking) []BookingDTO {
	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = toBookingDTO(bk)
	}
	return dtos
}
