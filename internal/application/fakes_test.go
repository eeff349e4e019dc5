package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/clock"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	roomDomain "github.com/hotelhub/service-booking/internal/domain/room"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/hotelhub/service-booking/pkg/kafka"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memBookingRepo keeps snapshots of bookings so that writes behave like a real store:
// callers never share the stored instance.
type memBookingRepo struct {
	mu          sync.Mutex
	rows        map[uuid.UUID]*bookingDomain.Booking
	transitions []bookingDomain.TransitionResult
	applyErr    map[uuid.UUID]error
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{
		rows:     make(map[uuid.UUID]*bookingDomain.Booking),
		applyErr: make(map[uuid.UUID]error),
	}
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(
		b.ID(), b.BookingNumber(), b.RoomID(), b.HotelID(), b.UserID(), b.Stay(), b.Status(),
		b.CancellationType(), b.CancellationReason(), b.TotalPrice(), b.Currency(), b.PaymentMethod(),
		b.Notes(), b.Version(), b.CreatedAt(), b.UpdatedAt(), b.ConfirmedAt(), b.CompletedAt(),
		b.CancelledAt(), b.PaidAt(),
	)
}

func (r *memBookingRepo) put(b *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[b.ID()] = cloneBooking(b)
}

func (r *memBookingRepo) get(id uuid.UUID) *bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneBooking(r.rows[id])
}

func (r *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.rows {
		if b.BookingNumber() == number {
			return cloneBooking(b), nil
		}
	}
	return nil, domain.NewNotFoundError("booking", number)
}

func (r *memBookingRepo) FindByUserID(_ context.Context, userID uuid.UUID, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(func(b *bookingDomain.Booking) bool { return b.UserID() == userID })
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookingRepo) FindActiveOverlapping(_ context.Context, roomID uuid.UUID, stay bookingDomain.Stay) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlappingLocked(roomID, stay), nil
}

func (r *memBookingRepo) overlappingLocked(roomID uuid.UUID, stay bookingDomain.Stay) []*bookingDomain.Booking {
	var out []*bookingDomain.Booking
	for _, b := range r.rows {
		if b.RoomID() == roomID && b.Status().IsActive() && b.Stay().Overlaps(stay) {
			out = append(out, cloneBooking(b))
		}
	}
	return out
}

func (r *memBookingRepo) FindDueForSweep(_ context.Context, checkOutOnOrBefore time.Time, limit int) ([]*bookingDomain.Booking, error) {
	due := r.filter(func(b *bookingDomain.Booking) bool {
		s := b.Status()
		return (s == bookingDomain.StatusPending || s == bookingDomain.StatusConfirmed) &&
			!b.CheckOut().After(checkOutOnOrBefore)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (r *memBookingRepo) List(_ context.Context, f bookingDomain.ListFilter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all := r.filter(matches(f))
	return paginate(all, page, limit), int64(len(all)), nil
}

func (r *memBookingRepo) ListAll(_ context.Context, f bookingDomain.ListFilter, limit int) ([]*bookingDomain.Booking, error) {
	all := r.filter(matches(f))
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *memBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]int64)
	for _, b := range r.rows {
		out[string(b.Status())]++
	}
	return out, nil
}

func (r *memBookingRepo) CreateIfAvailable(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.overlappingLocked(b.RoomID(), b.Stay())) > 0 {
		return bookingDomain.ErrRoomUnavailable
	}
	r.rows[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) ApplyTransition(_ context.Context, b *bookingDomain.Booking, res *bookingDomain.TransitionResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.applyErr[b.ID()]; err != nil {
		return err
	}
	cur, ok := r.rows[b.ID()]
	if !ok || cur.Status() != res.From || cur.Version() != b.Version()-1 {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.rows[b.ID()] = cloneBooking(b)
	r.transitions = append(r.transitions, *res)
	return nil
}

func (r *memBookingRepo) UpdatePayment(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[b.ID()]
	if !ok || cur.Version() != b.Version()-1 || !(cur.Status() == bookingDomain.StatusPending || cur.Status() == bookingDomain.StatusConfirmed) {
		return domain.NewConflictError("booking was modified by another transaction")
	}
	r.rows[b.ID()] = cloneBooking(b)
	return nil
}

func (r *memBookingRepo) filter(keep func(*bookingDomain.Booking) bool) []*bookingDomain.Booking {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range r.rows {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn().Before(out[j].CheckIn()) })
	return out
}

func matches(f bookingDomain.ListFilter) func(*bookingDomain.Booking) bool {
	return func(b *bookingDomain.Booking) bool {
		if f.Status != "" && b.Status() != f.Status {
			return false
		}
		if f.RoomID != uuid.Nil && b.RoomID() != f.RoomID {
			return false
		}
		if f.HotelID != uuid.Nil && b.HotelID() != f.HotelID {
			return false
		}
		if f.UserID != uuid.Nil && b.UserID() != f.UserID {
			return false
		}
		if !f.CheckInFrom.IsZero() && b.CheckIn().Before(f.CheckInFrom) {
			return false
		}
		if !f.CheckInUntil.IsZero() && b.CheckIn().After(f.CheckInUntil) {
			return false
		}
		return true
	}
}

func paginate(all []*bookingDomain.Booking, page, limit int) []*bookingDomain.Booking {
	start := (page - 1) * limit
	if start >= len(all) {
		return nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type memRoomRepo struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*roomDomain.Room
}

func newMemRoomRepo() *memRoomRepo {
	return &memRoomRepo{rooms: make(map[uuid.UUID]*roomDomain.Room)}
}

func cloneRoom(r *roomDomain.Room) *roomDomain.Room {
	return roomDomain.Reconstruct(r.ID(), r.HotelID(), r.Name(), r.RoomType(), r.Capacity(),
		r.PricePerNight(), r.Currency(), r.Status(), r.Version(), r.CreatedAt(), r.UpdatedAt())
}

func (m *memRoomRepo) FindByID(_ context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, domain.NewNotFoundError("room", id.String())
	}
	return cloneRoom(r), nil
}

func (m *memRoomRepo) List(_ context.Context, hotelID uuid.UUID, includeArchived bool, page, limit int) ([]*roomDomain.Room, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*roomDomain.Room
	for _, r := range m.rooms {
		if hotelID != uuid.Nil && r.HotelID() != hotelID {
			continue
		}
		if !includeArchived && !r.IsBookable() {
			continue
		}
		out = append(out, cloneRoom(r))
	}
	return out, int64(len(out)), nil
}

func (m *memRoomRepo) Save(_ context.Context, r *roomDomain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID()] = cloneRoom(r)
	return nil
}

func (m *memRoomRepo) Update(_ context.Context, r *roomDomain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.rooms[r.ID()]
	if !ok || cur.Version() != r.Version()-1 {
		return domain.NewConflictError("room was modified by another transaction")
	}
	m.rooms[r.ID()] = cloneRoom(r)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
}

func (p *recordingPublisher) PublishEvent(_ context.Context, _ string, e kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	svc     *BookingService
	rooms   *RoomService
	repo    *memBookingRepo
	roomDB  *memRoomRepo
	clock   *clock.Fixed
	pub     *recordingPublisher
	room    *roomDomain.Room
	sweeper *Sweeper
}

func newTestEnv(t *testing.T, now string, opts ...func(*BookingServiceConfig)) *testEnv {
	t.Helper()
	cfg := BookingServiceConfig{}
	for _, o := range opts {
		o(&cfg)
	}

	repo := newMemBookingRepo()
	roomDB := newMemRoomRepo()
	clk := clock.NewFixed(at(t, now))
	pub := &recordingPublisher{}
	policy := bookingDomain.DefaultCheckoutPolicy()
	log := zap.NewNop()

	room, err := roomDomain.NewRoom(uuid.New(), "Deluxe 101", "deluxe", 2, decimal.NewFromInt(500000), "VND")
	require.NoError(t, err)
	require.NoError(t, roomDB.Save(context.Background(), room))

	availability := NewAvailabilityService(repo, policy, clk)
	svc := NewBookingService(repo, roomDB, availability, bookingDomain.NewLifecycle(policy, 0),
		bookingDomain.NewStandardPricingStrategy(), clk, pub, nil, cfg, log)

	return &testEnv{
		svc:     svc,
		rooms:   NewRoomService(roomDB, availability, log),
		repo:    repo,
		roomDB:  roomDB,
		clock:   clk,
		pub:     pub,
		room:    room,
		sweeper: NewSweeper(svc, 0, log),
	}
}

// seed stores a booking on the env's room directly, bypassing date validation.
func (e *testEnv) seed(t *testing.T, status bookingDomain.BookingStatus, in, out string, owner uuid.UUID) *bookingDomain.Booking {
	t.Helper()
	created := mustDate(t, in).Add(-72 * time.Hour)
	b := bookingDomain.ReconstructBooking(
		uuid.New(), "BK-"+strings.ToUpper(uuid.NewString()[:6]), e.room.ID(), e.room.HotelID(), owner,
		mustStay(t, in, out), status, nil, nil,
		decimal.NewFromInt(1000000), "VND", nil, "", 2,
		created, created, nil, nil, nil, nil,
	)
	e.repo.put(b)
	return b
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := bookingDomain.ParseDate(s)
	require.NoError(t, err)
	return d
}

func mustStay(t *testing.T, in, out string) bookingDomain.Stay {
	t.Helper()
	s, err := bookingDomain.NewStay(mustDate(t, in), mustDate(t, out))
	require.NoError(t, err)
	return s
}

func at(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", s)
	require.NoError(t, err)
	return ts
}

func guest(id uuid.UUID) bookingDomain.Actor {
	return bookingDomain.Actor{Type: bookingDomain.ActorGuest, UserID: id}
}
