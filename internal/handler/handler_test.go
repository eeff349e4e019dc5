package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/application"
	"github.com/hotelhub/service-booking/internal/clock"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/internal/domain/history"
	roomDomain "github.com/hotelhub/service-booking/internal/domain/room"
	"github.com/hotelhub/service-booking/internal/export"
	"github.com/hotelhub/service-booking/pkg/auth"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/hotelhub/service-booking/pkg/response"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// bookingStore is a minimal in-memory BookingRepository. Handler tests only need
// create, read and single-writer transitions.
type bookingStore struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]*bookingDomain.Booking
	history map[uuid.UUID][]*history.Entry
}

func newBookingStore() *bookingStore {
	return &bookingStore{
		rows:    make(map[uuid.UUID]*bookingDomain.Booking),
		history: make(map[uuid.UUID][]*history.Entry),
	}
}

func (s *bookingStore) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok {
		return nil, domain.NewNotFoundError("booking", id.String())
	}
	return b, nil
}

func (s *bookingStore) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.rows {
		if b.BookingNumber() == number {
			return b, nil
		}
	}
	return nil, domain.NewNotFoundError("booking", number)
}

func (s *bookingStore) FindByUserID(_ context.Context, userID uuid.UUID, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range s.rows {
		if b.UserID() == userID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (s *bookingStore) FindActiveOverlapping(_ context.Context, roomID uuid.UUID, stay bookingDomain.Stay) ([]*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range s.rows {
		if b.RoomID() == roomID && b.Status().IsActive() && b.Stay().Overlaps(stay) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingStore) FindDueForSweep(context.Context, time.Time, int) ([]*bookingDomain.Booking, error) {
	return nil, nil
}

func (s *bookingStore) List(ctx context.Context, f bookingDomain.ListFilter, _, _ int) ([]*bookingDomain.Booking, int64, error) {
	out, err := s.ListAll(ctx, f, 0)
	return out, int64(len(out)), err
}

func (s *bookingStore) ListAll(_ context.Context, f bookingDomain.ListFilter, _ int) ([]*bookingDomain.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, b := range s.rows {
		if f.Status == "" || b.Status() == f.Status {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *bookingStore) CountByStatus(context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int64)
	for _, b := range s.rows {
		out[string(b.Status())]++
	}
	return out, nil
}

func (s *bookingStore) CreateIfAvailable(ctx context.Context, b *bookingDomain.Booking) error {
	existing, _ := s.FindActiveOverlapping(ctx, b.RoomID(), b.Stay())
	if len(existing) > 0 {
		return bookingDomain.ErrRoomUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.ID()] = b
	return nil
}

func (s *bookingStore) ApplyTransition(_ context.Context, b *bookingDomain.Booking, res *bookingDomain.TransitionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.ID()] = b
	s.history[b.ID()] = append(s.history[b.ID()], history.NewEntry(b.ID(), string(res.From), string(res.To),
		string(res.Action), string(res.Actor.Type), actorID(res.Actor), res.Reason, res.OccurredAt))
	return nil
}

func (s *bookingStore) UpdatePayment(_ context.Context, b *bookingDomain.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[b.ID()] = b
	return nil
}

func (s *bookingStore) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history[bookingID], nil
}

func actorID(a bookingDomain.Actor) *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

type roomStore struct {
	mu    sync.Mutex
	rooms map[uuid.UUID]*roomDomain.Room
}

func (s *roomStore) FindByID(_ context.Context, id uuid.UUID) (*roomDomain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, domain.NewNotFoundError("room", id.String())
	}
	return r, nil
}

func (s *roomStore) List(_ context.Context, _ uuid.UUID, _ bool, _, _ int) ([]*roomDomain.Room, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*roomDomain.Room, 0, len(s.rooms))
	for _, r := range s.rooms {
		out = append(out, r)
	}
	return out, int64(len(out)), nil
}

func (s *roomStore) Save(_ context.Context, r *roomDomain.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[r.ID()] = r
	return nil
}

func (s *roomStore) Update(ctx context.Context, r *roomDomain.Room) error {
	return s.Save(ctx, r)
}

type apiEnv struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	store  *bookingStore
	room   *roomDomain.Room
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	log := zap.NewNop()
	store := newBookingStore()
	rooms := &roomStore{rooms: make(map[uuid.UUID]*roomDomain.Room)}
	room, err := roomDomain.NewRoom(uuid.New(), "Deluxe 101", "deluxe", 2, decimal.NewFromInt(500000), "VND")
	require.NoError(t, err)
	require.NoError(t, rooms.Save(context.Background(), room))

	clk := clock.NewFixed(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	policy := bookingDomain.DefaultCheckoutPolicy()
	availability := application.NewAvailabilityService(store, policy, clk)
	bookings := application.NewBookingService(store, rooms, availability, bookingDomain.NewLifecycle(policy, 0),
		bookingDomain.NewStandardPricingStrategy(), clk, nil, nil, application.BookingServiceConfig{}, log)
	runner := application.NewSweepRunner(application.SweepRunnerConfig{},
		application.NewSweeper(bookings, 0, log), clk, nil, nil, log)

	jwt := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	router := gin.New()
	api := router.Group("")
	NewBookingHandler(bookings, application.NewHistoryService(store, store)).RegisterRoutes(api, jwt)
	NewAdminBookingHandler(bookings, runner).RegisterRoutes(api, jwt)
	NewRoomHandler(application.NewRoomService(rooms, availability, log)).RegisterRoutes(api, jwt)

	return &apiEnv{router: router, jwt: jwt, store: store, room: room}
}

func (e *apiEnv) token(t *testing.T, userID uuid.UUID, role auth.Role) string {
	t.Helper()
	tok, err := e.jwt.GenerateAccessToken(userID, role)
	require.NoError(t, err)
	return tok
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, response.Envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env response.Envelope
	if w.Header().Get("Content-Type") != export.ContentTypeXLSX {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func (e *apiEnv) createBooking(t *testing.T, token, in, out string) uuid.UUID {
	t.Helper()
	w, env := e.do(t, http.MethodPost, "/api/v1/bookings", token, map[string]any{
		"room_id": e.room.ID(), "check_in": in, "check_out": out,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := env.Data.(map[string]any)
	id, err := uuid.Parse(data["id"].(string))
	require.NoError(t, err)
	return id
}

func TestBookingRoutes_Auth(t *testing.T) {
	e := newAPIEnv(t)
	admin := e.token(t, uuid.New(), auth.RoleAdmin)
	guestTok := e.token(t, uuid.New(), auth.RoleGuest)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"list without token", http.MethodGet, "/api/v1/bookings", "", http.StatusUnauthorized},
		{"admin cannot create bookings", http.MethodPost, "/api/v1/bookings", admin, http.StatusForbidden},
		{"guest on admin list", http.MethodGet, "/api/v1/admin/bookings", guestTok, http.StatusForbidden},
		{"guest confirms", http.MethodPost, "/api/v1/admin/bookings/" + uuid.NewString() + "/confirm", guestTok, http.StatusForbidden},
		{"guest creates rooms", http.MethodPost, "/api/v1/admin/rooms", guestTok, http.StatusForbidden},
		{"public room list", http.MethodGet, "/api/v1/rooms", "", http.StatusOK},
		{"bad booking id", http.MethodGet, "/api/v1/bookings/not-a-uuid", guestTok, http.StatusBadRequest},
		{"unknown booking", http.MethodGet, "/api/v1/bookings/" + uuid.NewString(), guestTok, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := e.do(t, tt.method, tt.path, tt.token, nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestBookingRoutes_GuestFlow(t *testing.T) {
	e := newAPIEnv(t)
	ownerID := uuid.New()
	owner := e.token(t, ownerID, auth.RoleGuest)
	stranger := e.token(t, uuid.New(), auth.RoleGuest)

	id := e.createBooking(t, owner, "2024-06-10", "2024-06-13")

	w, env := e.do(t, http.MethodPost, "/api/v1/bookings", owner, map[string]any{
		"room_id": e.room.ID(), "check_in": "2024-06-12", "check_out": "2024-06-14",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, bookingDomain.CodeRoomUnavailable, env.Error.Code)

	w, env = e.do(t, http.MethodGet, "/api/v1/bookings/"+id.String(), stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, bookingDomain.CodeNotOwner, env.Error.Code)

	w, env = e.do(t, http.MethodGet, "/api/v1/bookings", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = e.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/cancel", owner, map[string]string{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, bookingDomain.CodeReasonRequired, env.Error.Code)

	w, env = e.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/cancel", owner, map[string]string{"reason": strings.Repeat("r", 600)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, bookingDomain.CodeReasonRequired, env.Error.Code)

	w, env = e.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/cancel", owner, map[string]string{"reason": "plans changed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := env.Data.(map[string]any)
	assert.Equal(t, "cancelled", data["to"])

	w, env = e.do(t, http.MethodGet, "/api/v1/bookings/"+id.String()+"/history", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, env.Data.([]any), 1)
}

func TestBookingRoutes_ByNumber(t *testing.T) {
	e := newAPIEnv(t)
	ownerID := uuid.New()
	owner := e.token(t, ownerID, auth.RoleGuest)
	stranger := e.token(t, uuid.New(), auth.RoleGuest)
	admin := e.token(t, uuid.New(), auth.RoleAdmin)

	id := e.createBooking(t, owner, "2024-06-10", "2024-06-11")
	w, env := e.do(t, http.MethodGet, "/api/v1/bookings/"+id.String(), owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	number := env.Data.(map[string]any)["booking_number"].(string)

	w, env = e.do(t, http.MethodGet, "/api/v1/bookings/by-number/"+strings.ToLower(number), owner, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, id.String(), env.Data.(map[string]any)["id"])

	w, env = e.do(t, http.MethodGet, "/api/v1/bookings/by-number/"+number, stranger, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, bookingDomain.CodeNotOwner, env.Error.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/bookings/by-number/"+number, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/bookings/by-number/BK-ZZZZZZ", owner, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/bookings/by-number/"+number, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingRoutes_Payment(t *testing.T) {
	e := newAPIEnv(t)
	ownerID := uuid.New()
	owner := e.token(t, ownerID, auth.RoleGuest)
	id := e.createBooking(t, owner, "2024-06-10", "2024-06-11")

	w, _ := e.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/payment", owner, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := e.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/payment", owner, map[string]string{"payment_method": strings.Repeat("m", 51)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeValidation, env.Error.Code)

	w, _ = e.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/payment", owner, map[string]string{"payment_method": "card"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w, env = e.do(t, http.MethodPost, "/api/v1/bookings/"+id.String()+"/payment", owner, map[string]string{"payment_method": "card"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, bookingDomain.CodeAlreadyPaid, env.Error.Code)
}

func TestAdminRoutes(t *testing.T) {
	e := newAPIEnv(t)
	owner := e.token(t, uuid.New(), auth.RoleGuest)
	admin := e.token(t, uuid.New(), auth.RoleAdmin)
	id := e.createBooking(t, owner, "2024-06-10", "2024-06-12")
	base := "/api/v1/admin/bookings/" + id.String()

	w, env := e.do(t, http.MethodPost, base+"/complete", admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, bookingDomain.CodeIllegalTransition, env.Error.Code)

	w, env = e.do(t, http.MethodPost, base+"/confirm", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "confirmed", env.Data.(map[string]any)["to"])

	w, _ = e.do(t, http.MethodPost, base+"/cancel", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodPost, base+"/cancel", admin, map[string]string{"reason": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, bookingDomain.CodeReasonRequired, env.Error.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/admin/bookings?status=bogus", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = e.do(t, http.MethodGet, "/api/v1/admin/bookings?status=confirmed", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), env.Meta.Total)

	w, env = e.do(t, http.MethodGet, "/api/v1/admin/stats/bookings", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, env.Data.(map[string]any)["total_bookings"])

	w, env = e.do(t, http.MethodGet, "/api/v1/admin/bookings/export", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, domain.CodeValidation, env.Error.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/admin/bookings/export?check_in_from=2024-01-01&check_in_until=2025-06-30", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = e.do(t, http.MethodGet, "/api/v1/admin/bookings/export?check_in_from=2024-06-01&check_in_until=2024-06-30", admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, export.ContentTypeXLSX, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	w, env = e.do(t, http.MethodPost, "/api/v1/admin/sweeps", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, env.Data.(map[string]any)["transitioned"])
}

func TestRoomRoutes(t *testing.T) {
	e := newAPIEnv(t)
	admin := e.token(t, uuid.New(), auth.RoleAdmin)
	path := "/api/v1/rooms/" + e.room.ID().String() + "/availability"

	w, env := e.do(t, http.MethodGet, path+"?check_in=2024-06-10&check_out=2024-06-12", "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, env.Data.(map[string]any)["available"])

	w, env = e.do(t, http.MethodGet, path+"?check_in=2024-06-12&check_out=2024-06-10", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, bookingDomain.CodeInvalidRange, env.Error.Code)

	w, env = e.do(t, http.MethodPost, "/api/v1/admin/rooms", admin, map[string]any{
		"hotel_id": uuid.New(), "name": "Twin 202", "room_type": "twin", "capacity": 2,
		"price_per_night": "750000", "currency": "VND",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	roomID := env.Data.(map[string]any)["id"].(string)

	w, _ = e.do(t, http.MethodDelete, "/api/v1/admin/rooms/"+roomID, admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = e.do(t, http.MethodDelete, "/api/v1/admin/rooms/"+roomID, admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ROOM_ARCHIVED", env.Error.Code)
}
