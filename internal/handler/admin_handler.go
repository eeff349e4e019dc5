package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/application"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/internal/export"
	"github.com/hotelhub/service-booking/pkg/auth"
	"github.com/hotelhub/service-booking/pkg/domain"
	"github.com/hotelhub/service-booking/pkg/middleware"
	"github.com/hotelhub/service-booking/pkg/response"
)

// AdminBookingHandler handles admin HTTP requests for booking management.
type AdminBookingHandler struct {
	service *application.BookingService
	sweeps  *application.SweepRunner
}

// NewAdminBookingHandler creates a new AdminBookingHandler.
func NewAdminBookingHandler(service *application.BookingService, sweeps *application.SweepRunner) *AdminBookingHandler {
	return &AdminBookingHandler{service: service, sweeps: sweeps}
}

// RegisterRoutes registers admin booking routes.
func (h *AdminBookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	adminRole := middleware.RequireRole(auth.RoleAdmin)

	admin := r.Group("/api/v1/admin")
	admin.Use(authMW, adminRole)
	{
		admin.GET("/bookings", h.ListBookings)
		admin.GET("/bookings/export", h.ExportBookings)
		admin.GET("/stats/bookings", h.BookingStats)
		admin.POST("/bookings/:id/confirm", h.ConfirmBooking)
		admin.POST("/bookings/:id/complete", h.CompleteBooking)
		admin.POST("/bookings/:id/cancel", h.CancelBooking)
		admin.POST("/sweeps", h.RunSweep)
	}
}

// ListBookings handles GET /api/v1/admin/bookings.
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	filter, ok := parseListFilter(c)
	if !ok {
		return
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListAllBookings(c.Request.Context(), filter, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// ExportBookings handles GET /api/v1/admin/bookings/export and returns an .xlsx file. The
// check_in_from and check_in_until query parameters are required.
func (h *AdminBookingHandler) ExportBookings(c *gin.Context) {
	filter, ok := parseListFilter(c)
	if !ok {
		return
	}

	bookings, err := h.service.ExportBookings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings); err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// BookingStats handles GET /api/v1/admin/stats/bookings.
func (h *AdminBookingHandler) BookingStats(c *gin.Context) {
	stats, err := h.service.GetBookingStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}

// ConfirmBooking handles POST /api/v1/admin/bookings/:id/confirm.
func (h *AdminBookingHandler) ConfirmBooking(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	adminID, _ := middleware.GetUserID(c)

	result, err := h.service.ConfirmBooking(c.Request.Context(), bookingID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CompleteBooking handles POST /api/v1/admin/bookings/:id/complete.
func (h *AdminBookingHandler) CompleteBooking(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	adminID, _ := middleware.GetUserID(c)

	result, err := h.service.CompleteBooking(c.Request.Context(), bookingID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CancelBooking handles POST /api/v1/admin/bookings/:id/cancel.
func (h *AdminBookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	adminID, _ := middleware.GetUserID(c)

	var body cancelRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "reason is required")
		return
	}

	actor := bookingDomain.Actor{Type: bookingDomain.ActorAdmin, UserID: adminID}
	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, actor, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

type sweepResponse struct {
	Skipped      bool      `json:"skipped"`
	Transitioned int       `json:"transitioned"`
	Failures     int       `json:"failures"`
	Bookings     []sweepTx `json:"bookings"`
}

type sweepTx struct {
	BookingID uuid.UUID `json:"booking_id"`
	From      string    `json:"from"`
	To        string    `json:"to"`
}

// RunSweep handles POST /api/v1/admin/sweeps and runs one lifecycle sweep immediately.
func (h *AdminBookingHandler) RunSweep(c *gin.Context) {
	report, err := h.sweeps.RunNow(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	out := sweepResponse{
		Skipped:      report.Skipped,
		Transitioned: len(report.Transitioned),
		Failures:     report.Failures,
		Bookings:     make([]sweepTx, 0, len(report.Transitioned)),
	}
	for _, tr := range report.Transitioned {
		out.Bookings = append(out.Bookings, sweepTx{
			BookingID: tr.BookingID,
			From:      string(tr.From),
			To:        string(tr.To),
		})
	}
	response.Success(c, out)
}

// parseListFilter reads status, room_id, hotel_id, user_id, check_in_from and check_in_until.
func parseListFilter(c *gin.Context) (bookingDomain.ListFilter, bool) {
	var f bookingDomain.ListFilter
	var err error

	if s := c.Query("status"); s != "" {
		if f.Status, err = bookingDomain.ParseBookingStatus(s); err != nil {
			response.Error(c, domain.NewValidationError(err.Error()))
			return f, false
		}
	}
	for key, dst := range map[string]*uuid.UUID{"room_id": &f.RoomID, "hotel_id": &f.HotelID, "user_id": &f.UserID} {
		if s := c.Query(key); s != "" {
			if *dst, err = uuid.Parse(s); err != nil {
				response.BadRequest(c, "invalid "+key)
				return f, false
			}
		}
	}
	for key, dst := range map[string]*time.Time{"check_in_from": &f.CheckInFrom, "check_in_until": &f.CheckInUntil} {
		if s := c.Query(key); s != "" {
			if *dst, err = bookingDomain.ParseDate(s); err != nil {
				response.BadRequest(c, "invalid "+key)
				return f, false
			}
		}
	}
	return f, true
}
