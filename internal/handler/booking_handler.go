package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/application"
	bookingDomain "github.com/hotelhub/service-booking/internal/domain/booking"
	"github.com/hotelhub/service-booking/pkg/auth"
	"github.com/hotelhub/service-booking/pkg/middleware"
	"github.com/hotelhub/service-booking/pkg/response"
)

// BookingHandler handles HTTP requests for guest booking operations.
type BookingHandler struct {
	service *application.BookingService
	history *application.HistoryService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(service *application.BookingService, history *application.HistoryService) *BookingHandler {
	return &BookingHandler{service: service, history: history}
}

// RegisterRoutes registers all booking routes on the given router group.
func (h *BookingHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	guestOnly := middleware.RequireRole(auth.RoleGuest)

	bookings := r.Group("/api/v1/bookings")
	bookings.Use(authMW)
	{
		bookings.POST("", guestOnly, h.CreateBooking)
		bookings.GET("", h.ListMyBookings)
		bookings.GET("/by-number/:number", h.GetBookingByNumber)
		bookings.GET("/:id", h.GetBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
		bookings.POST("/:id/payment", guestOnly, h.RecordPayment)
		bookings.GET("/:id/history", h.GetHistory)
	}
}

// CreateBooking handles POST /api/v1/bookings.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateBooking(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListMyBookings handles GET /api/v1/bookings.
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	page, limit := parsePagination(c)
	result, err := h.service.GetUserBookings(c.Request.Context(), userID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetBooking handles GET /api/v1/bookings/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	result, err := h.service.GetBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetBookingByNumber handles GET /api/v1/bookings/by-number/:number.
func (h *BookingHandler) GetBookingByNumber(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	result, err := h.service.GetBookingByNumber(c.Request.Context(), c.Param("number"), actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking handles POST /api/v1/bookings/:id/cancel. Guests cancel their own bookings;
// admins may cancel any.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body cancelRequest
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelBooking(c.Request.Context(), bookingID, actor, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

type paymentRequest struct {
	PaymentMethod string `json:"payment_method" binding:"required"`
}

// RecordPayment handles POST /api/v1/bookings/:id/payment.
func (h *BookingHandler) RecordPayment(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	var body paymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.RecordPayment(c.Request.Context(), bookingID, &actor, body.PaymentMethod)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetHistory handles GET /api/v1/bookings/:id/history.
func (h *BookingHandler) GetHistory(c *gin.Context) {
	bookingID, ok := parseID(c)
	if !ok {
		return
	}
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}

	result, err := h.history.GetHistory(c.Request.Context(), bookingID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// actorFromContext maps the authenticated caller to a lifecycle actor. It writes the error
// response itself when the caller is missing.
func actorFromContext(c *gin.Context) (bookingDomain.Actor, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return bookingDomain.Actor{}, false
	}
	role, ok := middleware.GetUserRole(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return bookingDomain.Actor{}, false
	}

	switch role {
	case auth.RoleAdmin:
		return bookingDomain.Actor{Type: bookingDomain.ActorAdmin, UserID: userID}, true
	case auth.RoleGuest:
		return bookingDomain.Actor{Type: bookingDomain.ActorGuest, UserID: userID}, true
	default:
		response.Forbidden(c, "unknown role")
		return bookingDomain.Actor{}, false
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
