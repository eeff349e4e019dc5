package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hotelhub/service-booking/internal/application"
	"github.com/hotelhub/service-booking/pkg/auth"
	"github.com/hotelhub/service-booking/pkg/middleware"
	"github.com/hotelhub/service-booking/pkg/response"
)

// RoomHandler handles HTTP requests for the room catalog.
type RoomHandler struct {
	service *application.RoomService
}

// NewRoomHandler creates a new RoomHandler.
func NewRoomHandler(service *application.RoomService) *RoomHandler {
	return &RoomHandler{service: service}
}

// RegisterRoutes registers public room routes and admin room maintenance routes.
func (h *RoomHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	rooms := r.Group("/api/v1/rooms")
	{
		rooms.GET("", h.ListRooms)
		rooms.GET("/:id", h.GetRoom)
		rooms.GET("/:id/availability", h.GetAvailability)
	}

	admin := r.Group("/api/v1/admin/rooms")
	admin.Use(middleware.AuthMiddleware(jwtManager), middleware.RequireRole(auth.RoleAdmin))
	{
		admin.POST("", h.CreateRoom)
		admin.PUT("/:id", h.UpdateRoom)
		admin.DELETE("/:id", h.ArchiveRoom)
	}
}

// ListRooms handles GET /api/v1/rooms.
func (h *RoomHandler) ListRooms(c *gin.Context) {
	hotelID := uuid.Nil
	if s := c.Query("hotel_id"); s != "" {
		id, err := uuid.Parse(s)
		if err != nil {
			response.BadRequest(c, "invalid hotel_id")
			return
		}
		hotelID = id
	}
	page, limit := parsePagination(c)

	result, err := h.service.ListRooms(c.Request.Context(), hotelID, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetRoom handles GET /api/v1/rooms/:id.
func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, ok := parseID(c)
	if !ok {
		return
	}

	result, err := h.service.GetRoom(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetAvailability handles GET /api/v1/rooms/:id/availability?check_in=&check_out=.
func (h *RoomHandler) GetAvailability(c *gin.Context) {
	roomID, ok := parseID(c)
	if !ok {
		return
	}
	checkIn, checkOut := c.Query("check_in"), c.Query("check_out")
	if checkIn == "" || checkOut == "" {
		response.BadRequest(c, "check_in and check_out are required")
		return
	}

	result, err := h.service.GetRoomAvailability(c.Request.Context(), roomID, checkIn, checkOut)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// CreateRoom handles POST /api/v1/admin/rooms.
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var req application.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateRoom(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// UpdateRoom handles PUT /api/v1/admin/rooms/:id.
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	roomID, ok := parseID(c)
	if !ok {
		return
	}

	var req application.UpdateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateRoom(c.Request.Context(), roomID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ArchiveRoom handles DELETE /api/v1/admin/rooms/:id. Rooms are archived, never removed.
func (h *RoomHandler) ArchiveRoom(c *gin.Context) {
	roomID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.ArchiveRoom(c.Request.Context(), roomID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"id": roomID, "status": "archived"})
}
