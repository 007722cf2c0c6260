package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// VenueHandler handles venue and nested room requests
type VenueHandler struct {
	venueService ports.VenueService
	logger       *logger.Logger
}

// NewVenueHandler creates a new venue handler
func NewVenueHandler(venueService ports.VenueService, logger *logger.Logger) *VenueHandler {
	return &VenueHandler{
		venueService: venueService,
		logger:       logger,
	}
}

// ListVenues godoc
// @Summary List venues
// @Description List venues with their rooms, optionally filtered
// @Tags venues
// @Produce json
// @Param q query string false "Text matched against name, description, location, room names and amenities"
// @Param minPrice query number false "Lowest room price must be at least this"
// @Param maxPrice query number false "Lowest room price must be at most this"
// @Param amenities query string false "Comma separated amenities that one room must all offer"
// @Success 200 {array} entities.Venue
// @Failure 400 {object} ports.ErrorResponse
// @Router /venues [get]
func (h *VenueHandler) ListVenues(c echo.Context) error {
	filter, err := parseFilter(c)
	if err != nil {
		return badRequest("Invalid filter", err)
	}

	venues, err := h.venueService.ListVenues(c.Request().Context(), filter)
	if err != nil {
		h.logger.Errorw("List venues failed", "error", err)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, venues)
}

// GetVenue godoc
// @Summary Get venue by ID
// @Tags venues
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {object} entities.Venue
// @Failure 404 {object} ports.ErrorResponse
// @Router /venues/{id} [get]
func (h *VenueHandler) GetVenue(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return badRequest("Invalid venue ID", nil)
	}

	venue, err := h.venueService.GetVenue(c.Request().Context(), venueID)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, venue)
}

// CreateVenue godoc
// @Summary Create a venue
// @Description The id is generated and rooms default to an empty list
// @Tags venues
// @Accept json
// @Produce json
// @Param request body ports.CreateVenueRequest true "Venue data"
// @Success 201 {object} entities.Venue
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /venues [post]
func (h *VenueHandler) CreateVenue(c echo.Context) error {
	var req ports.CreateVenueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format", nil)
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("Validation failed", err)
	}

	venue, err := h.venueService.CreateVenue(c.Request().Context(), req)
	if err != nil {
		h.logger.Errorw("Create venue failed", "error", err)
		return errorResponse(err)
	}

	return c.JSON(http.StatusCreated, venue)
}

// UpdateVenue godoc
// @Summary Update a venue
// @Description Fields left out keep their value; rooms are replaced only when sent
// @Tags venues
// @Accept json
// @Produce json
// @Param id path int true "Venue ID"
// @Param request body ports.UpdateVenueRequest true "Fields to change"
// @Success 200 {object} entities.Venue
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /venues/{id} [put]
func (h *VenueHandler) UpdateVenue(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return badRequest("Invalid venue ID", nil)
	}

	var req ports.UpdateVenueRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format", nil)
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("Validation failed", err)
	}

	venue, err := h.venueService.UpdateVenue(c.Request().Context(), venueID, req)
	if err != nil {
		h.logger.Errorw("Update venue failed", "error", err, "venue_id", venueID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, venue)
}

// DeleteVenue godoc
// @Summary Delete a venue
// @Tags venues
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /venues/{id} [delete]
func (h *VenueHandler) DeleteVenue(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return badRequest("Invalid venue ID", nil)
	}

	if err := h.venueService.DeleteVenue(c.Request().Context(), venueID); err != nil {
		h.logger.Errorw("Delete venue failed", "error", err, "venue_id", venueID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Venue deleted successfully"})
}

// ListRooms godoc
// @Summary List the rooms of a venue
// @Description Accepts the same q and amenities filters as the venue list
// @Tags rooms
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {array} entities.Room
// @Failure 404 {object} ports.ErrorResponse
// @Router /venues/{id}/rooms [get]
func (h *VenueHandler) ListRooms(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return badRequest("Invalid venue ID", nil)
	}
	filter, err := parseFilter(c)
	if err != nil {
		return badRequest("Invalid filter", err)
	}

	rooms, err := h.venueService.ListRooms(c.Request().Context(), venueID, filter)
	if err != nil {
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, rooms)
}

// AddRoom godoc
// @Summary Add a room to a venue
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path int true "Venue ID"
// @Param request body ports.CreateRoomRequest true "Room data"
// @Success 201 {object} entities.Room
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /venues/{id}/rooms [post]
func (h *VenueHandler) AddRoom(c echo.Context) error {
	venueID, err := pathID(c, "id")
	if err != nil {
		return badRequest("Invalid venue ID", nil)
	}

	var req ports.CreateRoomRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format", nil)
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("Validation failed", err)
	}

	room, err := h.venueService.AddRoom(c.Request().Context(), venueID, req)
	if err != nil {
		h.logger.Errorw("Add room failed", "error", err, "venue_id", venueID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusCreated, room)
}

// UpdateRoom godoc
// @Summary Update a room
// @Tags rooms
// @Accept json
// @Produce json
// @Param id path int true "Venue ID"
// @Param roomId path int true "Room ID"
// @Param request body ports.UpdateRoomRequest true "Fields to change"
// @Success 200 {object} entities.Room
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /venues/{id}/rooms/{roomId} [put]
func (h *VenueHandler) UpdateRoom(c echo.Context) error {
	venueID, roomID, err := roomPath(c)
	if err != nil {
		return err
	}

	var req ports.UpdateRoomRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid request format", nil)
	}

	if err := c.Validate(&req); err != nil {
		return badRequest("Validation failed", err)
	}

	room, err := h.venueService.UpdateRoom(c.Request().Context(), venueID, roomID, req)
	if err != nil {
		h.logger.Errorw("Update room failed", "error", err, "venue_id", venueID, "room_id", roomID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, room)
}

// DeleteRoom godoc
// @Summary Delete a room
// @Tags rooms
// @Produce json
// @Param id path int true "Venue ID"
// @Param roomId path int true "Room ID"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /venues/{id}/rooms/{roomId} [delete]
func (h *VenueHandler) DeleteRoom(c echo.Context) error {
	venueID, roomID, err := roomPath(c)
	if err != nil {
		return err
	}

	if err := h.venueService.DeleteRoom(c.Request().Context(), venueID, roomID); err != nil {
		h.logger.Errorw("Delete room failed", "error", err, "venue_id", venueID, "room_id", roomID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Room deleted successfully"})
}

// Amenities godoc
// @Summary Rank amenities
// @Description Amenity tags across all rooms, most frequent first
// @Tags venues
// @Produce json
// @Param top query int false "Return only the N most frequent"
// @Success 200 {array} entities.AmenityCount
// @Router /amenities [get]
func (h *VenueHandler) Amenities(c echo.Context) error {
	top := 0
	if s := c.QueryParam("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return badRequest("Invalid top parameter", nil)
		}
		top = n
	}

	counts, err := h.venueService.Amenities(c.Request().Context(), top)
	if err != nil {
		h.logger.Errorw("Rank amenities failed", "error", err)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, counts)
}

func roomPath(c echo.Context) (int64, int64, error) {
	venueID, err := pathID(c, "id")
	if err != nil {
		return 0, 0, badRequest("Invalid venue ID", nil)
	}
	roomID, err := pathID(c, "roomId")
	if err != nil {
		return 0, 0, badRequest("Invalid room ID", nil)
	}
	return venueID, roomID, nil
}

// parseFilter reads q (or search), minPrice, maxPrice and amenities. Amenities
// may be repeated or comma separated.
func parseFilter(c echo.Context) (entities.VenueFilter, error) {
	filter := entities.VenueFilter{Search: c.QueryParam("q")}
	if filter.Search == "" {
		filter.Search = c.QueryParam("search")
	}

	for _, p := range []struct {
		name string
		dst  **float64
	}{{"minPrice", &filter.MinPrice}, {"maxPrice", &filter.MaxPrice}} {
		s := c.QueryParam(p.name)
		if s == "" {
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return filter, fmt.Errorf("%s must be a number, got %q", p.name, s)
		}
		*p.dst = &v
	}

	for _, raw := range c.QueryParams()["amenities"] {
		for _, a := range strings.Split(raw, ",") {
			if a = strings.TrimSpace(a); a != "" {
				filter.Amenities = append(filter.Amenities, a)
			}
		}
	}
	return filter, nil
}
