package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/ports"
)

type errorMapping struct {
	target  error
	status  int
	message string
	// detail adds err.Error() to the body
	detail bool
}

var errorMappings = []errorMapping{
	{entities.ErrVenueNotFound, http.StatusNotFound, "Venue not found", false},
	{entities.ErrRoomNotFound, http.StatusNotFound, "Room not found", false},
	{entities.ErrUserNotFound, http.StatusNotFound, "User not found", false},
	{entities.ErrImageNotFound, http.StatusNotFound, "Image not found", false},
	{entities.ErrUsernameTaken, http.StatusBadRequest, "Username already in use", false},
	{entities.ErrLastUser, http.StatusBadRequest, "Cannot delete the last administrator", false},
	{entities.ErrMissingFields, http.StatusBadRequest, "All required fields must be provided", true},
	{entities.ErrInvalidWebsite, http.StatusBadRequest, "Invalid website address", false},
	{entities.ErrNoFiles, http.StatusBadRequest, "No image sent", false},
	{entities.ErrTooManyFiles, http.StatusBadRequest, "Too many images", true},
	{entities.ErrInvalidImage, http.StatusBadRequest, "Invalid image", true},
	{entities.ErrInvalidImport, http.StatusBadRequest, "Invalid import file", true},
	{entities.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials", false},
	{entities.ErrConflict, http.StatusConflict, "The record was changed concurrently, try again", false},
	{entities.ErrUpstream, http.StatusBadGateway, "Image host request failed", true},
}

// errorResponse converts a service error into an HTTP error carrying an
// ErrorResponse body. Unknown errors become a 500 with the detail attached.
func errorResponse(err error) *echo.HTTPError {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			body := ports.ErrorResponse{Message: m.message}
			if m.detail {
				body.Error = err.Error()
			}
			return echo.NewHTTPError(m.status, body).SetInternal(err)
		}
	}
	return echo.NewHTTPError(http.StatusInternalServerError, ports.ErrorResponse{
		Message: "Internal server error",
		Error:   err.Error(),
	}).SetInternal(err)
}

func badRequest(message string, err error) *echo.HTTPError {
	body := ports.ErrorResponse{Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	return echo.NewHTTPError(http.StatusBadRequest, body)
}
