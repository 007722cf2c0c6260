package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// SettingsHandler serves the site settings singleton
type SettingsHandler struct {
	settingsService ports.SettingsService
	logger          *logger.Logger
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService ports.SettingsService, logger *logger.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettings godoc
// @Summary Get site settings
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /settings [get]
func (h *SettingsHandler) GetSettings(c echo.Context) error {
	settings, err := h.settingsService.GetSettings(c.Request().Context())
	if err != nil {
		h.logger.Errorw("Get settings failed", "error", err)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update site settings
// @Description Keys in the body replace stored keys; other keys are kept
// @Tags settings
// @Accept json
// @Produce json
// @Param request body map[string]interface{} true "Settings to change"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /settings [put]
func (h *SettingsHandler) UpdateSettings(c echo.Context) error {
	var patch entities.Settings
	if err := c.Bind(&patch); err != nil {
		return badRequest("Invalid request format", nil)
	}

	settings, err := h.settingsService.UpdateSettings(c.Request().Context(), patch)
	if err != nil {
		h.logger.Errorw("Update settings failed", "error", err)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, settings)
}
