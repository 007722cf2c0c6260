package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/motelhub/directory/internal/application/services"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// TransferHandler serves CSV and XLSX import and export
type TransferHandler struct {
	transferService ports.TransferService
	logger          *logger.Logger
}

// NewTransferHandler creates a new transfer handler
func NewTransferHandler(transferService ports.TransferService, logger *logger.Logger) *TransferHandler {
	return &TransferHandler{
		transferService: transferService,
		logger:          logger,
	}
}

// Export godoc
// @Summary Export venues
// @Description Venue fields without rooms, as CSV or XLSX
// @Tags transfer
// @Produce text/csv
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Router /venues/export [get]
func (h *TransferHandler) Export(c echo.Context) error {
	format, err := services.DetectFormat(c.QueryParam("format"), "")
	if err != nil {
		return errorResponse(err)
	}

	file, err := h.transferService.Export(c.Request().Context(), format)
	if err != nil {
		h.logger.Errorw("Export failed", "error", err, "format", format)
		return errorResponse(err)
	}

	return sendFile(c, file)
}

// Template godoc
// @Summary Download an import template
// @Tags transfer
// @Produce text/csv
// @Param format query string false "csv (default) or xlsx"
// @Success 200 {file} file
// @Router /venues/export/template [get]
func (h *TransferHandler) Template(c echo.Context) error {
	format, err := services.DetectFormat(c.QueryParam("format"), "")
	if err != nil {
		return errorResponse(err)
	}

	file, err := h.transferService.Template(format)
	if err != nil {
		return errorResponse(err)
	}

	return sendFile(c, file)
}

// Import godoc
// @Summary Import venues
// @Description Rows are merged by venue name: matches are updated and keep their rooms, others are created
// @Tags transfer
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Param format query string false "Overrides the format guessed from the file extension"
// @Success 200 {object} ports.ImportResult
// @Failure 400 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /venues/import [post]
func (h *TransferHandler) Import(c echo.Context) error {
	header, err := c.FormFile("file")
	if err != nil {
		return badRequest("No file sent", nil)
	}

	format, err := services.DetectFormat(c.QueryParam("format"), header.Filename)
	if err != nil {
		return errorResponse(err)
	}

	f, err := header.Open()
	if err != nil {
		return badRequest("Could not read the uploaded file", err)
	}
	defer f.Close()

	result, err := h.transferService.Import(c.Request().Context(), format, f)
	if err != nil {
		h.logger.Errorw("Import failed", "error", err, "filename", header.Filename)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, result)
}

func sendFile(c echo.Context, file *ports.ExportFile) error {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+file.Filename+`"`)
	return c.Blob(http.StatusOK, file.ContentType, file.Data)
}
