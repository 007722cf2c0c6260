package http

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// ImageHandler handles uploads to and deletions from the image host
type ImageHandler struct {
	imageService ports.ImageService
	logger       *logger.Logger
}

// NewImageHandler creates a new image handler
func NewImageHandler(imageService ports.ImageService, logger *logger.Logger) *ImageHandler {
	return &ImageHandler{
		imageService: imageService,
		logger:       logger,
	}
}

// Upload godoc
// @Summary Upload one image
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image file"
// @Success 200 {object} entities.Image
// @Failure 400 {object} ports.ErrorResponse
// @Failure 502 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /upload [post]
func (h *ImageHandler) Upload(c echo.Context) error {
	header, err := c.FormFile("image")
	if err != nil {
		return errorResponse(entities.ErrNoFiles)
	}

	file, err := readImageFile(header)
	if err != nil {
		return badRequest("Could not read the uploaded file", err)
	}

	img, err := h.imageService.Upload(c.Request().Context(), file)
	if err != nil {
		h.logger.Errorw("Image upload failed", "error", err, "filename", header.Filename)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, img)
}

// UploadMany godoc
// @Summary Upload several images
// @Description All uploads run concurrently; any failure fails the request
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Param images formData file true "Image files (up to 10)"
// @Success 200 {array} entities.Image
// @Failure 400 {object} ports.ErrorResponse
// @Failure 502 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /upload-multiple [post]
func (h *ImageHandler) UploadMany(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return errorResponse(entities.ErrNoFiles)
	}

	headers := form.File["images"]
	files := make([]ports.ImageFile, 0, len(headers))
	for _, header := range headers {
		file, err := readImageFile(header)
		if err != nil {
			return badRequest("Could not read the uploaded file", err)
		}
		files = append(files, file)
	}

	images, err := h.imageService.UploadMany(c.Request().Context(), files)
	if err != nil {
		h.logger.Errorw("Batch image upload failed", "error", err, "files", len(files))
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, images)
}

// DeleteImage godoc
// @Summary Delete an image from the host
// @Tags images
// @Produce json
// @Param publicId path string true "Public id returned by the upload, slashes included"
// @Success 200 {object} ports.MessageResponse
// @Failure 404 {object} ports.ErrorResponse
// @Security BearerAuth
// @Router /images/{publicId} [delete]
func (h *ImageHandler) DeleteImage(c echo.Context) error {
	publicID, err := url.PathUnescape(c.Param("*"))
	if err != nil {
		return badRequest("Invalid image id", err)
	}

	if err := h.imageService.Delete(c.Request().Context(), publicID); err != nil {
		h.logger.Errorw("Image delete failed", "error", err, "public_id", publicID)
		return errorResponse(err)
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Image deleted successfully"})
}

func readImageFile(header *multipart.FileHeader) (ports.ImageFile, error) {
	f, err := header.Open()
	if err != nil {
		return ports.ImageFile{}, fmt.Errorf("open %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return ports.ImageFile{}, fmt.Errorf("read %s: %w", header.Filename, err)
	}

	contentType := header.Header.Get(echo.HeaderContentType)
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}

	return ports.ImageFile{
		Filename:    header.Filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}
