package services

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

const (
	// LogoFolder holds single uploads such as venue logos
	LogoFolder = "motels"
	// RoomFolder holds batch uploads of room pictures
	RoomFolder = "motels/rooms"
)

// ImageLimits bounds what the upload endpoints accept
type ImageLimits struct {
	MaxSingleSize int64
	MaxBatchSize  int64
	MaxFiles      int
	MaxWidth      int
}

// ImageService validates and normalises pictures before handing them to the image host
type ImageService struct {
	host   ports.ImageHost
	limits ImageLimits
	logger *logger.Logger
}

// NewImageService creates a new image service
func NewImageService(host ports.ImageHost, limits ImageLimits, logger *logger.Logger) *ImageService {
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = 10
	}
	return &ImageService{
		host:   host,
		limits: limits,
		logger: logger.WithComponent("image_service"),
	}
}

// Upload stores a single image in the logo folder
func (s *ImageService) Upload(ctx context.Context, file ports.ImageFile) (*entities.Image, error) {
	upload, err := s.prepare(file, LogoFolder, s.limits.MaxSingleSize)
	if err != nil {
		return nil, err
	}

	img, err := s.host.Upload(ctx, upload)
	if err != nil {
		s.logger.WithError(err).Errorw("Image upload failed", "filename", file.Filename)
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	s.logger.Infow("Image uploaded", "public_id", img.PublicID)
	return img, nil
}

// UploadMany stores every file concurrently in the room folder. The first
// failure fails the whole call; images already stored are not removed.
func (s *ImageService) UploadMany(ctx context.Context, files []ports.ImageFile) ([]entities.Image, error) {
	if len(files) == 0 {
		return nil, entities.ErrNoFiles
	}
	if len(files) > s.limits.MaxFiles {
		return nil, fmt.Errorf("%d files sent, at most %d allowed: %w", len(files), s.limits.MaxFiles, entities.ErrTooManyFiles)
	}

	uploads := make([]ports.ImageUpload, len(files))
	for i, f := range files {
		u, err := s.prepare(f, RoomFolder, s.limits.MaxBatchSize)
		if err != nil {
			return nil, err
		}
		uploads[i] = u
	}

	images := make([]entities.Image, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	for i := range uploads {
		i := i
		g.Go(func() error {
			img, err := s.host.Upload(gctx, uploads[i])
			if err != nil {
				return fmt.Errorf("%s: %w", uploads[i].Filename, err)
			}
			images[i] = *img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logger.WithError(err).Errorw("Batch image upload failed", "files", len(files))
		return nil, fmt.Errorf("failed to upload images: %w", err)
	}

	s.logger.Infow("Images uploaded", "count", len(images))
	return images, nil
}

// Delete removes an image from the host
func (s *ImageService) Delete(ctx context.Context, publicID string) error {
	publicID = strings.Trim(publicID, "/")
	if publicID == "" {
		return entities.ErrImageNotFound
	}
	if err := s.host.Delete(ctx, publicID); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}

	s.logger.Infow("Image deleted", "public_id", publicID)
	return nil
}

// prepare checks type and size, decodes the picture to make sure it is one,
// and scales down anything wider than MaxWidth.
func (s *ImageService) prepare(file ports.ImageFile, folder string, maxSize int64) (ports.ImageUpload, error) {
	if !strings.HasPrefix(file.ContentType, "image/") {
		return ports.ImageUpload{}, fmt.Errorf("%s is %q, not an image: %w", file.Filename, file.ContentType, entities.ErrInvalidImage)
	}
	if maxSize > 0 && int64(len(file.Data)) > maxSize {
		return ports.ImageUpload{}, fmt.Errorf("%s exceeds %d bytes: %w", file.Filename, maxSize, entities.ErrInvalidImage)
	}

	cfg, formatName, err := image.DecodeConfig(bytes.NewReader(file.Data))
	if err != nil {
		return ports.ImageUpload{}, fmt.Errorf("%s cannot be decoded: %w", file.Filename, entities.ErrInvalidImage)
	}

	upload := ports.ImageUpload{
		Folder:      folder,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		Data:        file.Data,
	}

	// Animated gifs would lose their frames, so they are stored as sent
	if s.limits.MaxWidth <= 0 || cfg.Width <= s.limits.MaxWidth || formatName == "gif" {
		return upload, nil
	}

	format, err := imaging.FormatFromExtension(formatName)
	if err != nil {
		return upload, nil
	}

	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		return ports.ImageUpload{}, fmt.Errorf("%s cannot be decoded: %w", file.Filename, entities.ErrInvalidImage)
	}
	resized := imaging.Resize(img, s.limits.MaxWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		return ports.ImageUpload{}, fmt.Errorf("re-encode %s: %w", file.Filename, err)
	}

	s.logger.Debugw("Image resized", "filename", file.Filename, "from_width", cfg.Width, "to_width", s.limits.MaxWidth)
	upload.Data = buf.Bytes()
	if upload.Filename == "" {
		upload.Filename = "image." + formatName
	}
	if filepath.Ext(upload.Filename) == "" {
		upload.Filename += "." + formatName
	}
	return upload, nil
}
