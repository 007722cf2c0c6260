package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

type fakeImageHost struct {
	mu       sync.Mutex
	uploads  []ports.ImageUpload
	deleted  []string
	failOn   string
	objects  map[string]bool
	sequence int
}

func newFakeImageHost() *fakeImageHost {
	return &fakeImageHost{objects: map[string]bool{}}
}

func (h *fakeImageHost) Upload(ctx context.Context, u ports.ImageUpload) (*entities.Image, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if u.Filename == h.failOn {
		return nil, fmt.Errorf("host refused: %w", entities.ErrUpstream)
	}
	h.sequence++
	id := fmt.Sprintf("%s/img%d", u.Folder, h.sequence)
	h.objects[id] = true
	h.uploads = append(h.uploads, u)
	return &entities.Image{URL: "https://cdn.test/" + id, PublicID: id}, nil
}

func (h *fakeImageHost) Delete(ctx context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.objects[publicID] {
		return entities.ErrImageNotFound
	}
	delete(h.objects, publicID)
	h.deleted = append(h.deleted, publicID)
	return nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func pngFile(t *testing.T, name string) ports.ImageFile {
	return ports.ImageFile{Filename: name, ContentType: "image/png", Data: pngBytes(t, 8, 8)}
}

var testLimits = ImageLimits{MaxSingleSize: 2 << 20, MaxBatchSize: 5 << 20, MaxFiles: 10, MaxWidth: 1920}

func TestUploadSingle(t *testing.T) {
	host := newFakeImageHost()
	svc := NewImageService(host, testLimits, logger.NewNop())

	img, err := svc.Upload(context.Background(), pngFile(t, "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "motels/img1", img.PublicID)
	assert.Equal(t, LogoFolder, host.uploads[0].Folder)
}

func TestUploadRejectsNonImages(t *testing.T) {
	svc := NewImageService(newFakeImageHost(), testLimits, logger.NewNop())
	ctx := context.Background()

	_, err := svc.Upload(ctx, ports.ImageFile{Filename: "a.txt", ContentType: "text/plain", Data: []byte("hi")})
	assert.ErrorIs(t, err, entities.ErrInvalidImage)

	_, err = svc.Upload(ctx, ports.ImageFile{Filename: "fake.png", ContentType: "image/png", Data: []byte("not really")})
	assert.ErrorIs(t, err, entities.ErrInvalidImage)

	small := NewImageService(newFakeImageHost(), ImageLimits{MaxSingleSize: 10}, logger.NewNop())
	_, err = small.Upload(ctx, pngFile(t, "big.png"))
	assert.ErrorIs(t, err, entities.ErrInvalidImage)
}

func TestUploadDownscalesWideImages(t *testing.T) {
	host := newFakeImageHost()
	svc := NewImageService(host, ImageLimits{MaxWidth: 20}, logger.NewNop())

	_, err := svc.Upload(context.Background(), ports.ImageFile{Filename: "wide.png", ContentType: "image/png", Data: pngBytes(t, 40, 10)})
	require.NoError(t, err)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(host.uploads[0].Data))
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Width)
	assert.Equal(t, 5, cfg.Height)
}

func TestUploadMany(t *testing.T) {
	host := newFakeImageHost()
	svc := NewImageService(host, testLimits, logger.NewNop())

	files := []ports.ImageFile{pngFile(t, "a.png"), pngFile(t, "b.png"), pngFile(t, "c.png")}
	images, err := svc.UploadMany(context.Background(), files)
	require.NoError(t, err)
	require.Len(t, images, 3)
	for _, img := range images {
		assert.Contains(t, img.PublicID, RoomFolder+"/")
	}
}

func TestUploadManyLimits(t *testing.T) {
	svc := NewImageService(newFakeImageHost(), testLimits, logger.NewNop())
	ctx := context.Background()

	_, err := svc.UploadMany(ctx, nil)
	assert.ErrorIs(t, err, entities.ErrNoFiles)

	files := make([]ports.ImageFile, 11)
	for i := range files {
		files[i] = pngFile(t, fmt.Sprintf("%d.png", i))
	}
	_, err = svc.UploadMany(ctx, files)
	assert.ErrorIs(t, err, entities.ErrTooManyFiles)
}

func TestUploadManyFailsAsAWhole(t *testing.T) {
	host := newFakeImageHost()
	host.failOn = "b.png"
	svc := NewImageService(host, testLimits, logger.NewNop())

	images, err := svc.UploadMany(context.Background(), []ports.ImageFile{pngFile(t, "a.png"), pngFile(t, "b.png")})
	assert.Nil(t, images)
	assert.True(t, errors.Is(err, entities.ErrUpstream))
}

func TestDeleteImage(t *testing.T) {
	host := newFakeImageHost()
	svc := NewImageService(host, testLimits, logger.NewNop())
	ctx := context.Background()

	img, err := svc.Upload(ctx, pngFile(t, "logo.png"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "/"+img.PublicID))
	assert.Equal(t, []string{img.PublicID}, host.deleted)
	assert.ErrorIs(t, svc.Delete(ctx, img.PublicID), entities.ErrImageNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, ""), entities.ErrImageNotFound)
}

// 1x1 lossless WebP
const tinyWebP = "UklGRhoAAABXRUJQVlA4TA0AAAAvAAAAEAcQERGIiP4HAA=="

func TestUploadAcceptsWebP(t *testing.T) {
	data, err := base64.StdEncoding.DecodeString(tinyWebP)
	require.NoError(t, err)

	host := newFakeImageHost()
	svc := NewImageService(host, ImageLimits{MaxSingleSize: 2 << 20, MaxWidth: 1}, logger.NewNop())

	img, err := svc.Upload(context.Background(), ports.ImageFile{Filename: "logo.webp", ContentType: "image/webp", Data: data})
	require.NoError(t, err)
	assert.NotEmpty(t, img.PublicID)
	require.Len(t, host.uploads, 1)
	assert.Equal(t, data, host.uploads[0].Data, "webp is stored as sent")
}
