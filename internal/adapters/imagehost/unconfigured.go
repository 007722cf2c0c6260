package imagehost

import (
	"context"
	"fmt"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/ports"
)

// Unconfigured stands in for the host when no credentials are set, so the
// rest of the API keeps working and image routes answer with a 502.
type Unconfigured struct{}

func (Unconfigured) Upload(ctx context.Context, upload ports.ImageUpload) (*entities.Image, error) {
	return nil, fmt.Errorf("image host is not configured: %w", entities.ErrUpstream)
}

func (Unconfigured) Delete(ctx context.Context, publicID string) error {
	return fmt.Errorf("image host is not configured: %w", entities.ErrUpstream)
}
