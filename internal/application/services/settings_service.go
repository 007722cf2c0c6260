package services

import (
	"context"
	"fmt"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// SettingsService handles the site settings singleton
type SettingsService struct {
	settingsRepo ports.SettingsRepository
	logger       *logger.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo ports.SettingsRepository, logger *logger.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		logger:       logger.WithComponent("settings_service"),
	}
}

// GetSettings returns the current settings
func (s *SettingsService) GetSettings(ctx context.Context) (entities.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return settings, nil
}

// UpdateSettings shallow-merges patch over the stored settings
func (s *SettingsService) UpdateSettings(ctx context.Context, patch entities.Settings) (entities.Settings, error) {
	settings, err := s.settingsRepo.Merge(ctx, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}

	keys := make([]string, 0, len(patch))
	for k := range patch {
		keys = append(keys, k)
	}
	s.logger.Infow("Settings updated", "keys", keys)
	return settings, nil
}
