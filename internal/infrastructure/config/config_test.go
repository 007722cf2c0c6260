package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "MotelHub", cfg.App.Name)
	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3001", cfg.Server.Address())
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "data.json", cfg.Storage.Path)
	assert.Equal(t, 10, cfg.Images.MaxFiles)
	assert.Equal(t, int64(2<<20), cfg.Images.MaxSingleSize)
	assert.False(t, cfg.Images.Configured())
	assert.False(t, cfg.Auth.Enforce)
	assert.Equal(t, "admin", cfg.Auth.DefaultUsername)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, "http://localhost:3001/api", cfg.Client.BaseURL)
	assert.True(t, cfg.App.IsDevelopment())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("DATA_FILE", "/var/lib/motelhub/data.json")
	t.Setenv("IMAGES_ACCOUNT", "acct")
	t.Setenv("IMAGES_API_KEY", "key")
	t.Setenv("IMAGES_API_SECRET", "secret")
	t.Setenv("APP_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "/var/lib/motelhub/data.json", cfg.Storage.Path)
	assert.True(t, cfg.Images.Configured())
	assert.True(t, cfg.App.IsProduction())
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"port out of range", map[string]string{"PORT": "70000"}, "server port"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "postgres"}, "unknown storage driver"},
		{"enforced auth with default secret", map[string]string{"AUTH_ENFORCE": "true"}, "JWT secret"},
		{"too many files", map[string]string{"IMAGES_MAX_FILES": "11"}, "max_files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadEnforcedAuthWithSecret(t *testing.T) {
	t.Setenv("AUTH_ENFORCE", "true")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Auth.Enforce)
	assert.Equal(t, "a-real-secret", cfg.JWT.Secret)
}
