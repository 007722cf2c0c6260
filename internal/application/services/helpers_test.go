package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/motelhub/directory/internal/adapters/repository"
	"github.com/motelhub/directory/internal/domain/idgen"
	"github.com/motelhub/directory/internal/infrastructure/logger"
)

func newTestStore(t *testing.T) *repository.FileStore {
	t.Helper()
	store, err := repository.NewFileStore(filepath.Join(t.TempDir(), "data.json"), logger.NewNop())
	require.NoError(t, err)
	return store
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testIDs() *idgen.Generator {
	return idgen.NewWithClock(fixedClock(time.UnixMilli(1_700_000_000_000)))
}

func ptr[T any](v T) *T { return &v }
