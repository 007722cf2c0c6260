package repository

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestMongoStore needs a reachable server in MONGO_TEST_URI.
func newTestMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}

	ctx := context.Background()
	dbName := fmt.Sprintf("motelhub_test_%d", time.Now().UnixNano())
	store, err := NewMongoStore(ctx, MongoConfig{URI: uri, Database: dbName, Timeout: 5 * time.Second}, logger.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = store.db.Drop(context.Background())
		_ = store.Close(context.Background())
	})
	return store
}

func TestMongoVenuesConcurrentRoomAppends(t *testing.T) {
	store := newTestMongoStore(t)
	repo := store.Venues()
	ctx := context.Background()

	v := &entities.Venue{Name: "Mongo Inn"}
	require.NoError(t, repo.Create(ctx, v))

	const n = 4
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Update(ctx, v.ID, func(venue *entities.Venue) error {
				venue.Rooms = append(venue.Rooms, entities.Room{ID: int64(i + 1), Name: "Room"})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, got.Rooms, n)
}

func TestMongoUsers(t *testing.T) {
	store := newTestMongoStore(t)
	repo := store.Users()
	ctx := context.Background()

	created, err := repo.EnsureDefault(ctx, &entities.User{Username: "admin", Name: "Administrator", PasswordHash: "h"})
	require.NoError(t, err)
	assert.True(t, created)

	assert.ErrorIs(t, repo.Create(ctx, &entities.User{Username: "admin"}), entities.ErrUsernameTaken)

	admin, err := repo.GetByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.Delete(ctx, admin.ID), entities.ErrLastUser)
}

func TestMongoSettingsMerge(t *testing.T) {
	store := newTestMongoStore(t)
	repo := store.Settings()
	ctx := context.Background()

	_, err := repo.Merge(ctx, entities.Settings{"siteName": "Guide"})
	require.NoError(t, err)
	merged, err := repo.Merge(ctx, entities.Settings{"footerText": "bye"})
	require.NoError(t, err)

	assert.Equal(t, "Guide", merged["siteName"])
	assert.Equal(t, "bye", merged["footerText"])
}
