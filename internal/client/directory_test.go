package client

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

func newTestDirectory(t *testing.T) (*Directory, *testAPI) {
	t.Helper()
	api := newTestAPI(t, false)
	mirror, err := OpenMirror(filepath.Join(t.TempDir(), "mirror.json"))
	require.NoError(t, err)
	return NewDirectory(api.client, mirror, logger.NewNop()), api
}

func TestDirectoryServesMirrorWhenOffline(t *testing.T) {
	dir, api := newTestDirectory(t)
	ctx := context.Background()

	_, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Blue Moon", Location: "Centro"})
	require.NoError(t, err)
	_, err = dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Paradise", Location: "Norte"})
	require.NoError(t, err)

	online, err := dir.ListVenues(ctx, entities.VenueFilter{})
	require.NoError(t, err)
	assert.False(t, online.Stale)
	assert.Len(t, online.Data, 2)

	api.transport.down.Store(true)

	offline, err := dir.ListVenues(ctx, entities.VenueFilter{Search: "norte"})
	require.NoError(t, err)
	assert.True(t, offline.Stale)
	require.Len(t, offline.Data, 1)
	assert.Equal(t, "Paradise", offline.Data[0].Name)

	one, err := dir.GetVenue(ctx, online.Data[0].ID)
	require.NoError(t, err)
	assert.True(t, one.Stale)
	assert.Equal(t, online.Data[0].Name, one.Data.Name)

	_, err = dir.GetVenue(ctx, 999)
	assert.ErrorIs(t, err, entities.ErrVenueNotFound)
}

func TestDirectoryQueuesWritesAndSyncs(t *testing.T) {
	dir, api := newTestDirectory(t)
	ctx := context.Background()

	existing, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Blue Moon"})
	require.NoError(t, err)

	api.transport.down.Store(true)

	venue, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Offline Inn"})
	require.ErrorIs(t, err, ErrQueuedOffline)
	require.NotNil(t, venue)
	assert.Less(t, venue.ID, int64(0))
	assert.Equal(t, []entities.Room{}, venue.Rooms)

	room, err := dir.AddRoom(ctx, venue.ID, ports.CreateRoomRequest{
		Name:         "Standard",
		PriceOptions: []entities.PriceOption{{Hours: "3", Price: 60}},
	})
	require.ErrorIs(t, err, ErrQueuedOffline)
	assert.Less(t, room.ID, int64(0))

	desc := "Renovated"
	updated, err := dir.UpdateVenue(ctx, existing.ID, ports.UpdateVenueRequest{Description: &desc})
	require.ErrorIs(t, err, ErrQueuedOffline)
	assert.Equal(t, "Renovated", updated.Description)

	_, err = dir.UpdateSettings(ctx, entities.Settings{"siteName": "MotelHub"})
	require.ErrorIs(t, err, ErrQueuedOffline)

	listed, err := dir.ListVenues(ctx, entities.VenueFilter{})
	require.NoError(t, err)
	assert.True(t, listed.Stale)
	assert.Equal(t, 4, listed.Pending)
	assert.Len(t, listed.Data, 2)

	local, err := dir.GetVenue(ctx, venue.ID)
	require.NoError(t, err)
	require.Len(t, local.Data.Rooms, 1)
	assert.Equal(t, "Standard", local.Data.Rooms[0].Name)

	api.transport.down.Store(false)

	report, err := dir.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Applied)
	assert.Empty(t, report.Conflicts)
	assert.Zero(t, dir.Mirror().PendingCount())

	server, err := api.client.ListVenues(ctx, entities.VenueFilter{})
	require.NoError(t, err)
	require.Len(t, server, 2)
	assert.ElementsMatch(t, server, dir.Mirror().Venues())

	var synced entities.Venue
	for _, v := range server {
		if v.Name == "Offline Inn" {
			synced = v
		}
	}
	assert.Greater(t, synced.ID, int64(0))
	require.Len(t, synced.Rooms, 1)
	assert.Greater(t, synced.Rooms[0].ID, int64(0))

	settings, err := api.client.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "MotelHub", settings["siteName"])
}

func TestDirectoryWritesQueueBehindJournal(t *testing.T) {
	dir, api := newTestDirectory(t)
	ctx := context.Background()

	api.transport.down.Store(true)
	_, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "First"})
	require.ErrorIs(t, err, ErrQueuedOffline)
	api.transport.down.Store(false)

	_, err = dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Second"})
	require.ErrorIs(t, err, ErrQueuedOffline, "later writes wait for the journal")

	listed, err := dir.ListVenues(ctx, entities.VenueFilter{})
	require.NoError(t, err)
	assert.False(t, listed.Stale)
	assert.Equal(t, 2, listed.Pending)
	assert.Len(t, listed.Data, 2)

	report, err := dir.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)

	server, err := api.client.ListVenues(ctx, entities.VenueFilter{})
	require.NoError(t, err)
	require.Len(t, server, 2)
	assert.Equal(t, "First", server[0].Name)
	assert.Equal(t, "Second", server[1].Name)
}

func TestDirectorySyncServerWins(t *testing.T) {
	dir, api := newTestDirectory(t)
	ctx := context.Background()

	venue, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Doomed"})
	require.NoError(t, err)

	api.transport.down.Store(true)
	name := "Renamed offline"
	_, err = dir.UpdateVenue(ctx, venue.ID, ports.UpdateVenueRequest{Name: &name})
	require.ErrorIs(t, err, ErrQueuedOffline)
	require.ErrorIs(t, dir.DeleteVenue(ctx, venue.ID), ErrQueuedOffline)
	api.transport.down.Store(false)

	// someone else removes it first
	require.NoError(t, api.client.DeleteVenue(ctx, venue.ID))

	report, err := dir.Sync(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Applied)
	require.Len(t, report.Conflicts, 2)
	assert.Equal(t, OpUpdateVenue, report.Conflicts[0].Op.Kind)
	assert.Equal(t, OpDeleteVenue, report.Conflicts[1].Op.Kind)
	assert.Contains(t, report.Conflicts[0].Reason, "Venue not found")
	assert.Zero(t, dir.Mirror().PendingCount())
	assert.Empty(t, dir.Mirror().Venues())
}

func TestDirectorySyncStopsOnNetworkFailure(t *testing.T) {
	dir, api := newTestDirectory(t)
	ctx := context.Background()

	api.transport.down.Store(true)
	_, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Alpha"})
	require.ErrorIs(t, err, ErrQueuedOffline)
	beta, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Beta"})
	require.ErrorIs(t, err, ErrQueuedOffline)
	_, err = dir.AddRoom(ctx, beta.ID, ports.CreateRoomRequest{Name: "Loft"})
	require.ErrorIs(t, err, ErrQueuedOffline)

	api.transport.allow.Store(1)
	report, err := dir.Sync(ctx)
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
	assert.Equal(t, 1, report.Applied)
	assert.Equal(t, 2, report.Remaining)

	pending := dir.Mirror().Pending()
	require.Len(t, pending, 2)
	assert.Equal(t, OpCreateVenue, pending[0].Kind)
	assert.Equal(t, beta.ID, pending[0].VenueID)
	assert.Equal(t, beta.ID, pending[1].VenueID)

	api.transport.down.Store(false)
	report, err = dir.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Applied)

	server, err := api.client.ListVenues(ctx, entities.VenueFilter{})
	require.NoError(t, err)
	require.Len(t, server, 2)
	assert.Equal(t, "Loft", server[1].Rooms[0].Name)
}

func TestDirectoryPassesServerRejections(t *testing.T) {
	dir, _ := newTestDirectory(t)
	ctx := context.Background()

	_, err := dir.CreateVenue(ctx, ports.CreateVenueRequest{Name: "  "})
	assert.ErrorIs(t, err, entities.ErrMissingFields)

	desc := "x"
	_, err = dir.UpdateVenue(ctx, 12345, ports.UpdateVenueRequest{Description: &desc})
	assert.True(t, IsStatus(err, http.StatusNotFound))
	assert.Zero(t, dir.Mirror().PendingCount(), "rejections are not queued")
}

func TestMirrorPersistsJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.json")
	m, err := OpenMirror(path)
	require.NoError(t, err)

	require.NoError(t, m.replaceAll([]entities.Venue{{ID: 7, Name: "Seven", Rooms: []entities.Room{}}}, entities.Settings{"a": "b"}))
	id := m.nextTempID()
	require.NoError(t, m.enqueue(OpCreateVenue, id, 0, entities.Venue{Name: "Queued"}))
	require.NoError(t, m.enqueue(OpDeleteVenue, 7, 0, nil))

	reopened, err := OpenMirror(path)
	require.NoError(t, err)
	require.Len(t, reopened.Pending(), 2)
	assert.False(t, reopened.SyncedAt().IsZero())
	assert.Equal(t, entities.Settings{"a": "b"}, reopened.Settings())

	venues := reopened.Venues()
	require.Len(t, venues, 1)
	assert.Equal(t, "Queued", venues[0].Name)
	assert.Equal(t, id, venues[0].ID)

	assert.Equal(t, id-1, reopened.nextTempID(), "temp ids keep counting down after a restart")
}
