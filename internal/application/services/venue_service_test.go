package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motelhub/directory/internal/adapters/sanitize"
	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

func newTestVenueService(t *testing.T) *VenueService {
	t.Helper()
	return NewVenueService(newTestStore(t).Venues(), testIDs(), sanitize.NewRichText(), logger.NewNop())
}

func TestCreateVenue(t *testing.T) {
	svc := newTestVenueService(t)
	ctx := context.Background()

	v, err := svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Blue Moon", Website: " bluemoon.com "})
	require.NoError(t, err)
	assert.NotZero(t, v.ID)
	assert.Equal(t, "bluemoon.com", v.Website)
	assert.NotNil(t, v.Rooms)
	assert.Empty(t, v.Rooms)

	got, err := svc.GetVenue(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blue Moon", got.Name)
}

func TestCreateVenueValidation(t *testing.T) {
	svc := newTestVenueService(t)
	ctx := context.Background()

	_, err := svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "  "})
	assert.ErrorIs(t, err, entities.ErrMissingFields)

	_, err = svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "X", Website: "not a site"})
	assert.ErrorIs(t, err, entities.ErrInvalidWebsite)

	venues, err := svc.ListVenues(ctx, entities.VenueFilter{})
	require.NoError(t, err)
	assert.Empty(t, venues)
}

func TestCreateVenueGivesRoomsUniqueIDs(t *testing.T) {
	svc := newTestVenueService(t)

	v, err := svc.CreateVenue(context.Background(), ports.CreateVenueRequest{
		Name: "Red Door",
		Rooms: []entities.Room{
			{Name: "A"},
			{ID: 7, Name: "B"},
			{ID: 7, Name: "C"},
		},
	})
	require.NoError(t, err)
	require.Len(t, v.Rooms, 3)

	seen := map[int64]bool{}
	for _, r := range v.Rooms {
		assert.NotZero(t, r.ID)
		assert.False(t, seen[r.ID], "duplicate room id %d", r.ID)
		seen[r.ID] = true
	}
	assert.Equal(t, int64(7), v.Rooms[1].ID)
}

func TestUpdateVenueKeepsRoomsUnlessSent(t *testing.T) {
	svc := newTestVenueService(t)
	ctx := context.Background()

	v, err := svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Old", Rooms: []entities.Room{{Name: "Suite"}}})
	require.NoError(t, err)

	updated, err := svc.UpdateVenue(ctx, v.ID, ports.UpdateVenueRequest{Name: ptr("New")})
	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, v.ID, updated.ID)
	assert.Len(t, updated.Rooms, 1)

	updated, err = svc.UpdateVenue(ctx, v.ID, ports.UpdateVenueRequest{Rooms: &[]entities.Room{}})
	require.NoError(t, err)
	assert.Empty(t, updated.Rooms)

	_, err = svc.UpdateVenue(ctx, 42, ports.UpdateVenueRequest{Name: ptr("Ghost")})
	assert.ErrorIs(t, err, entities.ErrVenueNotFound)
}

func TestRoomLifecycle(t *testing.T) {
	svc := newTestVenueService(t)
	ctx := context.Background()

	v, err := svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Blue Moon"})
	require.NoError(t, err)

	room, err := svc.AddRoom(ctx, v.ID, ports.CreateRoomRequest{
		Name:         "Suite",
		Description:  `<p>Nice</p><script>alert(1)</script>`,
		PriceOptions: []entities.PriceOption{{Hours: "3", Price: 120}},
		Amenities:    []string{"Wi-Fi", " Wi-Fi ", "", "Jacuzzi"},
	})
	require.NoError(t, err)
	assert.NotZero(t, room.ID)
	assert.Equal(t, "<p>Nice</p>", room.Description)
	assert.Equal(t, []string{"Wi-Fi", "Jacuzzi"}, room.Amenities)

	second, err := svc.AddRoom(ctx, v.ID, ports.CreateRoomRequest{Name: "Standard"})
	require.NoError(t, err)
	assert.NotEqual(t, room.ID, second.ID)

	patched, err := svc.UpdateRoom(ctx, v.ID, room.ID, ports.UpdateRoomRequest{Name: ptr("Master Suite")})
	require.NoError(t, err)
	assert.Equal(t, room.ID, patched.ID)
	assert.Equal(t, "Master Suite", patched.Name)
	assert.Equal(t, []string{"Wi-Fi", "Jacuzzi"}, patched.Amenities)

	_, err = svc.UpdateRoom(ctx, v.ID, 1, ports.UpdateRoomRequest{Name: ptr("x")})
	assert.ErrorIs(t, err, entities.ErrRoomNotFound)

	require.NoError(t, svc.DeleteRoom(ctx, v.ID, room.ID))
	rooms, err := svc.ListRooms(ctx, v.ID, entities.VenueFilter{})
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, second.ID, rooms[0].ID)

	assert.ErrorIs(t, svc.DeleteRoom(ctx, v.ID, room.ID), entities.ErrRoomNotFound)

	_, err = svc.AddRoom(ctx, 99, ports.CreateRoomRequest{Name: "Nowhere"})
	assert.ErrorIs(t, err, entities.ErrVenueNotFound)
}

func TestDeleteVenue(t *testing.T) {
	svc := newTestVenueService(t)
	ctx := context.Background()

	v, err := svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Gone"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteVenue(ctx, v.ID))
	_, err = svc.GetVenue(ctx, v.ID)
	assert.ErrorIs(t, err, entities.ErrVenueNotFound)
	assert.ErrorIs(t, svc.DeleteVenue(ctx, v.ID), entities.ErrVenueNotFound)
}

func TestListVenuesFilterAndAmenities(t *testing.T) {
	svc := newTestVenueService(t)
	ctx := context.Background()

	_, err := svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Cheap", Rooms: []entities.Room{
		{Name: "Basic", PriceOptions: []entities.PriceOption{{Hours: "2", Price: 50}}, Amenities: []string{"Wi-Fi"}},
	}})
	require.NoError(t, err)
	_, err = svc.CreateVenue(ctx, ports.CreateVenueRequest{Name: "Fancy", Rooms: []entities.Room{
		{Name: "Royal", PriceOptions: []entities.PriceOption{{Hours: "2", Price: 300}}, Amenities: []string{"Wi-Fi", "Pool"}},
	}})
	require.NoError(t, err)

	venues, err := svc.ListVenues(ctx, entities.VenueFilter{MaxPrice: ptr(100.0)})
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "Cheap", venues[0].Name)

	venues, err = svc.ListVenues(ctx, entities.VenueFilter{Amenities: []string{"Pool"}})
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, "Fancy", venues[0].Name)

	counts, err := svc.Amenities(ctx, 1)
	require.NoError(t, err)
	require.Len(t, counts, 1)
	assert.Equal(t, entities.AmenityCount{Name: "Wi-Fi", Count: 2}, counts[0])
}
