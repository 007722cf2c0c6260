package entities

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

func TestHoursJSON(t *testing.T) {
	var opts []PriceOption
	require.NoError(t, json.Unmarshal([]byte(`[{"hours":2,"price":100},{"hours":"overnight","price":250.5},{"hours":"3","price":1}]`), &opts))

	assert.Equal(t, Hours("2"), opts[0].Hours)
	assert.Equal(t, Hours("overnight"), opts[1].Hours)
	assert.Equal(t, Hours("3"), opts[2].Hours)

	out, err := json.Marshal(opts)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"hours":2,"price":100},{"hours":"overnight","price":250.5},{"hours":3,"price":1}]`, string(out))
}

func TestHoursRejectsObjects(t *testing.T) {
	var h Hours
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &h))
}

func TestVenueNormalize(t *testing.T) {
	v := Venue{Name: "Test Inn", Rooms: []Room{{Name: "Suite", Amenities: []string{"Wifi", " Wifi", "", "TV", "Wifi"}}}}
	v.Normalize()

	assert.Equal(t, []string{"Wifi", "TV"}, v.Rooms[0].Amenities)
	assert.NotNil(t, v.Rooms[0].PriceOptions)
	assert.NotNil(t, v.Rooms[0].Images)

	empty := Venue{Name: "Empty"}
	empty.Normalize()
	out, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"rooms":[]`)
}

func TestSettingsMerge(t *testing.T) {
	base := Settings{"siteName": "Motels", "footerText": "(c)"}
	merged := base.Merge(Settings{"siteName": "Guide", "contactEmail": "a@b.c"})

	assert.Equal(t, Settings{"siteName": "Guide", "footerText": "(c)", "contactEmail": "a@b.c"}, merged)
	assert.Equal(t, "Motels", base["siteName"])
}

func TestUserSanitizedHidesPassword(t *testing.T) {
	u := User{ID: 1, Username: "admin", PasswordHash: "$2a$10$x"}
	out, err := json.Marshal(u.Sanitized())
	require.NoError(t, err)
	assert.NotContains(t, string(out), "password")
	assert.Equal(t, "$2a$10$x", u.PasswordHash)
}

func sampleVenues() []Venue {
	return []Venue{
		{ID: 1, Name: "Blue Moon", Description: "quiet", Location: "Downtown", Rooms: []Room{
			{ID: 11, Name: "Standard", Amenities: []string{"Wifi", "TV"}, PriceOptions: []PriceOption{{Hours: "2", Price: 80}, {Hours: "12", Price: 150}}},
			{ID: 12, Name: "Jacuzzi Suite", Amenities: []string{"Wifi", "Jacuzzi"}, PriceOptions: []PriceOption{{Hours: "2", Price: 200}}},
		}},
		{ID: 2, Name: "Red Door", Description: "by the road", Location: "Highway 9", Rooms: []Room{
			{ID: 21, Name: "Deluxe", Amenities: []string{"TV", "Pool"}, PriceOptions: []PriceOption{{Hours: "3", Price: 400}}},
		}},
		{ID: 3, Name: "New Place", Description: "coming soon", Location: "Uptown"},
	}
}

func TestFilterVenues(t *testing.T) {
	venues := sampleVenues()

	tests := []struct {
		name   string
		filter VenueFilter
		want   []int64
	}{
		{"no criteria", VenueFilter{}, []int64{1, 2, 3}},
		{"search by name", VenueFilter{Search: "red"}, []int64{2}},
		{"search by room name", VenueFilter{Search: "JACUZZI"}, []int64{1}},
		{"search by amenity", VenueFilter{Search: "pool"}, []int64{2}},
		{"search by location", VenueFilter{Search: "uptown"}, []int64{3}},
		{"price range keeps unpriced venues", VenueFilter{MinPrice: ptr(0), MaxPrice: ptr(100)}, []int64{1, 3}},
		{"min price", VenueFilter{MinPrice: ptr(300)}, []int64{2, 3}},
		{"amenities must share one room", VenueFilter{Amenities: []string{"Wifi", "Jacuzzi"}}, []int64{1}},
		{"amenities split across rooms", VenueFilter{Amenities: []string{"Jacuzzi", "TV"}}, nil},
		{"amenity tags match exactly", VenueFilter{Amenities: []string{"jacuzzi"}}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []int64
			for _, v := range FilterVenues(venues, tt.filter) {
				got = append(got, v.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterRooms(t *testing.T) {
	v := sampleVenues()[0]
	rooms := FilterRooms(&v, VenueFilter{Amenities: []string{"Wifi"}, Search: "suite"})
	require.Len(t, rooms, 1)
	assert.Equal(t, int64(12), rooms[0].ID)
}

func TestLowestPrice(t *testing.T) {
	venues := sampleVenues()

	p, ok := venues[0].LowestPrice()
	assert.True(t, ok)
	assert.Equal(t, 80.0, p)

	_, ok = venues[2].LowestPrice()
	assert.False(t, ok)
}

func TestRankAmenities(t *testing.T) {
	ranked := RankAmenities(sampleVenues(), 2)
	assert.Equal(t, []AmenityCount{{Name: "TV", Count: 2}, {Name: "Wifi", Count: 2}}, ranked)

	all := RankAmenities(sampleVenues(), 0)
	assert.Len(t, all, 4)
}

func TestValidWebsite(t *testing.T) {
	valid := []string{"", "example.com", "https://example.com", "http://www.motel.com.br/rooms?x=1", "  blue-moon.io  "}
	invalid := []string{"not a site", "localhost", "ftp://example.com", "http://", "example.", "https://.com"}

	for _, s := range valid {
		assert.True(t, ValidWebsite(s), s)
	}
	for _, s := range invalid {
		assert.False(t, ValidWebsite(s), s)
	}
}
