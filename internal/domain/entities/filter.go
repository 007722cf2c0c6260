package entities

import (
	"sort"
	"strings"
)

// VenueFilter narrows a venue listing. The zero value matches everything.
type VenueFilter struct {
	Search    string
	MinPrice  *float64
	MaxPrice  *float64
	Amenities []string
}

// IsZero reports whether the filter has no criteria.
func (f VenueFilter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && f.MinPrice == nil && f.MaxPrice == nil && len(f.Amenities) == 0
}

// Match reports whether v satisfies every criterion of the filter.
// Venues without any priced room are never excluded by the price range.
func (f VenueFilter) Match(v *Venue) bool {
	if !f.matchSearch(v) {
		return false
	}

	if lowest, ok := v.LowestPrice(); ok {
		if f.MinPrice != nil && lowest < *f.MinPrice {
			return false
		}
		if f.MaxPrice != nil && lowest > *f.MaxPrice {
			return false
		}
	}

	if len(f.Amenities) == 0 {
		return true
	}
	for i := range v.Rooms {
		if roomHasAll(&v.Rooms[i], f.Amenities) {
			return true
		}
	}
	return false
}

func (f VenueFilter) matchSearch(v *Venue) bool {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q == "" {
		return true
	}
	if containsFold(v.Name, q) || containsFold(v.Description, q) || containsFold(v.Location, q) {
		return true
	}
	for i := range v.Rooms {
		if roomMatchesSearch(&v.Rooms[i], q) {
			return true
		}
	}
	return false
}

// MatchRoom applies the search term and amenity criteria to a single room.
func (f VenueFilter) MatchRoom(r *Room) bool {
	q := strings.ToLower(strings.TrimSpace(f.Search))
	if q != "" && !roomMatchesSearch(r, q) {
		return false
	}
	return roomHasAll(r, f.Amenities)
}

// FilterVenues returns the venues matching f, preserving order.
func FilterVenues(venues []Venue, f VenueFilter) []Venue {
	if f.IsZero() {
		return venues
	}
	out := make([]Venue, 0, len(venues))
	for i := range venues {
		if f.Match(&venues[i]) {
			out = append(out, venues[i])
		}
	}
	return out
}

// FilterRooms returns the rooms of v matching f, preserving order.
func FilterRooms(v *Venue, f VenueFilter) []Room {
	out := make([]Room, 0, len(v.Rooms))
	for i := range v.Rooms {
		if f.MatchRoom(&v.Rooms[i]) {
			out = append(out, v.Rooms[i])
		}
	}
	return out
}

// LowestPrice returns the cheapest price option over all rooms of v.
func (v *Venue) LowestPrice() (float64, bool) {
	var (
		lowest float64
		found  bool
	)
	for _, room := range v.Rooms {
		for _, opt := range room.PriceOptions {
			if !found || opt.Price < lowest {
				lowest = opt.Price
				found = true
			}
		}
	}
	return lowest, found
}

// AmenityCount is an amenity tag with the number of rooms offering it.
type AmenityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// RankAmenities counts amenity tags over every room, most frequent first,
// ties broken alphabetically. top <= 0 returns the full ranking.
func RankAmenities(venues []Venue, top int) []AmenityCount {
	counts := make(map[string]int)
	for _, v := range venues {
		for _, room := range v.Rooms {
			for _, a := range DedupeAmenities(room.Amenities) {
				counts[a]++
			}
		}
	}

	ranked := make([]AmenityCount, 0, len(counts))
	for name, n := range counts {
		ranked = append(ranked, AmenityCount{Name: name, Count: n})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})

	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}

func roomMatchesSearch(r *Room, q string) bool {
	if containsFold(r.Name, q) {
		return true
	}
	for _, a := range r.Amenities {
		if containsFold(a, q) {
			return true
		}
	}
	return false
}

func roomHasAll(r *Room, amenities []string) bool {
	for _, want := range amenities {
		found := false
		for _, have := range r.Amenities {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}
