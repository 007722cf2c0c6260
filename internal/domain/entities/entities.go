package entities

import (
	"errors"
	"strings"
	"time"
)

// Common errors
var (
	ErrVenueNotFound      = errors.New("venue not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrLastUser           = errors.New("cannot delete the last remaining user")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("missing required fields")
	ErrInvalidWebsite     = errors.New("invalid website address")
	ErrInvalidImage       = errors.New("invalid image")
	ErrTooManyFiles       = errors.New("too many files")
	ErrNoFiles            = errors.New("no files uploaded")
	ErrUpstream           = errors.New("image host request failed")
	ErrInvalidImport      = errors.New("invalid import file")
	ErrConflict           = errors.New("concurrent modification")
)

// Venue is a listed business with its rooms
type Venue struct {
	ID          int64  `json:"id" bson:"_id"`
	Name        string `json:"name" bson:"name"`
	Description string `json:"description" bson:"description"`
	Location    string `json:"location" bson:"location"`
	Website     string `json:"website" bson:"website"`
	Phone       string `json:"phone" bson:"phone"`
	Email       string `json:"email" bson:"email"`
	Logo        string `json:"logo" bson:"logo"`
	LogoID      string `json:"logo_id,omitempty" bson:"logo_id,omitempty"`
	Rooms       []Room `json:"rooms" bson:"rooms"`

	// Revision is bumped on every write by stores that need optimistic concurrency.
	Revision int64 `json:"-" bson:"revision"`
}

// Room is a bookable unit owned by exactly one venue
type Room struct {
	ID           int64         `json:"id" bson:"id"`
	Name         string        `json:"name" bson:"name"`
	Description  string        `json:"description" bson:"description"`
	PriceOptions []PriceOption `json:"priceOptions" bson:"priceOptions"`
	Amenities    []string      `json:"amenities" bson:"amenities"`
	Images       []Image       `json:"images" bson:"images"`
}

// PriceOption is one duration/price tier of a room
type PriceOption struct {
	Hours          Hours   `json:"hours" bson:"hours"`
	Price          float64 `json:"price" bson:"price"`
	AdditionalInfo string  `json:"additionalInfo,omitempty" bson:"additionalInfo,omitempty"`
}

// Image references a binary held by the image host
type Image struct {
	URL      string `json:"url" bson:"url"`
	PublicID string `json:"public_id" bson:"public_id"`
}

// Settings is the loosely typed site configuration bag
type Settings map[string]interface{}

// User is an administrator account
type User struct {
	ID           int64      `json:"id" bson:"_id"`
	Username     string     `json:"username" bson:"username"`
	Name         string     `json:"name" bson:"name"`
	PasswordHash string     `json:"-" bson:"password"`
	CreatedAt    *time.Time `json:"createdAt,omitempty" bson:"createdAt,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty" bson:"updatedAt,omitempty"`
}

// Normalize enforces the structural invariants of a venue: rooms is never nil
// and every room passes Room.Normalize.
func (v *Venue) Normalize() {
	if v.Rooms == nil {
		v.Rooms = []Room{}
	}
	for i := range v.Rooms {
		v.Rooms[i].Normalize()
	}
}

// RoomIndex returns the position of the room with the given id, or -1.
func (v *Venue) RoomIndex(roomID int64) int {
	for i := range v.Rooms {
		if v.Rooms[i].ID == roomID {
			return i
		}
	}
	return -1
}

// HasRoomID reports whether any room of the venue already uses id.
func (v *Venue) HasRoomID(id int64) bool {
	return v.RoomIndex(id) >= 0
}

// Normalize trims and deduplicates amenity tags and replaces nil lists with
// empty ones.
func (r *Room) Normalize() {
	r.Amenities = DedupeAmenities(r.Amenities)
	if r.PriceOptions == nil {
		r.PriceOptions = []PriceOption{}
	}
	if r.Images == nil {
		r.Images = []Image{}
	}
}

// DedupeAmenities drops blank tags and repeated tags, keeping first occurrences.
func DedupeAmenities(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Merge returns a copy of s with every key of patch applied on top.
func (s Settings) Merge(patch Settings) Settings {
	out := make(Settings, len(s)+len(patch))
	for k, v := range s {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Sanitized returns a copy of the user without the password hash.
func (u User) Sanitized() User {
	u.PasswordHash = ""
	return u
}
