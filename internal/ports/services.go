package ports

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/motelhub/directory/internal/domain/entities"
)

// VenueService interface for venue and room management
type VenueService interface {
	ListVenues(ctx context.Context, filter entities.VenueFilter) ([]entities.Venue, error)
	GetVenue(ctx context.Context, id int64) (*entities.Venue, error)
	CreateVenue(ctx context.Context, req CreateVenueRequest) (*entities.Venue, error)
	UpdateVenue(ctx context.Context, id int64, req UpdateVenueRequest) (*entities.Venue, error)
	DeleteVenue(ctx context.Context, id int64) error
	ListRooms(ctx context.Context, venueID int64, filter entities.VenueFilter) ([]entities.Room, error)
	AddRoom(ctx context.Context, venueID int64, req CreateRoomRequest) (*entities.Room, error)
	UpdateRoom(ctx context.Context, venueID, roomID int64, req UpdateRoomRequest) (*entities.Room, error)
	DeleteRoom(ctx context.Context, venueID, roomID int64) error
	Amenities(ctx context.Context, top int) ([]entities.AmenityCount, error)
}

// SettingsService interface for the site settings singleton
type SettingsService interface {
	GetSettings(ctx context.Context) (entities.Settings, error)
	UpdateSettings(ctx context.Context, patch entities.Settings) (entities.Settings, error)
}

// UserService interface for administrator account management
type UserService interface {
	ListUsers(ctx context.Context) ([]entities.User, error)
	CreateUser(ctx context.Context, req CreateUserRequest) (*entities.User, error)
	UpdateUser(ctx context.Context, id int64, req UpdateUserRequest) (*entities.User, error)
	DeleteUser(ctx context.Context, id int64) error
	ResetAdmin(ctx context.Context) (*entities.User, error)
}

// AuthService interface for authentication operations
type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Check(ctx context.Context) (*AuthCheckResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// ImageService interface for image uploads
type ImageService interface {
	Upload(ctx context.Context, file ImageFile) (*entities.Image, error)
	UploadMany(ctx context.Context, files []ImageFile) ([]entities.Image, error)
	Delete(ctx context.Context, publicID string) error
}

// TransferService interface for tabular import and export of venues
type TransferService interface {
	Export(ctx context.Context, format TableFormat) (*ExportFile, error)
	Template(format TableFormat) (*ExportFile, error)
	Import(ctx context.Context, format TableFormat, r io.Reader) (*ImportResult, error)
}

// Request/Response Types

// Venue related types
type CreateVenueRequest struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description"`
	Location    string          `json:"location"`
	Website     string          `json:"website" validate:"omitempty,website"`
	Phone       string          `json:"phone" validate:"omitempty,max=50"`
	Email       string          `json:"email"`
	Logo        string          `json:"logo"`
	LogoID      string          `json:"logo_id"`
	Rooms       []entities.Room `json:"rooms"`
}

type UpdateVenueRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description"`
	Location    *string          `json:"location"`
	Website     *string          `json:"website" validate:"omitempty,website"`
	Phone       *string          `json:"phone" validate:"omitempty,max=50"`
	Email       *string          `json:"email"`
	Logo        *string          `json:"logo"`
	LogoID      *string          `json:"logo_id"`
	Rooms       *[]entities.Room `json:"rooms"`
}

// Apply copies the fields present in r onto v. Rooms are left to the caller.
func (r UpdateVenueRequest) Apply(v *entities.Venue) {
	if r.Name != nil {
		v.Name = *r.Name
	}
	if r.Description != nil {
		v.Description = *r.Description
	}
	if r.Location != nil {
		v.Location = *r.Location
	}
	if r.Website != nil {
		v.Website = strings.TrimSpace(*r.Website)
	}
	if r.Phone != nil {
		v.Phone = *r.Phone
	}
	if r.Email != nil {
		v.Email = *r.Email
	}
	if r.Logo != nil {
		v.Logo = *r.Logo
	}
	if r.LogoID != nil {
		v.LogoID = *r.LogoID
	}
}

// Room related types
type CreateRoomRequest struct {
	Name         string                 `json:"name" validate:"required,max=200"`
	Description  string                 `json:"description"`
	PriceOptions []entities.PriceOption `json:"priceOptions" validate:"dive"`
	Amenities    []string               `json:"amenities"`
	Images       []entities.Image       `json:"images"`
}

type UpdateRoomRequest struct {
	Name         *string                 `json:"name" validate:"omitempty,min=1,max=200"`
	Description  *string                 `json:"description"`
	PriceOptions *[]entities.PriceOption `json:"priceOptions"`
	Amenities    *[]string               `json:"amenities"`
	Images       *[]entities.Image       `json:"images"`
}

// Apply copies the fields present in r onto room
func (r UpdateRoomRequest) Apply(room *entities.Room) {
	if r.Name != nil {
		room.Name = *r.Name
	}
	if r.Description != nil {
		room.Description = *r.Description
	}
	if r.PriceOptions != nil {
		room.PriceOptions = *r.PriceOptions
	}
	if r.Amenities != nil {
		room.Amenities = *r.Amenities
	}
	if r.Images != nil {
		room.Images = *r.Images
	}
}

// User related types
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required,max=100"`
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitempty,min=1,max=50"`
	Password *string `json:"password"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}

// Auth related types
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User      entities.User `json:"user"`
	Message   string        `json:"message"`
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
}

type AuthCheckResponse struct {
	HasUsers bool   `json:"hasUsers"`
	Message  string `json:"message"`
}

type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Image related types
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Import/export related types
type TableFormat string

const (
	FormatCSV  TableFormat = "csv"
	FormatXLSX TableFormat = "xlsx"
)

type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Skipped int              `json:"skipped"`
	Venues  []entities.Venue `json:"venues"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}
