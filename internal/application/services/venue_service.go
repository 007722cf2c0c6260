package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/domain/idgen"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// RichTextSanitizer cleans HTML coming from the admin editor
type RichTextSanitizer interface {
	Sanitize(s string) string
}

// VenueService handles venue and room operations
type VenueService struct {
	venueRepo ports.VenueRepository
	ids       *idgen.Generator
	sanitizer RichTextSanitizer
	logger    *logger.Logger
}

// NewVenueService creates a new venue service
func NewVenueService(venueRepo ports.VenueRepository, ids *idgen.Generator, sanitizer RichTextSanitizer, logger *logger.Logger) *VenueService {
	if ids == nil {
		ids = idgen.New()
	}
	return &VenueService{
		venueRepo: venueRepo,
		ids:       ids,
		sanitizer: sanitizer,
		logger:    logger.WithComponent("venue_service"),
	}
}

// ListVenues returns every venue matching filter
func (s *VenueService) ListVenues(ctx context.Context, filter entities.VenueFilter) ([]entities.Venue, error) {
	venues, err := s.venueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	return entities.FilterVenues(venues, filter), nil
}

// GetVenue retrieves a venue by ID
func (s *VenueService) GetVenue(ctx context.Context, id int64) (*entities.Venue, error) {
	venue, err := s.venueRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get venue: %w", err)
	}
	return venue, nil
}

// CreateVenue stores a new venue with a fresh id. Rooms default to an empty list.
func (s *VenueService) CreateVenue(ctx context.Context, req ports.CreateVenueRequest) (*entities.Venue, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", entities.ErrMissingFields)
	}
	if !entities.ValidWebsite(req.Website) {
		return nil, entities.ErrInvalidWebsite
	}

	venue := &entities.Venue{
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Website:     strings.TrimSpace(req.Website),
		Phone:       req.Phone,
		Email:       req.Email,
		Logo:        req.Logo,
		LogoID:      req.LogoID,
		Rooms:       s.prepareRooms(req.Rooms),
	}

	if err := s.venueRepo.Create(ctx, venue); err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}

	s.logger.Infow("Venue created", "venue_id", venue.ID, "name", venue.Name)
	return venue, nil
}

// UpdateVenue applies the fields present in req. Rooms are replaced only when
// the request carries a rooms list.
func (s *VenueService) UpdateVenue(ctx context.Context, id int64, req ports.UpdateVenueRequest) (*entities.Venue, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name cannot be empty: %w", entities.ErrMissingFields)
	}
	if req.Website != nil && !entities.ValidWebsite(*req.Website) {
		return nil, entities.ErrInvalidWebsite
	}

	var rooms []entities.Room
	if req.Rooms != nil {
		rooms = s.prepareRooms(*req.Rooms)
	}

	venue, err := s.venueRepo.Update(ctx, id, func(v *entities.Venue) error {
		req.Apply(v)
		if req.Rooms != nil {
			v.Rooms = rooms
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update venue: %w", err)
	}

	s.logger.Infow("Venue updated", "venue_id", id)
	return venue, nil
}

// DeleteVenue removes a venue and its rooms
func (s *VenueService) DeleteVenue(ctx context.Context, id int64) error {
	if err := s.venueRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete venue: %w", err)
	}

	s.logger.Infow("Venue deleted", "venue_id", id)
	return nil
}

// ListRooms returns the rooms of a venue matching filter
func (s *VenueService) ListRooms(ctx context.Context, venueID int64, filter entities.VenueFilter) ([]entities.Room, error) {
	venue, err := s.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	return entities.FilterRooms(venue, filter), nil
}

// AddRoom appends a room with its own generated id
func (s *VenueService) AddRoom(ctx context.Context, venueID int64, req ports.CreateRoomRequest) (*entities.Room, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("room name is required: %w", entities.ErrMissingFields)
	}

	room := entities.Room{
		Name:         req.Name,
		Description:  req.Description,
		PriceOptions: req.PriceOptions,
		Amenities:    req.Amenities,
		Images:       req.Images,
	}
	s.cleanRoom(&room)

	_, err := s.venueRepo.Update(ctx, venueID, func(v *entities.Venue) error {
		room.ID = s.ids.NextUnused(v.HasRoomID)
		v.Rooms = append(v.Rooms, room)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add room: %w", err)
	}

	s.logger.Infow("Room added", "venue_id", venueID, "room_id", room.ID)
	return &room, nil
}

// UpdateRoom shallow-merges req over an existing room; the room id is kept
func (s *VenueService) UpdateRoom(ctx context.Context, venueID, roomID int64, req ports.UpdateRoomRequest) (*entities.Room, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("room name cannot be empty: %w", entities.ErrMissingFields)
	}

	var updated entities.Room
	_, err := s.venueRepo.Update(ctx, venueID, func(v *entities.Venue) error {
		i := v.RoomIndex(roomID)
		if i < 0 {
			return entities.ErrRoomNotFound
		}
		room := v.Rooms[i]
		req.Apply(&room)
		room.ID = roomID
		s.cleanRoom(&room)
		v.Rooms[i] = room
		updated = room
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update room: %w", err)
	}

	s.logger.Infow("Room updated", "venue_id", venueID, "room_id", roomID)
	return &updated, nil
}

// DeleteRoom removes a room from its venue
func (s *VenueService) DeleteRoom(ctx context.Context, venueID, roomID int64) error {
	_, err := s.venueRepo.Update(ctx, venueID, func(v *entities.Venue) error {
		i := v.RoomIndex(roomID)
		if i < 0 {
			return entities.ErrRoomNotFound
		}
		v.Rooms = append(v.Rooms[:i], v.Rooms[i+1:]...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete room: %w", err)
	}

	s.logger.Infow("Room deleted", "venue_id", venueID, "room_id", roomID)
	return nil
}

// Amenities ranks amenity tags across every room. top <= 0 returns all of them.
func (s *VenueService) Amenities(ctx context.Context, top int) ([]entities.AmenityCount, error) {
	venues, err := s.venueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	return entities.RankAmenities(venues, top), nil
}

// prepareRooms cleans a client supplied room list and gives every room
// without an id (or with a repeated one) a fresh id.
func (s *VenueService) prepareRooms(rooms []entities.Room) []entities.Room {
	out := make([]entities.Room, 0, len(rooms))
	seen := make(map[int64]struct{}, len(rooms))
	for _, room := range rooms {
		if _, dup := seen[room.ID]; room.ID == 0 || dup {
			room.ID = s.ids.NextUnused(func(id int64) bool {
				_, taken := seen[id]
				return taken
			})
		}
		seen[room.ID] = struct{}{}
		s.cleanRoom(&room)
		out = append(out, room)
	}
	return out
}

func (s *VenueService) cleanRoom(room *entities.Room) {
	if s.sanitizer != nil {
		room.Description = s.sanitizer.Sanitize(room.Description)
		for i := range room.PriceOptions {
			room.PriceOptions[i].AdditionalInfo = s.sanitizer.Sanitize(room.PriceOptions[i].AdditionalInfo)
		}
	}
	room.Normalize()
}
