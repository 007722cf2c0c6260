package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// ErrQueuedOffline is returned by writes that could not reach the server and
// were recorded in the mirror journal instead. The returned value reflects
// the local change.
var ErrQueuedOffline = errors.New("server unreachable, change queued for sync")

// Fetched wraps data read through a Directory
type Fetched[T any] struct {
	Data T
	// Stale is set when Data came from the mirror because the server was unreachable
	Stale bool
	// Pending counts queued local changes folded into Data
	Pending int
}

// Conflict is a queued change the server refused during Sync
type Conflict struct {
	Op     PendingOp `json:"op"`
	Reason string    `json:"reason"`
}

// SyncReport summarises a Sync run
type SyncReport struct {
	Applied   int        `json:"applied"`
	Conflicts []Conflict `json:"conflicts"`
	Remaining int        `json:"remaining"`
}

// Directory reads and writes venues and settings through the API, falling
// back to the mirror when the server cannot be reached.
//
// Reads that succeed refresh the mirror. Writes are sent directly only while
// the journal is empty; once something is queued every later write is queued
// behind it so Sync replays them in order.
type Directory struct {
	api    *Client
	mirror *Mirror
	logger *logger.Logger

	mu sync.Mutex
}

// NewDirectory combines a client and a mirror
func NewDirectory(api *Client, mirror *Mirror, log *logger.Logger) *Directory {
	if mirror == nil {
		mirror = NewMemoryMirror()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Directory{api: api, mirror: mirror, logger: log.WithComponent("directory")}
}

// API returns the underlying client for calls that have no offline fallback
func (d *Directory) API() *Client { return d.api }

// Mirror returns the local copy
func (d *Directory) Mirror() *Mirror { return d.mirror }

// ListVenues returns the venues matching filter
func (d *Directory) ListVenues(ctx context.Context, filter entities.VenueFilter) (Fetched[[]entities.Venue], error) {
	pending := d.mirror.PendingCount()

	query := filter
	if pending > 0 {
		query = entities.VenueFilter{}
	}
	venues, err := d.api.ListVenues(ctx, query)
	switch {
	case err == nil:
		if query.IsZero() {
			if err := d.mirror.replaceVenues(venues); err != nil {
				d.logger.WithError(err).Warnw("Mirror refresh failed")
			}
		}
		if pending == 0 {
			return Fetched[[]entities.Venue]{Data: venues}, nil
		}
		return Fetched[[]entities.Venue]{Data: entities.FilterVenues(d.mirror.Venues(), filter), Pending: pending}, nil
	case IsNetworkError(err):
		d.logger.Infow("Serving venues from mirror", "pending", pending)
		return Fetched[[]entities.Venue]{
			Data:    entities.FilterVenues(d.mirror.Venues(), filter),
			Stale:   true,
			Pending: pending,
		}, nil
	default:
		return Fetched[[]entities.Venue]{}, err
	}
}

// GetVenue returns one venue. Temporary ids are only known to the mirror.
func (d *Directory) GetVenue(ctx context.Context, id int64) (Fetched[*entities.Venue], error) {
	pending := d.mirror.PendingCount()
	if id < 0 {
		return d.localVenue(id, false, pending)
	}

	venue, err := d.api.GetVenue(ctx, id)
	switch {
	case err == nil:
		if err := d.mirror.putVenue(*venue); err != nil {
			d.logger.WithError(err).Warnw("Mirror refresh failed", "venue_id", id)
		}
		if pending == 0 {
			return Fetched[*entities.Venue]{Data: venue}, nil
		}
		return d.localVenue(id, false, pending)
	case IsNetworkError(err):
		return d.localVenue(id, true, pending)
	case IsStatus(err, http.StatusNotFound):
		if err := d.mirror.dropVenue(id); err != nil {
			d.logger.WithError(err).Warnw("Mirror refresh failed", "venue_id", id)
		}
		return Fetched[*entities.Venue]{}, fmt.Errorf("venue %d: %w", id, entities.ErrVenueNotFound)
	default:
		return Fetched[*entities.Venue]{}, err
	}
}

func (d *Directory) localVenue(id int64, stale bool, pending int) (Fetched[*entities.Venue], error) {
	v, ok := d.mirror.Venue(id)
	if !ok {
		return Fetched[*entities.Venue]{}, fmt.Errorf("venue %d: %w", id, entities.ErrVenueNotFound)
	}
	return Fetched[*entities.Venue]{Data: v, Stale: stale, Pending: pending}, nil
}

// GetSettings returns the site settings
func (d *Directory) GetSettings(ctx context.Context) (Fetched[entities.Settings], error) {
	pending := d.mirror.PendingCount()
	settings, err := d.api.GetSettings(ctx)
	switch {
	case err == nil:
		if err := d.mirror.putSettings(settings); err != nil {
			d.logger.WithError(err).Warnw("Mirror refresh failed")
		}
		if pending == 0 {
			return Fetched[entities.Settings]{Data: settings}, nil
		}
		return Fetched[entities.Settings]{Data: d.mirror.Settings(), Pending: pending}, nil
	case IsNetworkError(err):
		return Fetched[entities.Settings]{Data: d.mirror.Settings(), Stale: true, Pending: pending}, nil
	default:
		return Fetched[entities.Settings]{}, err
	}
}

// CreateVenue creates a venue. Offline the venue gets a temporary negative
// id, rooms included, until Sync assigns real ones.
func (d *Directory) CreateVenue(ctx context.Context, req ports.CreateVenueRequest) (*entities.Venue, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("name is required: %w", entities.ErrMissingFields)
	}
	if !entities.ValidWebsite(req.Website) {
		return nil, entities.ErrInvalidWebsite
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online() {
		venue, err := d.api.CreateVenue(ctx, req)
		if err == nil {
			d.remember(d.mirror.putVenue(*venue))
			return venue, nil
		}
		if !IsNetworkError(err) {
			return nil, err
		}
	}

	venue := entities.Venue{
		ID:          d.mirror.nextTempID(),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Website:     strings.TrimSpace(req.Website),
		Phone:       req.Phone,
		Email:       req.Email,
		Logo:        req.Logo,
		LogoID:      req.LogoID,
		Rooms:       cloneVenue(entities.Venue{Rooms: req.Rooms}).Rooms,
	}
	for i := range venue.Rooms {
		if venue.Rooms[i].ID == 0 {
			venue.Rooms[i].ID = d.mirror.nextTempID()
		}
	}
	venue.Normalize()

	if err := d.mirror.enqueue(OpCreateVenue, venue.ID, 0, venue); err != nil {
		return nil, err
	}
	d.logger.Infow("Venue creation queued", "temp_id", venue.ID)
	return &venue, ErrQueuedOffline
}

// UpdateVenue applies a partial update
func (d *Directory) UpdateVenue(ctx context.Context, id int64, req ports.UpdateVenueRequest) (*entities.Venue, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name cannot be empty: %w", entities.ErrMissingFields)
	}
	if req.Website != nil && !entities.ValidWebsite(*req.Website) {
		return nil, entities.ErrInvalidWebsite
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online() && id > 0 {
		venue, err := d.api.UpdateVenue(ctx, id, req)
		if err == nil {
			d.remember(d.mirror.putVenue(*venue))
			return venue, nil
		}
		if !IsNetworkError(err) {
			return nil, err
		}
	}

	if _, ok := d.mirror.Venue(id); !ok {
		return nil, fmt.Errorf("venue %d: %w", id, entities.ErrVenueNotFound)
	}
	if err := d.mirror.enqueue(OpUpdateVenue, id, 0, req); err != nil {
		return nil, err
	}
	venue, _ := d.mirror.Venue(id)
	return venue, ErrQueuedOffline
}

// DeleteVenue removes a venue
func (d *Directory) DeleteVenue(ctx context.Context, id int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online() && id > 0 {
		err := d.api.DeleteVenue(ctx, id)
		if err == nil {
			d.remember(d.mirror.dropVenue(id))
			return nil
		}
		if !IsNetworkError(err) {
			return err
		}
	}

	if _, ok := d.mirror.Venue(id); !ok {
		return fmt.Errorf("venue %d: %w", id, entities.ErrVenueNotFound)
	}
	if err := d.mirror.enqueue(OpDeleteVenue, id, 0, nil); err != nil {
		return err
	}
	return ErrQueuedOffline
}

// AddRoom appends a room to a venue
func (d *Directory) AddRoom(ctx context.Context, venueID int64, req ports.CreateRoomRequest) (*entities.Room, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("room name is required: %w", entities.ErrMissingFields)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online() && venueID > 0 {
		room, err := d.api.AddRoom(ctx, venueID, req)
		if err == nil {
			d.remember(d.mirror.putRoom(venueID, *room))
			return room, nil
		}
		if !IsNetworkError(err) {
			return nil, err
		}
	}

	if _, ok := d.mirror.Venue(venueID); !ok {
		return nil, fmt.Errorf("venue %d: %w", venueID, entities.ErrVenueNotFound)
	}
	room := cloneRoom(entities.Room{
		ID:           d.mirror.nextTempID(),
		Name:         req.Name,
		Description:  req.Description,
		PriceOptions: req.PriceOptions,
		Amenities:    req.Amenities,
		Images:       req.Images,
	})
	room.Normalize()
	if err := d.mirror.enqueue(OpAddRoom, venueID, room.ID, room); err != nil {
		return nil, err
	}
	return &room, ErrQueuedOffline
}

// UpdateRoom applies a partial update to one room
func (d *Directory) UpdateRoom(ctx context.Context, venueID, roomID int64, req ports.UpdateRoomRequest) (*entities.Room, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("room name cannot be empty: %w", entities.ErrMissingFields)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online() && venueID > 0 && roomID > 0 {
		room, err := d.api.UpdateRoom(ctx, venueID, roomID, req)
		if err == nil {
			d.remember(d.mirror.putRoom(venueID, *room))
			return room, nil
		}
		if !IsNetworkError(err) {
			return nil, err
		}
	}

	if _, err := d.localRoom(venueID, roomID); err != nil {
		return nil, err
	}
	if err := d.mirror.enqueue(OpUpdateRoom, venueID, roomID, req); err != nil {
		return nil, err
	}
	room, _ := d.localRoom(venueID, roomID)
	return room, ErrQueuedOffline
}

// DeleteRoom removes one room
func (d *Directory) DeleteRoom(ctx context.Context, venueID, roomID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online() && venueID > 0 && roomID > 0 {
		err := d.api.DeleteRoom(ctx, venueID, roomID)
		if err == nil {
			d.remember(d.mirror.dropRoom(venueID, roomID))
			return nil
		}
		if !IsNetworkError(err) {
			return err
		}
	}

	if _, err := d.localRoom(venueID, roomID); err != nil {
		return err
	}
	if err := d.mirror.enqueue(OpDeleteRoom, venueID, roomID, nil); err != nil {
		return err
	}
	return ErrQueuedOffline
}

// UpdateSettings merges patch into the site settings
func (d *Directory) UpdateSettings(ctx context.Context, patch entities.Settings) (entities.Settings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.online() {
		settings, err := d.api.UpdateSettings(ctx, patch)
		if err == nil {
			d.remember(d.mirror.putSettings(settings))
			return settings, nil
		}
		if !IsNetworkError(err) {
			return nil, err
		}
	}

	if err := d.mirror.enqueue(OpUpdateSettings, 0, 0, patch); err != nil {
		return nil, err
	}
	return d.mirror.Settings(), ErrQueuedOffline
}

// Sync replays the journal in order. The server wins: a change it rejects,
// or whose target no longer exists, is dropped and reported as a conflict.
// A network failure stops the replay and keeps the unsent changes queued.
// When the journal is drained the mirror is replaced with the server copy.
func (d *Directory) Sync(ctx context.Context) (*SyncReport, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	ops := d.mirror.Pending()
	report := &SyncReport{Conflicts: []Conflict{}}
	ids := make(map[int64]int64)

	for i, op := range ops {
		op = remapOp(op, ids)

		var err error
		if ref := unresolvedRef(op); ref != 0 {
			err = fmt.Errorf("refers to offline record %d that was never created", ref)
		} else {
			err = d.replay(ctx, op, ids)
		}

		switch {
		case err == nil:
			report.Applied++
		case IsNetworkError(err) || ctx.Err() != nil:
			rest := make([]PendingOp, 0, len(ops)-i)
			for _, left := range ops[i:] {
				rest = append(rest, remapOp(left, ids))
			}
			report.Remaining = len(rest)
			if saveErr := d.mirror.setPending(rest); saveErr != nil {
				d.logger.WithError(saveErr).Errorw("Failed to save sync progress")
			}
			d.logger.WithError(err).Warnw("Sync interrupted", "applied", report.Applied, "remaining", report.Remaining)
			return report, fmt.Errorf("sync stopped with %d changes left: %w", report.Remaining, err)
		default:
			d.logger.Warnw("Queued change dropped", "seq", op.Seq, "kind", op.Kind, "reason", err.Error())
			report.Conflicts = append(report.Conflicts, Conflict{Op: op, Reason: err.Error()})
		}
	}

	if err := d.mirror.setPending(nil); err != nil {
		return report, err
	}

	venues, err := d.api.ListVenues(ctx, entities.VenueFilter{})
	if err != nil {
		return report, fmt.Errorf("refresh mirror: %w", err)
	}
	settings, err := d.api.GetSettings(ctx)
	if err != nil {
		return report, fmt.Errorf("refresh mirror: %w", err)
	}
	if err := d.mirror.replaceAll(venues, settings); err != nil {
		return report, err
	}

	d.logger.Infow("Sync complete", "applied", report.Applied, "conflicts", len(report.Conflicts))
	return report, nil
}

// replay sends one queued change and records the real ids of anything it created
func (d *Directory) replay(ctx context.Context, op PendingOp, ids map[int64]int64) error {
	switch op.Kind {
	case OpCreateVenue:
		var v entities.Venue
		if err := decodePayload(op, &v); err != nil {
			return err
		}
		rooms := cloneVenue(v).Rooms
		for i := range rooms {
			if rooms[i].ID < 0 {
				rooms[i].ID = 0
			}
		}
		created, err := d.api.CreateVenue(ctx, ports.CreateVenueRequest{
			Name:        v.Name,
			Description: v.Description,
			Location:    v.Location,
			Website:     v.Website,
			Phone:       v.Phone,
			Email:       v.Email,
			Logo:        v.Logo,
			LogoID:      v.LogoID,
			Rooms:       rooms,
		})
		if err != nil {
			return err
		}
		ids[op.VenueID] = created.ID
		for i := range v.Rooms {
			if v.Rooms[i].ID < 0 && i < len(created.Rooms) {
				ids[v.Rooms[i].ID] = created.Rooms[i].ID
			}
		}
		d.remember(d.mirror.putVenue(*created))

	case OpUpdateVenue:
		var req ports.UpdateVenueRequest
		if err := decodePayload(op, &req); err != nil {
			return err
		}
		if req.Rooms != nil {
			rooms := cloneVenue(entities.Venue{Rooms: *req.Rooms}).Rooms
			for i := range rooms {
				if rooms[i].ID < 0 {
					rooms[i].ID = ids[rooms[i].ID]
				}
			}
			req.Rooms = &rooms
		}
		updated, err := d.api.UpdateVenue(ctx, op.VenueID, req)
		if err != nil {
			return err
		}
		d.remember(d.mirror.putVenue(*updated))

	case OpDeleteVenue:
		if err := d.api.DeleteVenue(ctx, op.VenueID); err != nil {
			return err
		}
		d.remember(d.mirror.dropVenue(op.VenueID))

	case OpAddRoom:
		var room entities.Room
		if err := decodePayload(op, &room); err != nil {
			return err
		}
		created, err := d.api.AddRoom(ctx, op.VenueID, ports.CreateRoomRequest{
			Name:         room.Name,
			Description:  room.Description,
			PriceOptions: room.PriceOptions,
			Amenities:    room.Amenities,
			Images:       room.Images,
		})
		if err != nil {
			return err
		}
		ids[op.RoomID] = created.ID
		d.remember(d.mirror.putRoom(op.VenueID, *created))

	case OpUpdateRoom:
		var req ports.UpdateRoomRequest
		if err := decodePayload(op, &req); err != nil {
			return err
		}
		updated, err := d.api.UpdateRoom(ctx, op.VenueID, op.RoomID, req)
		if err != nil {
			return err
		}
		d.remember(d.mirror.putRoom(op.VenueID, *updated))

	case OpDeleteRoom:
		if err := d.api.DeleteRoom(ctx, op.VenueID, op.RoomID); err != nil {
			return err
		}
		d.remember(d.mirror.dropRoom(op.VenueID, op.RoomID))

	case OpUpdateSettings:
		var patch entities.Settings
		if err := decodePayload(op, &patch); err != nil {
			return err
		}
		settings, err := d.api.UpdateSettings(ctx, patch)
		if err != nil {
			return err
		}
		d.remember(d.mirror.putSettings(settings))

	default:
		return fmt.Errorf("unknown queued change %q", op.Kind)
	}
	return nil
}

func (d *Directory) localRoom(venueID, roomID int64) (*entities.Room, error) {
	v, ok := d.mirror.Venue(venueID)
	if !ok {
		return nil, fmt.Errorf("venue %d: %w", venueID, entities.ErrVenueNotFound)
	}
	i := v.RoomIndex(roomID)
	if i < 0 {
		return nil, fmt.Errorf("room %d: %w", roomID, entities.ErrRoomNotFound)
	}
	return &v.Rooms[i], nil
}

// online reports whether writes may go straight to the server
func (d *Directory) online() bool {
	return d.mirror.PendingCount() == 0
}

// remember logs mirror write failures; the server already holds the change
func (d *Directory) remember(err error) {
	if err != nil {
		d.logger.WithError(err).Warnw("Mirror update failed")
	}
}

func remapOp(op PendingOp, ids map[int64]int64) PendingOp {
	if id, ok := ids[op.VenueID]; ok && op.VenueID < 0 {
		op.VenueID = id
	}
	if id, ok := ids[op.RoomID]; ok && op.RoomID < 0 {
		op.RoomID = id
	}
	return op
}

// unresolvedRef returns the temporary id op points at that has no server id
// yet. Creates carry their own temporary id and never count.
func unresolvedRef(op PendingOp) int64 {
	switch op.Kind {
	case OpCreateVenue, OpUpdateSettings:
		return 0
	case OpAddRoom:
		if op.VenueID < 0 {
			return op.VenueID
		}
		return 0
	}
	if op.VenueID < 0 {
		return op.VenueID
	}
	if op.RoomID < 0 {
		return op.RoomID
	}
	return 0
}

func decodePayload(op PendingOp, v interface{}) error {
	if err := json.Unmarshal(op.Payload, v); err != nil {
		return fmt.Errorf("corrupt queued %s: %w", op.Kind, err)
	}
	return nil
}
