package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/fsutil"
	"github.com/motelhub/directory/internal/ports"
)

// OpKind names a queued write
type OpKind string

const (
	OpCreateVenue    OpKind = "create_venue"
	OpUpdateVenue    OpKind = "update_venue"
	OpDeleteVenue    OpKind = "delete_venue"
	OpAddRoom        OpKind = "add_room"
	OpUpdateRoom     OpKind = "update_room"
	OpDeleteRoom     OpKind = "delete_room"
	OpUpdateSettings OpKind = "update_settings"
)

// PendingOp is a write made while the server was unreachable. Ids below zero
// are temporary ids handed out offline.
type PendingOp struct {
	Seq      int64           `json:"seq"`
	Kind     OpKind          `json:"kind"`
	VenueID  int64           `json:"venueId,omitempty"`
	RoomID   int64           `json:"roomId,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	QueuedAt time.Time       `json:"queuedAt"`
}

// mirrorState is the on-disk layout. Venues and Settings hold the last copy
// seen from the server; the pending journal is applied on top when reading.
type mirrorState struct {
	Venues     []entities.Venue  `json:"venues"`
	Settings   entities.Settings `json:"settings"`
	Pending    []PendingOp       `json:"pending"`
	LastSeq    int64             `json:"lastSeq"`
	LastTempID int64             `json:"lastTempId"`
	SyncedAt   *time.Time        `json:"syncedAt,omitempty"`
}

// Mirror is the local copy of the directory used when the server is unreachable
type Mirror struct {
	mu    sync.Mutex
	path  string
	state mirrorState
	now   func() time.Time
}

// OpenMirror loads the mirror kept at path, starting empty when the file does
// not exist yet.
func OpenMirror(path string) (*Mirror, error) {
	m := NewMemoryMirror()
	m.path = path

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read mirror: %w", err)
	}
	if len(data) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(data, &m.state); err != nil {
		return nil, fmt.Errorf("decode mirror %s: %w", path, err)
	}
	if m.state.Settings == nil {
		m.state.Settings = entities.Settings{}
	}
	for i := range m.state.Venues {
		m.state.Venues[i].Normalize()
	}
	return m, nil
}

// NewMemoryMirror returns a mirror that is never written to disk
func NewMemoryMirror() *Mirror {
	return &Mirror{
		state: mirrorState{Venues: []entities.Venue{}, Settings: entities.Settings{}},
		now:   time.Now,
	}
}

// Venues returns the mirrored venues with queued changes applied
func (m *Mirror) Venues() []entities.Venue {
	m.mu.Lock()
	defer m.mu.Unlock()
	venues, _ := m.view()
	return venues
}

// Venue returns one mirrored venue with queued changes applied
func (m *Mirror) Venue(id int64) (*entities.Venue, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	venues, _ := m.view()
	if i := venueIndex(venues, id); i >= 0 {
		return &venues[i], true
	}
	return nil, false
}

// Settings returns the mirrored settings with queued changes applied
func (m *Mirror) Settings() entities.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, settings := m.view()
	return settings
}

// Pending returns a copy of the journal in replay order
func (m *Mirror) Pending() []PendingOp {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PendingOp(nil), m.state.Pending...)
}

// PendingCount returns the number of queued writes
func (m *Mirror) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.Pending)
}

// SyncedAt returns when the mirror last matched the server, zero if never
func (m *Mirror) SyncedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.SyncedAt == nil {
		return time.Time{}
	}
	return *m.state.SyncedAt
}

// nextTempID hands out the next negative id. The counter is persisted with
// the journal so ids stay unique across restarts.
func (m *Mirror) nextTempID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastTempID--
	return m.state.LastTempID
}

func (m *Mirror) enqueue(kind OpKind, venueID, roomID int64, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode queued change: %w", err)
		}
		raw = data
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LastSeq++
	m.state.Pending = append(m.state.Pending, PendingOp{
		Seq:      m.state.LastSeq,
		Kind:     kind,
		VenueID:  venueID,
		RoomID:   roomID,
		Payload:  raw,
		QueuedAt: m.now().UTC(),
	})
	return m.save()
}

func (m *Mirror) setPending(ops []PendingOp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Pending = append([]PendingOp(nil), ops...)
	return m.save()
}

// replaceAll swaps in a full server copy and marks the mirror as synced
func (m *Mirror) replaceAll(venues []entities.Venue, settings entities.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Venues = cloneVenues(venues)
	if settings != nil {
		m.state.Settings = settings.Merge(nil)
	}
	now := m.now().UTC()
	m.state.SyncedAt = &now
	return m.save()
}

func (m *Mirror) replaceVenues(venues []entities.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Venues = cloneVenues(venues)
	now := m.now().UTC()
	m.state.SyncedAt = &now
	return m.save()
}

func (m *Mirror) putVenue(v entities.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v = cloneVenue(v)
	if i := venueIndex(m.state.Venues, v.ID); i >= 0 {
		m.state.Venues[i] = v
	} else {
		m.state.Venues = append(m.state.Venues, v)
	}
	return m.save()
}

func (m *Mirror) dropVenue(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := venueIndex(m.state.Venues, id); i >= 0 {
		m.state.Venues = append(m.state.Venues[:i], m.state.Venues[i+1:]...)
	}
	return m.save()
}

func (m *Mirror) putRoom(venueID int64, room entities.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := venueIndex(m.state.Venues, venueID)
	if i < 0 {
		return nil
	}
	v := &m.state.Venues[i]
	if j := v.RoomIndex(room.ID); j >= 0 {
		v.Rooms[j] = cloneRoom(room)
	} else {
		v.Rooms = append(v.Rooms, cloneRoom(room))
	}
	return m.save()
}

func (m *Mirror) dropRoom(venueID, roomID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := venueIndex(m.state.Venues, venueID)
	if i < 0 {
		return nil
	}
	v := &m.state.Venues[i]
	if j := v.RoomIndex(roomID); j >= 0 {
		v.Rooms = append(v.Rooms[:j], v.Rooms[j+1:]...)
	}
	return m.save()
}

func (m *Mirror) putSettings(settings entities.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Settings = settings.Merge(nil)
	return m.save()
}

// view applies the journal to a copy of the server state. Ops whose target
// is gone are skipped here and reported by Sync.
func (m *Mirror) view() ([]entities.Venue, entities.Settings) {
	venues := cloneVenues(m.state.Venues)
	settings := m.state.Settings.Merge(nil)
	for _, op := range m.state.Pending {
		_ = applyOp(&venues, &settings, op)
	}
	return venues, settings
}

// save must be called with mu held
func (m *Mirror) save() error {
	if m.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(&m.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	if err := fsutil.WriteFileAtomic(m.path, data); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}

func applyOp(venues *[]entities.Venue, settings *entities.Settings, op PendingOp) error {
	switch op.Kind {
	case OpCreateVenue:
		var v entities.Venue
		if err := json.Unmarshal(op.Payload, &v); err != nil {
			return err
		}
		v.ID = op.VenueID
		v.Normalize()
		*venues = append(*venues, v)
		return nil

	case OpUpdateSettings:
		var patch entities.Settings
		if err := json.Unmarshal(op.Payload, &patch); err != nil {
			return err
		}
		*settings = settings.Merge(patch)
		return nil
	}

	i := venueIndex(*venues, op.VenueID)
	if i < 0 {
		return entities.ErrVenueNotFound
	}
	v := &(*venues)[i]

	switch op.Kind {
	case OpUpdateVenue:
		var req ports.UpdateVenueRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return err
		}
		req.Apply(v)
		if req.Rooms != nil {
			v.Rooms = *req.Rooms
		}
		v.Normalize()

	case OpDeleteVenue:
		*venues = append((*venues)[:i], (*venues)[i+1:]...)

	case OpAddRoom:
		var room entities.Room
		if err := json.Unmarshal(op.Payload, &room); err != nil {
			return err
		}
		room.ID = op.RoomID
		room.Normalize()
		v.Rooms = append(v.Rooms, room)

	case OpUpdateRoom:
		j := v.RoomIndex(op.RoomID)
		if j < 0 {
			return entities.ErrRoomNotFound
		}
		var req ports.UpdateRoomRequest
		if err := json.Unmarshal(op.Payload, &req); err != nil {
			return err
		}
		req.Apply(&v.Rooms[j])
		v.Rooms[j].Normalize()

	case OpDeleteRoom:
		j := v.RoomIndex(op.RoomID)
		if j < 0 {
			return entities.ErrRoomNotFound
		}
		v.Rooms = append(v.Rooms[:j], v.Rooms[j+1:]...)

	default:
		return fmt.Errorf("unknown queued change %q", op.Kind)
	}
	return nil
}

func venueIndex(venues []entities.Venue, id int64) int {
	for i := range venues {
		if venues[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneVenues(venues []entities.Venue) []entities.Venue {
	out := make([]entities.Venue, len(venues))
	for i := range venues {
		out[i] = cloneVenue(venues[i])
	}
	return out
}

func cloneVenue(v entities.Venue) entities.Venue {
	rooms := make([]entities.Room, len(v.Rooms))
	for i := range v.Rooms {
		rooms[i] = cloneRoom(v.Rooms[i])
	}
	v.Rooms = rooms
	return v
}

func cloneRoom(r entities.Room) entities.Room {
	r.PriceOptions = append([]entities.PriceOption{}, r.PriceOptions...)
	r.Amenities = append([]string{}, r.Amenities...)
	r.Images = append([]entities.Image{}, r.Images...)
	return r
}
