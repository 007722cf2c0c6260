package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/ports"
)

var (
	ErrNotAdmin         = errors.New("administrator login required")
	ErrNoFormOpen       = errors.New("no form is open")
	ErrNothingToConfirm = errors.New("no delete is waiting for confirmation")
)

// Mode is the session access level
type Mode int

const (
	ModeViewer Mode = iota
	ModeAdmin
)

func (m Mode) String() string {
	if m == ModeAdmin {
		return "admin"
	}
	return "viewer"
}

// FormKind tells which editor is open
type FormKind int

const (
	FormNone FormKind = iota
	FormVenue
	FormRoom
)

// Form is the open editor. Zero ids mean the form creates a new record.
type Form struct {
	Kind    FormKind
	VenueID int64
	RoomID  int64
}

// Editing reports whether the form edits an existing record
func (f Form) Editing() bool {
	switch f.Kind {
	case FormVenue:
		return f.VenueID != 0
	case FormRoom:
		return f.RoomID != 0
	}
	return false
}

// DeleteKind is the type of record a delete targets
type DeleteKind int

const (
	DeleteVenue DeleteKind = iota + 1
	DeleteRoom
	DeleteUser
	DeleteImage
)

// DeleteTarget identifies what is about to be deleted
type DeleteTarget struct {
	Kind     DeleteKind
	VenueID  int64
	RoomID   int64
	UserID   int64
	PublicID string
}

// Session holds the viewer/admin state of one front end. Logging in turns on
// admin mode; the token lives only in memory and logging out needs no server
// call. Deletes go through a request then confirm step.
type Session struct {
	dir *Directory

	mu            sync.Mutex
	mode          Mode
	user          *entities.User
	form          Form
	pendingDelete *DeleteTarget
}

// NewSession starts in viewer mode
func NewSession(dir *Directory) *Session {
	return &Session{dir: dir}
}

// Mode returns the current access level
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// User returns the logged in user, nil in viewer mode
func (s *Session) User() *entities.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Login switches to admin mode on valid credentials. Any failure leaves the
// session in viewer mode.
func (s *Session) Login(ctx context.Context, username, password string) error {
	resp, err := s.dir.API().Login(ctx, username, password)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			return fmt.Errorf("%w: %v", entities.ErrInvalidCredentials, err)
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	user := resp.User
	s.user = &user
	s.mode = ModeAdmin
	return nil
}

// Logout drops the token and returns to viewer mode, closing any open form
// and pending delete.
func (s *Session) Logout() {
	s.dir.API().SetToken("")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeViewer
	s.user = nil
	s.form = Form{}
	s.pendingDelete = nil
}

// Form returns the open editor, Kind is FormNone when closed
func (s *Session) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// OpenVenueForm opens the venue editor; venueID 0 adds a new venue
func (s *Session) OpenVenueForm(venueID int64) error {
	return s.openForm(Form{Kind: FormVenue, VenueID: venueID})
}

// OpenRoomForm opens the room editor for a venue; roomID 0 adds a new room
func (s *Session) OpenRoomForm(venueID, roomID int64) error {
	return s.openForm(Form{Kind: FormRoom, VenueID: venueID, RoomID: roomID})
}

func (s *Session) openForm(f Form) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeAdmin {
		return ErrNotAdmin
	}
	s.form = f
	return nil
}

// CloseForm discards the open editor
func (s *Session) CloseForm() {
	s.mu.Lock()
	s.form = Form{}
	s.mu.Unlock()
}

// SubmitVenue saves the venue editor. The form closes on success or when the
// change was queued offline; on any other error it stays open.
func (s *Session) SubmitVenue(ctx context.Context, v entities.Venue) (*entities.Venue, error) {
	form, err := s.activeForm(FormVenue)
	if err != nil {
		return nil, err
	}

	var saved *entities.Venue
	if form.Editing() {
		saved, err = s.dir.UpdateVenue(ctx, form.VenueID, ports.UpdateVenueRequest{
			Name:        &v.Name,
			Description: &v.Description,
			Location:    &v.Location,
			Website:     &v.Website,
			Phone:       &v.Phone,
			Email:       &v.Email,
			Logo:        &v.Logo,
			LogoID:      &v.LogoID,
		})
	} else {
		saved, err = s.dir.CreateVenue(ctx, ports.CreateVenueRequest{
			Name:        v.Name,
			Description: v.Description,
			Location:    v.Location,
			Website:     v.Website,
			Phone:       v.Phone,
			Email:       v.Email,
			Logo:        v.Logo,
			LogoID:      v.LogoID,
			Rooms:       v.Rooms,
		})
	}
	s.closeFormUnless(err)
	return saved, err
}

// SubmitRoom saves the room editor
func (s *Session) SubmitRoom(ctx context.Context, r entities.Room) (*entities.Room, error) {
	form, err := s.activeForm(FormRoom)
	if err != nil {
		return nil, err
	}

	var saved *entities.Room
	if form.Editing() {
		saved, err = s.dir.UpdateRoom(ctx, form.VenueID, form.RoomID, ports.UpdateRoomRequest{
			Name:         &r.Name,
			Description:  &r.Description,
			PriceOptions: &r.PriceOptions,
			Amenities:    &r.Amenities,
			Images:       &r.Images,
		})
	} else {
		saved, err = s.dir.AddRoom(ctx, form.VenueID, ports.CreateRoomRequest{
			Name:         r.Name,
			Description:  r.Description,
			PriceOptions: r.PriceOptions,
			Amenities:    r.Amenities,
			Images:       r.Images,
		})
	}
	s.closeFormUnless(err)
	return saved, err
}

func (s *Session) activeForm(kind FormKind) (Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeAdmin {
		return Form{}, ErrNotAdmin
	}
	if s.form.Kind != kind {
		return Form{}, ErrNoFormOpen
	}
	return s.form, nil
}

func (s *Session) closeFormUnless(err error) {
	if err != nil && !errors.Is(err, ErrQueuedOffline) {
		return
	}
	s.CloseForm()
}

// RequestDelete asks for confirmation before deleting target
func (s *Session) RequestDelete(target DeleteTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeAdmin {
		return ErrNotAdmin
	}
	s.pendingDelete = &target
	return nil
}

// PendingDelete returns the delete waiting for confirmation
func (s *Session) PendingDelete() (DeleteTarget, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pendingDelete == nil {
		return DeleteTarget{}, false
	}
	return *s.pendingDelete, true
}

// CancelDelete forgets the pending delete
func (s *Session) CancelDelete() {
	s.mu.Lock()
	s.pendingDelete = nil
	s.mu.Unlock()
}

// ConfirmDelete performs the pending delete. The request is cleared whatever
// the outcome.
func (s *Session) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	if s.mode != ModeAdmin {
		s.mu.Unlock()
		return ErrNotAdmin
	}
	target := s.pendingDelete
	s.pendingDelete = nil
	s.mu.Unlock()

	if target == nil {
		return ErrNothingToConfirm
	}

	switch target.Kind {
	case DeleteVenue:
		return s.dir.DeleteVenue(ctx, target.VenueID)
	case DeleteRoom:
		return s.dir.DeleteRoom(ctx, target.VenueID, target.RoomID)
	case DeleteUser:
		return s.dir.API().DeleteUser(ctx, target.UserID)
	case DeleteImage:
		return s.dir.API().DeleteImage(ctx, target.PublicID)
	default:
		return fmt.Errorf("unknown delete target %d", target.Kind)
	}
}
