package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/domain/idgen"
	"github.com/motelhub/directory/internal/infrastructure/fsutil"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

// document is the on-disk layout. Key names match data files written by
// earlier releases so existing stores load unchanged.
type document struct {
	Motels       []entities.Venue  `json:"motels"`
	SiteSettings entities.Settings `json:"siteSettings"`
	Users        []userRecord      `json:"users"`
}

type userRecord struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Password  string     `json:"password"`
	Name      string     `json:"name"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

func (r userRecord) toEntity() entities.User {
	return entities.User{
		ID:           r.ID,
		Username:     r.Username,
		Name:         r.Name,
		PasswordHash: r.Password,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func newUserRecord(u *entities.User) userRecord {
	return userRecord{
		ID:        u.ID,
		Username:  u.Username,
		Password:  u.PasswordHash,
		Name:      u.Name,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// FileStore keeps the whole directory in one JSON file. Every operation
// re-reads the file, and every mutation is serialised by mu and persisted with
// an atomic rename, so concurrent requests never lose each other's writes.
type FileStore struct {
	mu      sync.Mutex
	path    string
	ids     *idgen.Generator
	logger  *logger.Logger
	metrics *storeMetrics
}

// NewFileStore opens (and if needed creates) the document at path
func NewFileStore(path string, log *logger.Logger, opts ...Option) (*FileStore, error) {
	o := applyOptions(opts)
	s := &FileStore{
		path:    path,
		ids:     o.ids,
		logger:  log.WithComponent("file_store"),
		metrics: o.metrics,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) Venues() ports.VenueRepository      { return &fileVenues{s: s} }
func (s *FileStore) Settings() ports.SettingsRepository { return &fileSettings{s: s} }
func (s *FileStore) Users() ports.UserRepository        { return &fileUsers{s: s} }
func (s *FileStore) Close(ctx context.Context) error    { return nil }

// Ping checks that the document can still be read and decoded
func (s *FileStore) Ping(ctx context.Context) error {
	return s.read(ctx, func(*document) error { return nil })
}

// Path returns the location of the backing document
func (s *FileStore) Path() string { return s.path }

// load reads the document, creating the default empty one when missing.
// Caller must hold mu.
func (s *FileStore) load() (*document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		doc := &document{Motels: []entities.Venue{}, SiteSettings: entities.Settings{}, Users: []userRecord{}}
		if err := s.save(doc); err != nil {
			return nil, fmt.Errorf("create data file: %w", err)
		}
		s.logger.Infow("Created empty data file", "path", s.path)
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read data file: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode data file %s: %w", s.path, err)
	}
	if doc.Motels == nil {
		doc.Motels = []entities.Venue{}
	}
	if doc.SiteSettings == nil {
		doc.SiteSettings = entities.Settings{}
	}
	if doc.Users == nil {
		doc.Users = []userRecord{}
	}
	for i := range doc.Motels {
		doc.Motels[i].Normalize()
	}
	return &doc, nil
}

// save writes doc to a temp file in the same directory and renames it over
// the target. Caller must hold mu.
func (s *FileStore) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode data file: %w", err)
	}

	return fsutil.WriteFileAtomic(s.path, data)
}

func (s *FileStore) read(ctx context.Context, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	return fn(doc)
}

// write runs fn against a freshly loaded document and persists it when fn succeeds.
func (s *FileStore) write(ctx context.Context, collection, op string, fn func(doc *document) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}

	err = s.save(doc)
	s.metrics.observe(collection, op, err)
	s.logger.LogStoreWrite(collection, op, nil, err)
	return err
}

type fileVenues struct{ s *FileStore }

func (r *fileVenues) List(ctx context.Context) ([]entities.Venue, error) {
	var out []entities.Venue
	err := r.s.read(ctx, func(doc *document) error {
		out = doc.Motels
		return nil
	})
	return out, err
}

func (r *fileVenues) GetByID(ctx context.Context, id int64) (*entities.Venue, error) {
	var out *entities.Venue
	err := r.s.read(ctx, func(doc *document) error {
		i := venueIndex(doc.Motels, id)
		if i < 0 {
			return entities.ErrVenueNotFound
		}
		out = &doc.Motels[i]
		return nil
	})
	return out, err
}

func (r *fileVenues) Create(ctx context.Context, venue *entities.Venue) error {
	return r.s.write(ctx, "venues", "create", func(doc *document) error {
		venue.ID = r.s.ids.NextUnused(func(id int64) bool { return venueIndex(doc.Motels, id) >= 0 })
		venue.Normalize()
		doc.Motels = append(doc.Motels, *venue)
		return nil
	})
}

func (r *fileVenues) Update(ctx context.Context, id int64, mutate ports.VenueMutator) (*entities.Venue, error) {
	var out entities.Venue
	err := r.s.write(ctx, "venues", "update", func(doc *document) error {
		i := venueIndex(doc.Motels, id)
		if i < 0 {
			return entities.ErrVenueNotFound
		}
		v := doc.Motels[i]
		if err := mutate(&v); err != nil {
			return err
		}
		v.ID = id
		v.Normalize()
		doc.Motels[i] = v
		out = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *fileVenues) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, "venues", "delete", func(doc *document) error {
		i := venueIndex(doc.Motels, id)
		if i < 0 {
			return entities.ErrVenueNotFound
		}
		doc.Motels = append(doc.Motels[:i], doc.Motels[i+1:]...)
		return nil
	})
}

func venueIndex(venues []entities.Venue, id int64) int {
	for i := range venues {
		if venues[i].ID == id {
			return i
		}
	}
	return -1
}

type fileSettings struct{ s *FileStore }

func (r *fileSettings) Get(ctx context.Context) (entities.Settings, error) {
	var out entities.Settings
	err := r.s.read(ctx, func(doc *document) error {
		out = doc.SiteSettings
		return nil
	})
	return out, err
}

func (r *fileSettings) Merge(ctx context.Context, patch entities.Settings) (entities.Settings, error) {
	var out entities.Settings
	err := r.s.write(ctx, "settings", "merge", func(doc *document) error {
		doc.SiteSettings = doc.SiteSettings.Merge(patch)
		out = doc.SiteSettings
		return nil
	})
	return out, err
}

type fileUsers struct{ s *FileStore }

func (r *fileUsers) List(ctx context.Context) ([]entities.User, error) {
	var out []entities.User
	err := r.s.read(ctx, func(doc *document) error {
		out = make([]entities.User, 0, len(doc.Users))
		for _, rec := range doc.Users {
			out = append(out, rec.toEntity())
		}
		return nil
	})
	return out, err
}

func (r *fileUsers) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	var out entities.User
	err := r.s.read(ctx, func(doc *document) error {
		i := userIndex(doc.Users, id)
		if i < 0 {
			return entities.ErrUserNotFound
		}
		out = doc.Users[i].toEntity()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *fileUsers) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	var out entities.User
	err := r.s.read(ctx, func(doc *document) error {
		for _, rec := range doc.Users {
			if rec.Username == username {
				out = rec.toEntity()
				return nil
			}
		}
		return entities.ErrUserNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *fileUsers) Count(ctx context.Context) (int, error) {
	var n int
	err := r.s.read(ctx, func(doc *document) error {
		n = len(doc.Users)
		return nil
	})
	return n, err
}

func (r *fileUsers) Create(ctx context.Context, user *entities.User) error {
	return r.s.write(ctx, "users", "create", func(doc *document) error {
		if usernameTaken(doc.Users, user.Username, 0) {
			return entities.ErrUsernameTaken
		}
		user.ID = r.s.ids.NextUnused(func(id int64) bool { return userIndex(doc.Users, id) >= 0 })
		doc.Users = append(doc.Users, newUserRecord(user))
		return nil
	})
}

func (r *fileUsers) Update(ctx context.Context, id int64, mutate ports.UserMutator) (*entities.User, error) {
	var out entities.User
	err := r.s.write(ctx, "users", "update", func(doc *document) error {
		i := userIndex(doc.Users, id)
		if i < 0 {
			return entities.ErrUserNotFound
		}
		u := doc.Users[i].toEntity()
		if err := mutate(&u); err != nil {
			return err
		}
		u.ID = id
		if usernameTaken(doc.Users, u.Username, id) {
			return entities.ErrUsernameTaken
		}
		doc.Users[i] = newUserRecord(&u)
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *fileUsers) Delete(ctx context.Context, id int64) error {
	return r.s.write(ctx, "users", "delete", func(doc *document) error {
		i := userIndex(doc.Users, id)
		if i < 0 {
			return entities.ErrUserNotFound
		}
		if len(doc.Users) <= 1 {
			return entities.ErrLastUser
		}
		doc.Users = append(doc.Users[:i], doc.Users[i+1:]...)
		return nil
	})
}

func (r *fileUsers) EnsureDefault(ctx context.Context, user *entities.User) (bool, error) {
	created := false
	err := r.s.write(ctx, "users", "bootstrap", func(doc *document) error {
		if len(doc.Users) > 0 {
			return errNothingToWrite
		}
		user.ID = r.s.ids.Next()
		doc.Users = append(doc.Users, newUserRecord(user))
		created = true
		return nil
	})
	if errors.Is(err, errNothingToWrite) {
		return false, nil
	}
	return created, err
}

// errNothingToWrite aborts a write without surfacing an error to the caller.
var errNothingToWrite = errors.New("nothing to write")

func userIndex(users []userRecord, id int64) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func usernameTaken(users []userRecord, username string, exceptID int64) bool {
	for _, rec := range users {
		if rec.Username == username && rec.ID != exceptID {
			return true
		}
	}
	return false
}
