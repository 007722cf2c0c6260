package ports

import (
	"context"

	"github.com/motelhub/directory/internal/domain/entities"
)

// VenueMutator edits a venue in place inside a store transaction. Returning an
// error aborts the write.
type VenueMutator func(venue *entities.Venue) error

// UserMutator edits a user in place inside a store transaction.
type UserMutator func(user *entities.User) error

// VenueRepository defines the interface for venue data operations.
// Rooms are embedded in their venue and change through Update.
type VenueRepository interface {
	List(ctx context.Context) ([]entities.Venue, error)
	GetByID(ctx context.Context, id int64) (*entities.Venue, error)
	// Create assigns a fresh id to venue and persists it.
	Create(ctx context.Context, venue *entities.Venue) error
	// Update applies mutate atomically to the stored venue and returns the result.
	Update(ctx context.Context, id int64, mutate VenueMutator) (*entities.Venue, error)
	Delete(ctx context.Context, id int64) error
}

// SettingsRepository defines the interface for the site settings singleton
type SettingsRepository interface {
	Get(ctx context.Context) (entities.Settings, error)
	// Merge shallow-merges patch over the stored settings and returns the result.
	Merge(ctx context.Context, patch entities.Settings) (entities.Settings, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	List(ctx context.Context) ([]entities.User, error)
	GetByID(ctx context.Context, id int64) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	Count(ctx context.Context) (int, error)
	// Create assigns a fresh id and fails with ErrUsernameTaken on duplicates.
	Create(ctx context.Context, user *entities.User) error
	// Update applies mutate atomically; a username change that collides fails with ErrUsernameTaken.
	Update(ctx context.Context, id int64, mutate UserMutator) (*entities.User, error)
	// Delete fails with ErrLastUser when id is the only remaining user.
	Delete(ctx context.Context, id int64) error
	// EnsureDefault persists user only when no user exists and reports whether it did.
	EnsureDefault(ctx context.Context, user *entities.User) (bool, error)
}

// Store bundles the repositories of one backend
type Store interface {
	Venues() VenueRepository
	Settings() SettingsRepository
	Users() UserRepository
	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ImageHost stores image binaries outside the directory store
type ImageHost interface {
	Upload(ctx context.Context, upload ImageUpload) (*entities.Image, error)
	// Delete fails with ErrImageNotFound when the host has no such object.
	Delete(ctx context.Context, publicID string) error
}

// ImageUpload is one prepared image ready for the host
type ImageUpload struct {
	Folder      string
	Filename    string
	ContentType string
	Data        []byte
}
