// Package database opens the persistence backend selected by configuration.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/motelhub/directory/internal/adapters/repository"
	"github.com/motelhub/directory/internal/infrastructure/config"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

const (
	DriverFile  = "file"
	DriverMongo = "mongo"
)

// DB wraps the configured store
type DB struct {
	ports.Store
	driver string
}

// New opens the store named by cfg.Driver. The file driver creates its data
// file on first write; the mongo driver connects and pings before returning.
func New(ctx context.Context, cfg config.StorageConfig, log *logger.Logger, opts ...repository.Option) (*DB, error) {
	var (
		store ports.Store
		err   error
	)

	switch cfg.Driver {
	case DriverFile, "":
		store, err = repository.NewFileStore(cfg.Path, log, opts...)
	case DriverMongo:
		store, err = repository.NewMongoStore(ctx, repository.MongoConfig{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			Timeout:  cfg.MongoTimeout,
		}, log, opts...)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.Driver, err)
	}

	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}
	return &DB{Store: store, driver: driver}, nil
}

// Driver returns the name of the backend in use
func (db *DB) Driver() string {
	return db.driver
}

// HealthCheck checks the store answers within five seconds
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("store health check failed: %w", err)
	}
	return nil
}
