package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/domain/idgen"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	venuesCollection   = "venues"
	settingsCollection = "settings"
	usersCollection    = "users"
	settingsDocID      = "site"

	// maxUpdateAttempts bounds optimistic retries on revision conflicts
	maxUpdateAttempts = 5
)

// MongoConfig holds what the mongo store needs to connect
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MongoStore persists each venue and user as its own document. Updates are
// per-record and guarded by a revision counter.
type MongoStore struct {
	client  *mongo.Client
	db      *mongo.Database
	ids     *idgen.Generator
	logger  *logger.Logger
	metrics *storeMetrics
}

type settingsDoc struct {
	ID       string            `bson:"_id"`
	Values   entities.Settings `bson:"values"`
	Revision int64             `bson:"revision"`
}

// NewMongoStore connects, pings and prepares indexes
func NewMongoStore(ctx context.Context, cfg MongoConfig, log *logger.Logger, opts ...Option) (*MongoStore, error) {
	o := applyOptions(opts)
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(cfg.URI).
		SetTimeout(cfg.Timeout).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &MongoStore{
		client:  client,
		db:      client.Database(cfg.Database),
		ids:     o.ids,
		logger:  log.WithComponent("mongo_store"),
		metrics: o.metrics,
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("username_unique"),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}
	return nil
}

func (s *MongoStore) Venues() ports.VenueRepository      { return &mongoVenues{s: s, coll: s.db.Collection(venuesCollection)} }
func (s *MongoStore) Settings() ports.SettingsRepository { return &mongoSettings{s: s, coll: s.db.Collection(settingsCollection)} }
func (s *MongoStore) Users() ports.UserRepository        { return &mongoUsers{s: s, coll: s.db.Collection(usersCollection)} }

// Ping checks the connection to the primary
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) record(collection, op string, id interface{}, err error) {
	s.metrics.observe(collection, op, err)
	s.logger.LogStoreWrite(collection, op, id, err)
}

type mongoVenues struct {
	s    *MongoStore
	coll *mongo.Collection
}

func (r *mongoVenues) List(ctx context.Context) ([]entities.Venue, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	defer cur.Close(ctx)

	venues := []entities.Venue{}
	if err := cur.All(ctx, &venues); err != nil {
		return nil, fmt.Errorf("decode venues: %w", err)
	}
	for i := range venues {
		venues[i].Normalize()
	}
	return venues, nil
}

func (r *mongoVenues) GetByID(ctx context.Context, id int64) (*entities.Venue, error) {
	var v entities.Venue
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entities.ErrVenueNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get venue: %w", err)
	}
	v.Normalize()
	return &v, nil
}

func (r *mongoVenues) Create(ctx context.Context, venue *entities.Venue) error {
	venue.Normalize()
	venue.Revision = 0
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		venue.ID = r.s.ids.Next()
		_, err := r.coll.InsertOne(ctx, venue)
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		r.s.record(venuesCollection, "create", venue.ID, err)
		if err != nil {
			return fmt.Errorf("insert venue: %w", err)
		}
		return nil
	}
	return fmt.Errorf("insert venue: %w", entities.ErrConflict)
}

func (r *mongoVenues) Update(ctx context.Context, id int64, mutate ports.VenueMutator) (*entities.Venue, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		rev := current.Revision

		if err := mutate(current); err != nil {
			return nil, err
		}
		current.ID = id
		current.Normalize()
		current.Revision = rev + 1

		res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id, "revision": rev}, current)
		if err != nil {
			r.s.record(venuesCollection, "update", id, err)
			return nil, fmt.Errorf("replace venue: %w", err)
		}
		if res.MatchedCount == 1 {
			r.s.record(venuesCollection, "update", id, nil)
			return current, nil
		}
		r.s.logger.Debugw("Venue revision conflict, retrying", "venue_id", id, "attempt", attempt+1)
	}
	return nil, entities.ErrConflict
}

func (r *mongoVenues) Delete(ctx context.Context, id int64) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		r.s.record(venuesCollection, "delete", id, err)
		return fmt.Errorf("delete venue: %w", err)
	}
	if res.DeletedCount == 0 {
		return entities.ErrVenueNotFound
	}
	r.s.record(venuesCollection, "delete", id, nil)
	return nil
}

type mongoSettings struct {
	s    *MongoStore
	coll *mongo.Collection
}

func (r *mongoSettings) load(ctx context.Context) (*settingsDoc, error) {
	var doc settingsDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &settingsDoc{ID: settingsDocID, Values: entities.Settings{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	if doc.Values == nil {
		doc.Values = entities.Settings{}
	}
	return &doc, nil
}

func (r *mongoSettings) Get(ctx context.Context) (entities.Settings, error) {
	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Values, nil
}

func (r *mongoSettings) Merge(ctx context.Context, patch entities.Settings) (entities.Settings, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		doc, err := r.load(ctx)
		if err != nil {
			return nil, err
		}
		rev := doc.Revision
		doc.Values = doc.Values.Merge(patch)
		doc.Revision = rev + 1

		var filter bson.M
		if rev == 0 {
			filter = bson.M{"_id": settingsDocID, "$or": bson.A{bson.M{"revision": 0}, bson.M{"revision": bson.M{"$exists": false}}}}
		} else {
			filter = bson.M{"_id": settingsDocID, "revision": rev}
		}

		res, err := r.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(rev == 0))
		if mongo.IsDuplicateKeyError(err) {
			continue
		}
		if err != nil {
			r.s.record(settingsCollection, "merge", settingsDocID, err)
			return nil, fmt.Errorf("replace settings: %w", err)
		}
		if res.MatchedCount == 1 || res.UpsertedCount == 1 {
			r.s.record(settingsCollection, "merge", settingsDocID, nil)
			return doc.Values, nil
		}
	}
	return nil, entities.ErrConflict
}

type mongoUsers struct {
	s    *MongoStore
	coll *mongo.Collection
}

func (r *mongoUsers) List(ctx context.Context) ([]entities.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	users := []entities.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (*entities.User, error) {
	var u entities.User
	err := r.coll.FindOne(ctx, filter).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, entities.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (r *mongoUsers) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUsers) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUsers) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

func (r *mongoUsers) Create(ctx context.Context, user *entities.User) error {
	user.ID = r.s.ids.Next()
	_, err := r.coll.InsertOne(ctx, user)
	r.s.record(usersCollection, "create", user.ID, err)
	if mongo.IsDuplicateKeyError(err) {
		return entities.ErrUsernameTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *mongoUsers) Update(ctx context.Context, id int64, mutate ports.UserMutator) (*entities.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := mutate(u); err != nil {
		return nil, err
	}
	u.ID = id

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, u)
	r.s.record(usersCollection, "update", id, err)
	if mongo.IsDuplicateKeyError(err) {
		return nil, entities.ErrUsernameTaken
	}
	if err != nil {
		return nil, fmt.Errorf("replace user: %w", err)
	}
	if res.MatchedCount == 0 {
		return nil, entities.ErrUserNotFound
	}
	return u, nil
}

// Delete checks the last-user rule before removing. Two concurrent deletes of
// the final pair can still both pass the count on a standalone server.
func (r *mongoUsers) Delete(ctx context.Context, id int64) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if n <= 1 {
		return entities.ErrLastUser
	}

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	r.s.record(usersCollection, "delete", id, err)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return entities.ErrUserNotFound
	}
	return nil
}

func (r *mongoUsers) EnsureDefault(ctx context.Context, user *entities.User) (bool, error) {
	n, err := r.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if err := r.Create(ctx, user); err != nil {
		if errors.Is(err, entities.ErrUsernameTaken) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
