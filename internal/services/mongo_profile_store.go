package services

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petjoyful/profile-service/internal/apperror"
	"github.com/petjoyful/profile-service/internal/config"
	"github.com/petjoyful/profile-service/internal/models"
)

const profilesCollection = "profiles"

type MongoProfileStore struct {
	client *mongo.Client
	col    *mongo.Collection
	now    func() time.Time
}

// NewMongoProfileStore connects, pings and makes sure the profile indexes exist.
func NewMongoProfileStore(ctx context.Context, cfg config.MongoConfig) (*MongoProfileStore, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "mongo connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "mongo ping")
	}

	store := &MongoProfileStore{
		client: client,
		col:    client.Database(cfg.Database).Collection(profilesCollection),
		now:    time.Now,
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return store, nil
}

// NewMongoProfileStoreFromCollection wraps an existing collection. Close is a no-op.
func NewMongoProfileStoreFromCollection(col *mongo.Collection) *MongoProfileStore {
	return &MongoProfileStore{col: col, now: time.Now}
}

// EnsureIndexes creates the unique owner index the upsert relies on, plus
// lookup indexes on email and accountType.
func (s *MongoProfileStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: models.FieldOwnerID, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("ownerId_unique"),
		},
		{
			Keys:    bson.D{{Key: models.FieldEmail, Value: 1}},
			Options: options.Index().SetName("email"),
		},
		{
			Keys:    bson.D{{Key: models.FieldAccountType, Value: 1}},
			Options: options.Index().SetName("accountType"),
		},
	})
	return errors.Wrap(err, "create profile indexes")
}

func (s *MongoProfileStore) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func (s *MongoProfileStore) FindByOwner(ctx context.Context, owner models.OwnerID) (*models.Profile, error) {
	var prof models.Profile
	err := s.col.FindOne(ctx, bson.M{models.FieldOwnerID: owner}).Decode(&prof)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperror.NotFound("profile")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find profile %s", owner)
	}
	return &prof, nil
}

func (s *MongoProfileStore) Exists(ctx context.Context, owner models.OwnerID) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := s.col.FindOne(ctx, bson.M{models.FieldOwnerID: owner}, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "check profile %s", owner)
	}
	return true, nil
}

// Upsert merges fields with $set and fills insert-only defaults with
// $setOnInsert. A path may not appear in both operators, so accountType is
// only defaulted when the caller does not set it.
func (s *MongoProfileStore) Upsert(ctx context.Context, owner models.OwnerID, fields models.FieldSet) (*models.Profile, error) {
	if owner.IsZero() {
		return nil, errors.WithStack(models.ErrEmptyOwnerID)
	}

	now := s.now().UTC()
	set := bson.M{models.FieldUpdatedAt: now}
	for key, value := range fields {
		if protectedFields[key] {
			return nil, errors.Newf("field %q is not writable", key)
		}
		set[key] = value
	}

	setOnInsert := bson.M{
		models.FieldOwnerID:   owner,
		models.FieldCreatedAt: now,
	}
	if _, ok := fields[models.FieldAccountType]; !ok {
		setOnInsert[models.FieldAccountType] = models.AccountTutor
	}

	update := bson.M{"$set": set, "$setOnInsert": setOnInsert}

	prof, err := s.findOneAndUpsert(ctx, owner, update)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent insert won the unique index; the retry matches its document.
		prof, err = s.findOneAndUpsert(ctx, owner, update)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "upsert profile %s", owner)
	}
	return prof, nil
}

func (s *MongoProfileStore) findOneAndUpsert(ctx context.Context, owner models.OwnerID, update bson.M) (*models.Profile, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var prof models.Profile
	if err := s.col.FindOneAndUpdate(ctx, bson.M{models.FieldOwnerID: owner}, update, opts).Decode(&prof); err != nil {
		return nil, err
	}
	return &prof, nil
}
