package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/gideonchrapko/template-builder/pkg/cache"
	perrors "github.com/gideonchrapko/template-builder/pkg/errors"
	"github.com/gideonchrapko/template-builder/pkg/schema"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "postergen"
	DefaultMongoCollection = "templates"
)

// MongoStore reads templates from a MongoDB collection. Each document is a
// schema.Schema keyed by its unique "family" field.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and pings the primary. An empty database
// uses DefaultMongoDatabase.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if uri == "" {
		return nil, perrors.New(perrors.ErrCodeInvalidInput, "mongo store requires a connection URI")
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	opts := options.Client().
		ApplyURI(uri).
		SetAppName("postergen").
		SetServerSelectionTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidInput, err, "mongo connect")
	}

	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, perrors.Wrap(perrors.ErrCodeNetwork, err, "mongo ping")
	}
	return NewMongoStoreFromCollection(client, client.Database(database).Collection(DefaultMongoCollection)), nil
}

// NewMongoStoreFromCollection wraps an existing collection. Close
// disconnects client.
func NewMongoStoreFromCollection(client *mongo.Client, coll *mongo.Collection) *MongoStore {
	return &MongoStore{client: client, coll: coll}
}

func (s *MongoStore) Name() string { return "mongo" }

func (s *MongoStore) Load(ctx context.Context, family string) (*schema.Schema, error) {
	if err := perrors.ValidateTemplateName(family); err != nil {
		return nil, err
	}

	var sc schema.Schema
	err := s.coll.FindOne(ctx, familyFilter(family)).Decode(&sc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(family, s.Name())
	}
	if err != nil {
		return nil, mongoError(err, "load template %s", family)
	}
	return &sc, nil
}

func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	opts := options.Find().
		SetProjection(bson.M{"family": 1, "name": 1, "variants.id": 1, "root.id": 1}).
		SetSort(bson.D{{Key: "family", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, mongoError(err, "list templates")
	}
	defer cur.Close(ctx)

	var out []Summary
	for cur.Next(ctx) {
		var doc struct {
			Family   string `bson:"family"`
			Name     string `bson:"name"`
			Root     *struct {
				ID string `bson:"id"`
			} `bson:"root"`
			Variants []struct {
				ID string `bson:"id"`
			} `bson:"variants"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeMalformedSchema, err, "decode template listing")
		}
		sum := Summary{Family: doc.Family, Name: doc.Name, Legacy: doc.Root == nil}
		for _, v := range doc.Variants {
			sum.Variants = append(sum.Variants, v.ID)
		}
		out = append(out, sum)
	}
	if err := cur.Err(); err != nil {
		return nil, mongoError(err, "list templates")
	}
	return out, nil
}

// Save inserts or replaces the template with the same family.
func (s *MongoStore) Save(ctx context.Context, sc *schema.Schema) error {
	if err := perrors.ValidateTemplateName(sc.Family); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, familyFilter(sc.Family), sc, options.Replace().SetUpsert(true))
	if err != nil {
		return mongoError(err, "save template %s", sc.Family)
	}
	return nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func familyFilter(family string) bson.M {
	return bson.M{"family": family}
}

func mongoError(err error, format string, args ...any) error {
	code := perrors.ErrCodeNetwork
	if mongo.IsTimeout(err) || errors.Is(err, context.DeadlineExceeded) {
		code = perrors.ErrCodeTimeout
	}
	return perrors.Wrap(code, err, format, args...)
}

var _ Store = (*MongoStore)(nil)
