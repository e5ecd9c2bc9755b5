// internal/adapter/storage/mongo_store.go

package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"safetails/internal/config"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

// Collection names
const (
	CollectionAlerts = "alerts"
	CollectionPosts  = "posts"
	CollectionVets   = "vets"
)

// Server error codes reported when a geo query cannot be planned or the
// stored geometry cannot be indexed
var mongoSpatialCodes = []int{
	27,    // IndexNotFound
	291,   // NoQueryExecutionPlans
	16755, // Can't extract geo keys
	17007, // Unable to execute query
}

// MongoStore implements proximity queries over a MongoDB collection
type MongoStore[T record.Document] struct {
	coll *mongo.Collection
}

// NewMongoStore creates a store over the named collection
func NewMongoStore[T record.Document](db *mongo.Database, collection string) *MongoStore[T] {
	return &MongoStore[T]{
		coll: db.Collection(collection),
	}
}

// FindWithinRadius returns documents inside the circle matching the criteria
func (s *MongoStore[T]) FindWithinRadius(ctx context.Context, circle proximity.Circle, criteria proximity.Criteria) ([]T, int64, error) {
	return s.find(ctx, mongoFilter(&circle, criteria.Conditions), criteria)
}

// Find returns documents matching the criteria
func (s *MongoStore[T]) Find(ctx context.Context, criteria proximity.Criteria) ([]T, int64, error) {
	return s.find(ctx, mongoFilter(nil, criteria.Conditions), criteria)
}

func (s *MongoStore[T]) find(ctx context.Context, filter bson.D, criteria proximity.Criteria) ([]T, int64, error) {
	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, classifyMongoError(fmt.Errorf("error counting %s: %w", s.coll.Name(), err))
	}

	cursor, err := s.coll.Aggregate(ctx, mongoPipeline(filter, criteria))
	if err != nil {
		return nil, 0, classifyMongoError(fmt.Errorf("error querying %s: %w", s.coll.Name(), err))
	}
	defer cursor.Close(ctx)

	results := make([]T, 0)
	if err := cursor.All(ctx, &results); err != nil {
		return nil, 0, classifyMongoError(fmt.Errorf("error decoding %s: %w", s.coll.Name(), err))
	}

	return results, total, nil
}

// Insert stores documents, replacing any with the same ID
func (s *MongoStore[T]) Insert(ctx context.Context, docs ...T) error {
	for _, doc := range docs {
		_, err := s.coll.ReplaceOne(ctx,
			bson.D{{Key: record.FieldID, Value: doc.DocID()}},
			doc,
			options.Replace().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("error saving %s %s: %w", s.coll.Name(), doc.DocID(), err)
		}
	}
	return nil
}

// classifyMongoError marks geo index failures so callers can fall back
func classifyMongoError(err error) error {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return err
	}

	for _, code := range mongoSpatialCodes {
		if se.HasErrorCode(code) {
			return &proximity.SpatialError{Err: err}
		}
	}
	if se.HasErrorMessage("2dsphere") || se.HasErrorMessage("geo keys") {
		return &proximity.SpatialError{Err: err}
	}

	return err
}

// ConnectMongo opens and verifies a MongoDB connection
func ConnectMongo(ctx context.Context, cfg config.MongoConfig, logger *zap.Logger) (*mongo.Client, *mongo.Database, error) {
	start := time.Now()
	logger.Info("connecting to mongo", zap.String("uri", redactURI(cfg.URI)), zap.String("db", cfg.Database))

	dctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to mongo", zap.Duration("elapsed", time.Since(start).Round(time.Millisecond)))
	return client, client.Database(cfg.Database), nil
}

// NewMongoStores builds one store per collection
func NewMongoStores(db *mongo.Database) (*MongoStore[*record.Alert], *MongoStore[*record.Post], *MongoStore[*record.Vet]) {
	return NewMongoStore[*record.Alert](db, CollectionAlerts),
		NewMongoStore[*record.Post](db, CollectionPosts),
		NewMongoStore[*record.Vet](db, CollectionVets)
}

// mongoIndexes lists the indexes each collection needs
func mongoIndexes() map[string][]mongo.IndexModel {
	geo := mongo.IndexModel{Keys: bson.D{{Key: record.FieldLocation, Value: "2dsphere"}}}
	recent := mongo.IndexModel{Keys: bson.D{{Key: record.FieldCreatedAt, Value: -1}}}

	return map[string][]mongo.IndexModel{
		CollectionAlerts: {
			geo,
			recent,
			{Keys: bson.D{{Key: record.FieldStatus, Value: 1}, {Key: record.FieldIsActive, Value: 1}}},
		},
		CollectionPosts: {
			geo,
			recent,
			{Keys: bson.D{{Key: record.FieldPostType, Value: 1}}},
		},
		CollectionVets: {
			geo,
			{Keys: bson.D{{Key: record.FieldIsEmergencyAvailable, Value: 1}, {Key: record.FieldRating, Value: -1}}},
		},
	}
}

// EnsureMongoIndexes creates the geospatial and sort indexes.
// Every index is attempted; failures are joined into one error.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	var errs []error
	for collection, models := range mongoIndexes() {
		for _, model := range models {
			if _, err := db.Collection(collection).Indexes().CreateOne(ctx, model); err != nil {
				errs = append(errs, fmt.Errorf("%s index %v: %w", collection, model.Keys, err))
			}
		}
	}
	return errors.Join(errs...)
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
