package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/iliyamo/media-catalog/internal/logging"
	"github.com/iliyamo/media-catalog/internal/model"
)

// Open connects to MongoDB and verifies the connection.  The returned
// client owns the connection pool and must be disconnected on shutdown.
func Open(ctx context.Context, uri, name string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetAppName("media-catalog").
		SetMaxPoolSize(25).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	// Ping with timeout
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, client.Database(name), nil
}

// CollectionIndexes is the set of indexes one collection relies on.
type CollectionIndexes struct {
	Collection string
	Models     []mongo.IndexModel
}

// Indexes lists the indexes the application relies on, in creation order.
func Indexes() []CollectionIndexes {
	text := bson.D{}
	for _, f := range model.CharacterTextFields {
		text = append(text, bson.E{Key: f, Value: "text"})
	}
	return []CollectionIndexes{
		{model.UsersCollection, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("username_unique"),
		}}},
		{model.CharacterKind.Collection, []mongo.IndexModel{{
			Keys:    text,
			Options: options.Index().SetName("character_text"),
		}}},
		{model.CategoryKind.Collection, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "category_name", Value: 1}},
			Options: options.Index().SetName("category_name"),
		}}},
	}
}

// Server error codes for an index that clashes with an existing one.
const (
	codeIndexOptionsConflict  = 85
	codeIndexKeySpecsConflict = 86
)

// EnsureIndexes creates the indexes from Indexes.  Databases created by
// earlier deployments may already carry a text index under another name or
// duplicate usernames; those indexes are skipped with a warning so the
// server still starts.  Any other failure is returned.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ci := range Indexes() {
		coll := db.Collection(ci.Collection)
		for _, m := range ci.Models {
			if isTextIndex(m) {
				has, err := hasTextIndex(ctx, coll)
				if err != nil {
					return fmt.Errorf("list indexes on %s: %w", ci.Collection, err)
				}
				if has {
					logging.Ctx(ctx).Info().Str("collection", ci.Collection).Msg("text index already present")
					continue
				}
			}
			if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
				if isIndexConflict(err) || mongo.IsDuplicateKeyError(err) {
					logging.Ctx(ctx).Warn().Err(err).Str("collection", ci.Collection).Msg("index not created")
					continue
				}
				return fmt.Errorf("create indexes on %s: %w", ci.Collection, err)
			}
		}
	}
	return nil
}

func isTextIndex(m mongo.IndexModel) bool {
	keys, ok := m.Keys.(bson.D)
	if !ok {
		return false
	}
	for _, k := range keys {
		if k.Value == "text" {
			return true
		}
	}
	return false
}

// hasTextIndex reports whether coll already has a text index.  MongoDB
// allows only one per collection.
func hasTextIndex(ctx context.Context, coll *mongo.Collection) (bool, error) {
	cur, err := coll.Indexes().List(ctx)
	if err != nil {
		return false, err
	}
	var specs []bson.M
	if err := cur.All(ctx, &specs); err != nil {
		return false, err
	}
	for _, spec := range specs {
		if _, ok := spec["textIndexVersion"]; ok {
			return true, nil
		}
	}
	return false, nil
}

func isIndexConflict(err error) bool {
	var se mongo.ServerError
	if !errors.As(err, &se) {
		return false
	}
	return se.HasErrorCode(codeIndexOptionsConflict) || se.HasErrorCode(codeIndexKeySpecsConflict)
}
