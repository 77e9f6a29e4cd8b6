package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/media-catalog/internal/model"
)

// CatalogRepo stores documents of one catalog kind.  The same
// implementation serves shows, films, characters and categories; the kind
// only contributes the collection name and listing order.
type CatalogRepo[T any] struct {
	coll *mongo.Collection
	kind model.Kind[T]
}

// NewCatalogRepo binds a repository to the kind's collection in db.
func NewCatalogRepo[T any](db *mongo.Database, kind model.Kind[T]) *CatalogRepo[T] {
	return &CatalogRepo[T]{coll: db.Collection(kind.Collection), kind: kind}
}

// List returns every document, sorted ascending by the kind's sort field
// when it declares one.
func (r *CatalogRepo[T]) List(ctx context.Context) ([]T, error) {
	opts := options.Find()
	if r.kind.SortField != "" {
		opts.SetSort(bson.D{{Key: r.kind.SortField, Value: 1}})
	}
	return r.find(ctx, bson.D{}, opts)
}

// Search runs a $text query against the collection's text index.  The
// collection must have one; only characters are indexed.
func (r *CatalogRepo[T]) Search(ctx context.Context, query string) ([]T, error) {
	return r.find(ctx, bson.D{{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}}}, options.Find())
}

func (r *CatalogRepo[T]) find(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]T, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", r.kind.Collection, err)
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.kind.Collection, err)
	}
	return out, nil
}

// Get fetches one document by hex id.  It returns ErrInvalidID for
// malformed ids and ErrNotFound when nothing matches.
func (r *CatalogRepo[T]) Get(ctx context.Context, id string) (*T, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var doc T
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get %s %s: %w", r.kind.Singular, id, err)
	}
	return &doc, nil
}

// Create inserts doc and returns the store-assigned id as hex.
func (r *CatalogRepo[T]) Create(ctx context.Context, doc *T) (string, error) {
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", r.kind.Singular, err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert %s: unexpected id type %T", r.kind.Singular, res.InsertedID)
	}
	return oid.Hex(), nil
}

// Update overwrites every field of the stored document with doc's values.
// Fields tagged omitempty that are empty in doc (the id, stamps such as
// posted_by) keep their stored value.  Concurrent edits are last writer
// wins.  It returns ErrNotFound when no document has the id.
func (r *CatalogRepo[T]) Update(ctx context.Context, id string, doc *T) error {
	oid, err := parseID(id)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$set", Value: doc}})
	if err != nil {
		return fmt.Errorf("update %s %s: %w", r.kind.Singular, id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the document with id.  Deleting an id that does not exist
// is not an error; the returned flag reports whether anything was removed.
func (r *CatalogRepo[T]) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return false, fmt.Errorf("delete %s %s: %w", r.kind.Singular, id, err)
	}
	return res.DeletedCount > 0, nil
}
