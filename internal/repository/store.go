package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoStore implements Store for one collection. Repositories embed it and
// add their own queries.
type mongoStore[T any] struct {
	coll *mongo.Collection
}

func newMongoStore[T any](coll *mongo.Collection) mongoStore[T] {
	return mongoStore[T]{coll: coll}
}

// Create inserts doc and returns the stored document
func (s mongoStore[T]) Create(ctx context.Context, doc *T) (*T, error) {
	res, err := s.coll.InsertOne(ctx, doc)
	if err != nil {
		return nil, handleError(err)
	}

	created, err := s.FindOne(ctx, Filter{"_id": res.InsertedID})
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, handleError(fmt.Errorf("inserted document %v not found", res.InsertedID))
	}
	return created, nil
}

// FindOne returns the first match or nil
func (s mongoStore[T]) FindOne(ctx context.Context, filter Filter) (*T, error) {
	var doc T
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, handleError(err)
	}
	return &doc, nil
}

// FindByID returns the document with the given hex id or nil
func (s mongoStore[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, byID(oid))
}

// Find returns all matches ordered by creation time
func (s mongoStore[T]) Find(ctx context.Context, filter Filter) ([]T, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, handleError(err)
	}

	docs := make([]T, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, handleError(err)
	}
	return docs, nil
}

// UpdateByID applies update and reports whether a document matched
func (s mongoStore[T]) UpdateByID(ctx context.Context, id string, update Update) (bool, error) {
	oid, err := parseID(id)
	if err != nil {
		return false, err
	}

	res, err := s.coll.UpdateOne(ctx, byID(oid), update)
	if err != nil {
		return false, handleError(err)
	}
	return res.MatchedCount > 0, nil
}

func (s mongoStore[T]) DeleteOne(ctx context.Context, filter Filter) (int64, error) {
	res, err := s.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, handleError(err)
	}
	return res.DeletedCount, nil
}

func (s mongoStore[T]) DeleteMany(ctx context.Context, filter Filter) (int64, error) {
	res, err := s.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, handleError(err)
	}
	return res.DeletedCount, nil
}

func (s mongoStore[T]) Exists(ctx context.Context, filter Filter) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, handleError(err)
	}
	return n > 0, nil
}
