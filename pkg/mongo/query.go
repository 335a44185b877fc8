package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fairgo/ai-ivr/pkg/otel"
)

// QueryBuilder provides a fluent interface for MongoDB queries. Every
// terminal operation is traced as a db span.
type QueryBuilder struct {
	name       string
	collection *mongo.Collection
	filter     bson.M
	sort       bson.D
	limit      *int64
	skip       *int64
	projection bson.M
}

// NewQuery creates a new query builder for a collection
func (c *Client) NewQuery(collectionName string) *QueryBuilder {
	return &QueryBuilder{
		name:       collectionName,
		collection: c.Collection(collectionName),
		filter:     bson.M{},
		projection: bson.M{},
	}
}

// Eq adds an equality filter
func (q *QueryBuilder) Eq(field string, value interface{}) *QueryBuilder {
	q.filter[field] = value
	return q
}

// In adds an "in" filter
func (q *QueryBuilder) In(field string, values interface{}) *QueryBuilder {
	q.filter[field] = bson.M{"$in": values}
	return q
}

// Missing matches documents where field is not set
func (q *QueryBuilder) Missing(field string) *QueryBuilder {
	q.filter[field] = bson.M{"$exists": false}
	return q
}

// Gte adds a greater than or equal filter
func (q *QueryBuilder) Gte(field string, value interface{}) *QueryBuilder {
	return q.rangeOp(field, "$gte", value)
}

// Lte adds a less than or equal filter
func (q *QueryBuilder) Lte(field string, value interface{}) *QueryBuilder {
	return q.rangeOp(field, "$lte", value)
}

func (q *QueryBuilder) rangeOp(field, op string, value interface{}) *QueryBuilder {
	if existing, ok := q.filter[field].(bson.M); ok {
		existing[op] = value
	} else {
		q.filter[field] = bson.M{op: value}
	}
	return q
}

// Select sets the projection (fields to return)
func (q *QueryBuilder) Select(fields ...string) *QueryBuilder {
	projection := bson.M{}
	for _, field := range fields {
		projection[field] = 1
	}
	q.projection = projection
	return q
}

// Limit sets the limit
func (q *QueryBuilder) Limit(limit int64) *QueryBuilder {
	q.limit = &limit
	return q
}

// Skip sets the skip value
func (q *QueryBuilder) Skip(skip int64) *QueryBuilder {
	q.skip = &skip
	return q
}

// Sort appends a sort key
func (q *QueryBuilder) Sort(field string, ascending bool) *QueryBuilder {
	direction := 1
	if !ascending {
		direction = -1
	}
	q.sort = append(q.sort, bson.E{Key: field, Value: direction})
	return q
}

// Filter returns the accumulated filter document.
func (q *QueryBuilder) Filter() bson.M {
	return q.filter
}

// Find decodes all matching documents into out, which must be a pointer to
// a slice.
func (q *QueryBuilder) Find(ctx context.Context, out interface{}) error {
	opts := options.Find()
	if q.limit != nil {
		opts.SetLimit(*q.limit)
	}
	if q.skip != nil {
		opts.SetSkip(*q.skip)
	}
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}
	if len(q.projection) > 0 {
		opts.SetProjection(q.projection)
	}

	return otel.ExecuteWithSpan(ctx, q.name, "SELECT", func(ctx context.Context) (int64, error) {
		cursor, err := q.collection.Find(ctx, q.filter, opts)
		if err != nil {
			return 0, err
		}
		defer cursor.Close(ctx)
		return 0, cursor.All(ctx, out)
	})
}

// FindOne decodes the first match into out. It reports false, with a nil
// error, when nothing matched.
func (q *QueryBuilder) FindOne(ctx context.Context, out interface{}) (bool, error) {
	opts := options.FindOne()
	if len(q.projection) > 0 {
		opts.SetProjection(q.projection)
	}
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}

	found := false
	err := otel.ExecuteWithSpan(ctx, q.name, "SELECT", func(ctx context.Context) (int64, error) {
		err := q.collection.FindOne(ctx, q.filter, opts).Decode(out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		found = true
		return 1, nil
	})
	return found, err
}

// Count returns the count of matching documents
func (q *QueryBuilder) Count(ctx context.Context) (int64, error) {
	var n int64
	err := otel.ExecuteWithSpan(ctx, q.name, "COUNT", func(ctx context.Context) (int64, error) {
		var err error
		n, err = q.collection.CountDocuments(ctx, q.filter)
		return n, err
	})
	return n, err
}

// Insert inserts a document
func (q *QueryBuilder) Insert(ctx context.Context, document interface{}) (interface{}, error) {
	var id interface{}
	err := otel.ExecuteWithSpan(ctx, q.name, "INSERT", func(ctx context.Context) (int64, error) {
		result, err := q.collection.InsertOne(ctx, document)
		if err != nil {
			return 0, err
		}
		id = result.InsertedID
		return 1, nil
	})
	return id, err
}

// UpdateOne applies $set to the first matching document
func (q *QueryBuilder) UpdateOne(ctx context.Context, update interface{}) (int64, error) {
	var modified int64
	err := otel.ExecuteWithSpan(ctx, q.name, "UPDATE", func(ctx context.Context) (int64, error) {
		result, err := q.collection.UpdateOne(ctx, q.filter, bson.M{"$set": update})
		if err != nil {
			return 0, err
		}
		modified = result.ModifiedCount
		return modified, nil
	})
	return modified, err
}

// FindOneAndUpdate applies $set to the first matching document in a single
// atomic step and decodes the document as it was before the update into
// out. It reports false, with a nil error, when nothing matched.
func (q *QueryBuilder) FindOneAndUpdate(ctx context.Context, update interface{}, out interface{}) (bool, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	if len(q.sort) > 0 {
		opts.SetSort(q.sort)
	}

	found := false
	err := otel.ExecuteWithSpan(ctx, q.name, "UPDATE", func(ctx context.Context) (int64, error) {
		err := q.collection.FindOneAndUpdate(ctx, q.filter, bson.M{"$set": update}, opts).Decode(out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		found = true
		return 1, nil
	})
	return found, err
}

// DeleteOne deletes a single matching document
func (q *QueryBuilder) DeleteOne(ctx context.Context) (int64, error) {
	var deleted int64
	err := otel.ExecuteWithSpan(ctx, q.name, "DELETE", func(ctx context.Context) (int64, error) {
		result, err := q.collection.DeleteOne(ctx, q.filter)
		if err != nil {
			return 0, err
		}
		deleted = result.DeletedCount
		return deleted, nil
	})
	return deleted, err
}

// Now returns the timestamp format stored in documents.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}
