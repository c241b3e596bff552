package live

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// mongoSource adapts one *mongo.Collection to the Source interface, using
// change streams as the live feed.
type mongoSource struct {
	c *mongo.Collection
}

// NewMongoSource wraps a collection of db as a live Source.
func NewMongoSource(db *mongo.Database, name string) Source {
	return &mongoSource{c: db.Collection(name)}
}

func (s *mongoSource) Name() string { return s.c.Name() }

func (s *mongoSource) List(ctx context.Context) ([]bson.M, error) {
	return s.list(ctx, bson.M{})
}

func (s *mongoSource) ListWhere(ctx context.Context, field string, value any) ([]bson.M, error) {
	return s.list(ctx, bson.M{field: value})
}

func (s *mongoSource) list(ctx context.Context, filter bson.M) ([]bson.M, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.c.Name(), err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.c.Name(), err)
		}
		docs = append(docs, doc)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("cursor %s: %w", s.c.Name(), err)
	}
	return docs, nil
}

func (s *mongoSource) Watch(ctx context.Context) (Feed, error) {
	cs, err := s.c.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", s.c.Name(), err)
	}
	return &mongoFeed{cs: cs}, nil
}

func (s *mongoSource) Insert(ctx context.Context, doc bson.M) (string, error) {
	if _, ok := doc["_id"]; !ok {
		doc["_id"] = primitive.NewObjectID()
	}
	res, err := s.c.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("insert %s: %w", s.c.Name(), err)
	}
	switch id := res.InsertedID.(type) {
	case primitive.ObjectID:
		return id.Hex(), nil
	case string:
		return id, nil
	default:
		return fmt.Sprintf("%v", id), nil
	}
}

func (s *mongoSource) Merge(ctx context.Context, id string, fields bson.M) error {
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": idFilterValue(id)}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("merge %s: %w", s.c.Name(), err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoSource) Delete(ctx context.Context, id string) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": idFilterValue(id)})
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.c.Name(), err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// idFilterValue interprets id as an ObjectID hex when possible, falling back
// to the raw string for collections with fixed string identifiers.
func idFilterValue(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

type mongoFeed struct {
	cs *mongo.ChangeStream
}

func (f *mongoFeed) Next(ctx context.Context) bool { return f.cs.Next(ctx) }

func (f *mongoFeed) Err() error {
	err := f.cs.Err()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (f *mongoFeed) Close(ctx context.Context) error { return f.cs.Close(ctx) }
