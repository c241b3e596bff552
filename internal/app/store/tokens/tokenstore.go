package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Token is one issued bearer token. A token may be silently refreshed at most
// once: the first refresh extends expires_at and flips refreshed; after that
// the holder must sign in again.
type Token struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Token     string             `bson:"token"`
	UserID    primitive.ObjectID `bson:"user_id"`
	ExpiresAt time.Time          `bson:"expires_at"`
	Remember  bool               `bson:"remember"`
	Refreshed bool               `bson:"refreshed"`
	CreatedAt time.Time          `bson:"created_at"`
}

// Store manages bearer tokens.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("auth_tokens")}
}

// EnsureIndexes creates the token lookup index and the TTL index that reaps
// expired tokens server-side.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("idx_tokens_token").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_tokens_user"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_tokens_ttl").SetExpireAfterSeconds(0),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Issue creates a fresh token for the user with the given lifetime.
func (s *Store) Issue(ctx context.Context, userID primitive.ObjectID, ttl time.Duration, remember bool) (Token, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return Token{}, err
	}

	now := time.Now().UTC()
	tok := Token{
		ID:        primitive.NewObjectID(),
		Token:     hex.EncodeToString(raw),
		UserID:    userID,
		ExpiresAt: now.Add(ttl),
		Remember:  remember,
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, tok); err != nil {
		return Token{}, err
	}
	return tok, nil
}

// Get loads a token by its opaque value. Returns mongo.ErrNoDocuments when
// the token is unknown (or already reaped).
func (s *Store) Get(ctx context.Context, token string) (*Token, error) {
	var tok Token
	if err := s.c.FindOne(ctx, bson.M{"token": token}).Decode(&tok); err != nil {
		return nil, err
	}
	return &tok, nil
}

// Refresh extends a token's expiry once. The filter matches only tokens that
// have never been refreshed, so a second refresh of the same token returns
// mongo.ErrNoDocuments no matter how the calls interleave.
func (s *Store) Refresh(ctx context.Context, token string, ttl time.Duration) (*Token, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var tok Token
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{"token": token, "refreshed": false},
		bson.M{"$set": bson.M{
			"refreshed":  true,
			"expires_at": time.Now().UTC().Add(ttl),
		}},
		opts,
	).Decode(&tok)
	if err != nil {
		return nil, err
	}
	return &tok, nil
}

// Delete revokes one token. Deleting an unknown token is not an error.
func (s *Store) Delete(ctx context.Context, token string) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"token": token})
	return err
}

// DeleteByUser revokes every token held by a user, e.g. when the account is
// deactivated or removed.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
