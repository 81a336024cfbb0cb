package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
)

type mongoSessionRepo struct {
	col *mongo.Collection
}

func NewMongoSessionRepo(db *mongo.Database) SessionRepository {
	col := db.Collection("sessions")
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "session_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
	})
	return &mongoSessionRepo{col: col}
}

func (r *mongoSessionRepo) Create(ctx context.Context, s *models.Session) error {
	s.CreatedAt = time.Now().UTC()
	res, err := r.col.InsertOne(ctx, s)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		s.ID = oid
	}
	return nil
}

func (r *mongoSessionRepo) FindByIDAndUser(ctx context.Context, sessionID string, userID primitive.ObjectID) (*models.Session, error) {
	var s models.Session
	err := r.col.FindOne(ctx, bson.M{"session_id": sessionID, "user_id": userID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Rotate swaps in the hash of a freshly issued refresh token for the same
// session id.
func (r *mongoSessionRepo) Rotate(ctx context.Context, sessionID, tokenHash string, usedAt time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID},
		bson.M{"$set": bson.M{"token_hash": tokenHash, "last_used_at": usedAt.UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepo) Delete(ctx context.Context, sessionID string) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"session_id": sessionID})
	return err
}

func (r *mongoSessionRepo) DeleteByIDAndUser(ctx context.Context, sessionID string, userID primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"session_id": sessionID, "user_id": userID})
	return err
}
