package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
)

type mongoOtpRepo struct {
	col *mongo.Collection
}

func NewMongoOtpRepo(db *mongo.Database) OtpRepository {
	col := db.Collection("otp_challenges")
	// TTL index sweeps expired challenges; the service still re-checks
	// expiry at verify time.
	_, _ = col.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "purpose", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "purpose", Value: 1}}},
	})
	return &mongoOtpRepo{col: col}
}

func (r *mongoOtpRepo) Replace(ctx context.Context, ch *models.OtpChallenge) error {
	ch.CreatedAt = time.Now().UTC()
	ch.Email = strings.ToLower(ch.Email)

	// Invalidate any prior challenge for the same identity and purpose.
	filter := bson.M{"purpose": ch.Purpose}
	if ch.Email != "" {
		filter["email"] = ch.Email
	} else {
		filter["user_id"] = ch.UserID
	}
	if _, err := r.col.DeleteMany(ctx, filter); err != nil {
		return err
	}

	res, err := r.col.InsertOne(ctx, ch)
	if err != nil {
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		ch.ID = oid
	}
	return nil
}

func (r *mongoOtpRepo) FindByEmail(ctx context.Context, email string, purpose models.OtpPurpose) (*models.OtpChallenge, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(email), "purpose": purpose})
}

func (r *mongoOtpRepo) FindByUser(ctx context.Context, userID primitive.ObjectID, purpose models.OtpPurpose) (*models.OtpChallenge, error) {
	return r.findOne(ctx, bson.M{"user_id": userID, "purpose": purpose})
}

func (r *mongoOtpRepo) findOne(ctx context.Context, filter bson.M) (*models.OtpChallenge, error) {
	var ch models.OtpChallenge
	err := r.col.FindOne(ctx, filter).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// IncrementAttempts bumps the attempt counter atomically and returns the
// post-increment value.
func (r *mongoOtpRepo) IncrementAttempts(ctx context.Context, id primitive.ObjectID) (int, error) {
	var ch models.OtpChallenge
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"attempts": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&ch)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}
	return ch.Attempts, nil
}

func (r *mongoOtpRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *mongoOtpRepo) DeleteByEmail(ctx context.Context, email string, purpose models.OtpPurpose) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"email": strings.ToLower(email), "purpose": purpose})
	return err
}

func (r *mongoOtpRepo) DeleteByUser(ctx context.Context, userID primitive.ObjectID, purpose models.OtpPurpose) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"user_id": userID, "purpose": purpose})
	return err
}
