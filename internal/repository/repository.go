package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

// UserRepository is the credential store.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ListPending(ctx context.Context) ([]*models.User, error)
	SetApproved(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	UpdatePasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error
	UpdateDisplayName(ctx context.Context, id primitive.ObjectID, name string) error
}

// OtpRepository is the challenge store. Replace enforces at most one live
// challenge per (identity, purpose).
type OtpRepository interface {
	Replace(ctx context.Context, ch *models.OtpChallenge) error
	FindByEmail(ctx context.Context, email string, purpose models.OtpPurpose) (*models.OtpChallenge, error)
	FindByUser(ctx context.Context, userID primitive.ObjectID, purpose models.OtpPurpose) (*models.OtpChallenge, error)
	IncrementAttempts(ctx context.Context, id primitive.ObjectID) (int, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByEmail(ctx context.Context, email string, purpose models.OtpPurpose) error
	DeleteByUser(ctx context.Context, userID primitive.ObjectID, purpose models.OtpPurpose) error
}

// SessionRepository persists refresh-token lineages.
type SessionRepository interface {
	Create(ctx context.Context, s *models.Session) error
	FindByIDAndUser(ctx context.Context, sessionID string, userID primitive.ObjectID) (*models.Session, error)
	Rotate(ctx context.Context, sessionID, tokenHash string, usedAt time.Time) error
	Delete(ctx context.Context, sessionID string) error
	DeleteByIDAndUser(ctx context.Context, sessionID string, userID primitive.ObjectID) error
}
