package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Session is one refresh-token lineage. The stored hash always matches the
// most recently issued refresh token; an older token presented after
// rotation no longer matches and is treated as replay.
type Session struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	SessionID  string             `bson:"session_id"`
	UserID     primitive.ObjectID `bson:"user_id"`
	TokenHash  string             `bson:"token_hash"`
	ExpiresAt  time.Time          `bson:"expires_at"`
	CreatedAt  time.Time          `bson:"created_at"`
	LastUsedAt *time.Time         `bson:"last_used_at,omitempty"`
	RevokedAt  *time.Time         `bson:"revoked_at,omitempty"`
	IP         string             `bson:"ip,omitempty"`
	UserAgent  string             `bson:"user_agent,omitempty"`
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

func (s *Session) Revoked() bool {
	return s.RevokedAt != nil
}
