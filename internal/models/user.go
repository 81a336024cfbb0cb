package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreditScores holds the bureau scores shown on the dashboard.
type CreditScores struct {
	Cibil     int       `bson:"cibil,omitempty" json:"cibil,omitempty"`
	Experian  int       `bson:"experian,omitempty" json:"experian,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updatedAt,omitempty"`
}

// User is a FinanceBuddy account. Password hash is never serialized to JSON.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	DisplayName  string             `bson:"display_name,omitempty" json:"displayName,omitempty"`
	IsAdmin      bool               `bson:"is_admin" json:"isAdmin"`
	IsApproved   bool               `bson:"is_approved" json:"isApproved"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	CreditScores *CreditScores      `bson:"credit_scores,omitempty" json:"creditScores,omitempty"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// PublicUser is the projection returned to clients after login.
type PublicUser struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	IsAdmin     bool   `json:"isAdmin"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID.Hex(),
		Username:    u.Username,
		DisplayName: u.DisplayName,
		IsAdmin:     u.IsAdmin,
	}
}

// PendingUser is the projection exposed to the admin approval queue.
// Password and role flags are deliberately absent.
type PendingUser struct {
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	Email       string `json:"email"`
}
