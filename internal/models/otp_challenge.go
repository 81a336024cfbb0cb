package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OtpPurpose tags a challenge with the flow that issued it.
type OtpPurpose string

const (
	PurposeAdminRegister OtpPurpose = "admin-register"
	PurposeAdminLogin    OtpPurpose = "admin-login"
)

// MaxOtpAttempts is the ceiling after which a challenge is destroyed.
const MaxOtpAttempts = 5

// OtpChallenge is a short-lived one-time code bound to an email (registration)
// or a user id (login). Only the SHA-256 digest of the code is stored.
type OtpChallenge struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id,omitempty"`
	Email     string             `bson:"email,omitempty"`
	Purpose   OtpPurpose         `bson:"purpose"`
	CodeHash  string             `bson:"code_hash"`
	ExpiresAt time.Time          `bson:"expires_at"`
	Attempts  int                `bson:"attempts"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (c *OtpChallenge) Expired(now time.Time) bool {
	return c.ExpiresAt.Before(now)
}

func (c *OtpChallenge) AttemptsExhausted() bool {
	return c.Attempts >= MaxOtpAttempts
}

// ApprovalDecision is the closed set of admin decisions on a pending account.
type ApprovalDecision string

const (
	DecisionApprove ApprovalDecision = "approve"
	DecisionReject  ApprovalDecision = "reject"
)

func ParseApprovalDecision(s string) (ApprovalDecision, error) {
	switch ApprovalDecision(s) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	}
	return "", fmt.Errorf("unknown approval decision %q", s)
}
