package services

import (
	"context"
	"errors"
	"time"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
)

var (
	ErrConflict           = errors.New("username or email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotApproved        = errors.New("account not approved")
	ErrForbidden          = errors.New("forbidden")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrOTPRequired        = errors.New("admin otp required")
	ErrOTPExpired         = errors.New("otp expired")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrUserNotFound       = errors.New("user not found")
	ErrInternal           = errors.New("internal server error")
)

// TokenPair is an issued access/refresh token couple with cookie expiries.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// LoginResult is the outcome of a credential check: either a token pair,
// or an indication that an OTP gate must be passed first.
type LoginResult struct {
	OTPRequired bool
	User        *models.User
	Tokens      *TokenPair
}

// RegisterInput carries a registration request into the lifecycle
// controller. Otp is only consulted for the configured admin email.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Otp         string
}

// ClientMeta is recorded on new sessions.
type ClientMeta struct {
	IP        string
	UserAgent string
}

// AuthService orchestrates the account lifecycle:
// register -> (otp gate) -> approval -> login -> (otp gate for admins) ->
// session issuance -> refresh -> logout.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	RequestAdminOtp(ctx context.Context, email string) error
	Login(ctx context.Context, username, password string, meta ClientMeta) (*LoginResult, error)
	VerifyOtp(ctx context.Context, username, otp string, meta ClientMeta) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error
	UpdateDisplayName(ctx context.Context, userID, displayName string) error
}

// AdminService is the approval gate over pending registrations.
type AdminService interface {
	ListPending(ctx context.Context) ([]models.PendingUser, error)
	Decide(ctx context.Context, userID string, decision models.ApprovalDecision) error
}
