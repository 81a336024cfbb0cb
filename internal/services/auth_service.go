package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sparisa0x/FinanceBuddy/internal/mailer"
	"github.com/sparisa0x/FinanceBuddy/internal/metrics"
	"github.com/sparisa0x/FinanceBuddy/internal/models"
	"github.com/sparisa0x/FinanceBuddy/internal/repository"
	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

const passwordHashCost = 10

type authService struct {
	users    repository.UserRepository
	otps     repository.OtpRepository
	sessions repository.SessionRepository
	tokens   *utils.TokenManager
	mail     mailer.Mailer

	adminEmail string
	otpTTL     time.Duration
	logger     *zap.SugaredLogger
}

func NewAuthService(
	users repository.UserRepository,
	otps repository.OtpRepository,
	sessions repository.SessionRepository,
	tokens *utils.TokenManager,
	mail mailer.Mailer,
	adminEmail string,
	otpTTL time.Duration,
	logger *zap.SugaredLogger,
) AuthService {
	return &authService{
		users:      users,
		otps:       otps,
		sessions:   sessions,
		tokens:     tokens,
		mail:       mail,
		adminEmail: strings.ToLower(adminEmail),
		otpTTL:     otpTTL,
		logger:     logger,
	}
}

func (s *authService) isAdminEmail(email string) bool {
	return s.adminEmail != "" && strings.ToLower(email) == s.adminEmail
}

// Register creates a new account. Registrations with the configured admin
// email must present a valid admin-register OTP and come out pre-approved
// and admin-flagged; everyone else waits for approval.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	existing, err := s.users.FindByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", ErrInternal)
	}
	if existing != nil {
		return nil, ErrConflict
	}

	isAdmin := s.isAdminEmail(in.Email)
	if isAdmin {
		if err := s.consumeRegisterOtp(ctx, in.Email, in.Otp); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), passwordHashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", ErrInternal)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hash),
		DisplayName:  in.DisplayName,
		IsAdmin:      isAdmin,
		IsApproved:   isAdmin,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", ErrInternal)
	}
	return user, nil
}

// consumeRegisterOtp validates and destroys the outstanding admin-register
// challenge for the email. If the user creation that follows fails, the
// client must request a fresh code.
func (s *authService) consumeRegisterOtp(ctx context.Context, email, otp string) error {
	if otp == "" {
		return ErrOTPRequired
	}

	ch, err := s.otps.FindByEmail(ctx, email, models.PurposeAdminRegister)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrOTPExpired
		}
		return fmt.Errorf("load otp challenge: %w", ErrInternal)
	}
	return s.checkChallenge(ctx, ch, otp)
}

// checkChallenge applies expiry, attempt-ceiling and digest checks in that
// order, destroying the challenge on success, expiry and exhaustion.
func (s *authService) checkChallenge(ctx context.Context, ch *models.OtpChallenge, otp string) error {
	now := time.Now()
	if ch.Expired(now) {
		_ = s.otps.Delete(ctx, ch.ID)
		metrics.OtpRejected.Inc()
		return ErrOTPExpired
	}
	if ch.AttemptsExhausted() {
		_ = s.otps.Delete(ctx, ch.ID)
		metrics.OtpRejected.Inc()
		return ErrTooManyAttempts
	}
	if utils.HashOTP(otp) != ch.CodeHash {
		if _, err := s.otps.IncrementAttempts(ctx, ch.ID); err != nil {
			s.logger.Warnw("otp attempt increment failed", "error", err)
		}
		metrics.OtpRejected.Inc()
		return ErrInvalidOTP
	}
	if err := s.otps.Delete(ctx, ch.ID); err != nil {
		return fmt.Errorf("consume otp challenge: %w", ErrInternal)
	}
	return nil
}

// RequestAdminOtp issues an admin-register challenge for the configured
// admin address and emails the code. Email is the only delivery path, so a
// mailer failure fails the request.
func (s *authService) RequestAdminOtp(ctx context.Context, email string) error {
	if !s.isAdminEmail(email) {
		return ErrForbidden
	}

	code := utils.GenerateOTP()
	ch := &models.OtpChallenge{
		Email:     strings.ToLower(email),
		Purpose:   models.PurposeAdminRegister,
		CodeHash:  utils.HashOTP(code),
		ExpiresAt: time.Now().Add(s.otpTTL),
	}
	if err := s.otps.Replace(ctx, ch); err != nil {
		return fmt.Errorf("store otp challenge: %w", ErrInternal)
	}

	if err := s.mail.SendOtpEmail(ctx, email, code, s.otpTTL); err != nil {
		s.logger.Errorw("otp email dispatch failed", "error", err)
		return fmt.Errorf("send otp email: %w", ErrInternal)
	}
	metrics.OtpIssued.Inc()
	return nil
}

// Login checks credentials. Admins get an admin-login OTP challenge and no
// session; everyone else gets a session and token pair immediately.
func (s *authService) Login(ctx context.Context, username, password string, meta ClientMeta) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.LoginFailure.Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", ErrInternal)
	}

	if !user.IsApproved || !user.IsActive {
		metrics.LoginFailure.Inc()
		return nil, ErrNotApproved
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginFailure.Inc()
		return nil, ErrInvalidCredentials
	}

	if user.IsAdmin {
		if err := s.issueLoginOtp(ctx, user); err != nil {
			return nil, err
		}
		return &LoginResult{OTPRequired: true, User: user}, nil
	}

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	metrics.LoginSuccess.Inc()
	return &LoginResult{User: user, Tokens: tokens}, nil
}

func (s *authService) issueLoginOtp(ctx context.Context, user *models.User) error {
	code := utils.GenerateOTP()
	ch := &models.OtpChallenge{
		UserID:    user.ID,
		Purpose:   models.PurposeAdminLogin,
		CodeHash:  utils.HashOTP(code),
		ExpiresAt: time.Now().Add(s.otpTTL),
	}
	if err := s.otps.Replace(ctx, ch); err != nil {
		return fmt.Errorf("store login otp: %w", ErrInternal)
	}
	if err := s.mail.SendOtpEmail(ctx, user.Email, code, s.otpTTL); err != nil {
		s.logger.Errorw("login otp email dispatch failed", "user", user.Username, "error", err)
		return fmt.Errorf("send otp email: %w", ErrInternal)
	}
	metrics.OtpIssued.Inc()
	return nil
}

// VerifyOtp completes an admin login: the challenge is consumed and a
// session is issued exactly as for a non-admin login.
func (s *authService) VerifyOtp(ctx context.Context, username, otp string, meta ClientMeta) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", ErrInternal)
	}
	if !user.IsAdmin {
		return nil, ErrUnauthorized
	}
	if !user.IsApproved || !user.IsActive {
		return nil, ErrNotApproved
	}

	ch, err := s.otps.FindByUser(ctx, user.ID, models.PurposeAdminLogin)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOTPExpired
		}
		return nil, fmt.Errorf("load otp challenge: %w", ErrInternal)
	}
	if err := s.checkChallenge(ctx, ch, otp); err != nil {
		return nil, err
	}

	tokens, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, err
	}
	metrics.LoginSuccess.Inc()
	return &LoginResult{User: user, Tokens: tokens}, nil
}

// issueSession creates a fresh session record and mints both tokens. Only
// the refresh token's digest is persisted.
func (s *authService) issueSession(ctx context.Context, user *models.User, meta ClientMeta) (*TokenPair, error) {
	sessionID := uuid.NewString()

	refreshToken, refreshExp, err := s.tokens.GenerateRefreshToken(user.ID.Hex(), sessionID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", ErrInternal)
	}

	session := &models.Session{
		SessionID: sessionID,
		UserID:    user.ID,
		TokenHash: utils.HashToken(refreshToken),
		ExpiresAt: refreshExp.UTC(),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", ErrInternal)
	}

	accessToken, accessExp, err := s.tokens.GenerateAccessToken(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", ErrInternal)
	}

	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh rotates the refresh token for an existing session and issues a
// fresh access token. A token whose digest no longer matches the session's
// stored hash is treated as replay of a pre-rotation token and rejected.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrUnauthorized
	}

	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, ErrUnauthorized
	}

	session, err := s.sessions.FindByIDAndUser(ctx, claims.SessionID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find session: %w", ErrInternal)
	}
	if session.Revoked() {
		return nil, ErrUnauthorized
	}
	if session.Expired(time.Now()) {
		_ = s.sessions.Delete(ctx, session.SessionID)
		return nil, ErrUnauthorized
	}
	if utils.HashToken(refreshToken) != session.TokenHash {
		metrics.RefreshReplays.Inc()
		s.logger.Warnw("refresh token hash mismatch", "session_id", session.SessionID)
		return nil, ErrUnauthorized
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", ErrInternal)
	}
	if !user.IsActive {
		return nil, ErrUnauthorized
	}

	newRefreshToken, refreshExp, err := s.tokens.GenerateRefreshToken(user.ID.Hex(), session.SessionID)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", ErrInternal)
	}
	if err := s.sessions.Rotate(ctx, session.SessionID, utils.HashToken(newRefreshToken), time.Now()); err != nil {
		return nil, fmt.Errorf("rotate session: %w", ErrInternal)
	}

	accessToken, accessExp, err := s.tokens.GenerateAccessToken(user.ID.Hex(), user.IsAdmin)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", ErrInternal)
	}

	metrics.TokenRefreshes.Inc()
	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     newRefreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Logout deletes the session named by the presented refresh token.
// Verification failures are ignored so logout always succeeds.
func (s *authService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return
	}
	userID, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return
	}
	if err := s.sessions.DeleteByIDAndUser(ctx, claims.SessionID, userID); err != nil {
		s.logger.Warnw("session delete on logout failed", "session_id", claims.SessionID, "error", err)
	}
}

func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.users.FindByID(ctx, oid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("find user: %w", ErrInternal)
	}
	return user, nil
}

func (s *authService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), passwordHashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", ErrInternal)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", ErrInternal)
	}
	return nil
}

func (s *authService) UpdateDisplayName(ctx context.Context, userID, displayName string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.users.UpdateDisplayName(ctx, user.ID, displayName); err != nil {
		return fmt.Errorf("update display name: %w", ErrInternal)
	}
	return nil
}
