package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/middleware"
	"github.com/sparisa0x/FinanceBuddy/internal/services"
	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

const refreshCookiePath = "/api/auth/refresh"

// Handler owns the auth HTTP surface.
type Handler struct {
	svc          services.AuthService
	validate     *validator.Validate
	cookieSecure bool
	logger       *zap.SugaredLogger
}

func NewHandler(svc services.AuthService, cookieSecure bool, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		svc:          svc,
		validate:     validator.New(),
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type registerReq struct {
	Username    string `json:"username" validate:"required,min=3"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"omitempty,min=1"`
	Otp         string `json:"otp" validate:"omitempty,len=6,numeric"`
}

func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, utils.FormatValidationErrors(err))
	}

	user, err := h.svc.Register(c.Context(), services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Otp:         req.Otp,
	})
	if err != nil {
		return h.fail(c, err)
	}

	if user.IsAdmin {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Admin registration complete"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Registration submitted for approval"})
}

type requestAdminOtpReq struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) RequestAdminOtp(c *fiber.Ctx) error {
	var req requestAdminOtpReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, utils.FormatValidationErrors(err))
	}

	if err := h.svc.RequestAdminOtp(c.Context(), req.Email); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "OTP sent to admin email"})
}

type loginReq struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=8"`
}

func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, utils.FormatValidationErrors(err))
	}

	res, err := h.svc.Login(c.Context(), req.Username, req.Password, clientMeta(c))
	if err != nil {
		return h.fail(c, err)
	}

	if res.OTPRequired {
		return c.JSON(fiber.Map{
			"otpRequired": true,
			"message":     "OTP sent to admin email",
		})
	}

	h.setAuthCookies(c, res.Tokens)
	return c.JSON(fiber.Map{"user": res.User.Public()})
}

type verifyOtpReq struct {
	Username string `json:"username" validate:"required,min=3"`
	Otp      string `json:"otp" validate:"required,len=6,numeric"`
}

func (h *Handler) VerifyOtp(c *fiber.Ctx) error {
	var req verifyOtpReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, utils.FormatValidationErrors(err))
	}

	res, err := h.svc.VerifyOtp(c.Context(), req.Username, req.Otp, clientMeta(c))
	if err != nil {
		return h.fail(c, err)
	}

	h.setAuthCookies(c, res.Tokens)
	return c.JSON(fiber.Map{"user": res.User.Public()})
}

func (h *Handler) Refresh(c *fiber.Ctx) error {
	refreshToken := c.Cookies(middleware.RefreshCookie)
	if refreshToken == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	tokens, err := h.svc.Refresh(c.Context(), refreshToken)
	if err != nil {
		// Never leave the client holding a half-valid credential.
		h.clearAuthCookies(c)
		return h.fail(c, err)
	}

	h.setAuthCookies(c, tokens)
	return c.JSON(fiber.Map{"message": "Token refreshed"})
}

func (h *Handler) Logout(c *fiber.Ctx) error {
	h.svc.Logout(c.Context(), c.Cookies(middleware.RefreshCookie))
	h.clearAuthCookies(c)
	return c.JSON(fiber.Map{"message": "Logged out"})
}

func (h *Handler) Me(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	user, err := h.svc.GetUser(c.Context(), userID)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"user": user.Public()})
}

type changePasswordReq struct {
	CurrentPassword string `json:"currentPassword" validate:"required,min=8"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) ChangePassword(c *fiber.Ctx) error {
	var req changePasswordReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, utils.FormatValidationErrors(err))
	}

	userID, _ := c.Locals(middleware.LocalUserID).(string)
	if err := h.svc.ChangePassword(c.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed"})
}

type updateProfileReq struct {
	DisplayName string `json:"displayName" validate:"required,min=1"`
}

func (h *Handler) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, utils.FormatValidationErrors(err))
	}

	userID, _ := c.Locals(middleware.LocalUserID).(string)
	if err := h.svc.UpdateDisplayName(c.Context(), userID, req.DisplayName); err != nil {
		return h.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile updated"})
}

func clientMeta(c *fiber.Ctx) services.ClientMeta {
	return services.ClientMeta{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

func (h *Handler) setAuthCookies(c *fiber.Ctx, tokens *services.TokenPair) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessCookie,
		Value:    tokens.AccessToken,
		Expires:  tokens.AccessExpiresAt,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    tokens.RefreshToken,
		Expires:  tokens.RefreshExpiresAt,
		Path:     refreshCookiePath,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func (h *Handler) clearAuthCookies(c *fiber.Ctx) {
	expired := time.Now().Add(-time.Hour)
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Expires:  expired,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
	c.Cookie(&fiber.Cookie{
		Name:     middleware.RefreshCookie,
		Value:    "",
		Expires:  expired,
		Path:     refreshCookiePath,
		HTTPOnly: true,
		Secure:   h.cookieSecure,
		SameSite: fiber.CookieSameSiteStrictMode,
	})
}

func badRequest(c *fiber.Ctx, fieldErrors []utils.ValidationError) error {
	body := fiber.Map{"message": "Invalid request"}
	if len(fieldErrors) > 0 {
		body["errors"] = fieldErrors
	}
	return c.Status(fiber.StatusBadRequest).JSON(body)
}

// fail maps service sentinels onto HTTP statuses with normalized messages.
// Security-sensitive failures share generic wording so the response does
// not reveal which check tripped.
func (h *Handler) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Username or email already in use"})
	case errors.Is(err, services.ErrOTPRequired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Admin OTP required"})
	case errors.Is(err, services.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
	case errors.Is(err, services.ErrOTPExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "OTP expired"})
	case errors.Is(err, services.ErrInvalidOTP):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid OTP"})
	case errors.Is(err, services.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	case errors.Is(err, services.ErrNotApproved):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Account not approved"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "Forbidden"})
	case errors.Is(err, services.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	case errors.Is(err, services.ErrTooManyAttempts):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"message": "Too many attempts"})
	default:
		h.logger.Errorw("unexpected handler error", "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
}
