package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/middleware"
	"github.com/sparisa0x/FinanceBuddy/internal/models"
	"github.com/sparisa0x/FinanceBuddy/internal/services"
	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

// stubAuthService lets each test pin just the calls it cares about.
type stubAuthService struct {
	registerFn  func(services.RegisterInput) (*models.User, error)
	loginFn     func(username, password string) (*services.LoginResult, error)
	verifyOtpFn func(username, otp string) (*services.LoginResult, error)
	refreshFn   func(token string) (*services.TokenPair, error)
	logoutCalls int
	getUserFn   func(userID string) (*models.User, error)
}

func (s *stubAuthService) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	return s.registerFn(in)
}

func (s *stubAuthService) RequestAdminOtp(_ context.Context, email string) error {
	return nil
}

func (s *stubAuthService) Login(_ context.Context, username, password string, _ services.ClientMeta) (*services.LoginResult, error) {
	return s.loginFn(username, password)
}

func (s *stubAuthService) VerifyOtp(_ context.Context, username, otp string, _ services.ClientMeta) (*services.LoginResult, error) {
	return s.verifyOtpFn(username, otp)
}

func (s *stubAuthService) Refresh(_ context.Context, token string) (*services.TokenPair, error) {
	return s.refreshFn(token)
}

func (s *stubAuthService) Logout(_ context.Context, _ string) {
	s.logoutCalls++
}

func (s *stubAuthService) GetUser(_ context.Context, userID string) (*models.User, error) {
	return s.getUserFn(userID)
}

func (s *stubAuthService) ChangePassword(_ context.Context, _, _, _ string) error {
	return nil
}

func (s *stubAuthService) UpdateDisplayName(_ context.Context, _, _ string) error {
	return nil
}

func newTestApp(svc services.AuthService) *fiber.App {
	h := NewHandler(svc, false, zap.NewNop().Sugar())
	app := fiber.New()
	app.Post("/api/auth/register", h.Register)
	app.Post("/api/auth/login", h.Login)
	app.Post("/api/auth/verify-otp", h.VerifyOtp)
	app.Post("/api/auth/refresh", h.Refresh)
	app.Post("/api/auth/logout", h.Logout)
	return app
}

func postJSON(t *testing.T, app *fiber.App, path string, body any, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, ck := range resp.Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	return nil
}

func testUser() *models.User {
	return &models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		IsActive: true,
	}
}

func testTokens() *services.TokenPair {
	return &services.TokenPair{
		AccessToken:      "access-token",
		AccessExpiresAt:  time.Now().Add(15 * time.Minute),
		RefreshToken:     "refresh-token",
		RefreshExpiresAt: time.Now().Add(7 * 24 * time.Hour),
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(&stubAuthService{})

	resp := postJSON(t, app, "/api/auth/register", fiber.Map{
		"username": "al",
		"email":    "not-an-email",
		"password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "Invalid request", body["message"])
	assert.NotEmpty(t, body["errors"])
}

func TestRegisterConflictMapsTo409(t *testing.T) {
	app := newTestApp(&stubAuthService{
		registerFn: func(services.RegisterInput) (*models.User, error) {
			return nil, services.ErrConflict
		},
	})

	resp := postJSON(t, app, "/api/auth/register", fiber.Map{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRegisterAdminOtpRequiredMapsTo400(t *testing.T) {
	app := newTestApp(&stubAuthService{
		registerFn: func(services.RegisterInput) (*models.User, error) {
			return nil, services.ErrOTPRequired
		},
	})

	resp := postJSON(t, app, "/api/auth/register", fiber.Map{
		"username": "root",
		"email":    "admin@financebuddy.local",
		"password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginSetsCookies(t *testing.T) {
	user := testUser()
	app := newTestApp(&stubAuthService{
		loginFn: func(username, password string) (*services.LoginResult, error) {
			return &services.LoginResult{User: user, Tokens: testTokens()}, nil
		},
	})

	resp := postJSON(t, app, "/api/auth/login", fiber.Map{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	access := cookieByName(resp, middleware.AccessCookie)
	require.NotNil(t, access)
	assert.Equal(t, "access-token", access.Value)
	assert.Equal(t, "/", access.Path)
	assert.True(t, access.HttpOnly)

	refresh := cookieByName(resp, middleware.RefreshCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-token", refresh.Value)
	assert.Equal(t, "/api/auth/refresh", refresh.Path)
	assert.True(t, refresh.HttpOnly)

	body := decodeBody(t, resp)
	u, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", u["username"])
	assert.NotContains(t, u, "password_hash")
}

func TestLoginOtpRequiredSetsNoCookies(t *testing.T) {
	app := newTestApp(&stubAuthService{
		loginFn: func(username, password string) (*services.LoginResult, error) {
			return &services.LoginResult{OTPRequired: true, User: testUser()}, nil
		},
	})

	resp := postJSON(t, app, "/api/auth/login", fiber.Map{
		"username": "root",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies())

	body := decodeBody(t, resp)
	assert.Equal(t, true, body["otpRequired"])
}

func TestLoginFailureStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrInvalidCredentials, http.StatusUnauthorized},
		{services.ErrNotApproved, http.StatusForbidden},
		{services.ErrInternal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		app := newTestApp(&stubAuthService{
			loginFn: func(username, password string) (*services.LoginResult, error) {
				return nil, tc.err
			},
		})
		resp := postJSON(t, app, "/api/auth/login", fiber.Map{
			"username": "alice",
			"password": "password123",
		})
		assert.Equal(t, tc.status, resp.StatusCode)
	}
}

func TestVerifyOtpStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{services.ErrInvalidOTP, http.StatusUnauthorized},
		{services.ErrOTPExpired, http.StatusUnauthorized},
		{services.ErrTooManyAttempts, http.StatusTooManyRequests},
	}
	for _, tc := range cases {
		app := newTestApp(&stubAuthService{
			verifyOtpFn: func(username, otp string) (*services.LoginResult, error) {
				return nil, tc.err
			},
		})
		resp := postJSON(t, app, "/api/auth/verify-otp", fiber.Map{
			"username": "root",
			"otp":      "123456",
		})
		assert.Equal(t, tc.status, resp.StatusCode)
	}
}

func TestVerifyOtpValidation(t *testing.T) {
	app := newTestApp(&stubAuthService{})

	resp := postJSON(t, app, "/api/auth/verify-otp", fiber.Map{
		"username": "root",
		"otp":      "12ab56",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRefreshWithoutCookie(t *testing.T) {
	app := newTestApp(&stubAuthService{})

	resp := postJSON(t, app, "/api/auth/refresh", fiber.Map{})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshFailureClearsCookies(t *testing.T) {
	app := newTestApp(&stubAuthService{
		refreshFn: func(token string) (*services.TokenPair, error) {
			return nil, services.ErrUnauthorized
		},
	})

	resp := postJSON(t, app, "/api/auth/refresh", fiber.Map{},
		&http.Cookie{Name: middleware.RefreshCookie, Value: "stale-token"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	access := cookieByName(resp, middleware.AccessCookie)
	require.NotNil(t, access)
	assert.Empty(t, access.Value)
	refresh := cookieByName(resp, middleware.RefreshCookie)
	require.NotNil(t, refresh)
	assert.Empty(t, refresh.Value)
}

func TestRefreshSuccessRotatesCookies(t *testing.T) {
	app := newTestApp(&stubAuthService{
		refreshFn: func(token string) (*services.TokenPair, error) {
			assert.Equal(t, "old-token", token)
			return testTokens(), nil
		},
	})

	resp := postJSON(t, app, "/api/auth/refresh", fiber.Map{},
		&http.Cookie{Name: middleware.RefreshCookie, Value: "old-token"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	refresh := cookieByName(resp, middleware.RefreshCookie)
	require.NotNil(t, refresh)
	assert.Equal(t, "refresh-token", refresh.Value)
}

func TestLogoutAlwaysSucceeds(t *testing.T) {
	svc := &stubAuthService{}
	app := newTestApp(svc)

	resp := postJSON(t, app, "/api/auth/logout", fiber.Map{},
		&http.Cookie{Name: middleware.RefreshCookie, Value: "whatever"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// No cookie at all is still a 200.
	resp = postJSON(t, app, "/api/auth/logout", fiber.Map{})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, svc.logoutCalls)

	refresh := cookieByName(resp, middleware.RefreshCookie)
	require.NotNil(t, refresh)
	assert.Empty(t, refresh.Value)
}

func TestMeRequiresValidToken(t *testing.T) {
	user := testUser()
	svc := &stubAuthService{
		getUserFn: func(userID string) (*models.User, error) {
			assert.Equal(t, user.ID.Hex(), userID)
			return user, nil
		},
	}
	h := NewHandler(svc, false, zap.NewNop().Sugar())
	tokens := utils.NewTokenManager("a", "r", time.Minute, time.Hour)

	app := fiber.New()
	app.Get("/api/auth/me", middleware.RequireAuth(tokens), h.Me)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	access, _, err := tokens.GenerateAccessToken(user.ID.Hex(), false)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: access})
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	u, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "alice", u["username"])
}
