package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
	"github.com/sparisa0x/FinanceBuddy/internal/services"
)

type stubAdminService struct {
	pending  []models.PendingUser
	decideFn func(userID string, decision models.ApprovalDecision) error
}

func (s *stubAdminService) ListPending(_ context.Context) ([]models.PendingUser, error) {
	return s.pending, nil
}

func (s *stubAdminService) Decide(_ context.Context, userID string, decision models.ApprovalDecision) error {
	return s.decideFn(userID, decision)
}

func newAdminTestApp(svc services.AdminService) *fiber.App {
	ah := NewAdminHandler(svc, zap.NewNop().Sugar())
	app := fiber.New()
	app.Get("/api/admin/pending-users", ah.PendingUsers)
	app.Post("/api/admin/approve-user", ah.ApproveUser)
	return app
}

func TestPendingUsers(t *testing.T) {
	app := newAdminTestApp(&stubAdminService{
		pending: []models.PendingUser{{Username: "alice", Email: "alice@example.com"}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/admin/pending-users", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	users, ok := body["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 1)
	u := users[0].(map[string]any)
	assert.Equal(t, "alice", u["username"])
}

func TestApproveUser(t *testing.T) {
	var gotID string
	var gotDecision models.ApprovalDecision
	app := newAdminTestApp(&stubAdminService{
		decideFn: func(userID string, decision models.ApprovalDecision) error {
			gotID = userID
			gotDecision = decision
			return nil
		},
	})

	resp := postJSON(t, app, "/api/admin/approve-user", fiber.Map{
		"userId":   "abc123",
		"decision": "approve",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "abc123", gotID)
	assert.Equal(t, models.DecisionApprove, gotDecision)
}

func TestApproveUserUnknownDecision(t *testing.T) {
	called := false
	app := newAdminTestApp(&stubAdminService{
		decideFn: func(string, models.ApprovalDecision) error {
			called = true
			return nil
		},
	})

	resp := postJSON(t, app, "/api/admin/approve-user", fiber.Map{
		"userId":   "abc123",
		"decision": "ban",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.False(t, called, "decision should be rejected before the service is called")
}

func TestApproveUserNotFound(t *testing.T) {
	app := newAdminTestApp(&stubAdminService{
		decideFn: func(string, models.ApprovalDecision) error {
			return services.ErrUserNotFound
		},
	})

	resp := postJSON(t, app, "/api/admin/approve-user", fiber.Map{
		"userId":   "abc123",
		"decision": "reject",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
