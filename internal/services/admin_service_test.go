package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
)

func newAdminFixture(t *testing.T) (*fixture, AdminService) {
	t.Helper()
	f := newFixture(t)
	return f, NewAdminService(f.users, zap.NewNop().Sugar())
}

func TestListPendingShowsUnapprovedOnly(t *testing.T) {
	f, admin := newAdminFixture(t)
	f.register(t, "alice", "alice@example.com", "password123")
	bob := f.register(t, "bob", "bob@example.com", "password123")
	require.NoError(t, f.users.SetApproved(context.Background(), bob.ID))

	pending, err := admin.ListPending(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].Username)
	assert.Equal(t, "alice@example.com", pending[0].Email)
}

func TestDecideApprove(t *testing.T) {
	f, admin := newAdminFixture(t)
	u := f.register(t, "alice", "alice@example.com", "password123")

	require.NoError(t, admin.Decide(context.Background(), u.ID.Hex(), models.DecisionApprove))

	res, err := f.svc.Login(context.Background(), "alice", "password123", meta)
	require.NoError(t, err)
	assert.NotNil(t, res.Tokens)
}

func TestDecideReject(t *testing.T) {
	f, admin := newAdminFixture(t)
	u := f.register(t, "alice", "alice@example.com", "password123")

	require.NoError(t, admin.Decide(context.Background(), u.ID.Hex(), models.DecisionReject))

	_, err := f.svc.Login(context.Background(), "alice", "password123", meta)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Username is free for a fresh registration.
	f.register(t, "alice", "alice@example.com", "password123")
}

func TestDecideUnknownUser(t *testing.T) {
	_, admin := newAdminFixture(t)

	err := admin.Decide(context.Background(), primitive.NewObjectID().Hex(), models.DecisionApprove)
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = admin.Decide(context.Background(), "not-an-object-id", models.DecisionApprove)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestParseApprovalDecision(t *testing.T) {
	d, err := models.ParseApprovalDecision("approve")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionApprove, d)

	d, err = models.ParseApprovalDecision("reject")
	require.NoError(t, err)
	assert.Equal(t, models.DecisionReject, d)

	_, err = models.ParseApprovalDecision("ban")
	assert.Error(t, err)
}
