package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
	"github.com/sparisa0x/FinanceBuddy/internal/repository"
)

type adminService struct {
	users  repository.UserRepository
	logger *zap.SugaredLogger
}

func NewAdminService(users repository.UserRepository, logger *zap.SugaredLogger) AdminService {
	return &adminService{users: users, logger: logger}
}

func (s *adminService) ListPending(ctx context.Context) ([]models.PendingUser, error) {
	users, err := s.users.ListPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pending users: %w", ErrInternal)
	}
	out := make([]models.PendingUser, 0, len(users))
	for _, u := range users {
		out = append(out, models.PendingUser{
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Email:       u.Email,
		})
	}
	return out, nil
}

// Decide approves or rejects a pending account. Rejection deletes the
// record outright; there is no recovery path.
func (s *adminService) Decide(ctx context.Context, userID string, decision models.ApprovalDecision) error {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ErrUserNotFound
	}

	switch decision {
	case models.DecisionApprove:
		err = s.users.SetApproved(ctx, oid)
	case models.DecisionReject:
		err = s.users.Delete(ctx, oid)
	default:
		return fmt.Errorf("unknown decision %q: %w", decision, ErrInternal)
	}

	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("apply decision: %w", ErrInternal)
	}
	s.logger.Infow("approval decision applied", "user_id", userID, "decision", decision)
	return nil
}
