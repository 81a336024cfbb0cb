package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/sparisa0x/FinanceBuddy/internal/models"
	"github.com/sparisa0x/FinanceBuddy/internal/services"
	"github.com/sparisa0x/FinanceBuddy/internal/utils"
)

// AdminHandler owns the approval-gate HTTP surface.
type AdminHandler struct {
	svc      services.AdminService
	validate *validator.Validate
	logger   *zap.SugaredLogger
}

func NewAdminHandler(svc services.AdminService, logger *zap.SugaredLogger) *AdminHandler {
	return &AdminHandler{svc: svc, validate: validator.New(), logger: logger}
}

func (h *AdminHandler) PendingUsers(c *fiber.Ctx) error {
	users, err := h.svc.ListPending(c.Context())
	if err != nil {
		h.logger.Errorw("list pending users failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}
	return c.JSON(fiber.Map{"users": users})
}

type approveUserReq struct {
	UserID   string `json:"userId" validate:"required"`
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
}

func (h *AdminHandler) ApproveUser(c *fiber.Ctx) error {
	var req approveUserReq
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, nil)
	}
	if err := h.validate.Struct(req); err != nil {
		return badRequest(c, utils.FormatValidationErrors(err))
	}

	decision, err := models.ParseApprovalDecision(req.Decision)
	if err != nil {
		return badRequest(c, nil)
	}

	if err := h.svc.Decide(c.Context(), req.UserID, decision); err != nil {
		if err == services.ErrUserNotFound {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
		}
		h.logger.Errorw("approval decision failed", "user_id", req.UserID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Internal server error"})
	}

	if decision == models.DecisionReject {
		return c.JSON(fiber.Map{"message": "User rejected"})
	}
	return c.JSON(fiber.Map{"message": "User approved"})
}
