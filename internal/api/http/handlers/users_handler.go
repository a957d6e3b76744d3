package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/qa327/ticket-marketplace/internal/api/dto"
	"github.com/qa327/ticket-marketplace/internal/auth"
	"github.com/qa327/ticket-marketplace/internal/service"
	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

// UsersHandler exposes account endpoints.
type UsersHandler struct {
	auth        *service.AuthService
	marketplace *service.MarketplaceService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, marketplace *service.MarketplaceService) *UsersHandler {
	return &UsersHandler{auth: authService, marketplace: marketplace}
}

// Register handles POST /auth/register. It does not log the user in.
func (h *UsersHandler) Register(c *fiber.Ctx) error {
	var req dto.UserRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.marketplace.Register(c.UserContext(), service.RegisterInput{
		Email:     req.Email,
		Name:      req.Name,
		Password:  req.Password,
		Password2: req.Password2,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{"user": dto.NewUserResponse(user)},
	})
}

// Login handles POST /auth/login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.UserLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.marketplace.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	token, err := h.auth.IssueToken(user)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"user": dto.NewUserResponse(user),
			"auth": dto.AuthResponse{Token: token.Value, ExpiresAt: token.ExpiresAt},
		},
	})
}

// Logout handles POST /auth/logout.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.auth.Logout(c.UserContext(), principal.Token); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Me handles GET /me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	profile, err := h.marketplace.Profile(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ProfileResponse{
		User:      dto.NewUserResponse(profile.User),
		Tickets:   dto.NewTicketList(profile.Tickets),
		Purchases: dto.NewPurchaseHistory(profile.Purchases),
	}})
}
