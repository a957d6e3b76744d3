package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/qa327/ticket-marketplace/internal/api/dto"
	"github.com/qa327/ticket-marketplace/internal/auth"
	"github.com/qa327/ticket-marketplace/internal/domain"
	"github.com/qa327/ticket-marketplace/internal/service"
	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

// IdempotencyKeyHeader lets clients retry a purchase safely.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxRequestKeyLength = 128

// TicketsHandler manages marketplace ticket endpoints.
type TicketsHandler struct {
	service *service.MarketplaceService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(marketplace *service.MarketplaceService) *TicketsHandler {
	return &TicketsHandler{service: marketplace}
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.service.ListTickets(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketList(tickets)})
}

// Sell POST /tickets/sell.
func (h *TicketsHandler) Sell(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SellTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.ListTicket(c.UserContext(), user, service.ListTicketInput{
		Name:     req.Name,
		Quantity: req.Quantity,
		Price:    req.Price,
		Date:     req.Date,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Buy POST /tickets/buy.
func (h *TicketsHandler) Buy(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.BuyTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	key := strings.TrimSpace(c.Get(IdempotencyKeyHeader))
	if key == "" {
		key = strings.TrimSpace(req.RequestKey)
	}
	if len(key) > maxRequestKeyLength {
		return apperrors.NewValidationError("idempotency key too long", map[string]any{"max": maxRequestKeyLength})
	}

	result, err := h.service.PurchaseTicket(c.UserContext(), user, service.PurchaseInput{
		Name:       req.Name,
		Quantity:   req.Quantity,
		RequestKey: key,
	})
	if err != nil {
		return err
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	p := result.Purchase
	return c.Status(status).JSON(fiber.Map{"data": dto.PurchaseResponse{
		ID:             p.ID,
		Ticket:         dto.NewTicketResponse(result.Ticket),
		Quantity:       p.Quantity,
		UnitPrice:      p.UnitPrice,
		Cost:           p.Cost,
		Charged:        p.Charged,
		SellerProceeds: p.SellerProceeds,
		Balance:        result.Balance,
		RequestKey:     p.RequestKey,
		Replayed:       result.Replayed,
		CreatedAt:      p.CreatedAt,
	}})
}

// Update POST /tickets/update.
func (h *TicketsHandler) Update(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req dto.SellTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.UpdateTicket(c.UserContext(), user, service.UpdateTicketInput{
		Name:     req.Name,
		Quantity: req.Quantity,
		Price:    req.Price,
		Date:     req.Date,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// History GET /tickets/:name/history.
func (h *TicketsHandler) History(c *fiber.Ctx) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	entries, err := h.service.TicketHistory(c.UserContext(), user, c.Params("name"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketHistoryList(entries)})
}

func currentUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal.User, nil
}
