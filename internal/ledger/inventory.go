package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/qa327/ticket-marketplace/internal/domain"
	"github.com/qa327/ticket-marketplace/internal/repository"
	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

// InventoryLedger owns ticket listings and their quantities.
type InventoryLedger struct {
	tickets repository.TicketRepository
}

// NewInventoryLedger binds the ledger to a ticket repository.
func NewInventoryLedger(tickets repository.TicketRepository) *InventoryLedger {
	return &InventoryLedger{tickets: tickets}
}

// FindByName returns the active listing for name, or the latest delisted one.
func (l *InventoryLedger) FindByName(ctx context.Context, name string) (*domain.Ticket, error) {
	ticket, err := l.tickets.GetByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewTicketNotFound(name)
	}
	if err != nil {
		return nil, storageError(err)
	}
	return ticket, nil
}

// ListAll returns every ticket in insertion order.
func (l *InventoryLedger) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := l.tickets.ListAll(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return tickets, nil
}

// Create lists a new ticket. A name can only have one active listing.
func (l *InventoryLedger) Create(ctx context.Context, ownerID, name string, quantity, price int, date string) (*domain.Ticket, error) {
	existing, err := l.tickets.GetByName(ctx, name)
	switch {
	case err == nil && existing.IsActive():
		return nil, apperrors.NewDuplicateListing(name)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, storageError(err)
	}

	ticket, err := domain.NewTicket(uuid.NewString(), ownerID, name, quantity, price, date)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := l.tickets.Create(ctx, ticket); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperrors.NewDuplicateListing(name)
		}
		return nil, storageError(err)
	}
	return ticket, nil
}

// DecrementQuantity removes amount units. It fails rather than oversell.
func (l *InventoryLedger) DecrementQuantity(ctx context.Context, ticketID string, amount int) (*domain.Ticket, error) {
	if amount <= 0 {
		return nil, apperrors.NewFieldError(apperrors.CodeQuantityRange, "quantity", "Invalid quantity of tickets")
	}
	ticket, err := l.tickets.AdjustQuantity(ctx, ticketID, -amount)
	switch {
	case err == nil:
		return ticket, nil
	case errors.Is(err, repository.ErrConditionFailed):
		current, gerr := l.tickets.GetByID(ctx, ticketID)
		if gerr != nil {
			return nil, storageError(gerr)
		}
		return nil, apperrors.NewInsufficientInventory(amount, current.Quantity)
	case errors.Is(err, repository.ErrNotFound):
		return nil, apperrors.NewTicketNotFound(ticketID)
	default:
		return nil, storageError(err)
	}
}

// Replace overwrites every field of an existing ticket.
func (l *InventoryLedger) Replace(ctx context.Context, ticketID, name string, quantity, price int, date, ownerID string) (*domain.Ticket, error) {
	current, err := l.tickets.GetByID(ctx, ticketID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewTicketNotFound(name)
	}
	if err != nil {
		return nil, storageError(err)
	}

	next := *current
	next.Name = name
	next.Quantity = quantity
	next.Price = price
	next.Date = date
	next.OwnerID = ownerID
	if err := next.CheckInvariants(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}
	if err := l.tickets.Update(ctx, &next); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NewTicketNotFound(name)
		case errors.Is(err, repository.ErrAlreadyExists):
			return nil, apperrors.NewDuplicateListing(name)
		default:
			return nil, storageError(err)
		}
	}
	return &next, nil
}
