package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrConditionFailed indicates a guarded update matched no row because the
// guard (non-negative balance, quantity bounds) would have been violated.
var ErrConditionFailed = errors.New("update condition not met")

// UserRepository defines persistence access for marketplace users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// AdjustBalance adds delta to the balance and returns the new value.
	// It never lets the balance go negative.
	AdjustBalance(ctx context.Context, id string, delta int64) (int64, error)
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// GetByName prefers the active listing, then the most recent record.
	GetByName(ctx context.Context, name string) (*domain.Ticket, error)
	// ListAll returns every ticket in insertion order.
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	// AdjustQuantity adds delta to the quantity, keeping it within [0, 100].
	AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Ticket, error)
}

// PurchaseRepository stores committed purchases.
type PurchaseRepository interface {
	Create(ctx context.Context, purchase *domain.Purchase) error
	GetByRequestKey(ctx context.Context, buyerID, key string) (*domain.Purchase, error)
	ListByBuyer(ctx context.Context, buyerID string) ([]domain.Purchase, error)
}

// TicketHistoryRepository stores ticket trail entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

// Store groups the repositories behind one transaction boundary.
type Store interface {
	Users() UserRepository
	Tickets() TicketRepository
	Purchases() PurchaseRepository
	History() TicketHistoryRepository
	// WithinTx runs fn against a transactional view of the store. Every write
	// made through tx is committed if fn returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

func mapPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrAlreadyExists
	}
	return err
}
