package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

type ticketRepository struct {
	db   DBTX
	lock bool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DBTX) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, owner_id, name, quantity, price, date, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (id, owner_id, name, quantity, price, date)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.ID,
		ticket.OwnerID,
		ticket.Name,
		ticket.Quantity,
		ticket.Price,
		ticket.Date,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
	return mapPgError(err)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET owner_id=$1, name=$2, quantity=$3, price=$4, date=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		ticket.OwnerID,
		ticket.Name,
		ticket.Quantity,
		ticket.Price,
		ticket.Date,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
	return mapPgError(err)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	if r.lock {
		query += ` FOR UPDATE`
	}
	return scanTicket(r.db.QueryRow(ctx, query, id))
}

func (r *ticketRepository) GetByName(ctx context.Context, name string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE name=$1
        ORDER BY (quantity > 0) DESC, seq DESC LIMIT 1`
	if r.lock {
		query += ` FOR UPDATE`
	}
	return scanTicket(r.db.QueryRow(ctx, query, name))
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets ORDER BY seq ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Ticket, error) {
	query := `
        UPDATE tickets SET quantity = quantity + $1, updated_at = NOW()
        WHERE id = $2 AND quantity + $1 BETWEEN 0 AND 100
        RETURNING ` + ticketColumns
	ticket, err := scanTicket(r.db.QueryRow(ctx, query, delta, id))
	if err == nil {
		return ticket, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrConditionFailed
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.OwnerID,
		&ticket.Name,
		&ticket.Quantity,
		&ticket.Price,
		&ticket.Date,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, mapPgError(err)
	}
	return &ticket, nil
}
