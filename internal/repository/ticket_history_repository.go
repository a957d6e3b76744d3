package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

const historyColumns = `id, ticket_id, actor_id, change_type, old_value, new_value, created_at`

type ticketHistoryRepository struct {
	db DBTX
}

// NewTicketHistoryRepository builds the Postgres trail repository. Entries are
// append-only; old_value and new_value are stored as JSONB.
func NewTicketHistoryRepository(db DBTX) TicketHistoryRepository {
	return &ticketHistoryRepository{db: db}
}

func (r *ticketHistoryRepository) Create(ctx context.Context, entry *domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (id, ticket_id, actor_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING created_at`
	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.TicketID, entry.ActorID, entry.ChangeType, entry.OldValue, entry.NewValue,
	).Scan(&entry.CreatedAt)
	return mapPgError(err)
}

// ListByTicket returns the trail oldest first; seq breaks ties between
// entries written in the same transaction.
func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+historyColumns+` FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC, seq ASC`,
		ticketID)
	if err != nil {
		return nil, mapPgError(err)
	}
	return pgx.CollectRows(rows, scanHistory)
}

func scanHistory(row pgx.CollectableRow) (domain.TicketHistory, error) {
	var entry domain.TicketHistory
	err := row.Scan(
		&entry.ID,
		&entry.TicketID,
		&entry.ActorID,
		&entry.ChangeType,
		&entry.OldValue,
		&entry.NewValue,
		&entry.CreatedAt,
	)
	return entry, err
}
