package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore serves repositories from a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PostgresStore)(nil)

// NewPostgresStore wraps the pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Users() UserRepository            { return NewUserRepository(s.pool) }
func (s *PostgresStore) Tickets() TicketRepository        { return NewTicketRepository(s.pool) }
func (s *PostgresStore) Purchases() PurchaseRepository    { return NewPurchaseRepository(s.pool) }
func (s *PostgresStore) History() TicketHistoryRepository { return NewTicketHistoryRepository(s.pool) }

// WithinTx opens a read-committed transaction. Reads inside it lock the rows
// they return, and guarded updates take row locks, so operations on the same
// user or ticket serialize.
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxStore{tx: tx})
	})
}

type pgTxStore struct {
	tx pgx.Tx
}

func (s *pgTxStore) Users() UserRepository {
	return &userRepository{db: s.tx, lock: true}
}

func (s *pgTxStore) Tickets() TicketRepository {
	return &ticketRepository{db: s.tx, lock: true}
}

func (s *pgTxStore) Purchases() PurchaseRepository    { return NewPurchaseRepository(s.tx) }
func (s *pgTxStore) History() TicketHistoryRepository { return NewTicketHistoryRepository(s.tx) }

// WithinTx reuses the open transaction.
func (s *pgTxStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, s)
}
