package repository

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qa327/ticket-marketplace/internal/domain"
	"github.com/qa327/ticket-marketplace/internal/persistence"
)

// Set RUN_POSTGRES_INTEGRATION=true and POSTGRES_DSN to run against a real database.
func newPostgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	if os.Getenv("RUN_POSTGRES_INTEGRATION") != "true" {
		t.Skip("RUN_POSTGRES_INTEGRATION not set")
	}
	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, persistence.RunMigrations(ctx, pool, zap.NewNop()))
	return NewPostgresStore(pool)
}

func TestPostgresGuardsAndTransactions(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	buyer, err := domain.NewUser(uuid.NewString(), uuid.NewString()[:8]+"@mail.com", "Buyer", "hash", 100)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, buyer))

	dup := *buyer
	dup.ID = uuid.NewString()
	assert.ErrorIs(t, store.Users().Create(ctx, &dup), ErrAlreadyExists)

	_, err = store.Users().AdjustBalance(ctx, buyer.ID, -101)
	assert.ErrorIs(t, err, ErrConditionFailed)
	_, err = store.Users().AdjustBalance(ctx, uuid.NewString(), 1)
	assert.ErrorIs(t, err, ErrNotFound)

	name := "pg " + uuid.NewString()[:8]
	ticket, err := domain.NewTicket(uuid.NewString(), buyer.ID, name, 2, 50, "20991231")
	require.NoError(t, err)
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	other, err := domain.NewTicket(uuid.NewString(), buyer.ID, name, 1, 50, "20991231")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Tickets().Create(ctx, other), ErrAlreadyExists)

	boom := errors.New("boom")
	err = store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Users().AdjustBalance(ctx, buyer.ID, -50); err != nil {
			return err
		}
		if _, err := tx.Tickets().AdjustQuantity(ctx, ticket.ID, -1); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := store.Users().GetByID(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.Balance)
	found, err := store.Tickets().GetByName(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Quantity)
}

func TestPostgresConcurrentDecrementsNeverOversell(t *testing.T) {
	store := newPostgresStore(t)
	ctx := context.Background()

	owner, err := domain.NewUser(uuid.NewString(), uuid.NewString()[:8]+"@mail.com", "Owner", "hash", 0)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(ctx, owner))
	ticket, err := domain.NewTicket(uuid.NewString(), owner.ID, "race "+uuid.NewString()[:8], 3, 10, "20991231")
	require.NoError(t, err)
	require.NoError(t, store.Tickets().Create(ctx, ticket))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
				if _, err := tx.Tickets().GetByID(ctx, ticket.ID); err != nil {
					return err
				}
				_, err := tx.Tickets().AdjustQuantity(ctx, ticket.ID, -1)
				return err
			})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	final, err := store.Tickets().GetByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, final.Quantity)
}
