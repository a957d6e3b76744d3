package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

func seedUser(t *testing.T, store Store, id, email string, balance int64) *domain.User {
	t.Helper()
	user, err := domain.NewUser(id, email, "Seed User", "hash", balance)
	require.NoError(t, err)
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func seedTicket(t *testing.T, store Store, id, owner, name string, quantity int) *domain.Ticket {
	t.Helper()
	ticket, err := domain.NewTicket(id, owner, name, quantity, 50, "20991231")
	require.NoError(t, err)
	require.NoError(t, store.Tickets().Create(context.Background(), ticket))
	return ticket
}

func TestMemoryUsersUniqueEmail(t *testing.T) {
	store := NewMemoryStore()
	seedUser(t, store, "u1", "a@b.com", 5000)

	dup, err := domain.NewUser("u2", "a@b.com", "Other", "hash", 5000)
	require.NoError(t, err)
	assert.ErrorIs(t, store.Users().Create(context.Background(), dup), ErrAlreadyExists)

	_, err = store.Users().GetByEmail(context.Background(), "missing@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryAdjustBalanceGuard(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedUser(t, store, "u1", "a@b.com", 100)

	balance, err := store.Users().AdjustBalance(ctx, "u1", -40)
	require.NoError(t, err)
	assert.Equal(t, int64(60), balance)

	_, err = store.Users().AdjustBalance(ctx, "u1", -61)
	assert.ErrorIs(t, err, ErrConditionFailed)

	_, err = store.Users().AdjustBalance(ctx, "nobody", 10)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(60), user.Balance)
}

func TestMemoryTicketsQuantityGuardAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedTicket(t, store, "t-1", "u1", "first", 2)
	seedTicket(t, store, "t-2", "u1", "second", 1)

	_, err := store.Tickets().AdjustQuantity(ctx, "t-1", -3)
	assert.ErrorIs(t, err, ErrConditionFailed)

	ticket, err := store.Tickets().AdjustQuantity(ctx, "t-1", -2)
	require.NoError(t, err)
	assert.Equal(t, 0, ticket.Quantity)

	all, err := store.Tickets().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "second", all[1].Name)
}

func TestMemoryGetByNamePrefersActive(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedTicket(t, store, "t-old", "u1", "show", 1)

	dup, err := domain.NewTicket("t-dup", "u2", "show", 3, 20, "20991231")
	require.NoError(t, err)
	assert.ErrorIs(t, store.Tickets().Create(ctx, dup), ErrAlreadyExists)

	_, err = store.Tickets().AdjustQuantity(ctx, "t-old", -1)
	require.NoError(t, err)
	seedTicket(t, store, "t-new", "u2", "show", 3)

	found, err := store.Tickets().GetByName(ctx, "show")
	require.NoError(t, err)
	assert.Equal(t, "t-new", found.ID)

	_, err = store.Tickets().AdjustQuantity(ctx, "t-new", -3)
	require.NoError(t, err)
	found, err = store.Tickets().GetByName(ctx, "show")
	require.NoError(t, err)
	assert.Equal(t, "t-new", found.ID, "latest record wins when none is active")
}

func TestMemoryWithinTxRollsBack(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedUser(t, store, "u1", "a@b.com", 100)
	seedTicket(t, store, "t-1", "u2", "show", 5)

	boom := errors.New("boom")
	err := store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Users().AdjustBalance(ctx, "u1", -50); err != nil {
			return err
		}
		if _, err := tx.Tickets().AdjustQuantity(ctx, "t-1", -2); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	user, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), user.Balance)
	ticket, err := store.Tickets().GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, 5, ticket.Quantity)
}

func TestMemoryWithinTxCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	seedUser(t, store, "u1", "a@b.com", 100)

	key := "req-1"
	err := store.WithinTx(ctx, func(ctx context.Context, tx Store) error {
		if _, err := tx.Users().AdjustBalance(ctx, "u1", -25); err != nil {
			return err
		}
		return tx.Purchases().Create(ctx, &domain.Purchase{ID: "p1", BuyerID: "u1", RequestKey: &key})
	})
	require.NoError(t, err)

	user, err := store.Users().GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(75), user.Balance)

	purchase, err := store.Purchases().GetByRequestKey(ctx, "u1", key)
	require.NoError(t, err)
	assert.Equal(t, "p1", purchase.ID)

	dup := &domain.Purchase{ID: "p2", BuyerID: "u1", RequestKey: &key}
	assert.ErrorIs(t, store.Purchases().Create(ctx, dup), ErrAlreadyExists)
}
