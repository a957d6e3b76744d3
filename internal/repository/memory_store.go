package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

// MemoryStore keeps every record in process. It backs the service when no
// database is configured and is used throughout the tests.
//
// Single calls are atomic. WithinTx holds the store lock for the whole
// callback and works on a copy of the state, which replaces the live state
// only when the callback succeeds.
type MemoryStore struct {
	mu    sync.Mutex
	state *memoryState
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: newMemoryState()}
}

func (s *MemoryStore) Users() UserRepository            { return memoryUsers{scope: s} }
func (s *MemoryStore) Tickets() TicketRepository        { return memoryTickets{scope: s} }
func (s *MemoryStore) Purchases() PurchaseRepository    { return memoryPurchases{scope: s} }
func (s *MemoryStore) History() TicketHistoryRepository { return memoryHistory{scope: s} }

// WithinTx runs fn on a private copy of the state.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{state: s.state.clone()}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

func (s *MemoryStore) do(fn func(st *memoryState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

type memoryTx struct {
	state *memoryState
}

func (t *memoryTx) Users() UserRepository            { return memoryUsers{scope: t} }
func (t *memoryTx) Tickets() TicketRepository        { return memoryTickets{scope: t} }
func (t *memoryTx) Purchases() PurchaseRepository    { return memoryPurchases{scope: t} }
func (t *memoryTx) History() TicketHistoryRepository { return memoryHistory{scope: t} }

func (t *memoryTx) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, t)
}

// The owning MemoryStore already holds the lock for the transaction.
func (t *memoryTx) do(fn func(st *memoryState) error) error {
	return fn(t.state)
}

type memoryScope interface {
	do(fn func(st *memoryState) error) error
}

type memoryState struct {
	users       map[string]domain.User
	emailIndex  map[string]string
	tickets     []domain.Ticket
	ticketIndex map[string]int
	purchases   []domain.Purchase
	history     []domain.TicketHistory
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:       make(map[string]domain.User),
		emailIndex:  make(map[string]string),
		ticketIndex: make(map[string]int),
	}
}

func (st *memoryState) clone() *memoryState {
	out := &memoryState{
		users:       make(map[string]domain.User, len(st.users)),
		emailIndex:  make(map[string]string, len(st.emailIndex)),
		tickets:     append([]domain.Ticket(nil), st.tickets...),
		ticketIndex: make(map[string]int, len(st.ticketIndex)),
		purchases:   append([]domain.Purchase(nil), st.purchases...),
		history:     append([]domain.TicketHistory(nil), st.history...),
	}
	for k, v := range st.users {
		out.users[k] = v
	}
	for k, v := range st.emailIndex {
		out.emailIndex[k] = v
	}
	for k, v := range st.ticketIndex {
		out.ticketIndex[k] = v
	}
	return out
}

type memoryUsers struct {
	scope memoryScope
}

func (r memoryUsers) Create(ctx context.Context, user *domain.User) error {
	return r.scope.do(func(st *memoryState) error {
		if _, exists := st.emailIndex[user.Email]; exists {
			return ErrAlreadyExists
		}
		if _, exists := st.users[user.ID]; exists {
			return ErrAlreadyExists
		}
		now := time.Now().UTC()
		user.CreatedAt, user.UpdatedAt = now, now
		st.users[user.ID] = *user
		st.emailIndex[user.Email] = user.ID
		return nil
	})
}

func (r memoryUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var out *domain.User
	err := r.scope.do(func(st *memoryState) error {
		user, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		out = &user
		return nil
	})
	return out, err
}

func (r memoryUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var out *domain.User
	err := r.scope.do(func(st *memoryState) error {
		id, ok := st.emailIndex[email]
		if !ok {
			return ErrNotFound
		}
		user := st.users[id]
		out = &user
		return nil
	})
	return out, err
}

func (r memoryUsers) AdjustBalance(ctx context.Context, id string, delta int64) (int64, error) {
	var balance int64
	err := r.scope.do(func(st *memoryState) error {
		user, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		if user.Balance+delta < 0 {
			return ErrConditionFailed
		}
		user.Balance += delta
		user.UpdatedAt = time.Now().UTC()
		st.users[id] = user
		balance = user.Balance
		return nil
	})
	return balance, err
}

type memoryTickets struct {
	scope memoryScope
}

func (r memoryTickets) Create(ctx context.Context, ticket *domain.Ticket) error {
	return r.scope.do(func(st *memoryState) error {
		if _, exists := st.ticketIndex[ticket.ID]; exists {
			return ErrAlreadyExists
		}
		if ticket.Quantity > 0 {
			for _, existing := range st.tickets {
				if existing.Name == ticket.Name && existing.IsActive() {
					return ErrAlreadyExists
				}
			}
		}
		now := time.Now().UTC()
		ticket.CreatedAt, ticket.UpdatedAt = now, now
		st.ticketIndex[ticket.ID] = len(st.tickets)
		st.tickets = append(st.tickets, *ticket)
		return nil
	})
}

func (r memoryTickets) Update(ctx context.Context, ticket *domain.Ticket) error {
	return r.scope.do(func(st *memoryState) error {
		idx, ok := st.ticketIndex[ticket.ID]
		if !ok {
			return ErrNotFound
		}
		if ticket.Quantity > 0 {
			for i, existing := range st.tickets {
				if i != idx && existing.Name == ticket.Name && existing.IsActive() {
					return ErrAlreadyExists
				}
			}
		}
		ticket.CreatedAt = st.tickets[idx].CreatedAt
		ticket.UpdatedAt = time.Now().UTC()
		st.tickets[idx] = *ticket
		return nil
	})
}

func (r memoryTickets) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.scope.do(func(st *memoryState) error {
		idx, ok := st.ticketIndex[id]
		if !ok {
			return ErrNotFound
		}
		ticket := st.tickets[idx]
		out = &ticket
		return nil
	})
	return out, err
}

func (r memoryTickets) GetByName(ctx context.Context, name string) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.scope.do(func(st *memoryState) error {
		for i := len(st.tickets) - 1; i >= 0; i-- {
			if st.tickets[i].Name != name {
				continue
			}
			if out == nil || (!out.IsActive() && st.tickets[i].IsActive()) {
				ticket := st.tickets[i]
				out = &ticket
			}
		}
		if out == nil {
			return ErrNotFound
		}
		return nil
	})
	return out, err
}

func (r memoryTickets) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	err := r.scope.do(func(st *memoryState) error {
		out = append([]domain.Ticket(nil), st.tickets...)
		return nil
	})
	return out, err
}

func (r memoryTickets) AdjustQuantity(ctx context.Context, id string, delta int) (*domain.Ticket, error) {
	var out *domain.Ticket
	err := r.scope.do(func(st *memoryState) error {
		idx, ok := st.ticketIndex[id]
		if !ok {
			return ErrNotFound
		}
		ticket := st.tickets[idx]
		next := ticket.Quantity + delta
		if next < domain.MinTicketQuantity || next > domain.MaxTicketQuantity {
			return ErrConditionFailed
		}
		ticket.Quantity = next
		ticket.UpdatedAt = time.Now().UTC()
		st.tickets[idx] = ticket
		out = &ticket
		return nil
	})
	return out, err
}

type memoryPurchases struct {
	scope memoryScope
}

func (r memoryPurchases) Create(ctx context.Context, purchase *domain.Purchase) error {
	return r.scope.do(func(st *memoryState) error {
		if purchase.RequestKey != nil {
			for _, existing := range st.purchases {
				if existing.BuyerID == purchase.BuyerID && existing.RequestKey != nil && *existing.RequestKey == *purchase.RequestKey {
					return ErrAlreadyExists
				}
			}
		}
		purchase.CreatedAt = time.Now().UTC()
		st.purchases = append(st.purchases, *purchase)
		return nil
	})
}

func (r memoryPurchases) GetByRequestKey(ctx context.Context, buyerID, key string) (*domain.Purchase, error) {
	var out *domain.Purchase
	err := r.scope.do(func(st *memoryState) error {
		for _, existing := range st.purchases {
			if existing.BuyerID == buyerID && existing.RequestKey != nil && *existing.RequestKey == key {
				purchase := existing
				out = &purchase
				return nil
			}
		}
		return ErrNotFound
	})
	return out, err
}

func (r memoryPurchases) ListByBuyer(ctx context.Context, buyerID string) ([]domain.Purchase, error) {
	var out []domain.Purchase
	err := r.scope.do(func(st *memoryState) error {
		for _, existing := range st.purchases {
			if existing.BuyerID == buyerID {
				out = append(out, existing)
			}
		}
		return nil
	})
	return out, err
}

type memoryHistory struct {
	scope memoryScope
}

func (r memoryHistory) Create(ctx context.Context, history *domain.TicketHistory) error {
	return r.scope.do(func(st *memoryState) error {
		history.CreatedAt = time.Now().UTC()
		st.history = append(st.history, *history)
		return nil
	})
}

func (r memoryHistory) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	var out []domain.TicketHistory
	err := r.scope.do(func(st *memoryState) error {
		for _, entry := range st.history {
			if entry.TicketID == ticketID {
				out = append(out, entry)
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, err
}
