package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/qa327/ticket-marketplace/internal/config"
	"github.com/qa327/ticket-marketplace/internal/domain"
	"github.com/qa327/ticket-marketplace/internal/events"
	"github.com/qa327/ticket-marketplace/internal/ledger"
	"github.com/qa327/ticket-marketplace/internal/repository"
	"github.com/qa327/ticket-marketplace/internal/validation"
	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

// MarketplaceService runs the marketplace operations. Every mutation happens
// inside one store transaction; events go out only after commit.
type MarketplaceService struct {
	store      repository.Store
	auth       *AuthService
	dispatcher events.Dispatcher
	logger     *zap.Logger
	rules      config.MarketplaceConfig
	now        func() time.Time
}

// MarketplaceDependencies bundles collaborators for the marketplace service.
type MarketplaceDependencies struct {
	Store      repository.Store
	Auth       *AuthService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Rules      config.MarketplaceConfig
	Clock      func() time.Time
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Email     string
	Name      string
	Password  string
	Password2 string
}

// ListTicketInput describes a new listing.
type ListTicketInput struct {
	Name     string
	Quantity int
	Price    int
	Date     string
}

// PurchaseInput describes a buy request. RequestKey is optional; a repeated
// key from the same buyer replays the first result.
type PurchaseInput struct {
	Name       string
	Quantity   int
	RequestKey string
}

// UpdateTicketInput carries the full replacement of a listing.
type UpdateTicketInput struct {
	Name     string
	Quantity int
	Price    int
	Date     string
}

// PurchaseResult is what a buyer sees after a purchase.
type PurchaseResult struct {
	Purchase *domain.Purchase
	Ticket   *domain.Ticket
	Balance  int64
	Replayed bool
}

// Profile is the caller's account, the current listings and the caller's
// own purchases.
type Profile struct {
	User      *domain.User
	Tickets   []domain.Ticket
	Purchases []domain.Purchase
}

// NewMarketplaceService constructs the service.
func NewMarketplaceService(deps MarketplaceDependencies) *MarketplaceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	rules := deps.Rules
	if rules.InitialBalance == 0 {
		rules.InitialBalance = domain.DefaultInitialBalance
	}
	if rules.ServiceFee.IsZero() {
		rules.ServiceFee = decimal.RequireFromString("1.35")
	}
	if rules.Tax.IsZero() {
		rules.Tax = decimal.RequireFromString("1.05")
	}
	return &MarketplaceService{
		store:      deps.Store,
		auth:       deps.Auth,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		rules:      rules,
		now:        clock,
	}
}

// Register creates an account with the initial balance. It does not log the
// user in.
func (s *MarketplaceService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Password != in.Password2 {
		return nil, apperrors.NewPasswordMismatch()
	}
	if err := validation.Email(in.Email); err != nil {
		return nil, err
	}
	if err := validation.Password(in.Password); err != nil {
		return nil, err
	}
	if err := validation.UserName(in.Name); err != nil {
		return nil, err
	}

	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	user, err := domain.NewUser(uuid.NewString(), in.Email, in.Name, hash, s.rules.InitialBalance)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, apperrors.NewDuplicateEmail()
		}
		s.logger.Error("register user failed", zap.Error(err))
		return nil, apperrors.NewPersistenceError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID))
	s.publishEvent(ctx, events.Event{
		Type:    events.EventUserRegistered,
		ActorID: user.ID,
		Payload: events.UserRegisteredPayload{Email: user.Email, Name: user.Name, Balance: user.Balance},
	})
	return user, nil
}

// Login checks the credential shape before looking the user up.
func (s *MarketplaceService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, apperrors.NewBlankCredentials()
	}
	if validation.Email(email) != nil || validation.Password(password) != nil {
		return nil, apperrors.NewCredentialFormat()
	}
	return s.auth.Authenticate(ctx, email, password)
}

// ListTickets returns every ticket in listing order, delisted ones included.
func (s *MarketplaceService) ListTickets(ctx context.Context) ([]domain.Ticket, error) {
	return ledger.NewInventoryLedger(s.store.Tickets()).ListAll(ctx)
}

// ListTicket puts a new ticket up for sale by caller.
func (s *MarketplaceService) ListTicket(ctx context.Context, caller *domain.User, in ListTicketInput) (*domain.Ticket, error) {
	if err := s.validateListing(in.Name, in.Quantity, in.Price, in.Date); err != nil {
		return nil, err
	}

	var ticket *domain.Ticket
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		created, err := ledger.NewInventoryLedger(tx.Tickets()).Create(ctx, caller.ID, in.Name, in.Quantity, in.Price, in.Date)
		if err != nil {
			return err
		}
		ticket = created
		return s.recordHistory(ctx, tx, created.ID, caller.ID, domain.ChangeTypeListed, nil, ticketSnapshot(created))
	})
	if err != nil {
		return nil, s.storageFailure("list ticket", err)
	}

	s.logger.Info("ticket listed",
		zap.String("ticket_id", ticket.ID),
		zap.String("owner_id", caller.ID),
		zap.Int("quantity", ticket.Quantity))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketListed,
		TicketID: ticket.ID,
		ActorID:  caller.ID,
		Payload: events.TicketListedPayload{
			Name:     ticket.Name,
			Quantity: ticket.Quantity,
			Price:    ticket.Price,
			Date:     ticket.Date,
		},
	})
	return ticket, nil
}

// PurchaseTicket buys quantity units of the named listing. The buyer is
// charged price*quantity*fee*tax rounded up to a whole unit, the seller is
// credited price*quantity, and inventory drops by quantity, all or nothing.
func (s *MarketplaceService) PurchaseTicket(ctx context.Context, caller *domain.User, in PurchaseInput) (*PurchaseResult, error) {
	if err := validation.TicketName(in.Name); err != nil {
		return nil, err
	}
	if err := validation.Quantity(in.Quantity); err != nil {
		return nil, err
	}

	var result *PurchaseResult
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if in.RequestKey != "" {
			replayed, err := s.replayPurchase(ctx, tx, caller.ID, in.RequestKey)
			if err != nil {
				return err
			}
			if replayed != nil {
				result = replayed
				return nil
			}
		}

		inventory := ledger.NewInventoryLedger(tx.Tickets())
		accounts := ledger.NewAccountLedger(tx.Users())

		ticket, err := inventory.FindByName(ctx, in.Name)
		if err != nil {
			return err
		}
		if in.Quantity > ticket.Quantity {
			return apperrors.NewInsufficientInventory(in.Quantity, ticket.Quantity)
		}

		cost := s.Cost(ticket.Price, in.Quantity)
		charged := cost.Ceil().IntPart()
		proceeds := int64(ticket.Price) * int64(in.Quantity)

		// Lock both accounts in id order so opposite trades cannot deadlock.
		balances := make(map[string]int64, 2)
		for _, id := range sortedUnique(caller.ID, ticket.OwnerID) {
			balance, err := accounts.BalanceOf(ctx, id)
			if err != nil {
				return err
			}
			balances[id] = balance
		}
		if decimal.NewFromInt(balances[caller.ID]).LessThan(cost) {
			return apperrors.NewInsufficientFunds(balances[caller.ID], cost.StringFixed(2))
		}

		buyerBalance, err := accounts.Debit(ctx, caller.ID, charged)
		if err != nil {
			return err
		}
		if _, err := accounts.Credit(ctx, ticket.OwnerID, proceeds); err != nil {
			return err
		}
		if caller.ID == ticket.OwnerID {
			buyerBalance += proceeds
		}

		updated, err := inventory.DecrementQuantity(ctx, ticket.ID, in.Quantity)
		if err != nil {
			return err
		}

		purchase := &domain.Purchase{
			ID:             uuid.NewString(),
			TicketID:       ticket.ID,
			BuyerID:        caller.ID,
			SellerID:       ticket.OwnerID,
			Quantity:       in.Quantity,
			UnitPrice:      ticket.Price,
			Cost:           cost.StringFixed(2),
			Charged:        charged,
			SellerProceeds: proceeds,
		}
		if in.RequestKey != "" {
			key := in.RequestKey
			purchase.RequestKey = &key
		}
		if err := tx.Purchases().Create(ctx, purchase); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return apperrors.NewConflict("a purchase with this idempotency key is already in progress",
					map[string]any{"request_key": in.RequestKey})
			}
			return err
		}

		err = s.recordHistory(ctx, tx, ticket.ID, caller.ID, domain.ChangeTypePurchased,
			map[string]any{"quantity": ticket.Quantity},
			map[string]any{"quantity": updated.Quantity, "purchase_id": purchase.ID, "buyer_id": caller.ID})
		if err != nil {
			return err
		}

		result = &PurchaseResult{Purchase: purchase, Ticket: updated, Balance: buyerBalance}
		return nil
	})
	if err != nil {
		return nil, s.storageFailure("purchase ticket", err)
	}

	if result.Replayed {
		s.logger.Info("purchase replayed",
			zap.String("purchase_id", result.Purchase.ID),
			zap.String("request_key", in.RequestKey))
		return result, nil
	}

	p := result.Purchase
	s.logger.Info("ticket purchased",
		zap.String("purchase_id", p.ID),
		zap.String("ticket_id", p.TicketID),
		zap.String("buyer_id", p.BuyerID),
		zap.Int("quantity", p.Quantity),
		zap.String("cost", p.Cost))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketPurchased,
		TicketID: p.TicketID,
		ActorID:  caller.ID,
		Payload: events.TicketPurchasedPayload{
			PurchaseID:     p.ID,
			Name:           result.Ticket.Name,
			SellerID:       p.SellerID,
			Quantity:       p.Quantity,
			Cost:           p.Cost,
			Charged:        p.Charged,
			SellerProceeds: p.SellerProceeds,
			Remaining:      result.Ticket.Quantity,
		},
	})
	return result, nil
}

// UpdateTicket replaces quantity, price and date of a listing owned by caller.
func (s *MarketplaceService) UpdateTicket(ctx context.Context, caller *domain.User, in UpdateTicketInput) (*domain.Ticket, error) {
	if err := s.validateListing(in.Name, in.Quantity, in.Price, in.Date); err != nil {
		return nil, err
	}

	var before, after *domain.Ticket
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		inventory := ledger.NewInventoryLedger(tx.Tickets())
		current, err := inventory.FindByName(ctx, in.Name)
		if err != nil {
			return err
		}
		if current.OwnerID != caller.ID {
			return apperrors.NewOwnershipError()
		}

		updated, err := inventory.Replace(ctx, current.ID, in.Name, in.Quantity, in.Price, in.Date, caller.ID)
		if err != nil {
			return err
		}
		before, after = current, updated
		return s.recordHistory(ctx, tx, current.ID, caller.ID, domain.ChangeTypeUpdated,
			ticketSnapshot(current), ticketSnapshot(updated))
	})
	if err != nil {
		return nil, s.storageFailure("update ticket", err)
	}

	s.logger.Info("ticket updated", zap.String("ticket_id", after.ID), zap.String("owner_id", caller.ID))
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketUpdated,
		TicketID: after.ID,
		ActorID:  caller.ID,
		Payload: events.TicketUpdatedPayload{
			Name:        after.Name,
			OldQuantity: before.Quantity,
			NewQuantity: after.Quantity,
			OldPrice:    before.Price,
			NewPrice:    after.Price,
			OldDate:     before.Date,
			NewDate:     after.Date,
		},
	})
	return after, nil
}

// Profile returns a fresh copy of caller, every ticket and caller's purchases.
func (s *MarketplaceService) Profile(ctx context.Context, caller *domain.User) (*Profile, error) {
	user, err := s.store.Users().GetByID(ctx, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	if err != nil {
		return nil, s.storageFailure("load profile", err)
	}
	tickets, err := s.ListTickets(ctx)
	if err != nil {
		return nil, err
	}
	purchases, err := s.store.Purchases().ListByBuyer(ctx, user.ID)
	if err != nil {
		return nil, s.storageFailure("load purchases", err)
	}
	return &Profile{User: user, Tickets: tickets, Purchases: purchases}, nil
}

// TicketHistory lists the trail of the named ticket. Only its owner may read it.
func (s *MarketplaceService) TicketHistory(ctx context.Context, caller *domain.User, name string) ([]domain.TicketHistory, error) {
	if err := validation.TicketName(name); err != nil {
		return nil, err
	}
	ticket, err := ledger.NewInventoryLedger(s.store.Tickets()).FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != caller.ID {
		return nil, apperrors.NewOwnershipError()
	}
	entries, err := s.store.History().ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, s.storageFailure("list ticket history", err)
	}
	return entries, nil
}

// Cost is the exact amount a buyer owes for quantity units at unitPrice.
func (s *MarketplaceService) Cost(unitPrice, quantity int) decimal.Decimal {
	return decimal.NewFromInt(int64(unitPrice)).
		Mul(decimal.NewFromInt(int64(quantity))).
		Mul(s.rules.ServiceFee).
		Mul(s.rules.Tax)
}

func (s *MarketplaceService) validateListing(name string, quantity, price int, date string) error {
	if err := validation.TicketName(name); err != nil {
		return err
	}
	if err := validation.Quantity(quantity); err != nil {
		return err
	}
	if err := validation.Price(price); err != nil {
		return err
	}
	return validation.Date(date, s.now())
}

func (s *MarketplaceService) replayPurchase(ctx context.Context, tx repository.Store, buyerID, key string) (*PurchaseResult, error) {
	purchase, err := tx.Purchases().GetByRequestKey(ctx, buyerID, key)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	ticket, err := tx.Tickets().GetByID(ctx, purchase.TicketID)
	if err != nil {
		return nil, err
	}
	balance, err := ledger.NewAccountLedger(tx.Users()).BalanceOf(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	return &PurchaseResult{Purchase: purchase, Ticket: ticket, Balance: balance, Replayed: true}, nil
}

func (s *MarketplaceService) recordHistory(ctx context.Context, tx repository.Store, ticketID, actorID string, change domain.TicketChangeType, oldValue, newValue map[string]any) error {
	return tx.History().Create(ctx, &domain.TicketHistory{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		ActorID:    actorID,
		ChangeType: change,
		OldValue:   oldValue,
		NewValue:   newValue,
	})
}

// storageFailure passes domain errors through and logs the rest as storage
// failures.
func (s *MarketplaceService) storageFailure(op string, err error) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		if domainErr.Code == apperrors.CodePersistence {
			s.logger.Error(op+" failed", zap.Error(domainErr.Err))
		}
		return err
	}
	s.logger.Error(op+" failed", zap.Error(err))
	return apperrors.NewPersistenceError(err)
}

func (s *MarketplaceService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now().UTC()
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed",
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
	}
}

func ticketSnapshot(t *domain.Ticket) map[string]any {
	return map[string]any{
		"name":     t.Name,
		"owner_id": t.OwnerID,
		"quantity": t.Quantity,
		"price":    t.Price,
		"date":     t.Date,
	}
}

func sortedUnique(ids ...string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
