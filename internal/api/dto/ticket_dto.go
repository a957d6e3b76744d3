package dto

import (
	"time"

	"github.com/qa327/ticket-marketplace/internal/domain"
)

// SellTicketRequest payload; also used for updates.
type SellTicketRequest struct {
	Name     string `json:"name" form:"name"`
	Quantity int    `json:"quantity" form:"quantity"`
	Price    int    `json:"price" form:"price"`
	Date     string `json:"date" form:"date"`
}

// BuyTicketRequest payload. RequestKey may also come from the
// Idempotency-Key header.
type BuyTicketRequest struct {
	Name       string `json:"name" form:"name"`
	Quantity   int    `json:"quantity" form:"quantity"`
	RequestKey string `json:"request_key" form:"request_key"`
}

// TicketResponse response.
type TicketResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
	Quantity  int       `json:"quantity"`
	Price     int       `json:"price"`
	Date      string    `json:"date"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PurchaseResponse describes a completed or replayed purchase.
type PurchaseResponse struct {
	ID             string         `json:"id"`
	Ticket         TicketResponse `json:"ticket"`
	Quantity       int            `json:"quantity"`
	UnitPrice      int            `json:"unit_price"`
	Cost           string         `json:"cost"`
	Charged        int64          `json:"charged"`
	SellerProceeds int64          `json:"seller_proceeds"`
	Balance        int64          `json:"balance"`
	RequestKey     *string        `json:"request_key,omitempty"`
	Replayed       bool           `json:"replayed"`
	CreatedAt      time.Time      `json:"created_at"`
}

// TicketHistoryResponse is one trail entry.
type TicketHistoryResponse struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	ChangeType string         `json:"change_type"`
	OldValue   map[string]any `json:"old_value,omitempty"`
	NewValue   map[string]any `json:"new_value,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// NewTicketResponse maps a ticket.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Name:      t.Name,
		Quantity:  t.Quantity,
		Price:     t.Price,
		Date:      t.Date,
		Active:    t.IsActive(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// NewTicketList maps a slice of tickets, never returning nil.
func NewTicketList(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewTicketHistoryList maps history entries.
func NewTicketHistoryList(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, TicketHistoryResponse{
			ID:         e.ID,
			ActorID:    e.ActorID,
			ChangeType: string(e.ChangeType),
			OldValue:   e.OldValue,
			NewValue:   e.NewValue,
			CreatedAt:  e.CreatedAt,
		})
	}
	return out
}

// PurchaseSummary is one entry of a buyer's purchase history.
type PurchaseSummary struct {
	ID        string    `json:"id"`
	TicketID  string    `json:"ticket_id"`
	SellerID  string    `json:"seller_id"`
	Quantity  int       `json:"quantity"`
	UnitPrice int       `json:"unit_price"`
	Cost      string    `json:"cost"`
	Charged   int64     `json:"charged"`
	CreatedAt time.Time `json:"created_at"`
}

// NewPurchaseHistory maps purchases oldest first; never nil so it encodes as [].
func NewPurchaseHistory(purchases []domain.Purchase) []PurchaseSummary {
	out := make([]PurchaseSummary, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, PurchaseSummary{
			ID:        p.ID,
			TicketID:  p.TicketID,
			SellerID:  p.SellerID,
			Quantity:  p.Quantity,
			UnitPrice: p.UnitPrice,
			Cost:      p.Cost,
			Charged:   p.Charged,
			CreatedAt: p.CreatedAt,
		})
	}
	return out
}
