package events

import (
	"time"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventTicketListed    EventType = "ticket_listed"
	EventTicketPurchased EventType = "ticket_purchased"
	EventTicketUpdated   EventType = "ticket_updated"
)

// AllTypes lists every event the marketplace emits.
var AllTypes = []EventType{
	EventUserRegistered,
	EventTicketListed,
	EventTicketPurchased,
	EventTicketUpdated,
}

// Event represents a domain event emitted by services after commit.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Balance int64  `json:"balance"`
}

// TicketListedPayload payload.
type TicketListedPayload struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int    `json:"price"`
	Date     string `json:"date"`
}

// TicketPurchasedPayload payload.
type TicketPurchasedPayload struct {
	PurchaseID     string `json:"purchase_id"`
	Name           string `json:"name"`
	SellerID       string `json:"seller_id"`
	Quantity       int    `json:"quantity"`
	Cost           string `json:"cost"`
	Charged        int64  `json:"charged"`
	SellerProceeds int64  `json:"seller_proceeds"`
	Remaining      int    `json:"remaining"`
}

// TicketUpdatedPayload payload.
type TicketUpdatedPayload struct {
	Name        string `json:"name"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
	OldPrice    int    `json:"old_price"`
	NewPrice    int    `json:"new_price"`
	OldDate     string `json:"old_date"`
	NewDate     string `json:"new_date"`
}
