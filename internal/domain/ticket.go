package domain

import (
	"errors"
	"time"
)

// Listing bounds enforced on every committed ticket.
const (
	MinTicketQuantity = 0
	MaxTicketQuantity = 100
	MinTicketPrice    = 10
	MaxTicketPrice    = 100
)

// Ticket is a listing of Quantity units of a named item at a fixed unit price.
// A ticket with zero quantity is delisted but kept for history.
type Ticket struct {
	ID        string
	OwnerID   string
	Name      string
	Quantity  int
	Price     int
	Date      string // YYYYMMDD
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTicket builds a ticket and checks the ledger invariants.
func NewTicket(id, ownerID, name string, quantity, price int, date string) (*Ticket, error) {
	if id == "" || ownerID == "" || name == "" || date == "" {
		return nil, errors.New("ticket id, owner, name and date required")
	}
	t := &Ticket{
		ID:       id,
		OwnerID:  ownerID,
		Name:     name,
		Quantity: quantity,
		Price:    price,
		Date:     date,
	}
	if err := t.CheckInvariants(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return t, nil
}

// IsActive reports whether the ticket is still listed.
func (t *Ticket) IsActive() bool {
	return t.Quantity > 0
}

// CheckInvariants verifies quantity and price bounds.
func (t *Ticket) CheckInvariants() error {
	if t.Quantity < MinTicketQuantity || t.Quantity > MaxTicketQuantity {
		return errors.New("ticket quantity out of bounds")
	}
	if t.Price < MinTicketPrice || t.Price > MaxTicketPrice {
		return errors.New("ticket price out of bounds")
	}
	return nil
}
