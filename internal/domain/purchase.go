package domain

import "time"

// Purchase records one committed buy. Cost is the exact decimal amount the
// buyer was charged for, Charged the whole units actually debited.
type Purchase struct {
	ID             string
	TicketID       string
	BuyerID        string
	SellerID       string
	Quantity       int
	UnitPrice      int
	Cost           string
	Charged        int64
	SellerProceeds int64
	RequestKey     *string
	CreatedAt      time.Time
}
