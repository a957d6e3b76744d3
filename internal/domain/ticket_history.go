package domain

import "time"

// TicketChangeType captures what changed in a history entry.
type TicketChangeType string

const (
	ChangeTypeListed    TicketChangeType = "LISTED"
	ChangeTypePurchased TicketChangeType = "PURCHASED"
	ChangeTypeUpdated   TicketChangeType = "UPDATED"
)

// TicketHistory is an immutable trail entry for a ticket mutation.
type TicketHistory struct {
	ID         string
	TicketID   string
	ActorID    string
	ChangeType TicketChangeType
	OldValue   map[string]any
	NewValue   map[string]any
	CreatedAt  time.Time
}
