package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/qa327/ticket-marketplace/internal/config"
	"github.com/qa327/ticket-marketplace/internal/events"
)

// Channel names a notification delivery route.
type Channel string

const (
	ChannelEmail   Channel = "email"
	ChannelWebhook Channel = "webhook"
)

// Notice is one message produced for a marketplace event.
type Notice struct {
	Channel     Channel
	RecipientID string
	Subject     string
	Body        string
}

// NotificationService turns marketplace events into notices. Email and
// webhook delivery are stubs that only log.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to every marketplace event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	events.SubscribeAll(n.dispatcher, n.handle)
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	notices := n.Compose(event)
	n.logger.Info("marketplace event",
		zap.String("event_type", string(event.Type)),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.ActorID),
		zap.Int("notices", len(notices)),
	)
	for _, notice := range notices {
		n.deliver(ctx, event, notice)
	}
	return nil
}

// Compose builds the notices for event. Channels without configuration are
// skipped.
func (n *NotificationService) Compose(event events.Event) []Notice {
	var notices []Notice
	email := func(recipient, subject, body string) {
		if strings.TrimSpace(n.cfg.EmailFrom) == "" {
			return
		}
		notices = append(notices, Notice{Channel: ChannelEmail, RecipientID: recipient, Subject: subject, Body: body})
	}

	switch payload := event.Payload.(type) {
	case events.UserRegisteredPayload:
		email(event.ActorID, "Welcome to the ticket marketplace",
			fmt.Sprintf("Hi %s, your account starts with a balance of %d.", payload.Name, payload.Balance))
	case events.TicketListedPayload:
		email(event.ActorID, "Ticket listed",
			fmt.Sprintf("%d x %s listed at %d each for %s.", payload.Quantity, payload.Name, payload.Price, payload.Date))
	case events.TicketPurchasedPayload:
		email(event.ActorID, "Purchase receipt",
			fmt.Sprintf("You bought %d x %s. Cost %s, charged %d.", payload.Quantity, payload.Name, payload.Cost, payload.Charged))
		email(payload.SellerID, "Tickets sold",
			fmt.Sprintf("%d x %s sold for %d. %d left.", payload.Quantity, payload.Name, payload.SellerProceeds, payload.Remaining))
		if payload.Remaining == 0 {
			email(payload.SellerID, "Sold out", fmt.Sprintf("Your listing %s is sold out.", payload.Name))
		}
	case events.TicketUpdatedPayload:
		email(event.ActorID, "Ticket updated",
			fmt.Sprintf("%s now has %d at %d each for %s.", payload.Name, payload.NewQuantity, payload.NewPrice, payload.NewDate))
	}

	if strings.TrimSpace(n.cfg.WebhookURL) != "" && event.Type != events.EventUserRegistered {
		notices = append(notices, Notice{Channel: ChannelWebhook, Subject: string(event.Type)})
	}
	return notices
}

func (n *NotificationService) deliver(_ context.Context, event events.Event, notice Notice) {
	switch notice.Channel {
	case ChannelEmail:
		n.logger.Debug("email notification",
			zap.String("from", n.cfg.EmailFrom),
			zap.String("recipient_id", notice.RecipientID),
			zap.String("subject", notice.Subject),
			zap.String("event_id", event.ID))
	case ChannelWebhook:
		n.logger.Debug("webhook notification",
			zap.String("url", n.cfg.WebhookURL),
			zap.String("ticket_id", event.TicketID),
			zap.String("event_type", string(event.Type)))
	}
}
