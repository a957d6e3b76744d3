package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qa327/ticket-marketplace/internal/config"
	"github.com/qa327/ticket-marketplace/internal/events"
)

func TestComposePurchaseNotifiesBothSides(t *testing.T) {
	n := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/market",
	})

	notices := n.Compose(events.Event{
		Type:     events.EventTicketPurchased,
		TicketID: "ticket-1",
		ActorID:  "buyer",
		Payload: events.TicketPurchasedPayload{
			Name:           "t1",
			SellerID:       "seller",
			Quantity:       2,
			Cost:           "283.5",
			Charged:        284,
			SellerProceeds: 200,
			Remaining:      0,
		},
	})

	require.Len(t, notices, 4)
	assert.Equal(t, Notice{
		Channel:     ChannelEmail,
		RecipientID: "buyer",
		Subject:     "Purchase receipt",
		Body:        "You bought 2 x t1. Cost 283.5, charged 284.",
	}, notices[0])
	assert.Equal(t, "seller", notices[1].RecipientID)
	assert.Equal(t, "2 x t1 sold for 200. 0 left.", notices[1].Body)
	assert.Equal(t, "Sold out", notices[2].Subject)
	assert.Equal(t, ChannelWebhook, notices[3].Channel)
}

func TestComposeSkipsUnconfiguredChannels(t *testing.T) {
	n := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{})

	notices := n.Compose(events.Event{
		Type:    events.EventTicketListed,
		ActorID: "seller",
		Payload: events.TicketListedPayload{Name: "t1", Quantity: 1, Price: 10, Date: "20991231"},
	})
	assert.Empty(t, notices)
}

func TestComposeRegistrationHasNoWebhook(t *testing.T) {
	n := NewNotificationService(nil, zap.NewNop(), config.NotificationConfig{
		EmailFrom:  "noreply@example.com",
		WebhookURL: "https://hooks.example.com/market",
	})

	notices := n.Compose(events.Event{
		Type:    events.EventUserRegistered,
		ActorID: "user-1",
		Payload: events.UserRegisteredPayload{Name: "Alice", Balance: 5000},
	})
	require.Len(t, notices, 1)
	assert.Equal(t, "Hi Alice, your account starts with a balance of 5000.", notices[0].Body)
}

func TestRegisterHandlersSubscribesEveryEvent(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher()
	n := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{EmailFrom: "noreply@example.com"})
	n.RegisterHandlers()

	for _, eventType := range events.AllTypes {
		assert.NoError(t, dispatcher.Publish(context.Background(), events.Event{Type: eventType}))
	}
}
