package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qa327/ticket-marketplace/internal/events"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/tickets/buy", "POST", "INSUFFICIENT_FUNDS")

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["/tickets|GET|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMsec["/tickets|GET|200"])
	assert.Equal(t, int64(1), snap.Errors["/tickets/buy|POST|INSUFFICIENT_FUNDS"])

	var nilMetrics *Metrics
	nilMetrics.RecordRequest("/", "GET", 200, time.Millisecond)
	assert.Empty(t, nilMetrics.Snapshot().Requests)
}

func TestMetricsCountEvents(t *testing.T) {
	m := NewMetrics()
	d := events.NewInMemoryDispatcher()
	events.SubscribeAll(d, m.CountEvent)

	ctx := context.Background()
	require.NoError(t, d.Publish(ctx, events.Event{Type: events.EventTicketListed}))
	require.NoError(t, d.Publish(ctx, events.Event{
		Type:    events.EventTicketPurchased,
		Payload: events.TicketPurchasedPayload{Quantity: 3},
	}))
	require.NoError(t, d.Publish(ctx, events.Event{
		Type:    events.EventTicketPurchased,
		Payload: events.TicketPurchasedPayload{Quantity: 2},
	}))

	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.Events["ticket_listed"])
	assert.Equal(t, int64(2), snap.Events["ticket_purchased"])
	assert.Equal(t, int64(5), snap.TicketsSold)
}
