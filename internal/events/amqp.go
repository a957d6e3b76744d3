package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AMQPForwarder republishes dispatched events to a RabbitMQ topic exchange,
// routed by event type.
type AMQPForwarder struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// DialAMQPForwarder connects and declares the exchange.
func DialAMQPForwarder(url, exchange string, logger *zap.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &AMQPForwarder{conn: conn, channel: ch, exchange: exchange, logger: logger}, nil
}

// Register subscribes the forwarder to every event type.
func (f *AMQPForwarder) Register(d Dispatcher) {
	SubscribeAll(d, f.Forward)
}

// Forward publishes one event as a persistent JSON message.
func (f *AMQPForwarder) Forward(ctx context.Context, event Event) error {
	body, err := Encode(event)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	err = f.channel.PublishWithContext(ctx, f.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Type:         string(event.Type),
		Body:         body,
	})
	if err != nil {
		f.logger.Error("forward event failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	return nil
}

// Close releases the channel and connection.
func (f *AMQPForwarder) Close() {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.channel != nil {
		_ = f.channel.Close()
	}
	if f.conn != nil {
		_ = f.conn.Close()
	}
}

// Encode renders an event as the JSON body sent to the broker.
func Encode(event Event) ([]byte, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	return body, nil
}
