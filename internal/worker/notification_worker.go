package worker

import (
	"go.uber.org/zap"

	"github.com/qa327/ticket-marketplace/internal/config"
	"github.com/qa327/ticket-marketplace/internal/events"
	"github.com/qa327/ticket-marketplace/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartEventForwarder connects to the broker when one is configured and
// forwards every dispatched event to it. The returned forwarder is nil when
// forwarding is off; callers close it on shutdown.
func StartEventForwarder(cfg config.BrokerConfig, dispatcher events.Dispatcher, logger *zap.Logger) (*events.AMQPForwarder, error) {
	if cfg.URL == "" {
		logger.Info("AMQP_URL not provided; event forwarding disabled")
		return nil, nil
	}
	forwarder, err := events.DialAMQPForwarder(cfg.URL, cfg.Exchange, logger)
	if err != nil {
		return nil, err
	}
	forwarder.Register(dispatcher)
	logger.Info("forwarding events to rabbitmq", zap.String("exchange", cfg.Exchange))
	return forwarder, nil
}
