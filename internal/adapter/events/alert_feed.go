// internal/adapter/events/alert_feed.go

package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"safetails/internal/domain/record"
	"safetails/internal/service/feed"
)

// AlertFeed forwards alert creation events to the live feed hub
type AlertFeed struct {
	nc      *nats.Conn
	subject string
	hub     *feed.Hub
	logger  *zap.Logger
	sub     *nats.Subscription
}

// NewAlertFeed creates a subscriber for the prefix's alert creation subject
func NewAlertFeed(nc *nats.Conn, prefix string, hub *feed.Hub, logger *zap.Logger) *AlertFeed {
	return &AlertFeed{
		nc:      nc,
		subject: AlertCreatedSubject(prefix),
		hub:     hub,
		logger:  logger,
	}
}

// Start subscribes to alert creation events
func (f *AlertFeed) Start() error {
	sub, err := f.nc.Subscribe(f.subject, func(msg *nats.Msg) {
		f.Handle(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", f.subject, err)
	}

	f.sub = sub
	f.logger.Info("forwarding alert events", zap.String("subject", f.subject))
	return nil
}

// Stop removes the subscription
func (f *AlertFeed) Stop() {
	if f.sub == nil {
		return
	}
	if err := f.sub.Unsubscribe(); err != nil {
		f.logger.Warn("failed to unsubscribe", zap.String("subject", f.subject), zap.Error(err))
	}
	f.sub = nil
}

// Handle decodes an alert event and publishes it to nearby subscribers
func (f *AlertFeed) Handle(data []byte) int {
	var alert record.Alert
	if err := json.Unmarshal(data, &alert); err != nil {
		f.logger.Warn("dropping malformed alert event", zap.Error(err))
		return 0
	}

	delivered := f.hub.Publish(&alert)
	f.logger.Debug("alert event forwarded", zap.String("alert", alert.ID), zap.Int("subscribers", delivered))
	return delivered
}

// PublishAlertCreated announces a new alert
func PublishAlertCreated(nc *nats.Conn, prefix string, alert *record.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("error marshaling alert: %w", err)
	}
	if err := nc.Publish(AlertCreatedSubject(prefix), data); err != nil {
		return fmt.Errorf("error publishing alert: %w", err)
	}
	return nil
}
