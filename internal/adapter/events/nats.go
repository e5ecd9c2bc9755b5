// internal/adapter/events/nats.go

package events

import (
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"safetails/internal/config"
)

// Connect opens a NATS connection that logs its lifecycle
func Connect(cfg config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.Name("safetails"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}

// QuerySubject returns the request/reply subject for a profile
func QuerySubject(prefix, profile string) string {
	return fmt.Sprintf("%s.proximity.%s", prefix, profile)
}

// AlertCreatedSubject returns the subject alert creation events are published on
func AlertCreatedSubject(prefix string) string {
	return prefix + ".alerts.created"
}
