// internal/adapter/events/responder.go

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"safetails/internal/domain/geo"
	"safetails/internal/domain/proximity"
	proximitysvc "safetails/internal/service/proximity"
)

// QueueGroup spreads proximity requests across service instances
const QueueGroup = "safetails-proximity"

// Query is a proximity request sent over NATS
type Query struct {
	Origin   *geo.Point          `json:"origin,omitempty"`
	RadiusKm *float64            `json:"radiusKm,omitempty"`
	Filters  map[string][]string `json:"filters,omitempty"`
	Page     int                 `json:"page,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
}

// Reply is the response to a Query
type Reply struct {
	RequestID string `json:"requestId"`
	proximitysvc.Envelope
}

// Responder answers proximity queries on NATS request/reply subjects
type Responder struct {
	nc       *nats.Conn
	prefix   string
	queriers map[string]proximitysvc.Querier
	timeout  time.Duration
	logger   *zap.Logger
	subs     []*nats.Subscription
}

// NewResponder creates a responder for every profile of the service
func NewResponder(nc *nats.Conn, prefix string, svc *proximitysvc.Service, timeout time.Duration, logger *zap.Logger) *Responder {
	return &Responder{
		nc:       nc,
		prefix:   prefix,
		queriers: svc.Queriers(),
		timeout:  timeout,
		logger:   logger,
	}
}

// Start subscribes to one subject per profile
func (r *Responder) Start() error {
	for profile := range r.queriers {
		profile := profile
		subject := QuerySubject(r.prefix, profile)

		sub, err := r.nc.QueueSubscribe(subject, QueueGroup, func(msg *nats.Msg) {
			ctx := context.Background()
			if r.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, r.timeout)
				defer cancel()
			}

			if err := msg.Respond(r.Handle(ctx, profile, msg.Data)); err != nil {
				r.logger.Warn("failed to respond to proximity query", zap.String("subject", subject), zap.Error(err))
			}
		})
		if err != nil {
			r.Stop()
			return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
		}

		r.subs = append(r.subs, sub)
		r.logger.Info("serving proximity queries", zap.String("subject", subject))
	}

	return nil
}

// Stop removes every subscription
func (r *Responder) Stop() {
	for _, sub := range r.subs {
		if err := sub.Unsubscribe(); err != nil {
			r.logger.Warn("failed to unsubscribe", zap.String("subject", sub.Subject), zap.Error(err))
		}
	}
	r.subs = nil
}

// Handle decodes a query, runs it against the profile and encodes the reply
func (r *Responder) Handle(ctx context.Context, profile string, data []byte) []byte {
	reply := Reply{RequestID: uuid.NewString()}
	reply.Envelope = r.dispatch(ctx, profile, data, reply.RequestID)

	raw, err := json.Marshal(reply)
	if err != nil {
		r.logger.Error("failed to encode proximity reply", zap.String("request_id", reply.RequestID), zap.Error(err))
		raw, _ = json.Marshal(Reply{
			RequestID: reply.RequestID,
			Envelope:  proximitysvc.Envelope{Message: "failed to encode reply"},
		})
	}
	return raw
}

func (r *Responder) dispatch(ctx context.Context, profile string, data []byte, requestID string) proximitysvc.Envelope {
	querier, ok := r.queriers[profile]
	if !ok {
		return proximitysvc.Envelope{Message: fmt.Sprintf("unknown profile %q", profile)}
	}

	var q Query
	if err := json.Unmarshal(data, &q); err != nil {
		return proximitysvc.Envelope{Message: "invalid query: " + err.Error()}
	}

	filters, err := querier.Profile().ParseFilters(url.Values(q.Filters))
	if err != nil {
		return proximitysvc.ErrorEnvelope(profile, err)
	}

	env, err := querier.Query(ctx, proximitysvc.Request{
		Origin:   q.Origin,
		RadiusKm: q.RadiusKm,
		Filters:  filters,
		Page:     q.Page,
		Limit:    q.Limit,
	})
	if err != nil && !proximity.IsInputError(err) {
		r.logger.Error("proximity query failed",
			zap.String("profile", profile),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}

	return env
}
