// internal/service/feed/hub.go

package feed

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
	"safetails/internal/metrics"
)

// DefaultBuffer is the number of alerts queued per subscriber before drops
const DefaultBuffer = 32

// Subscription receives newly created alerts inside its circle
type Subscription struct {
	ID     string
	Circle proximity.Circle

	alerts chan *record.Alert
	once   sync.Once
}

// Alerts returns the delivery channel. It is closed on unsubscribe.
func (s *Subscription) Alerts() <-chan *record.Alert {
	return s.alerts
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.alerts) })
}

// Hub fans out alert events to subscribers by location
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]*Subscription
	buffer  int
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger, m *metrics.Metrics) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:    make(map[string]*Subscription),
		buffer:  DefaultBuffer,
		logger:  logger,
		metrics: m,
	}
}

// Subscribe registers interest in alerts inside circle
func (h *Hub) Subscribe(circle proximity.Circle) *Subscription {
	sub := &Subscription{
		ID:     uuid.NewString(),
		Circle: circle,
		alerts: make(chan *record.Alert, h.buffer),
	}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()

	h.metrics.FeedClientConnected()
	h.logger.Debug("feed subscriber added",
		zap.String("subscriber", sub.ID),
		zap.Stringer("origin", circle.Center),
		zap.Float64("radius_km", circle.RadiusKm),
	)

	return sub
}

// Unsubscribe removes a subscriber and closes its channel
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	_, ok := h.subs[sub.ID]
	delete(h.subs, sub.ID)
	h.mu.Unlock()

	if ok {
		sub.close()
		h.metrics.FeedClientDisconnected()
	}
}

// Publish delivers an alert to every subscriber whose circle contains it.
// Inactive alerts are ignored. Slow subscribers drop the alert.
// It returns the number of subscribers that received it.
func (h *Hub) Publish(alert *record.Alert) int {
	if !alert.IsActive || alert.Status != record.AlertStatusActive {
		return 0
	}
	p := alert.Point()
	if p.IsUnset() || p.Validate() != nil {
		return 0
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if !sub.Circle.Contains(p) {
			continue
		}
		select {
		case sub.alerts <- alert:
			delivered++
		default:
			h.logger.Warn("feed subscriber is slow, dropping alert",
				zap.String("subscriber", sub.ID),
				zap.String("alert", alert.ID),
			)
		}
	}

	return delivered
}

// Len returns the number of subscribers
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close removes every subscriber
func (h *Hub) Close() {
	h.mu.Lock()
	subs := h.subs
	h.subs = make(map[string]*Subscription)
	h.mu.Unlock()

	for _, sub := range subs {
		sub.close()
		h.metrics.FeedClientDisconnected()
	}
}
