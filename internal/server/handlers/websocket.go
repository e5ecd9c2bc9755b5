// internal/server/handlers/websocket.go

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"safetails/internal/domain/geo"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
	"safetails/internal/service/feed"
	proximitysvc "safetails/internal/service/proximity"
)

// WebSocketConfig contains configuration for WebSocket connections
type WebSocketConfig struct {
	// Time allowed to write a message to the peer
	WriteWait time.Duration

	// Time allowed to read the next pong message from the peer
	PongWait time.Duration

	// Send pings to peer with this period
	PingPeriod time.Duration

	// Maximum message size allowed from peer
	MaxMessageSize int64
}

// DefaultWebSocketConfig returns the default WebSocket configuration
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     (60 * time.Second * 9) / 10,
		MaxMessageSize: 4096,
	}
}

// FeedMessage is sent to live feed clients
type FeedMessage struct {
	Type       string        `json:"type"`
	Subscriber string        `json:"subscriber,omitempty"`
	RadiusKm   float64       `json:"radiusKm,omitempty"`
	Alert      *record.Alert `json:"alert,omitempty"`
}

// Feed message types
const (
	FeedSubscribed = "subscribed"
	FeedAlert      = "alert"
)

// FeedHandler streams newly created alerts near the client over a WebSocket
type FeedHandler struct {
	hub      *feed.Hub
	profile  proximitysvc.Profile
	config   WebSocketConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewFeedHandler creates a live feed handler. The profile bounds the radius.
func NewFeedHandler(hub *feed.Hub, profile proximitysvc.Profile, config WebSocketConfig, allowedOrigins []string, logger *zap.Logger) *FeedHandler {
	return &FeedHandler{
		hub:     hub,
		profile: profile,
		config:  config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
		logger: logger,
	}
}

// checkOrigin accepts requests without an Origin header and those from allowed origins
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// ServeHTTP validates the subscription circle and upgrades the connection
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	circle, err := h.circle(r)
	if err != nil {
		respondWithJSON(w, http.StatusBadRequest, proximitysvc.ErrorEnvelope(h.profile.Name, err))
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(circle)
	client := &feedClient{
		conn:   conn,
		hub:    h.hub,
		sub:    sub,
		config: h.config,
		logger: h.logger.With(zap.String("subscriber", sub.ID)),
	}
	client.logger.Info("feed client connected")

	go client.writePump()
	go client.readPump()
}

func (h *FeedHandler) circle(r *http.Request) (proximity.Circle, error) {
	q := r.URL.Query()

	origin, err := parseOrigin(q)
	if err != nil {
		return proximity.Circle{}, err
	}
	if origin == nil || origin.IsUnset() {
		return proximity.Circle{}, proximity.NewInputError("origin", "latitude and longitude are required")
	}
	if err := origin.Validate(); err != nil {
		return proximity.Circle{}, proximity.NewInputError("origin", "%v", err)
	}

	requested, err := parseRadius(q, paramRadius)
	if err != nil {
		return proximity.Circle{}, err
	}
	radius, err := h.profile.Radius(requested)
	if err != nil {
		return proximity.Circle{}, err
	}

	return proximity.Circle{Center: *origin, RadiusKm: radius}, nil
}

// feedClient is one connected live feed WebSocket
type feedClient struct {
	conn   *websocket.Conn
	hub    *feed.Hub
	sub    *feed.Subscription
	config WebSocketConfig
	logger *zap.Logger
}

// readPump discards client messages and detects disconnects
func (c *feedClient) readPump() {
	defer func() {
		c.hub.Unsubscribe(c.sub)
		c.logger.Info("feed client disconnected")
	}()

	c.conn.SetReadLimit(c.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.PongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pumps alerts from the hub to the WebSocket connection
func (c *feedClient) writePump() {
	ticker := time.NewTicker(c.config.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	if err := c.write(FeedMessage{Type: FeedSubscribed, Subscriber: c.sub.ID, RadiusKm: c.sub.Circle.RadiusKm}); err != nil {
		c.hub.Unsubscribe(c.sub)
		return
	}

	for {
		select {
		case alert, ok := <-c.sub.Alerts():
			if !ok {
				// The hub closed the channel
				c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			annotated := alert.Clone()
			annotated.SetDistanceKm(geo.DistanceKm(c.sub.Circle.Center, alert.Point()))
			if err := c.write(FeedMessage{Type: FeedAlert, Alert: annotated}); err != nil {
				c.hub.Unsubscribe(c.sub)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.hub.Unsubscribe(c.sub)
				return
			}
		}
	}
}

func (c *feedClient) write(msg FeedMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.conn.SetWriteDeadline(time.Now().Add(c.config.WriteWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}
