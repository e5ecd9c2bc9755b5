package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safetails/internal/adapter/storage"
	"safetails/internal/config"
	"safetails/internal/domain/geo"
	"safetails/internal/domain/record"
	"safetails/internal/metrics"
	"safetails/internal/server/handlers"
	"safetails/internal/service/feed"
	proximitysvc "safetails/internal/service/proximity"
)

// Dhaka
var origin = geo.NewPoint(90.4125, 23.8103)

func north(km float64) geo.Point {
	return geo.NewPoint(origin.Longitude, origin.Latitude+km/111.195)
}

type fixture struct {
	router http.Handler
	alerts *storage.MemoryStore[*record.Alert]
	hub    *feed.Hub
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	alerts := storage.NewMemoryStore(
		&record.Alert{
			Base:    record.Base{ID: "near", Location: record.NewLocation(north(2)), Status: "active", IsActive: true, CreatedAt: now},
			Type:    record.AlertLostPet,
			Urgency: record.UrgencyHigh,
		},
		&record.Alert{
			Base:    record.Base{ID: "far", Location: record.NewLocation(north(15)), Status: "active", IsActive: true, CreatedAt: now},
			Type:    record.AlertInjuredAnimal,
			Urgency: record.UrgencyCritical,
		},
	)
	posts := storage.NewMemoryStore(&record.Post{
		Base:     record.Base{ID: "p1", Location: record.NewLocation(north(3)), IsActive: true, City: "Dhaka", CreatedAt: now},
		PostType: record.PostAdoption,
	})
	vets := storage.NewMemoryStore(
		&record.Vet{
			Base:                 record.Base{ID: "v-rated", Location: record.NewLocation(north(5)), IsActive: true},
			IsEmergencyAvailable: true,
			Rating:               4.9,
			Specialization:       []string{"dogs"},
		},
		&record.Vet{
			Base:                 record.Base{ID: "v-24h", Location: record.NewLocation(north(8)), IsActive: true},
			IsEmergencyAvailable: true,
			Is24Hours:            true,
			Rating:               3.2,
			Specialization:       []string{"cats"},
		},
	)

	collection := func(def, max float64) config.CollectionConfig {
		return config.CollectionConfig{DefaultRadiusKm: def, MinRadiusKm: 1, MaxRadiusKm: max, DefaultLimit: 10, MaxLimit: 100}
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	logger := zap.NewNop()
	hub := feed.NewHub(logger, m)
	t.Cleanup(hub.Close)

	svc := proximitysvc.NewService(proximitysvc.Stores{Alerts: alerts, Posts: posts, Vets: vets}, config.ProximityConfig{
		Alerts:        collection(10, 100),
		Posts:         collection(10, 100),
		Vets:          collection(50, 200),
		VetsEmergency: collection(100, 200),
	}, logger, m)

	router := NewRouter(config.ServerConfig{CorsOrigins: []string{"*"}}, Dependencies{
		Proximity: svc,
		Hub:       hub,
		Gatherer:  reg,
		Logger:    logger,
	})

	return &fixture{router: router, alerts: alerts, hub: hub}
}

type response struct {
	Success bool `json:"success"`
	Data    []struct {
		ID         string   `json:"id"`
		DistanceKm *float64 `json:"distanceKm"`
	} `json:"data"`
	Pagination struct {
		CurrentPage int   `json:"currentPage"`
		TotalPages  int   `json:"totalPages"`
		Total       int64 `json:"total"`
	} `json:"pagination"`
	Message string `json:"message"`
}

func (f *fixture) get(t *testing.T, target string) (int, response) {
	t.Helper()

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var resp response
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

func ids(resp response) []string {
	out := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		out = append(out, d.ID)
	}
	return out
}

func TestNearbyEndpoints(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		target  string
		wantIDs []string
	}{
		{
			name:    "alerts within default radius",
			target:  "/api/v1/alerts/nearby?latitude=23.8103&longitude=90.4125",
			wantIDs: []string{"near"},
		},
		{
			name:    "alerts within wider radius sorted by urgency",
			target:  "/api/v1/alerts/nearby?latitude=23.8103&longitude=90.4125&radius=20",
			wantIDs: []string{"far", "near"},
		},
		{
			name:    "alerts filtered by type",
			target:  "/api/v1/alerts/nearby?latitude=23.8103&longitude=90.4125&radius=20&type=lost_pet",
			wantIDs: []string{"near"},
		},
		{
			name:    "posts use distance",
			target:  "/api/v1/posts/nearby?latitude=23.8103&longitude=90.4125&distance=2",
			wantIDs: []string{},
		},
		{
			name:    "posts by type",
			target:  "/api/v1/posts/nearby?latitude=23.8103&longitude=90.4125&postType=adoption",
			wantIDs: []string{"p1"},
		},
		{
			name:    "vets by rating",
			target:  "/api/v1/vets/nearby?latitude=23.8103&longitude=90.4125",
			wantIDs: []string{"v-rated", "v-24h"},
		},
		{
			name:    "vets by specialization",
			target:  "/api/v1/vets/nearby?latitude=23.8103&longitude=90.4125&specialization[]=cats",
			wantIDs: []string{"v-24h"},
		},
		{
			name:    "emergency vets prefer round the clock",
			target:  "/api/v1/vets/emergency?latitude=23.8103&longitude=90.4125",
			wantIDs: []string{"v-24h", "v-rated"},
		},
		{
			name:    "emergency vets ignore emergency availability parameter",
			target:  "/api/v1/vets/emergency?latitude=23.8103&longitude=90.4125&isEmergencyAvailable=false",
			wantIDs: []string{"v-24h", "v-rated"},
		},
		{
			name:    "zero origin lists everything",
			target:  "/api/v1/alerts/nearby?latitude=0&longitude=0",
			wantIDs: []string{"far", "near"},
		},
		{
			name:    "posts listing by city",
			target:  "/api/v1/posts?city=dhaka",
			wantIDs: []string{"p1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := f.get(t, tt.target)
			require.Equal(t, http.StatusOK, code)
			assert.True(t, resp.Success)
			assert.Equal(t, tt.wantIDs, ids(resp))
			assert.Equal(t, 1, resp.Pagination.CurrentPage)
		})
	}
}

func TestNearbyDistanceAnnotation(t *testing.T) {
	f := newFixture(t)

	_, resp := f.get(t, "/api/v1/alerts/nearby?latitude=23.8103&longitude=90.4125")
	require.Len(t, resp.Data, 1)
	require.NotNil(t, resp.Data[0].DistanceKm)
	assert.InDelta(t, 2.0, *resp.Data[0].DistanceKm, 0.01)

	_, resp = f.get(t, "/api/v1/alerts")
	require.Len(t, resp.Data, 2)
	assert.Nil(t, resp.Data[0].DistanceKm)
}

func TestNearbyBadRequests(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name        string
		target      string
		wantMessage string
	}{
		{name: "longitude out of range", target: "/api/v1/alerts/nearby?latitude=10&longitude=200", wantMessage: "origin"},
		{name: "latitude not a number", target: "/api/v1/alerts/nearby?latitude=north&longitude=90", wantMessage: "latitude"},
		{name: "one coordinate", target: "/api/v1/vets/nearby?latitude=23.8", wantMessage: "together"},
		{name: "radius too large", target: "/api/v1/alerts/nearby?latitude=23.8&longitude=90.4&radius=500", wantMessage: "radius"},
		{name: "distance not a number", target: "/api/v1/posts/nearby?latitude=23.8&longitude=90.4&distance=far", wantMessage: "distance"},
		{name: "limit too large", target: "/api/v1/alerts/nearby?latitude=23.8&longitude=90.4&limit=1000", wantMessage: "limit"},
		{name: "page not a number", target: "/api/v1/alerts?page=two", wantMessage: "page"},
		{name: "unknown urgency", target: "/api/v1/alerts?urgency=urgent", wantMessage: "urgency"},
		{name: "bad bool", target: "/api/v1/vets/nearby?latitude=23.8&longitude=90.4&is24Hours=maybe", wantMessage: "is24Hours"},
		{name: "alerts nearby without coordinates", target: "/api/v1/alerts/nearby", wantMessage: "required"},
		{name: "emergency vets without coordinates", target: "/api/v1/vets/emergency", wantMessage: "required"},
		{name: "posts nearby without coordinates", target: "/api/v1/posts/nearby?distance=5", wantMessage: "origin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := f.get(t, tt.target)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, resp.Success)
			assert.Contains(t, resp.Message, tt.wantMessage)
		})
	}
}

func TestSpatialFailureKeepsResponseShape(t *testing.T) {
	f := newFixture(t)
	f.alerts.SetSpatialEnabled(false)

	code, resp := f.get(t, "/api/v1/alerts/nearby?latitude=23.8103&longitude=90.4125")
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"far", "near"}, ids(resp))
	assert.Equal(t, int64(2), resp.Pagination.Total)
}

func TestHealthAndMetrics(t *testing.T) {
	f := newFixture(t)
	f.get(t, "/api/v1/alerts/nearby?latitude=23.8103&longitude=90.4125")

	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `safetails_proximity_queries_total{path="spatial",profile="alerts"} 1`)
}

func TestAlertFeedWebSocket(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/alerts/nearby?latitude=23.8103&longitude=90.4125&radius=5"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var msg handlers.FeedMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, handlers.FeedSubscribed, msg.Type)
	assert.Equal(t, 5.0, msg.RadiusKm)
	require.Equal(t, 1, f.hub.Len())

	outside := &record.Alert{Base: record.Base{ID: "outside", Location: record.NewLocation(north(20)), Status: "active", IsActive: true}}
	inside := &record.Alert{Base: record.Base{ID: "inside", Location: record.NewLocation(north(1)), Status: "active", IsActive: true}}
	assert.Zero(t, f.hub.Publish(outside))
	assert.Equal(t, 1, f.hub.Publish(inside))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, handlers.FeedAlert, msg.Type)
	require.NotNil(t, msg.Alert)
	assert.Equal(t, "inside", msg.Alert.ID)
	require.NotNil(t, msg.Alert.DistanceKm)
	assert.InDelta(t, 1.0, *msg.Alert.DistanceKm, 0.01)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return f.hub.Len() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestAlertFeedRejectsMissingOrigin(t *testing.T) {
	f := newFixture(t)

	code, resp := f.get(t, "/ws/alerts/nearby?radius=5")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, resp.Message, "origin")

	code, _ = f.get(t, "/ws/alerts/nearby?latitude=23.8&longitude=90.4&radius=0")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestUnknownRouteReturnsEnvelope(t *testing.T) {
	f := newFixture(t)

	code, resp := f.get(t, "/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.False(t, resp.Success)
	assert.Equal(t, "route not found", resp.Message)
}
