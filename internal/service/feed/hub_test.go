package feed

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"safetails/internal/domain/geo"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
	"safetails/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var origin = geo.NewPoint(-122.4194, 37.7749)

func activeAlert(id string, p geo.Point) *record.Alert {
	return &record.Alert{
		Base: record.Base{
			ID:       id,
			Location: record.NewLocation(p),
			Status:   record.AlertStatusActive,
			IsActive: true,
		},
		Urgency: record.UrgencyHigh,
	}
}

func TestPublishFiltersByCircle(t *testing.T) {
	hub := NewHub(nil, nil)
	near := hub.Subscribe(proximity.Circle{Center: origin, RadiusKm: 5})
	wide := hub.Subscribe(proximity.Circle{Center: origin, RadiusKm: 50})
	defer hub.Close()

	// roughly 20 km north of the origin
	alert := activeAlert("a1", geo.NewPoint(origin.Longitude, origin.Latitude+0.18))

	assert.Equal(t, 1, hub.Publish(alert))

	select {
	case got := <-wide.Alerts():
		assert.Equal(t, "a1", got.ID)
	default:
		t.Fatal("expected delivery to the wide subscriber")
	}
	assert.Empty(t, near.Alerts())
}

func TestPublishIgnoresInactiveAlerts(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe(proximity.Circle{Center: origin, RadiusKm: 10})
	defer hub.Close()

	resolved := activeAlert("resolved", origin)
	resolved.Status = record.AlertStatusResolved
	inactive := activeAlert("inactive", origin)
	inactive.IsActive = false
	unplaced := activeAlert("unplaced", geo.Point{})

	assert.Zero(t, hub.Publish(resolved))
	assert.Zero(t, hub.Publish(inactive))
	assert.Zero(t, hub.Publish(unplaced))
	assert.Empty(t, sub.Alerts())
}

func TestSlowSubscriberDropsAlerts(t *testing.T) {
	hub := NewHub(nil, nil)
	sub := hub.Subscribe(proximity.Circle{Center: origin, RadiusKm: 10})
	defer hub.Close()

	for i := 0; i < DefaultBuffer+5; i++ {
		hub.Publish(activeAlert("a", origin))
	}

	assert.Len(t, sub.Alerts(), DefaultBuffer)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	m := metrics.New(nil)
	hub := NewHub(nil, m)

	sub := hub.Subscribe(proximity.Circle{Center: origin, RadiusKm: 10})
	assert.Equal(t, 1, hub.Len())
	assert.Equal(t, 1.0, m.FeedClients())

	hub.Unsubscribe(sub)
	hub.Unsubscribe(sub)

	_, open := <-sub.Alerts()
	assert.False(t, open)
	assert.Zero(t, hub.Len())
	assert.Zero(t, m.FeedClients())
	assert.Zero(t, hub.Publish(activeAlert("a", origin)))
}

func TestConcurrentPublishAndUnsubscribe(t *testing.T) {
	hub := NewHub(nil, nil)

	subs := make([]*Subscription, 10)
	for i := range subs {
		subs[i] = hub.Subscribe(proximity.Circle{Center: origin, RadiusKm: 10})
	}

	var wg sync.WaitGroup
	received := make([]int, len(subs))
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub *Subscription) {
			defer wg.Done()
			for range sub.Alerts() {
				received[i]++
			}
		}(i, sub)
	}

	for i := 0; i < 100; i++ {
		hub.Publish(activeAlert("a", origin))
	}
	for _, sub := range subs[:5] {
		hub.Unsubscribe(sub)
	}
	hub.Close()
	wg.Wait()

	require.Zero(t, hub.Len())
	for _, n := range received {
		assert.LessOrEqual(t, n, 100)
	}
}
