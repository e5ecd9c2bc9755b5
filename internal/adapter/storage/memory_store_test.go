package storage

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safetails/internal/domain/geo"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

var (
	sf    = geo.NewPoint(-122.4194, 37.7749)
	epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
)

// offsetNorth returns a point km kilometers due north of p
func offsetNorth(p geo.Point, km float64) geo.Point {
	return geo.NewPoint(p.Longitude, p.Latitude+km/111.195)
}

func alert(id string, p geo.Point, urgency record.Urgency, age time.Duration) *record.Alert {
	return &record.Alert{
		Base: record.Base{
			ID:        id,
			Location:  record.NewLocation(p),
			Status:    record.AlertStatusActive,
			IsActive:  true,
			CreatedAt: epoch.Add(-age),
		},
		Type:    record.AlertLostPet,
		Urgency: urgency,
	}
}

func ids[T record.Document](docs []T) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.DocID()
	}
	return out
}

func TestMemoryStoreFindWithinRadius(t *testing.T) {
	store := NewMemoryStore(
		alert("near", offsetNorth(sf, 2), record.UrgencyLow, 0),
		alert("far", offsetNorth(sf, 15), record.UrgencyLow, 0),
		alert("unset", geo.Point{}, record.UrgencyLow, 0),
	)

	docs, total, err := store.FindWithinRadius(context.Background(),
		proximity.Circle{Center: sf, RadiusKm: 10}, proximity.Criteria{})
	require.NoError(t, err)

	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"near"}, ids(docs))
}

func TestMemoryStoreBoundaryIsInclusive(t *testing.T) {
	edge := offsetNorth(sf, 5)
	store := NewMemoryStore(alert("edge", edge, record.UrgencyLow, 0))

	docs, _, err := store.FindWithinRadius(context.Background(),
		proximity.Circle{Center: sf, RadiusKm: geo.DistanceKm(sf, edge)}, proximity.Criteria{})
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

// offsetEastmost returns the point of greatest longitude on the circle of
// km kilometers around p, or the least longitude when west is set
func offsetEastmost(p geo.Point, km float64, west bool) geo.Point {
	c := km / 6371
	lat := p.Latitude * math.Pi / 180

	dLng := math.Asin(math.Sin(c)/math.Cos(lat)) * 180 / math.Pi
	if west {
		dLng = -dLng
	}
	return geo.NewPoint(p.Longitude+dLng, math.Asin(math.Sin(lat)/math.Cos(c))*180/math.Pi)
}

// offsetAlongParallel returns the point on p's parallel km kilometers away,
// east for positive km and west for negative
func offsetAlongParallel(p geo.Point, km float64) geo.Point {
	c := math.Abs(km) / 6371
	lat := p.Latitude * math.Pi / 180

	dLng := 2 * math.Asin(math.Sin(c/2)/math.Cos(lat)) * 180 / math.Pi
	if km < 0 {
		dLng = -dLng
	}
	return geo.NewPoint(p.Longitude+dLng, p.Latitude)
}

func TestMemoryStoreHighLatitudeEastWestEdges(t *testing.T) {
	origin := geo.NewPoint(10.75, 59.91)

	points := map[string]geo.Point{
		"east-edge":   offsetEastmost(origin, 9.99, false),
		"west-edge":   offsetEastmost(origin, 9.99, true),
		"east-inside": offsetAlongParallel(origin, 9.99),
		"west-inside": offsetAlongParallel(origin, -9.99),
		"east-beyond": offsetAlongParallel(origin, 10.01),
		"west-beyond": offsetAlongParallel(origin, -10.01),
	}

	store := NewMemoryStore[*record.Alert]()
	for id, p := range points {
		store.Add(alert(id, p, record.UrgencyLow, 0))
	}

	for id, p := range points {
		want := 9.99
		if id == "east-beyond" || id == "west-beyond" {
			want = 10.01
		}
		require.InDelta(t, want, geo.DistanceKm(origin, p), 1e-6, id)
	}

	docs, total, err := store.FindWithinRadius(context.Background(),
		proximity.Circle{Center: origin, RadiusKm: 10}, proximity.Criteria{
			Sort: []proximity.SortKey{{Field: record.FieldID, Type: proximity.SortString}},
		})
	require.NoError(t, err)

	assert.Equal(t, int64(4), total)
	assert.Equal(t, []string{"east-edge", "east-inside", "west-edge", "west-inside"}, ids(docs))
}

func TestMemoryStoreAntimeridian(t *testing.T) {
	origin := geo.NewPoint(179.99, 0)
	across := geo.NewPoint(-179.99, 0)
	store := NewMemoryStore(alert("across", across, record.UrgencyLow, 0))

	docs, _, err := store.FindWithinRadius(context.Background(),
		proximity.Circle{Center: origin, RadiusKm: 5}, proximity.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, []string{"across"}, ids(docs))
}

func TestMemoryStoreReplacesByID(t *testing.T) {
	store := NewMemoryStore(alert("a", sf, record.UrgencyLow, 0))
	store.Add(alert("a", offsetNorth(sf, 50), record.UrgencyLow, 0))

	assert.Equal(t, 1, store.Len())

	docs, _, err := store.FindWithinRadius(context.Background(),
		proximity.Circle{Center: sf, RadiusKm: 10}, proximity.Criteria{})
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryStoreSpatialDisabled(t *testing.T) {
	store := NewMemoryStore(alert("a", sf, record.UrgencyLow, 0))
	store.SetSpatialEnabled(false)

	_, _, err := store.FindWithinRadius(context.Background(),
		proximity.Circle{Center: sf, RadiusKm: 10}, proximity.Criteria{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, proximity.ErrSpatialUnavailable))
	assert.True(t, errors.Is(err, ErrMemorySpatialDisabled))

	docs, total, err := store.Find(context.Background(), proximity.Criteria{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, docs, 1)
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	store := NewMemoryStore[*record.Alert]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := store.Find(ctx, proximity.Criteria{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryStoreConditions(t *testing.T) {
	vet := func(id, city string, specs ...string) *record.Vet {
		return &record.Vet{
			Base:           record.Base{ID: id, Location: record.NewLocation(sf), IsActive: true, City: city},
			Specialization: specs,
			Rating:         4,
		}
	}
	store := NewMemoryStore(
		vet("v1", "San Francisco", "dogs", "cats"),
		vet("v2", "Oakland", "exotics"),
		vet("v3", "South San Francisco"),
	)

	tests := []struct {
		name       string
		conditions []proximity.Condition
		want       []string
	}{
		{
			name:       "any of specializations",
			conditions: []proximity.Condition{proximity.AnyOf(record.FieldSpecialization, "cats", "exotics")},
			want:       []string{"v1", "v2"},
		},
		{
			name:       "eq against array field",
			conditions: []proximity.Condition{proximity.Eq(record.FieldSpecialization, "dogs")},
			want:       []string{"v1"},
		},
		{
			name:       "city substring ignoring case",
			conditions: []proximity.Condition{proximity.ContainsFold(record.FieldCity, "san fran")},
			want:       []string{"v1", "v3"},
		},
		{
			name:       "numeric equality",
			conditions: []proximity.Condition{proximity.Eq(record.FieldRating, 4)},
			want:       []string{"v1", "v2", "v3"},
		},
		{
			name:       "unknown field never matches",
			conditions: []proximity.Condition{proximity.Eq("missing", "x")},
			want:       []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs, total, err := store.Find(context.Background(), proximity.Criteria{
				Conditions: tt.conditions,
				Sort:       []proximity.SortKey{{Field: record.FieldID, Type: proximity.SortString}},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(docs))
			assert.Equal(t, int64(len(tt.want)), total)
		})
	}
}

func TestMemoryStoreSortAndPaginate(t *testing.T) {
	store := NewMemoryStore(
		alert("a", sf, record.UrgencyLow, time.Minute),
		alert("b", sf, record.UrgencyCritical, time.Hour),
		alert("c", sf, record.UrgencyCritical, time.Minute),
		alert("d", sf, record.UrgencyMedium, 0),
		alert("e", sf, record.UrgencyMedium, 0),
	)

	sortKeys := []proximity.SortKey{
		{Field: record.FieldUrgency, Type: proximity.SortRank, Desc: true, Rank: record.UrgencyOrder},
		{Field: record.FieldCreatedAt, Type: proximity.SortTime, Desc: true},
		{Field: record.FieldID, Type: proximity.SortString},
	}

	docs, total, err := store.Find(context.Background(), proximity.Criteria{Sort: sortKeys})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"c", "b", "d", "e", "a"}, ids(docs))

	page, total, err := store.Find(context.Background(), proximity.Criteria{Sort: sortKeys, Skip: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"d", "e"}, ids(page))

	beyond, total, err := store.Find(context.Background(), proximity.Criteria{Sort: sortKeys, Skip: 10, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, beyond)
}

func TestLoadSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"alerts": [{"title": "Lost dog", "location": {"coordinates": [-122.4, 37.7]}, "isActive": true, "urgency": "high"}],
		"vets": [{"id": "vet-1", "clinicName": "Bay Vets", "location": {"type": "Point", "coordinates": [-122.4, 37.7]}}]
	}`), 0o600))

	stores, err := NewMemoryStores(path)
	require.NoError(t, err)

	assert.Equal(t, 1, stores.Alerts.Len())
	assert.Equal(t, 0, stores.Posts.Len())
	assert.Equal(t, 1, stores.Vets.Len())

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Alerts, 1)
	assert.NotEmpty(t, seed.Alerts[0].ID)
	assert.False(t, seed.Alerts[0].CreatedAt.IsZero())
	assert.Equal(t, "Point", seed.Alerts[0].Location.Type)
	assert.Equal(t, "vet-1", seed.Vets[0].ID)
}

func TestLoadSeedErrors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorContains(t, err, "error reading seed file")

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = LoadSeed(path)
	assert.ErrorContains(t, err, "error parsing seed file")
}
