package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dhaka is the origin used across the proximity scenarios
var dhaka = NewPoint(90.4125, 23.8103)

// offsetNorth returns a point km kilometers due north of p
func offsetNorth(p Point, km float64) Point {
	return NewPoint(p.Longitude, p.Latitude+KmToRadians(km)*180/math.Pi)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		point   Point
		wantErr bool
	}{
		{"origin", NewPoint(90.4125, 23.8103), false},
		{"corners", NewPoint(-180, 90), false},
		{"other corner", NewPoint(180, -90), false},
		{"longitude too large", NewPoint(200, 23), true},
		{"longitude too small", NewPoint(-180.0001, 0), true},
		{"latitude too large", NewPoint(10, 90.5), true},
		{"nan", NewPoint(math.NaN(), 10), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestIsUnset(t *testing.T) {
	assert.True(t, NewPoint(0, 0).IsUnset())
	assert.False(t, NewPoint(0, 1).IsUnset())
	assert.False(t, NewPoint(1, 0).IsUnset())
}

func TestDistanceKm(t *testing.T) {
	// London to Paris is about 344 km
	london := NewPoint(-0.1278, 51.5074)
	paris := NewPoint(2.3522, 48.8566)
	assert.InDelta(t, 343.5, DistanceKm(london, paris), 1.0)

	assert.Zero(t, DistanceKm(dhaka, dhaka))
	assert.InDelta(t, 15.0, DistanceKm(dhaka, offsetNorth(dhaka, 15)), 1e-6)
}

func TestDistanceIsNotEuclidean(t *testing.T) {
	// One degree of longitude at 60N is about half of one at the equator
	equator := DistanceKm(NewPoint(0, 0), NewPoint(1, 0))
	north := DistanceKm(NewPoint(0, 60), NewPoint(1, 60))
	assert.InDelta(t, equator/2, north, 0.5)
}

func TestWithinBoundaryIsInclusive(t *testing.T) {
	p := offsetNorth(dhaka, 10)
	d := DistanceKm(dhaka, p)

	assert.True(t, Within(p, dhaka, d))
	assert.False(t, Within(p, dhaka, d-0.001))
}

func TestKmToRadians(t *testing.T) {
	assert.InDelta(t, 10.0/6371.0, KmToRadians(10), 1e-12)
	assert.Equal(t, 10000.0, KmToMeters(10))
}

func TestBoundingBoxEnclosesDisc(t *testing.T) {
	origin := NewPoint(10, 60)
	box, ok := BoundingBox(origin, 50)
	require.True(t, ok)

	// sample the circle edge and verify every sample sits inside the box
	for deg := 0; deg < 360; deg += 5 {
		bearing := float64(deg) * math.Pi / 180
		p := destination(origin, 50, bearing)
		assert.GreaterOrEqual(t, p.Latitude, box.MinLat)
		assert.LessOrEqual(t, p.Latitude, box.MaxLat)
		assert.GreaterOrEqual(t, p.Longitude, box.MinLng)
		assert.LessOrEqual(t, p.Longitude, box.MaxLng)
	}
}

func TestBoundingBoxRejectsPolesAndAntimeridian(t *testing.T) {
	_, ok := BoundingBox(NewPoint(0, 89.9), 50)
	assert.False(t, ok)

	_, ok = BoundingBox(NewPoint(179.9, 0), 50)
	assert.False(t, ok)
}

func destination(origin Point, km, bearing float64) Point {
	angle := KmToRadians(km)
	lat1 := origin.Latitude * math.Pi / 180
	lon1 := origin.Longitude * math.Pi / 180

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(angle) + math.Cos(lat1)*math.Sin(angle)*math.Cos(bearing))
	lon2 := lon1 + math.Atan2(math.Sin(bearing)*math.Sin(angle)*math.Cos(lat1), math.Cos(angle)-math.Sin(lat1)*math.Sin(lat2))

	return NewPoint(lon2*180/math.Pi, lat2*180/math.Pi)
}
