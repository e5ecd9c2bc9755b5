// internal/domain/geo/point.go

package geo

import (
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for every spherical computation
const EarthRadiusKm = 6371.0

// distanceEpsilonKm absorbs floating point noise on the inclusive boundary
const distanceEpsilonKm = 1e-9

// Point is a longitude/latitude pair in degrees
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// NewPoint creates a point from longitude and latitude
func NewPoint(lng, lat float64) Point {
	return Point{Longitude: lng, Latitude: lat}
}

// IsUnset reports whether the point is the [0,0] placeholder
func (p Point) IsUnset() bool {
	return p.Longitude == 0 && p.Latitude == 0
}

// Validate checks that both coordinates are inside their valid ranges
func (p Point) Validate() error {
	if math.IsNaN(p.Longitude) || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180,180]", p.Longitude)
	}
	if math.IsNaN(p.Latitude) || p.Latitude < -90 || p.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90,90]", p.Latitude)
	}
	return nil
}

// Coordinates returns the point in GeoJSON order
func (p Point) Coordinates() []float64 {
	return []float64{p.Longitude, p.Latitude}
}

func (p Point) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Longitude, p.Latitude)
}

// CentralAngle returns the angle in radians between two points using the haversine formula
func CentralAngle(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lon1 := a.Longitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	lon2 := b.Longitude * math.Pi / 180.0

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	hSin := math.Sin(dLat / 2)
	hSin *= hSin

	vSin := math.Sin(dLon / 2)
	vSin *= vSin

	h := hSin + math.Cos(lat1)*math.Cos(lat2)*vSin
	if h > 1 {
		h = 1
	}

	return 2 * math.Asin(math.Sqrt(h))
}

// DistanceKm calculates the great-circle distance between two points in kilometers
func DistanceKm(a, b Point) float64 {
	return EarthRadiusKm * CentralAngle(a, b)
}

// KmToRadians converts a surface distance into a central angle
func KmToRadians(km float64) float64 {
	return km / EarthRadiusKm
}

// KmToMeters converts kilometers into meters
func KmToMeters(km float64) float64 {
	return km * 1000
}

// Within reports whether p lies inside the spherical disc of radiusKm around origin.
// The boundary is inclusive.
func Within(p, origin Point, radiusKm float64) bool {
	return DistanceKm(p, origin) <= radiusKm+distanceEpsilonKm
}

// Bounds is a latitude/longitude box in degrees
type Bounds struct {
	MinLat, MinLng float64
	MaxLat, MaxLng float64
}

// BoundingBox returns a box enclosing the disc of radiusKm around origin.
// ok is false when the disc touches a pole or crosses the antimeridian,
// in which case callers must not prune with the box.
func BoundingBox(origin Point, radiusKm float64) (b Bounds, ok bool) {
	angle := KmToRadians(radiusKm)
	dLat := angle * 180 / math.Pi

	b.MinLat = origin.Latitude - dLat
	b.MaxLat = origin.Latitude + dLat
	if b.MinLat <= -90 || b.MaxLat >= 90 {
		return b, false
	}

	// Longitude degrees shrink with the cosine of the latitude; use the widest
	// row of the disc so the box always encloses it.
	maxAbsLat := math.Max(math.Abs(b.MinLat), math.Abs(b.MaxLat)) * math.Pi / 180
	sinLng := math.Sin(angle) / math.Cos(maxAbsLat)
	if sinLng >= 1 {
		return b, false
	}
	dLng := math.Asin(sinLng) * 180 / math.Pi

	b.MinLng = origin.Longitude - dLng
	b.MaxLng = origin.Longitude + dLng
	if b.MinLng < -180 || b.MaxLng > 180 {
		return b, false
	}

	return b, true
}
