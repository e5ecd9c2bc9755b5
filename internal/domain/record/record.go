// internal/domain/record/record.go

package record

import (
	"time"

	"safetails/internal/domain/geo"
)

// Document is a persisted record carrying a geographic point.
// Field exposes the record's filterable attributes by their stored key.
type Document interface {
	DocID() string
	Point() geo.Point
	Field(name string) (any, bool)
	SetDistanceKm(km float64)
}

// Location is a GeoJSON point as stored in the document database
type Location struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [lng, lat]
}

// NewLocation creates a GeoJSON point
func NewLocation(p geo.Point) Location {
	return Location{Type: "Point", Coordinates: p.Coordinates()}
}

// Point converts the GeoJSON coordinates into a geo.Point.
// Missing or short coordinate arrays map to the unset [0,0] point.
func (l Location) Point() geo.Point {
	if len(l.Coordinates) < 2 {
		return geo.Point{}
	}
	return geo.NewPoint(l.Coordinates[0], l.Coordinates[1])
}

// Common field keys shared by all collections
const (
	FieldID        = "_id"
	FieldLocation  = "location"
	FieldStatus    = "status"
	FieldIsActive  = "isActive"
	FieldCreatedAt = "createdAt"
	FieldUser      = "user"
	FieldCity      = "city"
	FieldState     = "state"
)

// Base holds the attributes every geo record shares
type Base struct {
	ID        string    `bson:"_id" json:"id"`
	Location  Location  `bson:"location" json:"location"`
	Status    string    `bson:"status,omitempty" json:"status,omitempty"`
	IsActive  bool      `bson:"isActive" json:"isActive"`
	User      string    `bson:"user,omitempty" json:"user,omitempty"`
	City      string    `bson:"city,omitempty" json:"city,omitempty"`
	State     string    `bson:"state,omitempty" json:"state,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	// DistanceKm is computed per query and never stored
	DistanceKm *float64 `bson:"-" json:"distanceKm,omitempty"`
}

// DocID returns the record identifier
func (b *Base) DocID() string {
	return b.ID
}

// Point returns the record location
func (b *Base) Point() geo.Point {
	return b.Location.Point()
}

// SetDistanceKm annotates the record with its distance from a query origin
func (b *Base) SetDistanceKm(km float64) {
	b.DistanceKm = &km
}

func (b *Base) field(name string) (any, bool) {
	switch name {
	case FieldID:
		return b.ID, true
	case FieldStatus:
		return b.Status, true
	case FieldIsActive:
		return b.IsActive, true
	case FieldCreatedAt:
		return b.CreatedAt, true
	case FieldUser:
		return b.User, true
	case FieldCity:
		return b.City, true
	case FieldState:
		return b.State, true
	}
	return nil, false
}

// clone returns a copy of b without the per-query distance
func (b Base) clone() Base {
	b.Location.Coordinates = append([]float64(nil), b.Location.Coordinates...)
	b.DistanceKm = nil
	return b
}
