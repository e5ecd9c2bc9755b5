// internal/domain/proximity/query.go

package proximity

import (
	"math"

	"safetails/internal/domain/geo"
)

// Op identifies how a condition compares a record field
type Op string

const (
	// OpEq matches a scalar field equal to the value
	OpEq Op = "eq"
	// OpIn matches a scalar field equal to any of the values
	OpIn Op = "in"
	// OpAnyOf matches an array field sharing at least one element with the values
	OpAnyOf Op = "any_of"
	// OpContainsFold matches a text field containing the value, ignoring case
	OpContainsFold Op = "contains_fold"
)

// Condition is a single categorical filter on a record field
type Condition struct {
	Field  string
	Op     Op
	Value  any
	Values []string
}

// Eq builds an equality condition
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// In builds a set membership condition
func In(field string, values ...string) Condition {
	return Condition{Field: field, Op: OpIn, Values: values}
}

// AnyOf builds an array overlap condition
func AnyOf(field string, values ...string) Condition {
	return Condition{Field: field, Op: OpAnyOf, Values: values}
}

// ContainsFold builds a case-insensitive substring condition
func ContainsFold(field, text string) Condition {
	return Condition{Field: field, Op: OpContainsFold, Value: text}
}

// SortType tells store adapters how to order a field
type SortType string

const (
	SortString SortType = "string"
	SortNumber SortType = "number"
	SortBool   SortType = "bool"
	SortTime   SortType = "time"
	// SortRank orders a string field by its position in SortKey.Rank
	SortRank SortType = "rank"
)

// SortKey is one level of a result ordering
type SortKey struct {
	Field string
	Type  SortType
	Desc  bool
	// Rank lists values from lowest to highest for SortRank keys.
	// Values missing from the list rank below all listed values.
	Rank []string
}

// RankOf returns the ordinal of value within the key's rank list
func (k SortKey) RankOf(value string) int {
	for i, v := range k.Rank {
		if v == value {
			return i + 1
		}
	}
	return 0
}

// Circle is the spatial clause of a query
type Circle struct {
	Center   geo.Point
	RadiusKm float64
}

// Radians returns the circle radius as a central angle
func (c Circle) Radians() float64 {
	return geo.KmToRadians(c.RadiusKm)
}

// Meters returns the circle radius in meters
func (c Circle) Meters() float64 {
	return geo.KmToMeters(c.RadiusKm)
}

// Contains reports whether p lies inside the circle, boundary included
func (c Circle) Contains(p geo.Point) bool {
	return geo.Within(p, c.Center, c.RadiusKm)
}

// Criteria is everything but the spatial clause of a query.
// Count and data queries are always issued with the same Criteria.
type Criteria struct {
	Conditions []Condition
	Sort       []SortKey
	Skip       int64
	Limit      int64
}

// Pagination describes the page returned to the caller
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// NewPagination computes page metadata for a result
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if limit > 0 && total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}

	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		Total:       total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// Result is an ordered page of records
type Result[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
	// Degraded is true when the spatial clause was dropped after a spatial
	// index failure. It is not serialized to clients.
	Degraded bool `json:"-"`
}
