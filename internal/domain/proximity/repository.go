// internal/domain/proximity/repository.go

package proximity

import (
	"context"

	"safetails/internal/domain/record"
)

// Repository reads one record collection.
// Implementations must return ErrSpatialUnavailable (wrapped or not) when the
// spatial clause cannot be evaluated, and only then.
type Repository[T record.Document] interface {
	// FindWithinRadius returns a page of records matching the criteria whose
	// location lies within the circle, plus the total number of matches
	FindWithinRadius(ctx context.Context, circle Circle, criteria Criteria) ([]T, int64, error)

	// Find returns a page of records matching the criteria without any
	// spatial constraint, plus the total number of matches
	Find(ctx context.Context, criteria Criteria) ([]T, int64, error)
}
