// internal/adapter/storage/memory_store.go

package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/dhconnelly/rtreego"

	"safetails/internal/domain/geo"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
)

const (
	tolerance   = 1e-6
	minChildren = 25
	maxChildren = 50
	dimensions  = 2
)

// ErrMemorySpatialDisabled is returned while the spatial index is switched off
var ErrMemorySpatialDisabled = errors.New("memory store: spatial index disabled")

// spatialItem wraps a document for R-Tree indexing
type spatialItem struct {
	id   string
	rect *rtreego.Rect
}

func (si *spatialItem) Bounds() *rtreego.Rect {
	return si.rect
}

// MemoryStore is an in-memory collection indexed by an R-Tree
type MemoryStore[T record.Document] struct {
	mu             sync.RWMutex
	tree           *rtreego.Rtree
	docs           map[string]T
	items          map[string]*spatialItem
	spatialEnabled bool
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore[T record.Document](docs ...T) *MemoryStore[T] {
	s := &MemoryStore[T]{
		tree:           rtreego.NewTree(dimensions, minChildren, maxChildren),
		docs:           make(map[string]T),
		items:          make(map[string]*spatialItem),
		spatialEnabled: true,
	}
	s.Add(docs...)
	return s
}

// Add inserts or replaces documents by ID
func (s *MemoryStore[T]) Add(docs ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		id := doc.DocID()
		if item, ok := s.items[id]; ok {
			s.tree.Delete(item)
			delete(s.items, id)
		}

		s.docs[id] = doc

		p := doc.Point()
		if p.IsUnset() || p.Validate() != nil {
			continue
		}
		item := &spatialItem{id: id, rect: rtreego.Point{p.Latitude, p.Longitude}.ToRect(tolerance)}
		s.tree.Insert(item)
		s.items[id] = item
	}
}

// Len returns the number of stored documents
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// SetSpatialEnabled switches the spatial index on or off.
// While off, FindWithinRadius fails with ErrSpatialUnavailable.
func (s *MemoryStore[T]) SetSpatialEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spatialEnabled = enabled
}

// FindWithinRadius returns documents inside the circle matching the criteria
func (s *MemoryStore[T]) FindWithinRadius(ctx context.Context, circle proximity.Circle, criteria proximity.Criteria) ([]T, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.spatialEnabled {
		return nil, 0, &proximity.SpatialError{Err: ErrMemorySpatialDisabled}
	}

	var candidates []T
	for _, id := range s.candidateIDs(circle) {
		doc := s.docs[id]
		if circle.Contains(doc.Point()) {
			candidates = append(candidates, doc)
		}
	}

	return s.query(candidates, criteria)
}

// Find returns documents matching the criteria
func (s *MemoryStore[T]) Find(ctx context.Context, criteria proximity.Criteria) ([]T, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]T, 0, len(s.docs))
	for _, doc := range s.docs {
		all = append(all, doc)
	}

	return s.query(all, criteria)
}

// candidateIDs uses the R-Tree to prune documents that cannot be in the circle.
// Discs touching a pole or the antimeridian scan every indexed document.
func (s *MemoryStore[T]) candidateIDs(circle proximity.Circle) []string {
	if box, ok := geo.BoundingBox(circle.Center, circle.RadiusKm); ok {
		rect, err := rtreego.NewRect(
			rtreego.Point{box.MinLat, box.MinLng},
			[]float64{box.MaxLat - box.MinLat, box.MaxLng - box.MinLng},
		)
		if err == nil {
			results := s.tree.SearchIntersect(rect)
			ids := make([]string, 0, len(results))
			for _, r := range results {
				if item, ok := r.(*spatialItem); ok {
					ids = append(ids, item.id)
				}
			}
			return ids
		}
	}

	ids := make([]string, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	return ids
}

func (s *MemoryStore[T]) query(docs []T, criteria proximity.Criteria) ([]T, int64, error) {
	matched := make([]T, 0, len(docs))
	for _, doc := range docs {
		if matches(doc, criteria.Conditions) {
			matched = append(matched, doc)
		}
	}

	sortDocuments(matched, criteria.Sort)

	page := paginate(matched, criteria.Skip, criteria.Limit)
	out := make([]T, len(page))
	for i, doc := range page {
		out[i] = cloneDocument(doc)
	}

	return out, int64(len(matched)), nil
}

// cloneDocument copies records that support it so callers never share stored state
func cloneDocument[T any](doc T) T {
	if c, ok := any(doc).(interface{ Clone() T }); ok {
		return c.Clone()
	}
	return doc
}
