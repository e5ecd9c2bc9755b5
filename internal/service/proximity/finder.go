// internal/service/proximity/finder.go

package proximity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"safetails/internal/domain/geo"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
	"safetails/internal/metrics"
)

// Request is a proximity query against one profile.
// A nil or [0,0] Origin turns the query into a plain filtered listing.
type Request struct {
	Origin   *geo.Point
	RadiusKm *float64
	Filters  []proximity.Condition
	Page     int
	Limit    int
}

// Finder runs proximity queries for one collection profile
type Finder[T record.Document] struct {
	repo    proximity.Repository[T]
	profile Profile
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// Option configures a Finder
type Option func(*finderOptions)

type finderOptions struct {
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// WithTimeout bounds each store call
func WithTimeout(d time.Duration) Option {
	return func(o *finderOptions) { o.timeout = d }
}

// WithLogger sets the logger used to report degraded queries
func WithLogger(logger *zap.Logger) Option {
	return func(o *finderOptions) { o.logger = logger }
}

// WithMetrics sets the metrics sink
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *finderOptions) { o.metrics = m }
}

// NewFinder creates a finder for a repository and profile
func NewFinder[T record.Document](repo proximity.Repository[T], profile Profile, opts ...Option) *Finder[T] {
	o := finderOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Finder[T]{
		repo:    repo,
		profile: profile,
		timeout: o.timeout,
		logger:  o.logger.With(zap.String("profile", profile.Name)),
		metrics: o.metrics,
	}
}

// Profile returns the finder's profile
func (f *Finder[T]) Profile() Profile {
	return f.profile
}

// FindNear returns the page of records matching the request, ordered by the
// profile's sort. When the store cannot evaluate the spatial clause the same
// query is re-issued without it.
func (f *Finder[T]) FindNear(ctx context.Context, req Request) (*proximity.Result[T], error) {
	page, limit, err := f.pagination(req)
	if err != nil {
		return nil, err
	}

	circle, err := f.circle(req)
	if err != nil {
		return nil, err
	}

	criteria := proximity.Criteria{
		Conditions: f.profile.conditions(req.Filters),
		Sort:       f.profile.Sort,
		Skip:       int64(page-1) * int64(limit),
		Limit:      int64(limit),
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	start := time.Now()
	path := metrics.PathPlain

	var (
		records []T
		total   int64
	)

	if circle != nil {
		path = metrics.PathSpatial
		records, total, err = f.repo.FindWithinRadius(ctx, *circle, criteria)
		if errors.Is(err, proximity.ErrSpatialUnavailable) {
			f.logger.Warn("spatial query unavailable, falling back to non-spatial query",
				zap.Stringer("origin", circle.Center),
				zap.Float64("radius_km", circle.RadiusKm),
				zap.Error(err),
			)
			path = metrics.PathFallback
			records, total, err = f.repo.Find(ctx, criteria)
		}
	} else {
		records, total, err = f.repo.Find(ctx, criteria)
	}

	if err != nil {
		f.metrics.ObserveFailure(f.profile.Name, "store")
		f.logger.Error("proximity query failed", zap.String("path", path), zap.Error(err))
		return nil, fmt.Errorf("%s query: %w", f.profile.Name, err)
	}

	f.metrics.ObserveQuery(f.profile.Name, path, time.Since(start))

	if records == nil {
		records = []T{}
	}
	if path == metrics.PathSpatial {
		for _, r := range records {
			r.SetDistanceKm(geo.DistanceKm(circle.Center, r.Point()))
		}
	}

	return &proximity.Result[T]{
		Data:       records,
		Pagination: proximity.NewPagination(page, limit, total),
		Degraded:   path == metrics.PathFallback,
	}, nil
}

func (f *Finder[T]) pagination(req Request) (page, limit int, err error) {
	page, limit = req.Page, req.Limit

	if page == 0 {
		page = 1
	}
	if page < 1 {
		return 0, 0, proximity.NewInputError("page", "must be at least 1")
	}

	if limit == 0 {
		limit = f.profile.DefaultLimit
	}
	if limit < 1 || limit > f.profile.MaxLimit {
		return 0, 0, proximity.NewInputError("limit", "must be between 1 and %d", f.profile.MaxLimit)
	}

	return page, limit, nil
}

// circle returns the spatial clause, or nil when the query has no usable origin
func (f *Finder[T]) circle(req Request) (*proximity.Circle, error) {
	radius, err := f.profile.Radius(req.RadiusKm)
	if err != nil {
		return nil, err
	}

	if req.Origin == nil {
		return nil, nil
	}
	if err := req.Origin.Validate(); err != nil {
		return nil, proximity.NewInputError("origin", "%v", err)
	}
	if req.Origin.IsUnset() {
		return nil, nil
	}

	return &proximity.Circle{Center: *req.Origin, RadiusKm: radius}, nil
}
