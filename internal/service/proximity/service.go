// internal/service/proximity/service.go

package proximity

import (
	"go.uber.org/zap"

	"safetails/internal/config"
	"safetails/internal/domain/proximity"
	"safetails/internal/domain/record"
	"safetails/internal/metrics"
)

// Stores holds one repository per record collection
type Stores struct {
	Alerts proximity.Repository[*record.Alert]
	Posts  proximity.Repository[*record.Post]
	Vets   proximity.Repository[*record.Vet]
}

// Service exposes a finder per profile
type Service struct {
	Alerts        *Finder[*record.Alert]
	Posts         *Finder[*record.Post]
	Vets          *Finder[*record.Vet]
	VetsEmergency *Finder[*record.Vet]
}

// NewService wires the profiles from configuration to their stores
func NewService(stores Stores, cfg config.ProximityConfig, logger *zap.Logger, m *metrics.Metrics) *Service {
	opts := []Option{
		WithTimeout(cfg.QueryTimeout),
		WithLogger(logger),
		WithMetrics(m),
	}

	return &Service{
		Alerts:        NewFinder(stores.Alerts, AlertsProfile(cfg.Alerts), opts...),
		Posts:         NewFinder(stores.Posts, PostsProfile(cfg.Posts), opts...),
		Vets:          NewFinder(stores.Vets, VetsProfile(cfg.Vets), opts...),
		VetsEmergency: NewFinder(stores.Vets, VetsEmergencyProfile(cfg.VetsEmergency), opts...),
	}
}
