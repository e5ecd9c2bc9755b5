// cmd/safetails/app.go

package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"safetails/internal/adapter/storage"
	"safetails/internal/config"
	proximitysvc "safetails/internal/service/proximity"
)

// openStores connects the configured store driver. The returned func
// releases the connection.
func (a *app) openStores(ctx context.Context) (proximitysvc.Stores, func(), error) {
	switch a.cfg.Store.Driver {
	case config.DriverMemory:
		stores, err := storage.NewMemoryStores(a.cfg.Store.Memory.SeedFile)
		if err != nil {
			return proximitysvc.Stores{}, nil, err
		}
		a.logger.Info("using in-memory store",
			zap.Int("alerts", stores.Alerts.Len()),
			zap.Int("posts", stores.Posts.Len()),
			zap.Int("vets", stores.Vets.Len()),
		)
		return proximitysvc.Stores{Alerts: stores.Alerts, Posts: stores.Posts, Vets: stores.Vets}, func() {}, nil

	case config.DriverMongo:
		client, db, err := storage.ConnectMongo(ctx, a.cfg.Store.Mongo, a.logger)
		if err != nil {
			return proximitysvc.Stores{}, nil, err
		}
		alerts, posts, vets := storage.NewMongoStores(db)
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				a.logger.Warn("failed to disconnect from MongoDB", zap.Error(err))
			}
		}
		return proximitysvc.Stores{Alerts: alerts, Posts: posts, Vets: vets}, cleanup, nil

	case config.DriverPostgres:
		db, err := storage.ConnectPostgres(ctx, a.cfg.Store.Database)
		if err != nil {
			return proximitysvc.Stores{}, nil, err
		}
		alerts, posts, vets := storage.NewPostgresStores(db)
		return proximitysvc.Stores{Alerts: alerts, Posts: posts, Vets: vets}, db.Close, nil

	default:
		return proximitysvc.Stores{}, nil, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
}
