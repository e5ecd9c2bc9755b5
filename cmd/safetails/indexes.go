// cmd/safetails/indexes.go

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safetails/internal/adapter/storage"
	"safetails/internal/config"
	"safetails/internal/domain/record"
)

func indexesCmd(a *app) *cobra.Command {
	var seedFile string

	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Create spatial indexes and schema, optionally loading seed records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.indexes(cmd.Context(), seedFile)
		},
	}

	cmd.Flags().StringVar(&seedFile, "seed", "", "JSON seed file to upsert after the indexes exist")

	return cmd
}

func (a *app) indexes(ctx context.Context, seedFile string) error {
	var seed *storage.Seed
	if seedFile != "" {
		var err error
		if seed, err = storage.LoadSeed(seedFile); err != nil {
			return err
		}
	}

	switch a.cfg.Store.Driver {
	case config.DriverMongo:
		client, db, err := storage.ConnectMongo(ctx, a.cfg.Store.Mongo, a.logger)
		if err != nil {
			return err
		}
		defer client.Disconnect(context.Background())

		if err := storage.EnsureMongoIndexes(ctx, db); err != nil {
			return fmt.Errorf("failed to create indexes: %w", err)
		}
		a.logger.Info("MongoDB indexes ready", zap.String("database", a.cfg.Store.Mongo.Database))

		if seed != nil {
			alerts, posts, vets := storage.NewMongoStores(db)
			if err := insertSeed(ctx, seed, alerts, posts, vets); err != nil {
				return err
			}
		}

	case config.DriverPostgres:
		db, err := storage.ConnectPostgres(ctx, a.cfg.Store.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := storage.EnsurePostgresSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		a.logger.Info("PostGIS schema ready", zap.String("database", a.cfg.Store.Database.Database))

		if seed != nil {
			alerts, posts, vets := storage.NewPostgresStores(db)
			if err := insertSeed(ctx, seed, alerts, posts, vets); err != nil {
				return err
			}
		}

	case config.DriverMemory:
		a.logger.Info("memory store builds its index at startup, nothing to do")
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}

	if seed != nil {
		a.logger.Info("seed records loaded",
			zap.Int("alerts", len(seed.Alerts)),
			zap.Int("posts", len(seed.Posts)),
			zap.Int("vets", len(seed.Vets)),
		)
	}
	return nil
}

type inserter[T any] interface {
	Insert(ctx context.Context, docs ...T) error
}

func insertSeed(ctx context.Context, seed *storage.Seed, alerts inserter[*record.Alert], posts inserter[*record.Post], vets inserter[*record.Vet]) error {
	if err := alerts.Insert(ctx, seed.Alerts...); err != nil {
		return fmt.Errorf("failed to insert alerts: %w", err)
	}
	if err := posts.Insert(ctx, seed.Posts...); err != nil {
		return fmt.Errorf("failed to insert posts: %w", err)
	}
	if err := vets.Insert(ctx, seed.Vets...); err != nil {
		return fmt.Errorf("failed to insert vets: %w", err)
	}
	return nil
}
