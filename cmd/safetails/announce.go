// cmd/safetails/announce.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"safetails/internal/adapter/events"
	"safetails/internal/adapter/storage"
)

func announceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "announce <seed-file>",
		Short: "Publish the alerts of a seed file as alert-created events",
		Long: `Announce publishes every alert in a JSON seed file on the alert-created
subject. Running servers forward them to live feed subscribers nearby.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.announce(args[0])
		},
	}
}

func (a *app) announce(seedFile string) error {
	seed, err := storage.LoadSeed(seedFile)
	if err != nil {
		return err
	}

	nc, err := events.Connect(a.cfg.NATS, a.logger)
	if err != nil {
		return err
	}
	defer nc.Close()

	for _, alert := range seed.Alerts {
		if err := events.PublishAlertCreated(nc, a.cfg.NATS.SubjectPrefix, alert); err != nil {
			return err
		}
		a.logger.Info("alert announced", zap.String("alert", alert.ID))
	}

	if err := nc.Flush(); err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}
