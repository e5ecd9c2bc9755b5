// cmd/safetails/near.go

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"safetails/internal/domain/geo"
	proximitysvc "safetails/internal/service/proximity"
)

type nearOptions struct {
	profile string
	lat     float64
	lng     float64
	radius  float64
	page    int
	limit   int
	filters []string
}

func nearCmd(a *app) *cobra.Command {
	opts := nearOptions{}

	cmd := &cobra.Command{
		Use:   "near",
		Short: "Run one proximity query and print the result as JSON",
		Example: `  safetails near --profile alerts --lat 23.8103 --lng 90.4125 --radius 5
  safetails near --profile vets --lat 23.8103 --lng 90.4125 --filter specialization=surgery`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.near(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.profile, "profile", proximitysvc.ProfileAlerts, "Query profile (alerts, posts, vets, vets-emergency)")
	cmd.Flags().Float64Var(&opts.lat, "lat", 0, "Origin latitude")
	cmd.Flags().Float64Var(&opts.lng, "lng", 0, "Origin longitude")
	cmd.Flags().Float64Var(&opts.radius, "radius", 0, "Radius in kilometers (profile default when unset)")
	cmd.Flags().IntVar(&opts.page, "page", 0, "Page number, starting at 1")
	cmd.Flags().IntVar(&opts.limit, "limit", 0, "Page size")
	cmd.Flags().StringArrayVar(&opts.filters, "filter", nil, "Filter as key=value, repeatable")

	return cmd
}

func (a *app) near(ctx context.Context, cmd *cobra.Command, opts nearOptions) error {
	stores, closeStores, err := a.openStores(ctx)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer closeStores()

	svc := proximitysvc.NewService(stores, a.cfg.Proximity, a.logger, nil)
	querier, ok := svc.Queriers()[opts.profile]
	if !ok {
		return fmt.Errorf("unknown profile %q", opts.profile)
	}

	params := url.Values{}
	for _, f := range opts.filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid filter %q, expected key=value", f)
		}
		params.Add(key, value)
	}

	filters, err := querier.Profile().ParseFilters(params)
	if err != nil {
		return err
	}

	req := proximitysvc.Request{Filters: filters, Page: opts.page, Limit: opts.limit}
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		origin := geo.NewPoint(opts.lng, opts.lat)
		req.Origin = &origin
	}
	if cmd.Flags().Changed("radius") {
		radius := opts.radius
		req.RadiusKm = &radius
	}

	env, err := querier.Query(ctx, req)
	if err != nil {
		env = proximitysvc.ErrorEnvelope(opts.profile, err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(env); encErr != nil {
		return encErr
	}
	return err
}
