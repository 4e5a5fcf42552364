package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pirate-pro/get-resume-direction/internal/config"
	"github.com/pirate-pro/get-resume-direction/pkg/cache"
	"github.com/pirate-pro/get-resume-direction/pkg/client"
	"github.com/pirate-pro/get-resume-direction/pkg/listing"
	"github.com/pirate-pro/get-resume-direction/pkg/logging"
	"github.com/pirate-pro/get-resume-direction/pkg/metrics"
	"github.com/pirate-pro/get-resume-direction/pkg/pagination"
)

// app carries what the subcommands share. It is filled by the root
// command's pre-run hook.
type app struct {
	cfgFile string
	cfg     config.Config
	logger  zerolog.Logger

	cache       *cache.Cache
	svc         *listing.Service
	stopMetrics context.CancelFunc
}

// newRootCmd is the root Cobra command. All other sub-commands are
// registered here.
func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:          "jobbrowse",
		Short:        "jobbrowse browses jobs, campus events and orders of the job aggregation API.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.teardown()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./jobbrowse.yaml)")
	flags.String("api-url", "", "API base url, e.g. http://localhost:8000")
	flags.Duration("timeout", 0, "per request timeout")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.Bool("pretty", false, "human readable logs")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.Int("page-size", 0, "default page size")
	flags.Bool("no-prefetch", false, "disable next page prefetching")

	cmd.AddCommand(
		listCmd(a, listing.ListJobs, "jobs [query]", "List jobs, e.g. jobs 'city=Shenzhen&sort_by=salary'"),
		listCmd(a, listing.ListCampusEvents, "events [query]", "List campus events"),
		ordersCmd(a),
		orderCmd(a),
		detailCmd(a),
		statsCmd(a),
		exportCmd(a),
		browseCmd(a),
		mockAPICmd(),
	)

	return cmd
}

// setup loads the configuration and builds the listing service. Commands
// annotated with skipService only get configuration and logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging())
	a.logger = logging.NewLogger("jobbrowse")

	if cfg.Metrics.Addr != "" {
		ctx, cancel := context.WithCancel(cmd.Context())
		a.stopMetrics = cancel
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				a.logger.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("Metrics endpoint failed")
			}
		}()
	}

	if cmd.Annotations[skipService] != "" {
		return nil
	}

	c, err := client.New(cfg.Client())
	if err != nil {
		return fmt.Errorf("create api client: %w", err)
	}

	a.cache = cache.New(cfg.QueryCache())
	prefetch := pagination.DefaultPrefetcherConfig()
	prefetch.Enabled = cfg.List.Prefetch

	a.svc, err = listing.New(listing.Config{
		Client:      c,
		Cache:       a.cache,
		Prefetcher:  pagination.NewPrefetcher(a.cache, prefetch),
		QuietPeriod: cfg.List.QuietPeriod,
		PageSize:    cfg.List.PageSize,
		MaxPageSize: cfg.List.MaxPageSize,
		Batch:       cfg.Batch(),
	})
	if err != nil {
		return fmt.Errorf("create listing service: %w", err)
	}
	return nil
}

func (a *app) teardown() {
	if a.cache != nil {
		a.cache.Close()
	}
	if a.stopMetrics != nil {
		a.stopMetrics()
	}
}

// skipService marks commands that do not talk to the API.
const skipService = "jobbrowse/skip-service"

func parseList(name string) (listing.List, error) {
	switch listing.List(name) {
	case listing.ListJobs, listing.ListCampusEvents, listing.ListOrders:
		return listing.List(name), nil
	case "campus-events":
		return listing.ListCampusEvents, nil
	default:
		return "", fmt.Errorf("unknown list %q (want jobs, events or orders)", name)
	}
}
