package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pirate-pro/get-resume-direction/internal/mockapi"
	"github.com/pirate-pro/get-resume-direction/pkg/logging"
)

func mockAPICmd() *cobra.Command {
	cfg := mockapi.DefaultConfig()
	var (
		addr  string
		delay time.Duration
	)

	cmd := &cobra.Command{
		Use:         "mock-api",
		Short:       "Serve an in-memory mock of the job aggregation API",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipService: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("mock-api")
			api := mockapi.New(cfg)
			api.SetDelay(delay)

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info().
					Str("addr", addr).
					Int("jobs", cfg.Jobs).
					Int("campus_events", cfg.CampusEvents).
					Msg("Starting mock API server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				logger.Info().Msg("Shutting down mock API server")
				return srv.Shutdown(ctx)
			}
		},
	}

	f := cmd.Flags()
	f.StringVar(&addr, "addr", ":8000", "listen address")
	f.IntVar(&cfg.Jobs, "jobs", cfg.Jobs, "number of seeded jobs")
	f.IntVar(&cfg.CampusEvents, "events", cfg.CampusEvents, "number of seeded campus events")
	f.DurationVar(&delay, "delay", 0, "delay every response")
	return cmd
}
