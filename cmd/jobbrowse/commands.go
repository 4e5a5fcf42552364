package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/pirate-pro/get-resume-direction/pkg/listing"
)

func orderCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage resume delivery orders",
	}
	cmd.AddCommand(orderCreateCmd(a))
	return cmd
}

func orderCreateCmd(a *app) *cobra.Command {
	var (
		req     listing.CreateOrderRequest
		jobID   int64
		eventID int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Submit a resume delivery order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("job") {
				req.TargetJobID = &jobID
			}
			if cmd.Flags().Changed("event") {
				req.TargetEventID = &eventID
			}

			created, err := a.svc.CreateOrder(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "order %s created (id %d, status %s)\n", created.OrderNo, created.ID, created.Status)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.UserName, "name", "", "applicant name")
	f.StringVar(&req.Phone, "phone", "", "applicant phone number")
	f.StringVar(&req.WechatID, "wechat", "", "WeChat id")
	f.StringVar(&req.SchoolName, "school", "", "school name")
	f.StringVar(&req.Major, "major", "", "major")
	f.StringVar(&req.ResumeURL, "resume-url", "", "resume url")
	f.Int64Var(&jobID, "job", 0, "target job id")
	f.Int64Var(&eventID, "event", 0, "target campus event id")
	f.StringVar(&req.TargetCompanyName, "company", "", "target company name")
	f.StringVar(&req.DeliveryType, "delivery", "", "delivery type (default "+listing.DefaultDeliveryType+")")
	f.IntVar(&req.Quantity, "quantity", 0, "quantity (default 1)")
	f.StringVar(&req.Note, "note", "", "note for the operator")
	return cmd
}

func detailCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "detail <list> <id>",
		Short: "Show one job, campus event or order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := parseList(args[0])
			if err != nil {
				return err
			}
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q: %w", args[1], err)
			}

			ctx := cmd.Context()
			var record any
			switch list {
			case listing.ListJobs:
				record, err = a.svc.JobDetail(ctx, id)
			case listing.ListCampusEvents:
				record, err = a.svc.CampusEventDetail(ctx, id)
			default:
				record, err = a.svc.OrderDetail(ctx, id)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), record, true)
		},
	}
}

func statsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show job counts by source, city and category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := a.svc.BasicStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, stats, true)
			}

			tw := newTable(out, "SOURCE", "JOBS")
			for _, c := range stats.BySource {
				fmt.Fprintf(tw, "%s\t%d\n", c.Source, c.Count)
			}
			tw.Flush()
			fmt.Fprintln(out)

			tw = newTable(out, "CITY", "JOBS")
			for _, c := range stats.ByCity {
				city := c.City
				if city == "" {
					city = "unknown"
				}
				fmt.Fprintf(tw, "%s\t%d\n", city, c.Count)
			}
			tw.Flush()
			fmt.Fprintln(out)

			tw = newTable(out, "CATEGORY", "JOBS")
			for _, c := range stats.ByCategory {
				fmt.Fprintf(tw, "%s\t%d\n", c.Category, c.Count)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw counts as JSON")
	return cmd
}

func exportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <list> [query]",
		Short: "Export every page of a list as JSON lines",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := parseList(args[0])
			if err != nil {
				return err
			}
			schema, err := a.svc.Schema(list)
			if err != nil {
				return err
			}
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}
			params := schema.Decode(raw)

			ctx := cmd.Context()
			start := time.Now()
			var (
				n     int
				write func() error
			)
			switch list {
			case listing.ListJobs:
				items, ferr := a.svc.ExportJobs(ctx, params)
				n, err = len(items), ferr
				write = func() error { return writeLines(cmd.OutOrStdout(), items) }
			case listing.ListCampusEvents:
				items, ferr := a.svc.ExportCampusEvents(ctx, params)
				n, err = len(items), ferr
				write = func() error { return writeLines(cmd.OutOrStdout(), items) }
			default:
				items, ferr := a.svc.ExportOrders(ctx, params)
				n, err = len(items), ferr
				write = func() error { return writeLines(cmd.OutOrStdout(), items) }
			}

			// Partial results are still written before the error is reported.
			if werr := write(); werr != nil {
				return werr
			}
			if err != nil {
				a.logger.Warn().Err(err).Int("items", n).Msg("Export incomplete")
				return err
			}
			a.logger.Info().
				Str("list", string(list)).
				Int("items", n).
				Dur("duration", time.Since(start)).
				Msg("Export finished")
			return nil
		},
	}
}

func writeLines[T any](out io.Writer, items []T) error {
	for _, item := range items {
		if err := writeJSON(out, item, false); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(out io.Writer, v any, indent bool) error {
	enc := json.NewEncoder(out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
