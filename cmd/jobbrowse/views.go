package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pirate-pro/get-resume-direction/pkg/listing"
	"github.com/pirate-pro/get-resume-direction/pkg/listview"
)

// settleTimeout bounds how long a command waits for a list to load.
const settleTimeout = 30 * time.Second

var errViewClosed = errors.New("list view closed")

func listCmd(a *app, list listing.List, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			return showOnce(cmd.Context(), cmd.OutOrStdout(), a.svc, list, raw)
		},
	}
}

func ordersCmd(a *app) *cobra.Command {
	var phone string
	cmd := &cobra.Command{
		Use:   "orders [query]",
		Short: "List orders, optionally for one phone number",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw := ""
			if len(args) == 1 {
				raw = args[0]
			}
			if phone != "" {
				raw = strings.TrimPrefix(raw+"&phone="+phone, "&")
			}
			return showOnce(cmd.Context(), cmd.OutOrStdout(), a.svc, listing.ListOrders, raw)
		},
	}
	cmd.Flags().StringVar(&phone, "phone", "", "only orders placed with this phone number")
	return cmd
}

// showOnce loads one page of a list through a list view and prints it.
func showOnce(ctx context.Context, out io.Writer, svc *listing.Service, list listing.List, raw string) error {
	loc := listview.NewMemoryLocation("/" + string(list) + "?" + strings.TrimPrefix(raw, "?"))

	ctx, cancel := context.WithTimeout(ctx, settleTimeout)
	defer cancel()

	switch list {
	case listing.ListJobs:
		view, err := svc.Jobs(loc)
		if err != nil {
			return err
		}
		defer view.Close()
		view.Sync()
		return printSettled(ctx, out, view, renderJobs)
	case listing.ListCampusEvents:
		view, err := svc.CampusEvents(loc)
		if err != nil {
			return err
		}
		defer view.Close()
		view.Sync()
		return printSettled(ctx, out, view, renderCampusEvents)
	default:
		view, err := svc.Orders(loc)
		if err != nil {
			return err
		}
		defer view.Close()
		view.Sync()
		return printSettled(ctx, out, view, renderOrders)
	}
}

func printSettled[T any](ctx context.Context, out io.Writer, view *listview.Orchestrator[T], render func(io.Writer, []T)) error {
	v, err := waitSettled(ctx, view)
	if err != nil {
		return err
	}
	if v.IsError {
		return v.Err
	}
	printView(out, v, render)
	return nil
}

// waitSettled blocks until the view has a result for its current key and
// no fetch is running.
func waitSettled[T any](ctx context.Context, view *listview.Orchestrator[T]) (listview.View[T], error) {
	for {
		v := view.View()
		if !v.IsFetching && (v.State == listview.StateSuccess || v.State == listview.StateError) {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return v, ctx.Err()
		case _, ok := <-view.Changes():
			if !ok {
				return view.View(), errViewClosed
			}
		}
	}
}

func printView[T any](out io.Writer, v listview.View[T], render func(io.Writer, []T)) {
	if v.Data == nil {
		fmt.Fprintln(out, "no data")
		return
	}

	render(out, v.Data.Items)

	meta := v.Data.Meta()
	status := ""
	switch {
	case v.IsError:
		status = fmt.Sprintf(" (error: %v)", v.Err)
	case v.IsPlaceholder:
		status = " (loading)"
	case v.IsFetching:
		status = " (refreshing)"
	}
	if meta.Total == 0 {
		fmt.Fprintf(out, "no results, 0 total%s\n", status)
		return
	}
	fmt.Fprintf(out, "page %d of %d, %d total%s\n", meta.Page, meta.TotalPages(), meta.Total, status)
}

func newTable(out io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func renderJobs(out io.Writer, jobs []listing.Job) {
	tw := newTable(out, "ID", "TITLE", "COMPANY", "CITY", "SALARY", "PUBLISHED")
	for _, j := range jobs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.Title, j.CompanyName, dash(j.City), salary(j.SalaryMin, j.SalaryMax), date(j.PublishedAt))
	}
	tw.Flush()
}

func renderCampusEvents(out io.Writer, events []listing.CampusEvent) {
	tw := newTable(out, "ID", "TITLE", "COMPANY", "SCHOOL", "CITY", "STARTS")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Title, dash(e.CompanyName), dash(e.SchoolName), dash(e.City), date(e.StartsAt))
	}
	tw.Flush()
}

func renderOrders(out io.Writer, orders []listing.Order) {
	tw := newTable(out, "ID", "ORDER NO", "NAME", "STATUS", "TARGET", "CREATED")
	for _, o := range orders {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.OrderNo, o.UserName, o.Status, target(o), date(&o.CreatedAt))
	}
	tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func salary(lo, hi *float64) string {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	switch {
	case lo != nil && hi != nil:
		return format(*lo) + "-" + format(*hi)
	case lo != nil:
		return format(*lo) + "+"
	case hi != nil:
		return "up to " + format(*hi)
	default:
		return "-"
	}
}

func target(o listing.Order) string {
	switch {
	case o.TargetJobID != nil:
		return "job " + strconv.FormatInt(*o.TargetJobID, 10)
	case o.TargetEventID != nil:
		return "event " + strconv.FormatInt(*o.TargetEventID, 10)
	default:
		return dash(o.TargetCompanyName)
	}
}
