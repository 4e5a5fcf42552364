package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pirate-pro/get-resume-direction/pkg/listing"
	"github.com/pirate-pro/get-resume-direction/pkg/listview"
)

const browseHelp = `commands:
  type <field> <text>   type into a text filter (applied after the quiet period)
  set <field> <value>   set a filter now
  sort <key>            change the sort order
  page <n> | next | prev
  reset                 clear every filter
  refetch               reload the current page
  wait                  wait for pending input and the current load
  show                  print the current page
  back                  return to the previous url
  url                   print the current url
  quit`

func browseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse <list> [query]",
		Short: "Browse a list interactively",
		Long: `Browse a list interactively. The list view keeps its url in sync with
every change, shows the previous page while the next one loads and
prefetches the following page in the background.

` + browseHelp,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := parseList(args[0])
			if err != nil {
				return err
			}
			raw := ""
			if len(args) == 2 {
				raw = strings.TrimPrefix(args[1], "?")
			}
			loc := listview.NewMemoryLocation("/" + string(list) + "?" + raw)

			s := &session{
				ctx:   cmd.Context(),
				in:    cmd.InOrStdin(),
				out:   cmd.OutOrStdout(),
				loc:   loc,
				quiet: a.cfg.List.QuietPeriod,
			}
			switch list {
			case listing.ListJobs:
				view, err := a.svc.Jobs(loc)
				if err != nil {
					return err
				}
				return browse(s, view, renderJobs)
			case listing.ListCampusEvents:
				view, err := a.svc.CampusEvents(loc)
				if err != nil {
					return err
				}
				return browse(s, view, renderCampusEvents)
			default:
				view, err := a.svc.Orders(loc)
				if err != nil {
					return err
				}
				return browse(s, view, renderOrders)
			}
		},
	}
}

type session struct {
	ctx   context.Context
	in    io.Reader
	out   io.Writer
	loc   *listview.MemoryLocation
	quiet time.Duration
}

func browse[T any](s *session, view *listview.Orchestrator[T], render func(io.Writer, []T)) error {
	defer view.Close()

	view.Sync()
	show := func() error {
		ctx, cancel := context.WithTimeout(s.ctx, settleTimeout)
		defer cancel()
		v, err := waitSettled(ctx, view)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, s.loc.String())
		printView(s.out, v, render)
		return nil
	}
	if err := show(); err != nil {
		return err
	}

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		var err error
		switch cmd {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(s.out, browseHelp)
		case "type":
			if len(args) < 1 {
				err = fmt.Errorf("usage: type <field> <text>")
				break
			}
			err = view.Type(args[0], strings.Join(args[1:], " "))
		case "set":
			if len(args) < 1 {
				err = fmt.Errorf("usage: set <field> <value>")
				break
			}
			if err = view.SetFilter(args[0], strings.Join(args[1:], " ")); err == nil {
				err = show()
			}
		case "sort":
			if len(args) != 1 {
				err = fmt.Errorf("usage: sort <key>")
				break
			}
			view.SetSort(args[0])
			err = show()
		case "page":
			var n int
			if len(args) != 1 {
				err = fmt.Errorf("usage: page <n>")
				break
			}
			if n, err = strconv.Atoi(args[0]); err == nil {
				view.GoToPage(n)
				err = show()
			}
		case "next", "prev":
			page := view.View().Params.Page
			if cmd == "next" {
				page++
			} else {
				page--
			}
			view.GoToPage(page)
			err = show()
		case "reset":
			view.ResetFilters()
			err = show()
		case "refetch":
			view.Refetch()
			err = show()
		case "wait":
			select {
			case <-time.After(s.quiet + 50*time.Millisecond):
			case <-s.ctx.Done():
				return s.ctx.Err()
			}
			err = show()
		case "show":
			err = show()
		case "back":
			if !s.loc.Back() {
				fmt.Fprintln(s.out, "no earlier url")
				break
			}
			view.Sync()
			err = show()
		case "url":
			fmt.Fprintln(s.out, s.loc.String())
		default:
			err = fmt.Errorf("unknown command %q (try help)", cmd)
		}
		if err != nil {
			fmt.Fprintln(s.out, "error:", err)
		}
	}
}
