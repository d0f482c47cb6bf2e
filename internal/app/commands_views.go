package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/agis/ecal/internal/query"
	"github.com/agis/ecal/internal/render"
	"github.com/agis/ecal/internal/timeparse"
)

func newAgendaCmd(opts *globalOptions) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:     "agenda [start [end]]",
		Aliases: []string{"g"},
		Short:   "List events chronologically",
		Args:    cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, ro, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			now := time.Now()
			loc := ro.location()

			start, end, err := parseRangeArgs(args, now, loc)
			if err != nil {
				return Wrap(exitUsage, err)
			}
			if start.IsZero() {
				start = timeparse.Midnight(now, loc)
			}
			if end.IsZero() {
				end = start.AddDate(0, 0, days)
			}

			store, err := loadStore(context.Background(), be, printer)
			if err != nil {
				return err
			}
			events, err := ro.newEngine(store, now).Search(query.Request{Start: start, End: end})
			if err != nil {
				return wrapQueryError(err)
			}

			agenda := render.Agenda{Printer: printer, Opts: ro.renderOptions(), Now: now}
			agenda.RenderList(events, false, false)
			return nil
		},
	}
	cmd.Flags().IntVarP(&days, "days", "n", 5, "Days to list when no end date is given")
	return cmd
}

func newCalwCmd(opts *globalOptions) *cobra.Command {
	var weeks int

	cmd := &cobra.Command{
		Use:     "calw [start]",
		Aliases: []string{"w"},
		Short:   "Draw a week-per-row calendar grid",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, ro, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			now := time.Now()
			loc := ro.location()

			start := timeparse.Midnight(now, loc)
			if len(args) > 0 {
				start, err = timeparse.ParseDateTime(args[0], now, loc)
				if err != nil {
					return Wrap(exitUsage, err)
				}
				start = timeparse.Midnight(start, loc)
			}
			start = ro.weekAnchor(start)
			end := start.AddDate(0, 0, 7*weeks)

			store, err := loadStore(context.Background(), be, printer)
			if err != nil {
				return err
			}
			events, err := ro.newEngine(store, now).Search(query.Request{Start: start, End: end})
			if err != nil {
				return wrapQueryError(err)
			}

			grid := render.Grid{Printer: printer, Opts: ro.renderOptions(), Now: now}
			grid.Render(render.ModeWeek, start, weeks, events)
			return nil
		},
	}
	cmd.Flags().IntVarP(&weeks, "weeks", "n", 2, "Weeks to draw")
	return cmd
}

func newCalmCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "calm [month]",
		Aliases: []string{"m"},
		Short:   "Draw one month as a calendar grid",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, ro, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			now := time.Now()
			loc := ro.location()

			anchor := now
			if len(args) > 0 {
				anchor, err = timeparse.ParseMonth(args[0], now, loc)
				if err != nil {
					return Wrap(exitUsage, err)
				}
			}
			y, m, _ := anchor.In(loc).Date()
			monthStart := time.Date(y, m, 1, 0, 0, 0, 0, loc)

			grid := render.Grid{Printer: printer, Opts: ro.renderOptions(), Now: now}
			weeks := grid.MonthWeeks(monthStart)

			store, err := loadStore(context.Background(), be, printer)
			if err != nil {
				return err
			}
			// Only the month itself: leading and trailing cells from the
			// adjacent months stay empty, matching their blanked dates.
			events, err := ro.newEngine(store, now).Search(query.Request{Start: monthStart, End: monthStart.AddDate(0, 1, 0)})
			if err != nil {
				return wrapQueryError(err)
			}

			grid.Render(render.ModeMonth, monthStart, weeks, events)
			return nil
		},
	}
}
