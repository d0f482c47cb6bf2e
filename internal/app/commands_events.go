package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/agis/ecal/internal/event"
	"github.com/agis/ecal/internal/query"
	"github.com/agis/ecal/internal/render"
	"github.com/agis/ecal/internal/timeparse"
)

type eventFlags struct {
	Summary     string
	Location    string
	Description string
	Start       string
	End         string
	Duration    int // minutes
	AllDay      bool
	Days        int
	Alarm       int // minutes before start
	Free        bool
	Busy        bool
}

func (f *eventFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Summary, "summary", "S", "", "Event title")
	cmd.Flags().StringVarP(&f.Location, "location", "L", "", "Event location")
	cmd.Flags().StringVar(&f.Description, "description", "", "Event description")
	cmd.Flags().StringVarP(&f.Start, "start", "s", "", "Start date/time")
	cmd.Flags().StringVarP(&f.End, "end", "e", "", "End date/time")
	cmd.Flags().IntVarP(&f.Duration, "duration", "D", 0, "Duration in minutes")
	cmd.Flags().BoolVarP(&f.AllDay, "allday", "A", false, "All-day event")
	cmd.Flags().IntVarP(&f.Days, "days", "N", 1, "Length in days for all-day events")
	cmd.Flags().IntVarP(&f.Alarm, "alarm", "a", 0, "Reminder minutes before start, 0 for none")
	cmd.Flags().BoolVarP(&f.Free, "free", "f", false, "Mark time as free")
	cmd.Flags().BoolVarP(&f.Busy, "busy", "b", false, "Mark time as busy")
	cmd.MarkFlagsMutuallyExclusive("free", "busy")
	cmd.MarkFlagsMutuallyExclusive("end", "duration")
}

func newAddCmd(opts *globalOptions) *cobra.Command {
	var (
		flags    eventFlags
		noPrompt bool
	)

	cmd := &cobra.Command{
		Use:     "add",
		Aliases: []string{"a"},
		Short:   "Add an event to the calendar",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, ro, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			now := time.Now()
			loc := ro.location()

			store, err := loadStore(context.Background(), be, printer)
			if err != nil {
				return err
			}
			if err := store.CheckWritable(); err != nil {
				return Wrap(exitReadOnly, err)
			}

			summary := flags.Summary
			if summary == "" {
				if noPrompt || !stdinInteractive() {
					return Wrap(exitUsage, errors.New("--summary is required"))
				}
				summary, err = promptLine(cmd.InOrStdin(), printer, "Title: ")
				if err != nil || summary == "" {
					return Wrap(exitUsage, errors.New("--summary is required"))
				}
			}
			startStr := flags.Start
			if startStr == "" {
				if noPrompt || !stdinInteractive() {
					return Wrap(exitUsage, errors.New("--start is required"))
				}
				startStr, err = promptLine(cmd.InOrStdin(), printer, "When: ")
				if err != nil || startStr == "" {
					return Wrap(exitUsage, errors.New("--start is required"))
				}
			}
			start, err := timeparse.ParseDateTime(startStr, now, loc)
			if err != nil {
				return Wrap(exitUsage, err)
			}

			ev := event.Event{
				UID:          uuid.NewString(),
				Summary:      summary,
				Location:     flags.Location,
				Description:  flags.Description,
				Transparency: event.TranspBusy,
			}
			if flags.Free {
				ev.Transparency = event.TranspFree
			}
			if flags.Alarm > 0 {
				ev.Alarms = []event.Alarm{{
					Trigger: -time.Duration(flags.Alarm) * time.Minute,
					Action:  "DISPLAY",
				}}
			}

			if flags.AllDay {
				ev.AllDay = true
				ev.Start = timeparse.Midnight(start, loc)
				days := flags.Days
				if days < 1 {
					days = 1
				}
				// All-day ends are exclusive.
				ev.End = ev.Start.AddDate(0, 0, days)
			} else {
				ev.Start = start
				switch {
				case flags.End != "":
					end, err := timeparse.ParseDateTime(flags.End, now, loc)
					if err != nil {
						return Wrap(exitUsage, err)
					}
					if !end.After(start) {
						return Wrap(exitUsage, errors.New("--end must be after --start"))
					}
					ev.End = end
				case flags.Duration > 0:
					ev.End = start.Add(time.Duration(flags.Duration) * time.Minute)
				default:
					return Wrap(exitUsage, errors.New("give --end or --duration"))
				}
			}

			ctx := context.Background()
			if err := be.CreateEvent(ctx, ev); err != nil {
				return wrapBackendError(err)
			}
			if err := be.Sync(ctx); err != nil {
				return wrapBackendError(err)
			}

			printer.Msg(fmt.Sprintf("Added event <%s>\n", ev.UID), "yellow")
			agenda := render.Agenda{Printer: printer, Opts: ro.renderOptions(), Now: now}
			agenda.RenderEvents([]event.Event{ev}, true, false)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Fail instead of prompting for missing fields")
	return cmd
}

func newEditCmd(opts *globalOptions) *cobra.Command {
	var flags eventFlags

	cmd := &cobra.Command{
		Use:     "edit UID",
		Aliases: []string{"e"},
		Short:   "Edit an event by uid",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, ro, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			now := time.Now()
			loc := ro.location()

			store, err := loadStore(context.Background(), be, printer)
			if err != nil {
				return err
			}
			if err := store.CheckWritable(); err != nil {
				return Wrap(exitReadOnly, err)
			}

			ev, ok := store.Get(args[0])
			if !ok {
				return Wrap(exitNotFound, fmt.Errorf("no event with uid %s", args[0]))
			}

			if cmd.Flags().Changed("summary") {
				ev.Summary = flags.Summary
			}
			if cmd.Flags().Changed("location") {
				ev.Location = flags.Location
			}
			if cmd.Flags().Changed("description") {
				ev.Description = flags.Description
			}
			if cmd.Flags().Changed("start") {
				start, err := timeparse.ParseDateTime(flags.Start, now, loc)
				if err != nil {
					return Wrap(exitUsage, err)
				}
				if ev.AllDay {
					start = timeparse.Midnight(start, loc)
				}
				// Keep the length when only the start moves.
				if !ev.End.IsZero() {
					ev.End = start.Add(ev.EffectiveEnd().Sub(ev.Start))
				}
				ev.Start = start
			}
			if cmd.Flags().Changed("end") {
				end, err := timeparse.ParseDateTime(flags.End, now, loc)
				if err != nil {
					return Wrap(exitUsage, err)
				}
				if !end.After(ev.Start) {
					return Wrap(exitUsage, errors.New("--end must be after the start"))
				}
				ev.End = end
				ev.Duration = 0
			}
			if cmd.Flags().Changed("duration") {
				ev.End = ev.Start.Add(time.Duration(flags.Duration) * time.Minute)
				ev.Duration = 0
			}
			if cmd.Flags().Changed("days") && ev.AllDay {
				days := flags.Days
				if days < 1 {
					days = 1
				}
				ev.End = ev.Start.AddDate(0, 0, days)
			}
			if cmd.Flags().Changed("alarm") {
				ev.Alarms = nil
				if flags.Alarm > 0 {
					ev.Alarms = []event.Alarm{{
						Trigger: -time.Duration(flags.Alarm) * time.Minute,
						Action:  "DISPLAY",
					}}
				}
			}
			if cmd.Flags().Changed("free") && flags.Free {
				ev.Transparency = event.TranspFree
			}
			if cmd.Flags().Changed("busy") && flags.Busy {
				ev.Transparency = event.TranspBusy
			}

			ctx := context.Background()
			if err := be.UpdateEvent(ctx, ev); err != nil {
				return wrapBackendError(err)
			}
			if err := be.Sync(ctx); err != nil {
				return wrapBackendError(err)
			}

			printer.Msg(fmt.Sprintf("Updated event <%s>\n", ev.UID), "yellow")
			agenda := render.Agenda{Printer: printer, Opts: ro.renderOptions(), Now: now}
			agenda.RenderEvents([]event.Event{ev}, true, false)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	var (
		property  string
		exactCase bool
		noPrompt  bool
	)

	cmd := &cobra.Command{
		Use:     "delete PATTERN [start [end]]",
		Aliases: []string{"d"},
		Short:   "Delete events matching a pattern, with confirmation",
		Args:    cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, ro, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			now := time.Now()

			store, err := loadStore(context.Background(), be, printer)
			if err != nil {
				return err
			}
			if err := store.CheckWritable(); err != nil {
				return Wrap(exitReadOnly, err)
			}

			start, end, err := parseRangeArgs(args[1:], now, ro.location())
			if err != nil {
				return Wrap(exitUsage, err)
			}
			req := query.Request{
				Start:      start,
				End:        end,
				Pattern:    args[0],
				Field:      property,
				IgnoreCase: !exactCase,
			}
			eng := ro.newEngine(store, now)

			// A recurring match must delete the defining event, so search
			// plain events and series definitions separately.
			type candidate struct {
				ev     event.Event
				origin bool
			}
			var candidates []candidate
			if store.HasRecurring() {
				req.Category = query.NonRecurring
				plain, err := eng.Search(req)
				if err != nil {
					return wrapQueryError(err)
				}
				req.Category = query.OriginalOfRecurring
				origins, err := eng.Search(req)
				if err != nil {
					return wrapQueryError(err)
				}
				for _, ev := range plain {
					candidates = append(candidates, candidate{ev: ev})
				}
				for _, ev := range origins {
					candidates = append(candidates, candidate{ev: ev, origin: true})
				}
			} else {
				found, err := eng.Search(req)
				if err != nil {
					return wrapQueryError(err)
				}
				for _, ev := range found {
					candidates = append(candidates, candidate{ev: ev})
				}
			}

			if len(candidates) == 0 {
				printer.Msg("\nNo Events Found...\n", "yellow")
				return nil
			}

			agenda := render.Agenda{Printer: printer, Opts: ro.renderOptions(), Now: now}
			ctx := context.Background()
			deleted := 0
			for _, c := range candidates {
				agenda.RenderEvents([]event.Event{c.ev}, true, c.origin)
				if !noPrompt && !promptYes(cmd.InOrStdin(), printer, "Delete? [y/N] ") {
					continue
				}
				if err := be.DeleteEvent(ctx, c.ev.UID); err != nil {
					return wrapBackendError(err)
				}
				deleted++
			}
			if deleted > 0 {
				if err := be.Sync(ctx); err != nil {
					return wrapBackendError(err)
				}
			}
			printer.Msg(fmt.Sprintf("\n%d events deleted\n", deleted), "yellow")
			return nil
		},
	}
	cmd.Flags().StringVar(&property, "property", "summary", "Event field to match")
	cmd.Flags().BoolVarP(&exactCase, "exact-case", "n", false, "Match case-sensitively")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Delete without asking")
	return cmd
}
