// Package app wires the command line surface: flag and config
// resolution, backend selection, and the exit-code contract.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agis/ecal/internal/backend"
	"github.com/agis/ecal/internal/event"
	"github.com/agis/ecal/internal/output"
	"github.com/agis/ecal/internal/query"
	"github.com/agis/ecal/internal/render"
	"github.com/agis/ecal/internal/timeparse"
)

// backendFactory is swapped out by tests to inject a fake backend.
var backendFactory = openBackend

type globalOptions struct {
	Config  string
	Profile string
	Backend string
	TZ      string

	NoColor bool
	LineArt string

	Monday    bool
	NoWeekend bool

	NoStarted  bool
	NoDeclined bool
	Width      int
	Military   bool
	Details    []string

	ColorDate      string
	ColorNowMarker string
	ColorBorder    string
	ColorTitle     string

	// Default search horizon, in years around today.
	PastYears   int
	FutureYears int

	ICSPaths   []string
	ICSBackup  bool
	SQLitePath string

	// Resolved field toggles; Details overrides these when set.
	Outputs render.Outputs
}

func defaultGlobalOptions() *globalOptions {
	return &globalOptions{
		Profile:        "default",
		Backend:        "ics",
		LineArt:        "fancy",
		Width:          10,
		ColorDate:      "yellow",
		ColorNowMarker: "brightred",
		ColorBorder:    "white",
		ColorTitle:     "brightyellow",
		PastYears:      1,
		FutureYears:    2,
		Outputs:        render.DefaultOptions().Outputs,
	}
}

func Execute() int {
	cmd := NewRootCommand()
	err := cmd.Execute()
	if err != nil {
		renderTopLevelError(cmd, err)
	}
	return ExitCode(err)
}

func NewRootCommand() *cobra.Command {
	opts := defaultGlobalOptions()

	root := &cobra.Command{
		Use:           "ecal",
		Short:         "Render iCalendar agendas and week/month grids in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       BuildVersionString(),
	}
	root.SetVersionTemplate("ecal {{.Version}}\n")

	root.PersistentFlags().StringVar(&opts.Config, "config", "", "Config file path")
	root.PersistentFlags().StringVar(&opts.Profile, "profile", "default", "Config profile")
	root.PersistentFlags().StringVar(&opts.Backend, "backend", "ics", "Backend: ics|sqlite")
	root.PersistentFlags().StringVar(&opts.TZ, "tz", "", "IANA timezone for dates given on the command line")
	root.PersistentFlags().StringSliceVar(&opts.ICSPaths, "ics", nil, "Calendar file path (repeatable; more than one forces read-only)")
	root.PersistentFlags().StringVar(&opts.SQLitePath, "db", "", "SQLite database path")
	root.PersistentFlags().BoolVar(&opts.NoColor, "nocolor", false, "Disable color output")
	root.PersistentFlags().StringVar(&opts.LineArt, "lineart", "fancy", "Grid borders: fancy|unicode|ascii")
	root.PersistentFlags().BoolVar(&opts.Monday, "monday", false, "Start weeks on Monday")
	root.PersistentFlags().BoolVar(&opts.NoWeekend, "noweekend", false, "Hide Saturday and Sunday")
	root.PersistentFlags().BoolVar(&opts.NoStarted, "nostarted", false, "Hide events that already started")
	root.PersistentFlags().BoolVar(&opts.NoDeclined, "nodeclined", false, "Hide declined events (accepted for compatibility)")
	root.PersistentFlags().IntVar(&opts.Width, "width", 10, "Grid cell width in columns, minimum 10")
	root.PersistentFlags().BoolVar(&opts.Military, "military", false, "24 hour clock")
	root.PersistentFlags().StringSliceVar(&opts.Details, "details", nil, "Agenda fields: location,end,alarms,description,freebusy,uid")
	root.PersistentFlags().StringVar(&opts.ColorDate, "color-date", "yellow", "Date header color")
	root.PersistentFlags().StringVar(&opts.ColorNowMarker, "color-now-marker", "brightred", "Now marker color")
	root.PersistentFlags().StringVar(&opts.ColorBorder, "color-border", "white", "Grid border color")
	root.PersistentFlags().StringVar(&opts.ColorTitle, "color-title", "brightyellow", "Month title color")

	root.AddCommand(newAgendaCmd(opts))
	root.AddCommand(newCalwCmd(opts))
	root.AddCommand(newCalmCmd(opts))
	root.AddCommand(newSearchCmd(opts))
	root.AddCommand(newAddCmd(opts))
	root.AddCommand(newEditCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newSyncCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newVersionCmd())
	root.AddCommand(newCompletionCmd(root))

	return root
}

// buildContext resolves options across flags, env, and config files, and
// opens the configured backend.
func buildContext(cmd *cobra.Command, opts *globalOptions) (*output.Printer, backend.Backend, *globalOptions, error) {
	resolved, err := resolveGlobalOptions(cmd, opts)
	if err != nil {
		return nil, nil, nil, Wrap(exitUsage, err)
	}
	if err := validateOptions(resolved); err != nil {
		return nil, nil, nil, Wrap(exitUsage, err)
	}

	style := output.ArtFancy
	if strings.EqualFold(resolved.LineArt, "ascii") {
		style = output.ArtASCII
	}
	printer := output.New(cmd.OutOrStdout(), cmd.ErrOrStderr(), resolved.NoColor, style)

	be, err := backendFactory(resolved)
	if err != nil {
		printer.ErrMsg(err.Error() + "\n")
		return printer, nil, nil, WrapPrinted(exitBackend, err)
	}
	return printer, be, resolved, nil
}

func validateOptions(o *globalOptions) error {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case "ics", "sqlite":
	default:
		return fmt.Errorf("unknown backend: %s", o.Backend)
	}
	switch strings.ToLower(strings.TrimSpace(o.LineArt)) {
	case "fancy", "unicode", "ascii":
	default:
		return fmt.Errorf("invalid --lineart: %s", o.LineArt)
	}
	if o.Width < 10 {
		return fmt.Errorf("--width must be at least 10")
	}
	for _, c := range []string{o.ColorDate, o.ColorNowMarker, o.ColorBorder, o.ColorTitle} {
		if !output.ValidColorName(c) {
			return fmt.Errorf("unknown color: %s", c)
		}
	}
	for _, d := range o.Details {
		switch strings.ToLower(strings.TrimSpace(d)) {
		case "location", "end", "alarms", "description", "freebusy", "uid":
		default:
			return fmt.Errorf("unknown detail field: %s", d)
		}
	}
	return nil
}

func openBackend(o *globalOptions) (backend.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case "", "ics":
		if len(o.ICSPaths) == 0 {
			return nil, fmt.Errorf("no calendar file configured: set --ics or [ics] path")
		}
		return backend.NewICSBackend(o.ICSPaths, o.ICSBackup)
	case "sqlite":
		if strings.TrimSpace(o.SQLitePath) == "" {
			return nil, fmt.Errorf("no database configured: set --db or [sqlite] path")
		}
		return backend.NewSQLiteBackend(o.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown backend: %s", o.Backend)
	}
}

// loadStore takes one snapshot from the backend. Load diagnostics and
// the duplicate-uid warning go to stderr, never stdout.
func loadStore(ctx context.Context, be backend.Backend, p *output.Printer) (*event.Store, error) {
	evs, err := be.Events(ctx)
	if err != nil {
		p.ErrMsg(err.Error() + "\n")
		return nil, WrapPrinted(exitBackend, err)
	}
	if d, ok := be.(backend.Diagnoser); ok {
		for _, msg := range d.Diagnostics() {
			p.ErrMsg("warning: " + msg + "\n")
		}
	}
	store := event.NewStore(evs)
	if w := store.Warning(); w != "" {
		p.ErrMsg("warning: " + w + "\n")
	}
	if be.ReadOnly() {
		store.SetReadOnly()
	}
	return store, nil
}

func (o *globalOptions) location() *time.Location {
	if strings.TrimSpace(o.TZ) != "" {
		if loc, err := time.LoadLocation(o.TZ); err == nil {
			return loc
		}
	}
	return time.Local
}

// horizon is the default search window when a command gives no explicit
// range: PastYears before today through FutureYears after.
func (o *globalOptions) horizon(now time.Time) (time.Time, time.Time) {
	mid := timeparse.Midnight(now, o.location())
	past := int(365.25*float64(o.PastYears)) + 1
	future := int(365.25*float64(o.FutureYears)) + 1
	return mid.AddDate(0, 0, -past), mid.AddDate(0, 0, future)
}

func (o *globalOptions) newEngine(store *event.Store, now time.Time) *query.Engine {
	start, end := o.horizon(now)
	return query.NewEngine(store, start, end)
}

func (o *globalOptions) renderOptions() render.Options {
	r := render.DefaultOptions()
	r.CalWidth = o.Width
	r.Monday = o.Monday
	r.Weekend = !o.NoWeekend
	r.Military = o.Military
	r.ColorDate = o.ColorDate
	r.ColorNowMarker = o.ColorNowMarker
	r.ColorBorder = o.ColorBorder
	r.ColorTitle = o.ColorTitle
	r.IgnoreStarted = o.NoStarted
	r.IgnoreDeclined = o.NoDeclined
	r.Outputs = o.Outputs
	if len(o.Details) > 0 {
		r.Outputs = render.Outputs{Width: o.Outputs.Width}
		for _, d := range o.Details {
			switch strings.ToLower(strings.TrimSpace(d)) {
			case "location":
				r.Outputs.Location = true
			case "end":
				r.Outputs.End = true
			case "alarms":
				r.Outputs.Alarms = true
			case "description":
				r.Outputs.Description = true
			case "freebusy":
				r.Outputs.FreeBusy = true
			case "uid":
				r.Outputs.UID = true
			}
		}
	}
	return r
}

// weekAnchor snaps a date back to the first displayed day of its week.
func (o *globalOptions) weekAnchor(t time.Time) time.Time {
	offset := int(t.Weekday())
	if o.Monday || o.NoWeekend {
		offset = (offset + 6) % 7
	}
	return t.AddDate(0, 0, -offset)
}

// wrapQueryError maps bad requests to usage errors and everything else
// (e.g. an unparsable RRULE) to a generic failure.
func wrapQueryError(err error) error {
	var qe *query.Error
	if errors.As(err, &qe) {
		return Wrap(exitUsage, err)
	}
	return Wrap(exitGeneric, err)
}

// wrapBackendError maps mutation failures onto the exit-code contract.
func wrapBackendError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, event.ErrReadOnly):
		return Wrap(exitReadOnly, err)
	case errors.Is(err, backend.ErrNotFound):
		return Wrap(exitNotFound, err)
	default:
		return Wrap(exitBackend, err)
	}
}

func parseRangeArgs(args []string, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	var start, end time.Time
	var err error
	if len(args) > 0 {
		start, err = timeparse.ParseDateTime(args[0], now, loc)
		if err != nil {
			return start, end, err
		}
	}
	if len(args) > 1 {
		end, err = timeparse.ParseDateTime(args[1], now, loc)
		if err != nil {
			return start, end, err
		}
	}
	return start, end, nil
}

func stdinInteractive() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func promptLine(in io.Reader, p *output.Printer, prompt string) (string, error) {
	p.Msg(prompt, "default")
	var entered string
	if _, err := fmt.Fscanln(in, &entered); err != nil {
		return "", err
	}
	return strings.TrimSpace(entered), nil
}

func promptYes(in io.Reader, p *output.Printer, prompt string) bool {
	answer, err := promptLine(in, p, prompt)
	if err != nil {
		return false
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

func renderTopLevelError(cmd *cobra.Command, err error) {
	var appErr AppError
	if errors.As(err, &appErr) && appErr.Printed {
		return
	}
	_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "error: %s\n", err.Error())
}
