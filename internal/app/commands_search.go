package app

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/agis/ecal/internal/query"
	"github.com/agis/ecal/internal/render"
)

func newSearchCmd(opts *globalOptions) *cobra.Command {
	var (
		property  string
		exactCase bool
	)

	cmd := &cobra.Command{
		Use:     "search PATTERN [start [end]]",
		Aliases: []string{"s"},
		Short:   "Find events by regular expression",
		Args:    cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, ro, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			now := time.Now()

			start, end, err := parseRangeArgs(args[1:], now, ro.location())
			if err != nil {
				return Wrap(exitUsage, err)
			}

			store, err := loadStore(context.Background(), be, printer)
			if err != nil {
				return err
			}
			events, err := ro.newEngine(store, now).Search(query.Request{
				Start:      start,
				End:        end,
				Pattern:    args[0],
				Field:      property,
				IgnoreCase: !exactCase,
			})
			if err != nil {
				return wrapQueryError(err)
			}

			agenda := render.Agenda{Printer: printer, Opts: ro.renderOptions(), Now: now}
			agenda.RenderList(events, true, false)
			return nil
		},
	}
	cmd.Flags().StringVar(&property, "property", "summary", "Event field to match: summary|location|description|uid|transp")
	cmd.Flags().BoolVarP(&exactCase, "exact-case", "n", false, "Match case-sensitively")
	return cmd
}
