package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/agis/ecal/internal/query"
)

func newSyncCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Flush pending changes to the calendar store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printer, be, _, err := buildContext(cmd, opts)
			if err != nil {
				return err
			}
			if err := be.Sync(context.Background()); err != nil {
				return wrapBackendError(err)
			}
			printer.Msg("Calendar synced\n", "yellow")
			return nil
		},
	}
}

func newStatusCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show calendar summary and backend health",
		Args:  cobra.NoArgs,
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

			mode := "writable"
			if store.ReadOnly() {
				mode = "read-only"
			}
			printer.Msg(fmt.Sprintf("Backend:    %s (%s)\n", strings.ToLower(ro.Backend), mode), "default")
			printer.Msg(fmt.Sprintf("Events:     %s (%d recurring)\n",
				humanize.Comma(int64(store.Len())), len(store.RecurringUIDs())), "default")

			_, horizonEnd := ro.horizon(now)
			upcoming, err := ro.newEngine(store, now).Search(query.Request{Start: now, End: horizonEnd})
			if err != nil {
				return wrapQueryError(err)
			}
			next := "none scheduled"
			for _, ev := range upcoming {
				if ev.Start.Before(now) {
					continue
				}
				next = fmt.Sprintf("%s %s", ev.DisplayTitle(), humanize.Time(ev.Start))
				break
			}
			printer.Msg(fmt.Sprintf("Next event: %s\n", next), "default")
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ecal %s\n", BuildVersionString())
			return err
		},
	}
}

func newCompletionCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh|fish|powershell]",
		Short:     "Generate shell completion scripts",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(cmd.OutOrStdout(), true)
			case "zsh":
				return root.GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return root.GenFishCompletion(cmd.OutOrStdout(), true)
			default:
				return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
		},
	}
}
