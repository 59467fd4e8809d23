package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/history"
	"github.com/DrSkyle/stowage/pkg/engine/report"
	"github.com/DrSkyle/stowage/pkg/storage"
	"github.com/DrSkyle/stowage/pkg/tui"
	"github.com/DrSkyle/stowage/pkg/warehouse"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show container utilization and pending returns",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), false, func(ctx context.Context, s *session) error {
			st, err := s.eng.Status(ctx)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), st, func(w *report.Writer) { w.Status(st) })
		})
	},
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Live capacity dashboard (TUI)",
	Long: `Opens an interactive view of container utilization. The persisted state is
reloaded every few seconds, so changes made by other invocations show up live.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, key, err := storage.Open(cmd.Context(), cfg.State.URL)
		if err != nil {
			return err
		}
		return tui.Run(func(ctx context.Context) (*warehouse.State, error) {
			return warehouse.Load(ctx, store, key, cargo.Day(time.Now()))
		})
	},
}

var logsFlags struct {
	filter history.Filter
	action string
	start  string
	end    string
}

var logsCmd = &cobra.Command{
	Use:     "logs",
	Short:   "Query the activity log",
	Example: "  stowage logs --item kit-01 --action retrieval --limit 20",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := logsFlags.filter
		f.ActionType = history.ActionType(logsFlags.action)
		var err error
		if logsFlags.start != "" {
			if f.Start, err = parseDay(logsFlags.start); err != nil {
				return err
			}
		}
		if logsFlags.end != "" {
			if f.End, err = parseDay(logsFlags.end); err != nil {
				return err
			}
			// A bare date covers the whole day.
			if len(logsFlags.end) == len(time.DateOnly) {
				f.End = f.End.Add(24*time.Hour - time.Nanosecond)
			}
		}
		return run(cmd.Context(), false, func(ctx context.Context, s *session) error {
			entries, err := s.eng.Logs(ctx, f)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), entries, func(w *report.Writer) { w.Entries(entries) })
		})
	},
}

func init() {
	f := logsCmd.Flags()
	f.StringVar(&logsFlags.filter.ItemID, "item", "", "Only entries for this item")
	f.StringVar(&logsFlags.filter.UserID, "by", "", "Only entries by this user")
	f.StringVar(&logsFlags.action, "action", "", "placement, retrieval, rearrangement, disposal or simulation")
	f.StringVar(&logsFlags.start, "start", "", "Earliest timestamp")
	f.StringVar(&logsFlags.end, "end", "", "Latest timestamp")
	f.IntVar(&logsFlags.filter.Limit, "limit", 100, "Newest entries to show")
}
