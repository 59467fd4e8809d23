package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stowage/pkg/engine/depletion"
	"github.com/DrSkyle/stowage/pkg/engine/report"
)

var simulateFlags struct {
	days  int
	to    string
	ids   []string
	names []string
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Advance the clock, consuming uses and expiring items",
	Example: `  stowage simulate --days 7 --use kit-01 --use-name "Water Pouch"
  stowage simulate --to 2025-08-01`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var req depletion.Request
		if cmd.Flags().Changed("days") {
			days := simulateFlags.days
			req.Days = &days
		}
		if simulateFlags.to != "" {
			to, err := parseDay(simulateFlags.to)
			if err != nil {
				return err
			}
			req.ToDate = &to
		}
		for _, id := range simulateFlags.ids {
			req.ItemsUsedPerDay = append(req.ItemsUsedPerDay, depletion.UsageRef{ItemID: id})
		}
		for _, n := range simulateFlags.names {
			req.ItemsUsedPerDay = append(req.ItemsUsedPerDay, depletion.UsageRef{Name: n})
		}

		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			res, err := s.eng.AdvanceTime(ctx, req, userID)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), res, func(w *report.Writer) { w.Advance(*res) })
		})
	},
}

var wasteCmd = &cobra.Command{
	Use:   "waste",
	Short: "Classify and list waste items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			records, err := s.eng.IdentifyWaste(ctx)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), records, func(w *report.Writer) { w.Waste(records) })
		})
	},
}

func init() {
	f := simulateCmd.Flags()
	f.IntVar(&simulateFlags.days, "days", 0, "Number of days to advance")
	f.StringVar(&simulateFlags.to, "to", "", "Advance to this date (YYYY-MM-DD)")
	f.StringSliceVar(&simulateFlags.ids, "use", nil, "Item IDs used once per day")
	f.StringSliceVar(&simulateFlags.names, "use-name", nil, "Item names used once per day")
	simulateCmd.MarkFlagsMutuallyExclusive("days", "to")
	simulateCmd.MarkFlagsOneRequired("days", "to")
}
