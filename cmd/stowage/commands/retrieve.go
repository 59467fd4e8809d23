package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stowage/pkg/engine"
	"github.com/DrSkyle/stowage/pkg/engine/report"
)

var retrieveAt string

var retrieveCmd = &cobra.Command{
	Use:     "retrieve <itemId>",
	Short:   "Take an item out and print the steps",
	Example: "  stowage retrieve kit-01 --user ops",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var at time.Time
		if retrieveAt != "" {
			var err error
			if at, err = parseDay(retrieveAt); err != nil {
				return err
			}
		}
		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			plan, err := s.eng.RetrieveItem(ctx, engine.RetrieveRequest{ItemID: args[0], UserID: userID, Timestamp: at})
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), plan, func(w *report.Writer) {
				w.Steps(fmt.Sprintf("RETRIEVE %s FROM %s", plan.ItemID, plan.ContainerID), plan.Steps)
			})
		})
	},
}

var searchReq engine.SearchRequest

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Locate an item and preview its retrieval",
	Example: `  stowage search --id kit-01
  stowage search --name "Med Kit"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), false, func(ctx context.Context, s *session) error {
			res, err := s.eng.SearchItem(ctx, searchReq)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), res, func(w *report.Writer) {
				if !res.Found {
					fmt.Fprintln(cmd.OutOrStdout(), "Not found")
					return
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s (%s) in %s, zone %s\n", res.Item.ID, res.Item.Name, res.Plan.ContainerID, res.Plan.Zone)
				w.Steps("RETRIEVAL", res.Plan.Steps)
			})
		})
	},
}

func init() {
	retrieveCmd.Flags().StringVar(&retrieveAt, "at", "", "Retrieval timestamp (default now)")
	searchCmd.Flags().StringVar(&searchReq.ItemID, "id", "", "Item ID")
	searchCmd.Flags().StringVar(&searchReq.ItemName, "name", "", "Item name")
	searchCmd.MarkFlagsMutuallyExclusive("id", "name")
	searchCmd.MarkFlagsOneRequired("id", "name")
}
