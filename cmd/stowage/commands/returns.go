package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stowage/pkg/engine/report"
	"github.com/DrSkyle/stowage/pkg/engine/solver"
)

var returnFlags struct {
	container string
	date      string
	maxWeight float64
}

var returnCmd = &cobra.Command{
	Use:     "return",
	Short:   "Load waste into an undocking container",
	Example: "  stowage return --container R1 --date 2025-08-01 --max-weight 120",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req := solver.ReturnRequest{
			UndockingContainerID: returnFlags.container,
			MaxWeight:            returnFlags.maxWeight,
		}
		if returnFlags.date != "" {
			var err error
			if req.UndockingDate, err = parseDay(returnFlags.date); err != nil {
				return err
			}
		}
		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			plan, err := s.eng.PlanReturn(ctx, req, userID)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), plan, func(w *report.Writer) {
				w.Steps("RETURN PLAN", plan.Moves)
				w.Steps("RETRIEVAL STEPS", plan.RetrievalSteps)
				w.Manifest(plan.Manifest)
			})
		})
	},
}

var undockCmd = &cobra.Command{
	Use:   "undock <containerId>",
	Short: "Remove a container and everything aboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			res, err := s.eng.CompleteUndocking(ctx, args[0], userID)
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), res, func(w *report.Writer) {
				fmt.Fprintf(cmd.OutOrStdout(), "Undocked %s: %d item(s) removed\n", res.ContainerID, res.ItemsRemoved)
			})
		})
	},
}

func init() {
	f := returnCmd.Flags()
	f.StringVar(&returnFlags.container, "container", "", "Undocking container ID")
	f.StringVar(&returnFlags.date, "date", "", "Undocking date (default current simulated date)")
	f.Float64Var(&returnFlags.maxWeight, "max-weight", 0, "Mass budget (kg)")
	_ = returnCmd.MarkFlagRequired("container")
	_ = returnCmd.MarkFlagRequired("max-weight")
}
