package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine"
	"github.com/DrSkyle/stowage/pkg/engine/manifest"
	"github.com/DrSkyle/stowage/pkg/engine/placement"
	"github.com/DrSkyle/stowage/pkg/engine/report"
)

var importCmd = &cobra.Command{
	Use:   "import <manifest.yaml>",
	Short: "Register containers and stow items from a manifest",
	Long: `Reads a YAML manifest of containers and items. Invalid rows are reported
and skipped; every valid row is placed in one batch.`,
	Example: "  stowage import cargo.yaml",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := manifest.Load(args[0])
		if err != nil {
			return err
		}
		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			res, err := s.eng.PlaceItems(ctx, engine.PlaceRequest{
				Items:      m.Items,
				Containers: m.Containers,
				UserID:     userID,
			})
			if err != nil {
				return err
			}
			out := struct {
				ContainerErrors []cargo.RowError `json:"containerErrors"`
				ItemErrors      []cargo.RowError `json:"itemErrors"`
				*placement.Result
			}{m.ContainerErrors, m.ItemErrors, res}
			return emit(cmd.OutOrStdout(), out, func(w *report.Writer) {
				w.RowErrors("container", m.ContainerErrors)
				w.RowErrors("item", m.ItemErrors)
				printPlacement(w, res)
			})
		})
	},
}

var placeFlags struct {
	item   cargo.Item
	uses   int
	expiry string
}

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Stow a single item",
	Example: `  stowage place --id kit-01 --name "Med Kit" --width 10 --depth 20 --height 10 \
    --mass 2.5 --priority 80 --zone Medical`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		it := placeFlags.item
		if cmd.Flags().Changed("uses") {
			uses := placeFlags.uses
			it.UsageLimit = &uses
		}
		if placeFlags.expiry != "" {
			exp, err := parseDay(placeFlags.expiry)
			if err != nil {
				return err
			}
			it.ExpiryDate = &exp
		}
		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			res, err := s.eng.PlaceItems(ctx, engine.PlaceRequest{Items: []cargo.Item{it}, UserID: userID})
			if err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), res, func(w *report.Writer) { printPlacement(w, res) })
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <itemId>",
	Short: "Forget an item entirely",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), true, func(ctx context.Context, s *session) error {
			if err := s.eng.RemoveItem(ctx, args[0], userID); err != nil {
				return err
			}
			return emit(cmd.OutOrStdout(), map[string]string{"removed": args[0]}, func(w *report.Writer) {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
			})
		})
	},
}

func printPlacement(w *report.Writer, res *placement.Result) {
	w.Placements(res.Placements)
	if len(res.Rearrangements) > 0 {
		w.Steps("REARRANGEMENTS", res.Rearrangements)
	}
	w.Unplaced(res.Unplaced)
}

func init() {
	f := placeCmd.Flags()
	f.StringVar(&placeFlags.item.ID, "id", "", "Item ID")
	f.StringVar(&placeFlags.item.Name, "name", "", "Item name")
	f.Float64Var(&placeFlags.item.Dimensions.Width, "width", 0, "Width (cm)")
	f.Float64Var(&placeFlags.item.Dimensions.Depth, "depth", 0, "Depth (cm)")
	f.Float64Var(&placeFlags.item.Dimensions.Height, "height", 0, "Height (cm)")
	f.Float64Var(&placeFlags.item.Mass, "mass", 0, "Mass (kg)")
	f.IntVar(&placeFlags.item.Priority, "priority", 50, "Priority 1-100")
	f.StringVar(&placeFlags.item.PreferredZone, "zone", "", "Preferred zone")
	f.IntVar(&placeFlags.uses, "uses", 0, "Usage limit (omit for unlimited)")
	f.StringVar(&placeFlags.expiry, "expiry", "", "Expiry date (YYYY-MM-DD)")
	_ = placeCmd.MarkFlagRequired("id")
}
