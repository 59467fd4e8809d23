package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DrSkyle/stowage/pkg/cargo"
	"github.com/DrSkyle/stowage/pkg/engine/report"
)

var exportFlags struct {
	format string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump the current arrangement: every item with its container and coordinates",
	Example: `  stowage export --format yaml -o arrangement.yaml
  stowage export --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportFlags.format != "text" && exportFlags.format != "yaml" {
			return fmt.Errorf("%w: unknown format %q", cargo.ErrInvalidInput, exportFlags.format)
		}
		return run(cmd.Context(), false, func(ctx context.Context, s *session) error {
			placements, err := s.eng.Arrangement(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if exportFlags.output != "" {
				f, err := os.Create(exportFlags.output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", exportFlags.output, err)
				}
				defer f.Close()
				out = f
			}

			if exportFlags.format == "yaml" && !jsonOut {
				return writeYAML(out, placements)
			}
			return emit(out, placements, func(w *report.Writer) { w.Placements(placements) })
		})
	},
}

func writeYAML(out io.Writer, v any) error {
	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.format, "format", "text", "Output format (text, yaml); --json overrides")
	f.StringVarP(&exportFlags.output, "output", "o", "", "Write to file instead of stdout")
}
