package cmd

import (
	"fmt"

	"github.com/iksnae/nbsite/internal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert every notebook under the source directory",
	Long: `Convert every notebook under the source directory into a Markdown page
under the destination directory.

A notebook that fails to convert is reported and skipped; the remaining
notebooks are still converted. The command exits with an error if any
notebook failed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		conv := internal.NewConverter(fs, cfg).WithManifest(manifestStore(fs))

		report, err := conv.Run(cmd.Context())
		if report != nil {
			internal.FprintSuccess(cmd.OutOrStdout(), internal.RunSummary(report))
			if failed := report.Failed(); failed > 0 {
				internal.PrintWarning(fmt.Sprintf("%d notebook(s) were not converted; their previous pages are unchanged", failed))
			}
		}
		if err != nil {
			return fmt.Errorf("conversion failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)
}
