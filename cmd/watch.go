package cmd

import (
	"github.com/iksnae/nbsite/internal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var watchInitial bool

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reconvert notebooks whenever the source directory changes",
	Long: `Watch the source directory, including directories created later, and run
a full conversion after every change. Conversion failures are logged and
watching continues. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		conv := internal.NewConverter(fs, cfg).WithManifest(manifestStore(fs))
		internal.PrintInfo("Press Ctrl+C to stop")

		return internal.NewWatcher(cfg, conv).
			WithInitialRun(watchInitial).
			Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "Convert everything once before waiting for changes")
}
