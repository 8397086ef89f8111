package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iksnae/nbsite/internal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
	cfg     *internal.Config
	version string = "dev"
	commit  string = "unknown"
	date    string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nbsite",
	Short: "Publish Jupyter notebooks as Markdown pages for a static site",
	Long: `nbsite converts a tree of Jupyter notebooks into Markdown pages that a
static site generator such as Hugo can serve.

Every notebook under the source directory becomes one page under the
destination directory, at the same relative path. Notebooks named
index.ipynb become _index.md so they act as section pages.

Quick Start:
  nbsite convert                         # Convert every notebook once
  nbsite watch --initial                 # Convert, then reconvert on change
  nbsite show notebooks/intro.ipynb      # Print one rendered page
  nbsite list                            # List notebooks and last run status

Settings come from flags, NBSITE_* environment variables and an optional
nbsite.yaml in the working directory, in that order.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		internal.PrintError(fmt.Sprintf("Error: %v", err))
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) error {
	internal.SetVerbose(verbose)

	dir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	loaded, err := internal.LoadConfig(cmd.Flags(), cfgFile, dir)
	if err != nil {
		return err
	}
	cfg = loaded

	internal.SetVerbose(cfg.Verbose)
	if cfg.File != "" {
		internal.LogDebug("Using config file %s", cfg.File)
	}
	return nil
}

// manifestStore returns nil when the manifest is disabled
func manifestStore(fs afero.Fs) *internal.ManifestStore {
	if cfg.Manifest == "" {
		return nil
	}
	return internal.NewManifestStore(fs, cfg.Manifest)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default is ./nbsite.yaml)")
	flags.String("source", "", "Directory holding the notebooks (default \""+internal.DefaultConfig.Source+"\")")
	flags.String("dest", "", "Directory receiving the pages (default \""+internal.DefaultConfig.Destination+"\")")
	flags.String("extension", "", "Notebook file extension (default \""+internal.DefaultConfig.Extension+"\")")
	flags.String("manifest", "", "Run manifest path, e.g. \""+internal.SuggestedManifest+"\" (disabled when empty)")
	flags.Bool("skip-checkpoints", false, "Leave .ipynb_checkpoints directories out of conversion")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
