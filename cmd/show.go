package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/iksnae/nbsite/internal"
	"github.com/iksnae/nbsite/internal/export"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const prettyWordWrap = 100

var (
	showFormat string
	showPretty bool
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <notebook>",
	Short: "Render a single notebook to stdout",
	Long: `Render a single notebook without writing anything to the destination.

The notebook path may be given as is or relative to the source directory.
Use --format to print the page as html, json, jsonl or yaml instead of
Markdown, and --pretty to style Markdown output for the terminal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()

		exporter, err := export.NewExporter(showFormat)
		if err != nil {
			return err
		}

		path, rel := resolveNotebook(fs, args[0])
		nb, err := internal.LoadNotebook(fs, path, rel)
		if err != nil {
			return err
		}

		doc, err := internal.Render(nb)
		if err != nil {
			return &internal.ParseError{Path: rel, Err: err}
		}
		for _, w := range doc.Warnings {
			internal.LogWarn("%s: %s", rel, w)
		}

		out := cmd.OutOrStdout()
		if showPretty && exporter.Extension() == "md" {
			if internal.IsTerminal(out) {
				return renderPretty(doc, out)
			}
			internal.LogDebug("Output is not a terminal, ignoring --pretty")
		}

		if err := exporter.Export(doc, out); err != nil {
			return &internal.ExportError{Format: exporter.Extension(), Path: rel, Err: err}
		}
		return nil
	},
}

// resolveNotebook finds arg as given or below the source directory
func resolveNotebook(fs afero.Fs, arg string) (path, rel string) {
	if ok, _ := afero.Exists(fs, arg); ok {
		return arg, arg
	}
	inSource := filepath.Join(cfg.Source, arg)
	if ok, _ := afero.Exists(fs, inSource); ok {
		return inSource, arg
	}
	return arg, arg
}

func renderPretty(doc *internal.Document, w io.Writer) error {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(prettyWordWrap),
	)
	if err != nil {
		return fmt.Errorf("failed to create terminal renderer: %w", err)
	}

	out, err := renderer.Render(doc.Markdown())
	if err != nil {
		return &internal.ExportError{Format: "terminal", Err: err}
	}
	_, err = io.WriteString(w, out)
	return err
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "md", "Output format: md, html, json, jsonl, yaml")
	showCmd.Flags().BoolVar(&showPretty, "pretty", false, "Style Markdown output for the terminal")
}
