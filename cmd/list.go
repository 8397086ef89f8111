package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/nbsite/internal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var listClearManifest bool

const (
	statusOK           = "ok"
	statusFailed       = "failed"
	statusNotConverted = "-"
)

// listRow is one notebook in the list output
type listRow struct {
	Source string
	Output string
	Title  string
	Status string
}

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notebooks with their page path and last run status",
	Long: `List every notebook under the source directory together with the page it
converts to, its title and the outcome recorded by the last run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fs := afero.NewOsFs()
		out := cmd.OutOrStdout()

		notebooks, err := internal.NewConverter(fs, cfg).FindNotebooks()
		if err != nil {
			return err
		}
		if len(notebooks) == 0 {
			fmt.Fprintf(out, "No notebooks found in %s\n", cfg.Source)
			return nil
		}

		var report *internal.RunReport
		if store := manifestStore(fs); store != nil {
			if listClearManifest {
				if err := store.Clear(); err != nil {
					internal.LogWarn("Failed to clear manifest: %v", err)
				} else {
					internal.LogInfo("Manifest cleared")
				}
			}
			if store.Exists() {
				report, err = store.Load()
				if err != nil {
					internal.LogWarn("Cannot read manifest: %v", err)
				}
			}
		}

		header := lipgloss.NewRenderer(out).NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))
		fmt.Fprintln(out, header.Render(fmt.Sprintf("%d notebook(s) in %s", len(notebooks), cfg.Source)))
		fmt.Fprintln(out)

		return writeListTable(out, listRows(fs, notebooks, report))
	},
}

func listRows(fs afero.Fs, notebooks []string, report *internal.RunReport) []listRow {
	rows := make([]listRow, 0, len(notebooks))
	for _, rel := range notebooks {
		stem := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		row := listRow{
			Source: filepath.ToSlash(rel),
			Output: filepath.ToSlash(internal.OutputPath(rel)),
			Title:  stem,
			Status: statusNotConverted,
		}

		if nb, err := internal.LoadNotebook(fs, filepath.Join(cfg.Source, rel), rel); err != nil {
			internal.LogDebug("Cannot read title of %s: %v", rel, err)
		} else {
			row.Title = nb.Title(stem)
		}

		if report != nil {
			if entry := report.Entry(row.Source); entry != nil {
				row.Status = entryStatus(entry)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func entryStatus(entry *internal.ManifestEntry) string {
	switch {
	case entry.Failed():
		return statusFailed
	case len(entry.Warnings) > 0:
		return fmt.Sprintf("%s (%d warning(s))", statusOK, len(entry.Warnings))
	default:
		return statusOK
	}
}

func writeListTable(w io.Writer, rows []listRow) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SOURCE\tOUTPUT\tTITLE\tSTATUS")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Source, r.Output, r.Title, r.Status)
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listClearManifest, "clear-manifest", false, "Forget the recorded run before listing")
}
