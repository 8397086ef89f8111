package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/nbsite/internal"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var errHealthcheckFailed = errors.New("health check failed")

// checkPrinter writes health check lines, styled when w supports it
type checkPrinter struct {
	w       io.Writer
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
	section lipgloss.Style
	failed  bool
}

func newCheckPrinter(w io.Writer) *checkPrinter {
	r := lipgloss.NewRenderer(w)
	return &checkPrinter{
		w:       w,
		success: r.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("39")),
		section: r.NewStyle().Foreground(lipgloss.Color("62")).Bold(true).Underline(true),
	}
}

func (p *checkPrinter) step(n int, title string) {
	fmt.Fprintln(p.w, p.info.Render(fmt.Sprintf("Step %d: %s...", n, title)))
}

func (p *checkPrinter) ok(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.success.Render("✅ "+fmt.Sprintf(format, args...)))
}

func (p *checkPrinter) warn(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.warning.Render("⚠️  "+fmt.Sprintf(format, args...)))
}

func (p *checkPrinter) fail(format string, args ...interface{}) {
	p.failed = true
	fmt.Fprintln(p.w, p.failure.Render("❌ "+fmt.Sprintf(format, args...)))
}

func (p *checkPrinter) detail(format string, args ...interface{}) {
	if verbose || (cfg != nil && cfg.Verbose) {
		fmt.Fprintf(p.w, "   "+format+"\n", args...)
	}
}

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check that nbsite can read notebooks and write pages",
	Long: `Check the health of an nbsite setup by verifying:
  • Configuration loading
  • Source directory availability
  • Notebook discovery
  • Destination directory write access
  • Last recorded run

This command is useful for debugging a site build, especially in CI/CD environments.`,
	Args: cobra.NoArgs,
	// configuration problems are reported as a failed step
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newCheckPrinter(cmd.OutOrStdout())
		fmt.Fprintln(p.w, p.section.Render("🔍 nbsite Health Check"))
		fmt.Fprintln(p.w)

		p.step(1, "Loading configuration")
		if err := loadConfig(cmd); err != nil {
			p.fail("Invalid configuration: %v", err)
			return errHealthcheckFailed
		}
		p.ok("Configuration loaded")
		if cfg.File != "" {
			p.detail("Config file: %s", cfg.File)
		}
		p.detail("Source: %s", cfg.Source)
		p.detail("Destination: %s", cfg.Destination)
		p.detail("Extension: %s", cfg.Extension)
		fmt.Fprintln(p.w)

		fs := afero.NewOsFs()
		checkSource(p, fs)
		checkDestination(p, fs)
		checkManifest(p, fs)

		fmt.Fprintln(p.w, p.section.Render("📊 Summary"))
		fmt.Fprintln(p.w)
		if p.failed {
			p.fail("Health check failed")
			return errHealthcheckFailed
		}
		p.ok("Health check passed!")
		return nil
	},
}

func checkSource(p *checkPrinter, fs afero.Fs) {
	p.step(2, "Checking source directory")
	info, err := fs.Stat(cfg.Source)
	switch {
	case err != nil:
		p.fail("Source directory not readable: %v", err)
	case !info.IsDir():
		p.fail("Source %s is not a directory", cfg.Source)
	default:
		p.ok("Source directory found")
	}
	fmt.Fprintln(p.w)
	if p.failed {
		return
	}

	p.step(3, "Discovering notebooks")
	notebooks, err := internal.NewConverter(fs, cfg).FindNotebooks()
	switch {
	case err != nil:
		p.fail("Cannot scan source directory: %v", err)
	case len(notebooks) == 0:
		p.warn("No %s files found", cfg.Extension)
	default:
		p.ok("Found %d notebook(s)", len(notebooks))
		for i, nb := range notebooks {
			if i == 5 {
				p.detail("... and %d more", len(notebooks)-5)
				break
			}
			p.detail("[%d] %s", i+1, nb)
		}
	}
	fmt.Fprintln(p.w)
}

func checkDestination(p *checkPrinter, fs afero.Fs) {
	p.step(4, "Checking destination directory")
	dir, err := existingDir(fs, cfg.Destination)
	if err != nil {
		p.fail("Cannot use destination: %v", err)
		fmt.Fprintln(p.w)
		return
	}

	probe, err := afero.TempFile(fs, dir, ".nbsite-probe-*")
	if err != nil {
		p.fail("Destination not writable: %v", err)
		fmt.Fprintln(p.w)
		return
	}
	name := probe.Name()
	_ = probe.Close()
	if err := fs.Remove(name); err != nil && !os.IsNotExist(err) {
		internal.LogWarn("Failed to remove %s: %v", name, err)
	}
	p.ok("Destination directory writable")
	p.detail("Directory: %s", cfg.Destination)
	if dir != filepath.Clean(cfg.Destination) {
		p.detail("Not created yet, checked %s", dir)
	}
	fmt.Fprintln(p.w)
}

// existingDir returns path, or its nearest existing ancestor when path has
// not been created yet
func existingDir(fs afero.Fs, path string) (string, error) {
	dir := filepath.Clean(path)
	for {
		info, err := fs.Stat(dir)
		if err == nil {
			if !info.IsDir() {
				return "", fmt.Errorf("%s is not a directory", dir)
			}
			return dir, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", err
		}
		dir = parent
	}
}

func checkManifest(p *checkPrinter, fs afero.Fs) {
	p.step(5, "Reading last run")
	store := manifestStore(fs)
	switch {
	case store == nil:
		p.warn("Run manifest disabled")
		p.detail("Set --manifest or the manifest config key, e.g. %s", internal.SuggestedManifest)
	case !store.Exists():
		p.warn("No run recorded yet")
		p.detail("Expected: %s", store.Path())
	default:
		report, err := store.Load()
		if err != nil {
			p.warn("Cannot read manifest: %v", err)
			break
		}
		if report.Failed() > 0 {
			p.warn("Last run converted %d notebook(s), %d failed", report.Converted(), report.Failed())
		} else {
			p.ok("Last run converted %d notebook(s)", report.Converted())
		}
		p.detail("Finished: %s", report.FinishedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintln(p.w)
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
