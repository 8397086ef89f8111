package internal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// checkpointDir holds Jupyter autosave copies, converted like any other
// directory unless Config.SkipCheckpoints is set
const checkpointDir = ".ipynb_checkpoints"

// Converter renders every notebook under the source root into a page under
// the destination root.
type Converter struct {
	fs       afero.Fs
	cfg      *Config
	manifest *ManifestStore
	now      func() time.Time
}

// NewConverter creates a converter working on fs
func NewConverter(fs afero.Fs, cfg *Config) *Converter {
	return &Converter{
		fs:  fs,
		cfg: cfg,
		now: time.Now,
	}
}

// WithManifest makes Run save its report to the given store
func (c *Converter) WithManifest(store *ManifestStore) *Converter {
	c.manifest = store
	return c
}

// FindNotebooks returns the notebook paths relative to the source root,
// in lexical order.
func (c *Converter) FindNotebooks() ([]string, error) {
	var notebooks []string
	err := afero.Walk(c.fs, c.cfg.Source, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if c.cfg.SkipCheckpoints && info.Name() == checkpointDir {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsNotebook(info.Name(), c.cfg.Extension) {
			return nil
		}
		rel, err := filepath.Rel(c.cfg.Source, path)
		if err != nil {
			return err
		}
		notebooks = append(notebooks, rel)
		return nil
	})
	if err != nil {
		return nil, &FileError{Path: c.cfg.Source, Op: "walk", Err: err}
	}
	return notebooks, nil
}

// Run converts all notebooks. A failing notebook does not stop the run; all
// failures are returned together once every notebook has been attempted.
func (c *Converter) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		Version:     ManifestVersion,
		Source:      c.cfg.Source,
		Destination: c.cfg.Destination,
		StartedAt:   c.now(),
	}

	notebooks, err := c.FindNotebooks()
	if err != nil {
		return nil, err
	}
	LogDebug("Found %d notebook(s) in %s", len(notebooks), c.cfg.Source)

	var errs error
	for _, rel := range notebooks {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		entry, err := c.ConvertFile(rel)
		if err != nil {
			LogError("Failed to convert %s: %v", rel, err)
			errs = multierr.Append(errs, err)
		}
		report.Entries = append(report.Entries, entry)
	}
	report.FinishedAt = c.now()

	if c.manifest != nil {
		if err := c.manifest.Save(report); err != nil {
			LogWarn("Failed to save manifest: %v", err)
		}
	}

	return report, errs
}

// ConvertFile converts one notebook given by its path relative to the
// source root. Nothing is written unless the notebook renders completely.
func (c *Converter) ConvertFile(rel string) (ManifestEntry, error) {
	entry := ManifestEntry{Source: filepath.ToSlash(rel)}

	fail := func(err error) (ManifestEntry, error) {
		entry.Error = err.Error()
		return entry, err
	}

	nb, err := LoadNotebook(c.fs, filepath.Join(c.cfg.Source, rel), rel)
	if err != nil {
		return fail(err)
	}

	doc, err := Render(nb)
	if err != nil {
		return fail(&ParseError{Path: rel, Err: err})
	}
	for _, w := range doc.Warnings {
		LogWarn("%s: %s", rel, w)
	}

	out := OutputPath(rel)
	dst := filepath.Join(c.cfg.Destination, out)
	if err := c.fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fail(&FileError{Path: filepath.Dir(dst), Op: "mkdir", Err: err})
	}
	if err := afero.WriteFile(c.fs, dst, []byte(doc.Markdown()), 0644); err != nil {
		return fail(&FileError{Path: dst, Op: "write", Err: err})
	}
	LogInfo("Wrote %s", dst)

	entry.Output = filepath.ToSlash(out)
	entry.Blocks = len(doc.Blocks)
	entry.Warnings = doc.Warnings
	return entry, nil
}
