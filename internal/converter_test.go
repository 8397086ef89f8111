package internal

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/iksnae/nbsite/testutil"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

func testConfig() *Config {
	return &Config{
		Source:      "/src",
		Destination: "/dst",
		Extension:   ".ipynb",
	}
}

func writeNotebooks(t *testing.T, fs afero.Fs, root string, notebooks map[string][]byte) {
	t.Helper()
	for rel, data := range notebooks {
		testutil.WriteFile(t, fs, filepath.Join(root, filepath.FromSlash(rel)), data)
	}
}

func TestConverter_FindNotebooks(t *testing.T) {
	fs := afero.NewMemMapFs()
	nb := testutil.NotebookJSON(t, "python")
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"b.ipynb":            nb,
		"a/index.ipynb":      nb,
		"a/b/chapter1.ipynb": nb,
		"a/notes.md":         []byte("not a notebook"),
	})
	testutil.WriteFile(t, fs, filepath.FromSlash("/src/a/.ipynb_checkpoints/index-checkpoint.ipynb"), nb)

	tests := []struct {
		name            string
		skipCheckpoints bool
		want            []string
	}{
		{
			name: "checkpoints included by default",
			want: []string{
				filepath.FromSlash("a/.ipynb_checkpoints/index-checkpoint.ipynb"),
				filepath.FromSlash("a/b/chapter1.ipynb"),
				filepath.FromSlash("a/index.ipynb"),
				"b.ipynb",
			},
		},
		{
			name:            "checkpoints skipped",
			skipCheckpoints: true,
			want: []string{
				filepath.FromSlash("a/b/chapter1.ipynb"),
				filepath.FromSlash("a/index.ipynb"),
				"b.ipynb",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.SkipCheckpoints = tt.skipCheckpoints

			got, err := NewConverter(fs, cfg).FindNotebooks()
			if err != nil {
				t.Fatalf("FindNotebooks() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FindNotebooks() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConverter_Run_Checkpoints(t *testing.T) {
	tests := []struct {
		name            string
		skipCheckpoints bool
		wantPage        bool
	}{
		{name: "converted by default", wantPage: true},
		{name: "skipped when configured", skipCheckpoints: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeNotebooks(t, fs, "/src", map[string][]byte{
				".ipynb_checkpoints/a-checkpoint.ipynb": testutil.NotebookJSON(t, "python", testutil.MarkdownCell("saved")),
			})
			cfg := testConfig()
			cfg.SkipCheckpoints = tt.skipCheckpoints

			report, err := NewConverter(fs, cfg).Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			page := filepath.FromSlash("/dst/.ipynb_checkpoints/a-checkpoint.md")
			exists, _ := afero.Exists(fs, page)
			if exists != tt.wantPage {
				t.Fatalf("%s exists = %v, want %v", page, exists, tt.wantPage)
			}
			if tt.wantPage {
				if got := testutil.ReadFile(t, fs, page); got != "saved" {
					t.Errorf("%s = %q, want saved", page, got)
				}
				if report.Converted() != 1 {
					t.Errorf("report converted = %d, want 1", report.Converted())
				}
			} else if len(report.Entries) != 0 {
				t.Errorf("report entries = %+v, want none", report.Entries)
			}
		})
	}
}

func TestConverter_FindNotebooks_MissingSource(t *testing.T) {
	_, err := NewConverter(afero.NewMemMapFs(), testConfig()).FindNotebooks()
	var fileErr *FileError
	if !errors.As(err, &fileErr) || fileErr.Op != "walk" {
		t.Errorf("FindNotebooks() error = %v, want walk *FileError", err)
	}
}

func TestConverter_Run_MirrorsTree(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"a/b/index.ipynb":    testutil.NotebookJSON(t, "python", testutil.MarkdownCell("# Section")),
		"a/b/chapter1.ipynb": testutil.NotebookJSON(t, "python", testutil.CodeCell([]string{"print(1)"})),
		"top.ipynb":          testutil.NotebookJSON(t, "python", testutil.RawCell("raw text")),
	})

	report, err := NewConverter(fs, testConfig()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := map[string]string{
		"/dst/a/b/_index.md":   "# Section",
		"/dst/a/b/chapter1.md": "```python\nprint(1)\n```",
		"/dst/top.md":          "raw text",
	}
	for path, content := range want {
		if got := testutil.ReadFile(t, fs, filepath.FromSlash(path)); got != content {
			t.Errorf("%s = %q, want %q", path, got, content)
		}
	}
	if ok, _ := afero.Exists(fs, filepath.FromSlash("/dst/a/b/index.md")); ok {
		t.Error("index.md should have been renamed to _index.md")
	}

	if report.Converted() != 3 || report.Failed() != 0 {
		t.Errorf("report converted=%d failed=%d, want 3/0", report.Converted(), report.Failed())
	}
	if e := report.Entry("a/b/index.ipynb"); e == nil || e.Output != "a/b/_index.md" || e.Blocks != 1 {
		t.Errorf("Entry(a/b/index.ipynb) = %+v", e)
	}
}

func TestConverter_Run_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"nb.ipynb": testutil.NotebookJSON(t, "python",
			testutil.MarkdownCell("intro"),
			testutil.CodeCell([]string{"1/0"}, testutil.ErrorOutput("ZeroDivisionError", "", "\x1b[31mboom\x1b[0m")),
		),
	})
	conv := NewConverter(fs, testConfig())

	if _, err := conv.Run(context.Background()); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	first := testutil.ReadFile(t, fs, filepath.FromSlash("/dst/nb.md"))

	if _, err := conv.Run(context.Background()); err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	second := testutil.ReadFile(t, fs, filepath.FromSlash("/dst/nb.md"))

	if first != second {
		t.Errorf("outputs differ between runs:\n%s", cmp.Diff(first, second))
	}
}

func TestConverter_Run_OverwritesExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"nb.ipynb": testutil.NotebookJSON(t, "python", testutil.MarkdownCell("new")),
	})
	testutil.WriteFile(t, fs, filepath.FromSlash("/dst/nb.md"), []byte("old content that is longer"))

	if _, err := NewConverter(fs, testConfig()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := testutil.ReadFile(t, fs, filepath.FromSlash("/dst/nb.md")); got != "new" {
		t.Errorf("nb.md = %q, want new", got)
	}
}

func TestConverter_Run_IsolatesFailures(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"a_broken.ipynb":  []byte(`{"cells": [`),
		"b_nolang.ipynb":  []byte(`{"metadata": {}, "cells": [{"cell_type": "code", "source": ["x"], "outputs": []}]}`),
		"c_good.ipynb":    testutil.NotebookJSON(t, "python", testutil.MarkdownCell("fine")),
		"d_display.ipynb": testutil.NotebookJSON(t, "python", testutil.CodeCell([]string{"plot()"}, testutil.DisplayData()), testutil.MarkdownCell("after")),
	})

	report, err := NewConverter(fs, testConfig()).Run(context.Background())
	if err == nil {
		t.Fatal("Run() expected aggregated error")
	}

	errs := multierr.Errors(err)
	if len(errs) != 2 {
		t.Fatalf("got %d errors, want 2: %v", len(errs), err)
	}
	for _, e := range errs {
		var parseErr *ParseError
		if !errors.As(e, &parseErr) {
			t.Errorf("error %v is not a *ParseError", e)
		}
	}

	if got := testutil.ReadFile(t, fs, filepath.FromSlash("/dst/c_good.md")); got != "fine" {
		t.Errorf("c_good.md = %q, want fine", got)
	}
	if got := testutil.ReadFile(t, fs, filepath.FromSlash("/dst/d_display.md")); got != "```python\nplot()\n```\n\nafter" {
		t.Errorf("d_display.md = %q", got)
	}
	for _, name := range []string{"/dst/a_broken.md", "/dst/b_nolang.md"} {
		if ok, _ := afero.Exists(fs, filepath.FromSlash(name)); ok {
			t.Errorf("%s should not be written for a failing notebook", name)
		}
	}

	if report.Converted() != 2 || report.Failed() != 2 {
		t.Errorf("report converted=%d failed=%d, want 2/2", report.Converted(), report.Failed())
	}
	display := report.Entry("d_display.ipynb")
	if display == nil || len(display.Warnings) != 1 || !strings.Contains(display.Warnings[0], "display_data") {
		t.Errorf("Entry(d_display.ipynb) = %+v, want display_data warning", display)
	}
}

func TestConverter_Run_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"nb.ipynb": testutil.NotebookJSON(t, "python", testutil.MarkdownCell("x")),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewConverter(fs, testConfig()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if ok, _ := afero.Exists(fs, filepath.FromSlash("/dst/nb.md")); ok {
		t.Error("nothing should be written after cancellation")
	}
}

func TestConverter_Run_SavesManifest(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"index.ipynb": testutil.NotebookJSON(t, "python", testutil.MarkdownCell("home")),
	})
	store := NewManifestStore(fs, filepath.FromSlash("/work/.nbsite/manifest.yaml"))

	if _, err := NewConverter(fs, testConfig()).WithManifest(store).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	report, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []ManifestEntry{{Source: "index.ipynb", Output: "_index.md", Blocks: 1}}
	if diff := cmp.Diff(want, report.Entries); diff != "" {
		t.Errorf("manifest entries mismatch (-want +got):\n%s", diff)
	}
}

func TestConverter_Run_OsFs(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{
		Source:      filepath.Join(root, "notebooks"),
		Destination: filepath.Join(root, "site", "content", "docs"),
		Extension:   ".ipynb",
	}
	fs := afero.NewOsFs()
	testutil.WriteFile(t, fs, filepath.Join(cfg.Source, "guide", "index.ipynb"), testutil.LoadFixture(t, "sample.ipynb"))

	if _, err := NewConverter(fs, cfg).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(cfg.Destination, "guide", "_index.md"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if diff := cmp.Diff(string(testutil.LoadFixture(t, "sample.md")), string(got)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestConverter_Run_LogsDiagnostics(t *testing.T) {
	var buf bytes.Buffer
	originalLevel := logLevel
	SetLogOutput(&buf)
	SetLogLevel(LogLevelInfo)
	defer func() {
		SetLogOutput(os.Stderr)
		SetLogLevel(originalLevel)
	}()

	fs := afero.NewMemMapFs()
	writeNotebooks(t, fs, "/src", map[string][]byte{
		"nb.ipynb": testutil.NotebookJSON(t, "python",
			testutil.CodeCell([]string{"plot()"}, testutil.DisplayData()),
			map[string]interface{}{"cell_type": "heading", "source": []string{"Old style"}},
		),
	})

	if _, err := NewConverter(fs, testConfig()).Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	for _, want := range []string{
		"nb.ipynb: output type not implemented: display_data",
		"nb.ipynb: cell type not implemented: heading",
		"Wrote " + filepath.Join("/dst", "nb.md"),
	} {
		count := 0
		for _, line := range lines {
			if strings.Contains(line, want) {
				count++
			}
		}
		if count != 1 {
			t.Errorf("log has %d line(s) containing %q, want 1:\n%s", count, want, buf.String())
		}
	}
}
