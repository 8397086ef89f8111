package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/iksnae/nbsite/internal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// testSite is a throwaway notebook tree with its own destination and manifest
type testSite struct {
	source   string
	dest     string
	manifest string
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()
	root := t.TempDir()
	s := &testSite{
		source:   filepath.Join(root, "notebooks"),
		dest:     filepath.Join(root, "site", "content", "docs"),
		manifest: filepath.Join(root, ".nbsite", "manifest.yaml"),
	}
	if err := os.MkdirAll(s.source, 0755); err != nil {
		t.Fatal(err)
	}
	return s
}

// args appends the site locations to a command line
func (s *testSite) args(args ...string) []string {
	return append(args, "--source", s.source, "--dest", s.dest, "--manifest", s.manifest)
}

func (s *testSite) readPage(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.dest, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("page %s not written: %v", rel, err)
	}
	return string(data)
}

// resetCommand clears flag values and contexts left over by an earlier run
func resetCommand(ctx context.Context, c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.PersistentFlags().VisitAll(reset)
	c.Flags().VisitAll(reset)
	c.SetContext(ctx)
	for _, sub := range c.Commands() {
		resetCommand(ctx, sub)
	}
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return runCommandContext(t, context.Background(), args...)
}

func runCommandContext(t *testing.T, ctx context.Context, args ...string) (string, error) {
	t.Helper()
	internal.SetLogOutput(io.Discard)
	t.Cleanup(func() { internal.SetLogOutput(os.Stderr) })

	resetCommand(ctx, rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func sampleNotebook(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "internal", "testdata", "sample.ipynb"))
	if err != nil {
		t.Fatalf("Failed to load sample notebook: %v", err)
	}
	return data
}

func samplePage(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "internal", "testdata", "sample.md"))
	if err != nil {
		t.Fatalf("Failed to load sample page: %v", err)
	}
	return string(data)
}
