package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is bumped when the manifest layout changes
const ManifestVersion = "1.0"

// ManifestEntry records what happened to one notebook in a run
type ManifestEntry struct {
	Source   string   `yaml:"source"`
	Output   string   `yaml:"output,omitempty"`
	Blocks   int      `yaml:"blocks"`
	Warnings []string `yaml:"warnings,omitempty"`
	Error    string   `yaml:"error,omitempty"`
}

// Failed reports whether the notebook could not be converted
func (e *ManifestEntry) Failed() bool {
	return e.Error != ""
}

// RunReport describes a complete conversion run
type RunReport struct {
	Version     string          `yaml:"version"`
	Source      string          `yaml:"source"`
	Destination string          `yaml:"destination"`
	StartedAt   time.Time       `yaml:"started_at"`
	FinishedAt  time.Time       `yaml:"finished_at"`
	Entries     []ManifestEntry `yaml:"entries"`
}

// Converted counts notebooks written successfully
func (r *RunReport) Converted() int {
	n := 0
	for i := range r.Entries {
		if !r.Entries[i].Failed() {
			n++
		}
	}
	return n
}

// Failed counts notebooks that could not be converted
func (r *RunReport) Failed() int {
	return len(r.Entries) - r.Converted()
}

// Entry returns the entry for a source path, or nil
func (r *RunReport) Entry(source string) *ManifestEntry {
	for i := range r.Entries {
		if r.Entries[i].Source == source {
			return &r.Entries[i]
		}
	}
	return nil
}

// ManifestStore persists the report of the last run as YAML
type ManifestStore struct {
	fs   afero.Fs
	path string
}

// NewManifestStore creates a store writing to path on fs
func NewManifestStore(fs afero.Fs, path string) *ManifestStore {
	return &ManifestStore{fs: fs, path: path}
}

// Path returns the manifest file path
func (m *ManifestStore) Path() string {
	return m.path
}

// Exists reports whether a manifest has been written
func (m *ManifestStore) Exists() bool {
	ok, err := afero.Exists(m.fs, m.path)
	return err == nil && ok
}

// Save writes the report, replacing any previous manifest
func (m *ManifestStore) Save(report *RunReport) error {
	if err := m.fs.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return &FileError{Path: filepath.Dir(m.path), Op: "mkdir", Err: err}
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	if err := afero.WriteFile(m.fs, m.path, data, 0644); err != nil {
		return &FileError{Path: m.path, Op: "write", Err: err}
	}
	return nil
}

// Load reads the last saved report
func (m *ManifestStore) Load() (*RunReport, error) {
	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return nil, &FileError{Path: m.path, Op: "read", Err: err}
	}

	var report RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}
	return &report, nil
}

// Clear removes the manifest
func (m *ManifestStore) Clear() error {
	if err := m.fs.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
