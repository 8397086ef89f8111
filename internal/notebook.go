package internal

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Cell types
const (
	CellTypeRaw      = "raw"
	CellTypeMarkdown = "markdown"
	CellTypeCode     = "code"
)

// Output types
const (
	OutputTypeExecuteResult = "execute_result"
	OutputTypeError         = "error"
)

// MIMETextPlain is the output data key holding the plain-text result
const MIMETextPlain = "text/plain"

// Notebook represents a parsed notebook document
type Notebook struct {
	Metadata NotebookMetadata `json:"metadata"`
	Cells    []Cell           `json:"cells"`
}

// NotebookMetadata holds the notebook-level metadata we care about
type NotebookMetadata struct {
	KernelSpec   *KernelSpec   `json:"kernelspec,omitempty"`
	LanguageInfo *LanguageInfo `json:"language_info,omitempty"`
}

// KernelSpec describes the kernel the notebook was authored against
type KernelSpec struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	// Language is nil when the key is absent; an empty string is a
	// declared language with no name.
	Language *string `json:"language,omitempty"`
}

// LanguageInfo is the kernel-reported language description
type LanguageInfo struct {
	Name string `json:"name"`
}

// Cell is one unit of a notebook. Outputs is only populated for code cells.
type Cell struct {
	CellType string    `json:"cell_type"`
	Source   Fragments `json:"source"`
	Outputs  []Output  `json:"outputs,omitempty"`
}

// Output is a captured execution result of a code cell
type Output struct {
	OutputType string                     `json:"output_type"`
	Data       map[string]json.RawMessage `json:"data,omitempty"`
	Traceback  []string                   `json:"traceback,omitempty"`
}

// Fragments is a multi-line text field. The notebook format stores these
// either as a list of strings or as a single string.
type Fragments []string

// UnmarshalJSON accepts both a JSON string and an array of strings
func (f *Fragments) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = Fragments{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list of strings: %w", err)
	}
	*f = list
	return nil
}

// String concatenates the fragments without separators
func (f Fragments) String() string {
	return strings.Join(f, "")
}

// Text returns the concatenated fragments stored under the given MIME type
func (o *Output) Text(mime string) (string, error) {
	raw, ok := o.Data[mime]
	if !ok {
		return "", fmt.Errorf("%s output has no %q data", o.OutputType, mime)
	}
	var f Fragments
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", fmt.Errorf("%s output %q: %w", o.OutputType, mime, err)
	}
	return f.String(), nil
}

// Language returns the declared source language of the notebook and whether
// one is declared at all. kernelspec.language wins, even when empty;
// language_info.name is the fallback.
func (nb *Notebook) Language() (string, bool) {
	if ks := nb.Metadata.KernelSpec; ks != nil && ks.Language != nil {
		return *ks.Language, true
	}
	if li := nb.Metadata.LanguageInfo; li != nil && li.Name != "" {
		return li.Name, true
	}
	return "", false
}

var yamlFrontMatter = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

var errMissingCells = errors.New("notebook has no cells array")

// ParseNotebook decodes a notebook document
func ParseNotebook(data []byte) (*Notebook, error) {
	var nb Notebook
	if err := json.Unmarshal(data, &nb); err != nil {
		return nil, err
	}
	if nb.Cells == nil {
		return nil, errMissingCells
	}
	return &nb, nil
}

// LoadNotebook reads and parses the notebook at path. rel names the notebook
// in parse errors.
func LoadNotebook(fs afero.Fs, path, rel string) (*Notebook, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, &FileError{Path: path, Op: "read", Err: err}
	}
	nb, err := ParseNotebook(data)
	if err != nil {
		return nil, &ParseError{Path: rel, Err: err}
	}
	return nb, nil
}

// Title picks a human readable title: the front matter "title" of the first
// text cell, then the first level-one heading of the first markdown cell,
// then fallback.
func (nb *Notebook) Title(fallback string) string {
	sawText := false
	for _, cell := range nb.Cells {
		if cell.CellType != CellTypeRaw && cell.CellType != CellTypeMarkdown {
			continue
		}
		text := cell.Source.String()
		if !sawText {
			sawText = true
			var meta struct {
				Title string `yaml:"title"`
			}
			rest, err := frontmatter.Parse(strings.NewReader(text+"\n"), &meta, yamlFrontMatter)
			if err != nil {
				LogDebug("Ignoring unreadable front matter: %v", err)
			} else {
				if meta.Title != "" {
					return meta.Title
				}
				text = string(rest)
			}
		}
		if cell.CellType == CellTypeMarkdown {
			if heading := firstHeading(text); heading != "" {
				return heading
			}
			break
		}
	}
	return fallback
}

func firstHeading(text string) string {
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	return ""
}
