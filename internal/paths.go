package internal

import (
	"path/filepath"
	"strings"
)

// PageExtension is the extension of every generated page
const PageExtension = ".md"

// bundleIndexStem is renamed so Hugo treats the page as a branch bundle index
const bundleIndexStem = "index"

// OutputPath maps a notebook path (relative to the source root) to its page
// path relative to the destination root.
func OutputPath(rel string) string {
	dir, base := filepath.Split(rel)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == bundleIndexStem {
		stem = "_" + bundleIndexStem
	}
	return filepath.Join(dir, stem+PageExtension)
}

// IsNotebook reports whether name carries the notebook extension
func IsNotebook(name, ext string) bool {
	return filepath.Ext(name) == ext
}
