package export

import (
	"io"

	"github.com/iksnae/nbsite/internal"
)

// MarkdownExporter writes the page exactly as the converter does
type MarkdownExporter struct{}

// Export writes the rendered blocks joined by blank lines
func (e *MarkdownExporter) Export(doc *internal.Document, w io.Writer) error {
	_, err := io.WriteString(w, doc.Markdown())
	return err
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
