package export

import (
	"fmt"
	"io"

	"github.com/iksnae/nbsite/internal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// HTMLExporter renders the page to HTML, a preview of what the site shows.
// Raw HTML in markdown cells is passed through as the site generator would.
type HTMLExporter struct {
	md goldmark.Markdown
}

// NewHTMLExporter creates an exporter using GitHub flavoured markdown
func NewHTMLExporter() *HTMLExporter {
	return &HTMLExporter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
	}
}

// Export converts the document's markdown to HTML
func (e *HTMLExporter) Export(doc *internal.Document, w io.Writer) error {
	if err := e.md.Convert([]byte(doc.Markdown()), w); err != nil {
		return fmt.Errorf("markdown to html: %w", err)
	}
	return nil
}

// Extension returns the file extension for this format
func (e *HTMLExporter) Extension() string {
	return "html"
}
