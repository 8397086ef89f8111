package internal

import (
	"errors"
	"fmt"
	"strings"
)

// BlockKind identifies what produced a rendered block
type BlockKind string

const (
	BlockRaw      BlockKind = "raw"
	BlockMarkdown BlockKind = "markdown"
	BlockCode     BlockKind = "code"
	BlockResult   BlockKind = "result"
	BlockError    BlockKind = "error"
)

// BlockSeparator sits between consecutive blocks of a page
const BlockSeparator = "\n\n"

// Block is one rendered chunk of Markdown text
type Block struct {
	Kind BlockKind `json:"kind" yaml:"kind"`
	Text string    `json:"text" yaml:"text"`
}

// Document is a rendered notebook
type Document struct {
	Language string   `json:"language,omitempty" yaml:"language,omitempty"`
	Blocks   []Block  `json:"blocks" yaml:"blocks"`
	Warnings []string `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Markdown joins the blocks into the page text
func (d *Document) Markdown() string {
	texts := make([]string, len(d.Blocks))
	for i, b := range d.Blocks {
		texts[i] = b.Text
	}
	return strings.Join(texts, BlockSeparator)
}

var errMissingLanguage = errors.New("code cell found but metadata.kernelspec.language is not set")

// Render converts a notebook into its ordered Markdown blocks. Unknown cell
// and output types produce no block and a warning on the document.
func Render(nb *Notebook) (*Document, error) {
	lang, declared := nb.Language()
	doc := &Document{
		Language: lang,
		Blocks:   make([]Block, 0, len(nb.Cells)),
	}

	for i, cell := range nb.Cells {
		switch cell.CellType {
		case CellTypeRaw:
			doc.add(BlockRaw, cell.Source.String())
		case CellTypeMarkdown:
			doc.add(BlockMarkdown, cell.Source.String())
		case CellTypeCode:
			if !declared {
				return nil, errMissingLanguage
			}
			doc.add(BlockCode, fence(doc.Language, cell.Source.String()))
			if err := doc.renderOutputs(cell.Outputs); err != nil {
				return nil, fmt.Errorf("cell %d: %w", i, err)
			}
		default:
			doc.warn("cell type not implemented: %s", cell.CellType)
		}
	}

	return doc, nil
}

func (d *Document) renderOutputs(outputs []Output) error {
	for _, out := range outputs {
		switch out.OutputType {
		case OutputTypeExecuteResult:
			text, err := out.Text(MIMETextPlain)
			if err != nil {
				return err
			}
			d.add(BlockResult, fence("", text))
		case OutputTypeError:
			var sb strings.Builder
			for _, line := range out.Traceback {
				sb.WriteString(StripANSI(line))
				sb.WriteString("\n")
			}
			d.add(BlockError, fence("", sb.String()))
		default:
			d.warn("output type not implemented: %s", out.OutputType)
		}
	}
	return nil
}

func (d *Document) add(kind BlockKind, text string) {
	d.Blocks = append(d.Blocks, Block{Kind: kind, Text: text})
}

func (d *Document) warn(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

func fence(lang, body string) string {
	return "```" + lang + "\n" + body + "\n```"
}
