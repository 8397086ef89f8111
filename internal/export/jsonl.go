package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/nbsite/internal"
)

// JSONLExporter exports rendered documents in JSONL format (one block per line)
type JSONLExporter struct{}

// Export exports a document to JSONL format
func (e *JSONLExporter) Export(doc *internal.Document, w io.Writer) error {
	enc := json.NewEncoder(w)

	for i, block := range doc.Blocks {
		obj := map[string]interface{}{
			"index": i,
			"kind":  block.Kind,
			"text":  block.Text,
		}
		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode block %d: %w", i, err)
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
