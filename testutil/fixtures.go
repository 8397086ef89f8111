package testutil

import "testing"

// Cell and output builders produce the raw JSON shapes of the notebook
// format, so tests exercise the real decoder.

// MarkdownCell builds a markdown cell
func MarkdownCell(source ...string) map[string]interface{} {
	return map[string]interface{}{
		"cell_type": "markdown",
		"metadata":  map[string]interface{}{},
		"source":    source,
	}
}

// RawCell builds a raw cell
func RawCell(source ...string) map[string]interface{} {
	return map[string]interface{}{
		"cell_type": "raw",
		"metadata":  map[string]interface{}{},
		"source":    source,
	}
}

// CodeCell builds a code cell with the given outputs
func CodeCell(source []string, outputs ...map[string]interface{}) map[string]interface{} {
	if outputs == nil {
		outputs = []map[string]interface{}{}
	}
	return map[string]interface{}{
		"cell_type":       "code",
		"execution_count": 1,
		"metadata":        map[string]interface{}{},
		"source":          source,
		"outputs":         outputs,
	}
}

// ExecuteResult builds an execute_result output
func ExecuteResult(text ...string) map[string]interface{} {
	return map[string]interface{}{
		"output_type":     "execute_result",
		"execution_count": 1,
		"metadata":        map[string]interface{}{},
		"data": map[string]interface{}{
			"text/plain": text,
		},
	}
}

// ErrorOutput builds an error output with a traceback
func ErrorOutput(ename, evalue string, traceback ...string) map[string]interface{} {
	return map[string]interface{}{
		"output_type": "error",
		"ename":       ename,
		"evalue":      evalue,
		"traceback":   traceback,
	}
}

// DisplayData builds a display_data output, e.g. a plot
func DisplayData() map[string]interface{} {
	return map[string]interface{}{
		"output_type": "display_data",
		"metadata":    map[string]interface{}{},
		"data": map[string]interface{}{
			"image/png":  "iVBORw0KGgo=",
			"text/plain": []string{"<Figure size 640x480 with 1 Axes>"},
		},
	}
}

// StreamOutput builds a stream output (stdout/stderr)
func StreamOutput(name string, text ...string) map[string]interface{} {
	return map[string]interface{}{
		"output_type": "stream",
		"name":        name,
		"text":        text,
	}
}

// NotebookJSON builds a complete nbformat 4 document
func NotebookJSON(t *testing.T, language string, cells ...map[string]interface{}) []byte {
	t.Helper()
	if cells == nil {
		cells = []map[string]interface{}{}
	}
	doc := map[string]interface{}{
		"nbformat":       4,
		"nbformat_minor": 5,
		"metadata": map[string]interface{}{
			"kernelspec": map[string]interface{}{
				"name":         language + "3",
				"display_name": language,
				"language":     language,
			},
		},
		"cells": cells,
	}
	return JSONMarshal(t, doc)
}
