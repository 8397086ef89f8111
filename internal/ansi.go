package internal

import "regexp"

// ansiEscape matches a single-byte Fe escape or a CSI sequence
// (parameter bytes, intermediate bytes, final byte).
var ansiEscape = regexp.MustCompile(`\x1B(?:[@-Z\\-_]|\[[0-?]*[ -/]*[@-~])`)

// StripANSI deletes terminal control sequences from s
func StripANSI(s string) string {
	return ansiEscape.ReplaceAllString(s, "")
}
