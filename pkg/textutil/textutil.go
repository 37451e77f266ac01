// Package textutil provides byte-level text utilities used by the
// self-test harness.
package textutil

import "bytes"

// NormalizeNewlines rewrites CRLF and lone CR line endings to LF, so that
// report comparisons ignore platform line-ending differences.
func NormalizeNewlines(data []byte) []byte {
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))

	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
}
