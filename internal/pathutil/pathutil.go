// Package pathutil provides path normalization and classification helpers
// for compiler trace details. Trace files mix forward and backward slashes
// and relative prefixes depending on the host toolchain, so Source and
// OptModule paths are funneled through Nice before they are used as
// aggregation keys; other details keep their spelling.
package pathutil

import (
	"os"
	"strings"
)

// Nice normalizes a path for use as a display and aggregation key:
// backslashes become forward slashes and a leading "./" is stripped.
func Nice(path string) string {
	res := strings.ReplaceAll(path, `\`, "/")
	res = strings.ReplaceAll(res, "/./", "/")

	for strings.HasPrefix(res, "./") {
		res = res[2:]
	}

	return res
}

// Filename returns the part of path after the last '/', or the whole
// string when there is no separator.
func Filename(path string) string {
	if idx := strings.LastIndexByte(path, '/'); idx >= 0 {
		return path[idx+1:]
	}

	return path
}

// IsHeader reports whether path looks like a C or C++ header. A path with
// no extension is likely a standard library header (e.g. <vector>); an
// extension starting with 'h' or 'i' covers h, hpp, hxx, inc and friends.
func IsHeader(path string) bool {
	dot := strings.LastIndexByte(path, '.')
	if dot < 0 {
		return true
	}

	if dot+1 >= len(path) {
		return false
	}

	c := lower(path[dot+1])

	return c == 'h' || c == 'i'
}

// EndsWith reports whether s ends with suffix, ignoring ASCII case.
func EndsWith(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}

	start := len(s) - len(suffix)
	for i := 0; i < len(suffix); i++ {
		if lower(s[start+i]) != lower(suffix[i]) {
			return false
		}
	}

	return true
}

// SubstituteObjectFile replaces a ".json" trace artifact path with the
// sibling object file at the same stem, preferring ".o" over ".obj".
// The original path is returned when neither sibling exists on disk.
func SubstituteObjectFile(path string) string {
	if !EndsWith(path, ".json") {
		return path
	}

	stem := path[:len(path)-len(".json")]

	for _, ext := range []string{".o", ".obj"} {
		candidate := stem + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return path
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}

	return c
}
