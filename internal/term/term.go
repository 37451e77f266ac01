// Package term prints user-facing status and diagnostic lines. Output is
// colored when stdout is a terminal that supports it; color is dropped
// under NO_COLOR, when output is piped, and inside Xcode builds, which
// pretend to be a tty but do not render ANSI sequences.
package term

import (
	"os"

	"github.com/fatih/color"
)

var (
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
)

func init() {
	if os.Getenv("__XCODE_BUILT_PRODUCTS_DIR_PATHS") != "" {
		color.NoColor = true
	}
}

// DisableColor forces plain output regardless of terminal detection.
func DisableColor() {
	color.NoColor = true
}

// Warnf prints a single-line WARN message.
func Warnf(format string, args ...any) {
	yellow.Fprintf(os.Stdout, "WARN: "+format+"\n", args...)
}

// Errorf prints a single-line ERROR message.
func Errorf(format string, args ...any) {
	red.Fprintf(os.Stderr, "ERROR: "+format+"\n", args...)
}

// Notef prints a status line, the way build tooling narrates progress.
func Notef(format string, args ...any) {
	yellow.Fprintf(os.Stdout, format+"\n", args...)
}

// Boldf formats args with terminal bold applied.
func Boldf(format string, args ...any) string {
	return color.New(color.Bold).Sprintf(format, args...)
}

// Headerf formats a bold magenta report section header.
func Headerf(format string, args ...any) string {
	return color.New(color.Bold, color.FgMagenta).Sprintf(format, args...)
}
