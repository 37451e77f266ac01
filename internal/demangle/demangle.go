// Package demangle adapts the Itanium C++ demangler to the trace pipeline.
// OptFunction details arrive as mangled linker symbols; template
// instantiation details are usually already human but occasionally carry
// mangled fragments. The adapter is a pure function: thread-safe and a
// no-op on names that are not mangled.
package demangle

import "github.com/ianlancetaylor/demangle"

// Filter returns the demangled form of name, or name unchanged when it is
// not a mangled C++ symbol.
func Filter(name string) string {
	return demangle.Filter(name)
}
