package traceparse

import (
	"strings"

	"github.com/Sumatoshi-tech/tracefang/internal/events"
)

// nameToKind maps accepted trace event names to build event kinds.
var nameToKind = map[string]events.Kind{
	"ExecuteCompiler":     events.KindCompiler,
	"Frontend":            events.KindFrontend,
	"Backend":             events.KindBackend,
	"Source":              events.KindParseFile,
	"ParseTemplate":       events.KindParseTemplate,
	"ParseClass":          events.KindParseClass,
	"InstantiateClass":    events.KindInstantiateClass,
	"InstantiateFunction": events.KindInstantiateFunction,
	"OptModule":           events.KindOptModule,
	"OptFunction":         events.KindOptFunction,
}

// ignoredNames are event names that carry no information the analysis
// uses; they are dropped without a warning.
var ignoredNames = map[string]struct{}{
	"PerformPendingInstantiations": {},
	"CodeGen Function":             {},
	"PerFunctionPasses":            {},
	"PerModulePasses":              {},
	"CodeGenPasses":                {},
	"DebugType":                    {},
	"DebugFunction":                {},
	"DebugGlobalVariable":          {},
	"DebugConstGlobalVariable":     {},
	"RunPass":                      {},
	"RunLoopPass":                  {},
}

// classify resolves a trace event name. ignored is true for names in the
// ignore set and for the "Total ..." summary counters newer Clang emits.
func classify(name string) (kind events.Kind, ignored bool) {
	if k, ok := nameToKind[name]; ok {
		return k, false
	}

	if _, ok := ignoredNames[name]; ok {
		return events.KindUnknown, true
	}

	if strings.HasPrefix(name, "Total ") {
		return events.KindUnknown, true
	}

	return events.KindUnknown, false
}
