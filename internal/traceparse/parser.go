// Package traceparse reads one Clang -ftime-trace JSON artifact into a
// buffer of build events with a job-local name table. Parsing touches no
// shared state, so the ingest coordinator can run many parsers at once and
// merge their results afterwards.
package traceparse

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/Sumatoshi-tech/tracefang/internal/demangle"
	"github.com/Sumatoshi-tech/tracefang/internal/events"
	"github.com/Sumatoshi-tech/tracefang/internal/intern"
	"github.com/Sumatoshi-tech/tracefang/internal/pathutil"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
)

// ErrMalformedJSON reports a trace file that is not a JSON object with a
// traceEvents array.
var ErrMalformedJSON = errors.New("malformed trace JSON")

// Result is the output of parsing one trace file: events with hierarchy
// links resolved, and the local name table their details reference.
type Result struct {
	Events []events.Event
	Names  *intern.Local
}

// Parser parses trace files. The zero value routes warnings to the
// terminal; tests override Warnf to capture them.
type Parser struct {
	Warnf func(format string, args ...any)
}

// traceFile is the top-level shape of a time-trace artifact. Unknown
// sibling members (beginningOfTime, displayTimeUnit, ...) are accepted and
// ignored.
type traceFile struct {
	TraceEvents []json.RawMessage `json:"traceEvents"`
}

// traceEvent is one element of the traceEvents array. Numbers decode as
// json.Number so that a wrong-typed field drops only its own event.
type traceEvent struct {
	Pid  json.Number                `json:"pid"`
	Tid  json.Number                `json:"tid"`
	Ph   string                     `json:"ph"`
	Name string                     `json:"name"`
	Ts   json.Number                `json:"ts"`
	Dur  json.Number                `json:"dur"`
	Args map[string]json.RawMessage `json:"args"`
}

// ParseFile reads and parses the artifact at path. Malformed JSON returns
// ErrMalformedJSON; a trace without a valid event tree returns
// events.ErrNoRoot. Individual bad events are dropped silently, unknown
// event names are dropped with one warning per name.
func (p *Parser) ParseFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trace: %w", err)
	}

	return p.Parse(path, data)
}

// Parse parses the artifact contents in data. The path is used for the
// Compiler detail fallback and for warnings.
func (p *Parser) Parse(path string, data []byte) (*Result, error) {
	var file traceFile

	unmarshalErr := json.Unmarshal(data, &file)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedJSON, path)
	}

	res := &Result{Names: intern.NewLocal()}
	warned := make(map[string]struct{})

	for _, raw := range file.TraceEvents {
		p.parseEvent(res, path, raw, warned)
	}

	hierErr := events.BuildHierarchy(res.Events)
	if hierErr != nil {
		return nil, fmt.Errorf("%w: %s", hierErr, path)
	}

	return res, nil
}

// parseEvent appends one accepted event to res. Anything malformed is
// dropped without failing the file.
func (p *Parser) parseEvent(res *Result, path string, raw json.RawMessage, warned map[string]struct{}) {
	var ev traceEvent

	if err := json.Unmarshal(raw, &ev); err != nil {
		return
	}

	// Only complete events carry intervals. Newer Clang uses arbitrary
	// pid/tid values, so their content is not checked beyond the type.
	if ev.Ph != "X" {
		return
	}

	kind, ignored := classify(ev.Name)
	if kind == events.KindUnknown {
		if !ignored {
			if _, seen := warned[ev.Name]; !seen {
				warned[ev.Name] = struct{}{}
				p.warnf("unknown trace event '%s' in '%s', skipping", ev.Name, path)
			}
		}

		return
	}

	start, tsErr := ev.Ts.Int64()
	if tsErr != nil {
		return
	}

	dur, durErr := ev.Dur.Int64()
	if durErr != nil {
		return
	}

	detail := firstStringArg(ev.Args)
	detail = cleanDetail(kind, detail, path)

	res.Events = append(res.Events, events.Event{
		Kind:   kind,
		Start:  start,
		Dur:    dur,
		Detail: res.Names.Intern(detail),
		Parent: events.NoParent,
	})
}

// firstStringArg extracts the detail string from the args object: the
// member named "detail" when present, otherwise the first string-valued
// member in key order.
func firstStringArg(args map[string]json.RawMessage) string {
	if raw, ok := args["detail"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	for _, k := range keys {
		var s string
		if json.Unmarshal(args[k], &s) == nil {
			return s
		}
	}

	return ""
}

// cleanDetail applies the per-kind detail cleanups: path normalization for
// file-like details, object file substitution for trace artifact paths,
// and demangling for symbol-like details. A Compiler event without a
// detail takes the trace file's own path, untouched by the substitution.
func cleanDetail(kind events.Kind, detail, path string) string {
	switch kind {
	case events.KindParseFile, events.KindOptModule:
		detail = pathutil.Nice(detail)
	}

	detail = pathutil.SubstituteObjectFile(detail)

	switch kind {
	case events.KindOptFunction, events.KindInstantiateClass, events.KindInstantiateFunction:
		detail = demangle.Filter(detail)
	}

	if detail == "" && kind == events.KindCompiler {
		detail = path
	}

	return detail
}

func (p *Parser) warnf(format string, args ...any) {
	if p.Warnf != nil {
		p.Warnf(format, args...)

		return
	}

	term.Warnf(format, args...)
}
