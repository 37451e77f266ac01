package traceparse

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/tracefang/internal/events"
)

// captureParser returns a parser that records warnings instead of
// printing them.
func captureParser() (*Parser, *[]string) {
	var warnings []string

	p := &Parser{
		Warnf: func(format string, args ...any) {
			warnings = append(warnings, fmt.Sprintf(format, args...))
		},
	}

	return p, &warnings
}

const simpleTrace = `{
  "beginningOfTime": 123,
  "traceEvents": [
    {"pid": 6052, "tid": 3, "ph": "X", "ts": 0, "dur": 500, "name": "Frontend", "args": {}},
    {"pid": 6052, "tid": 3, "ph": "X", "ts": 500, "dur": 1500, "name": "Backend", "args": {}},
    {"pid": 6052, "tid": 3, "ph": "X", "ts": 0, "dur": 2000, "name": "ExecuteCompiler", "args": {"detail": "/build/a.o"}}
  ]
}`

func TestParse_AcceptsCompleteEvents(t *testing.T) {
	t.Parallel()

	p, warnings := captureParser()

	res, err := p.Parse("a.json", []byte(simpleTrace))

	require.NoError(t, err)
	require.Len(t, res.Events, 3)
	assert.Empty(t, *warnings)

	assert.Equal(t, events.KindFrontend, res.Events[0].Kind)
	assert.Equal(t, events.KindBackend, res.Events[1].Kind)
	assert.Equal(t, events.KindCompiler, res.Events[2].Kind)

	// Hierarchy resolved: compiler encloses frontend and backend.
	assert.Equal(t, events.EventIndex(2), res.Events[0].Parent)
	assert.Equal(t, events.EventIndex(2), res.Events[1].Parent)
	assert.Equal(t, events.NoParent, res.Events[2].Parent)
}

func TestParse_ReadsDetailString(t *testing.T) {
	t.Parallel()

	p, _ := captureParser()

	res, err := p.Parse("a.json", []byte(simpleTrace))

	require.NoError(t, err)
	assert.Equal(t, "/build/a.o", res.Names.Name(res.Events[2].Detail))
}

func TestParse_SkipsNonCompletePhases(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "M", "name": "process_name", "args": {"name": "clang"}},
	  {"ph": "B", "ts": 0, "name": "Frontend"},
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}}
	]}`

	p, warnings := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Empty(t, *warnings)
}

func TestParse_IgnoredNamesAreSilent(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 0, "dur": 10, "name": "PerformPendingInstantiations", "args": {}},
	  {"ph": "X", "ts": 0, "dur": 10, "name": "RunPass", "args": {}},
	  {"ph": "X", "ts": 0, "dur": 10, "name": "Total Frontend", "args": {}},
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}}
	]}`

	p, warnings := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Empty(t, *warnings)
}

func TestParse_UnknownNameWarnsOncePerFile(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 0, "dur": 10, "name": "MysteryPhase", "args": {}},
	  {"ph": "X", "ts": 20, "dur": 10, "name": "MysteryPhase", "args": {}},
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}}
	]}`

	p, warnings := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
	require.Len(t, *warnings, 1)
	assert.Contains(t, (*warnings)[0], "MysteryPhase")
}

func TestParse_WrongTypedFieldDropsEvent(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": "soon", "dur": 10, "name": "Frontend", "args": {}},
	  {"ph": "X", "ts": 0, "dur": true, "name": "Backend", "args": {}},
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}}
	]}`

	p, warnings := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
	assert.Empty(t, *warnings)
}

func TestParse_ArbitraryPidTidAccepted(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"pid": 93871, "tid": 255, "ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}}
	]}`

	p, _ := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	assert.Len(t, res.Events, 1)
}

func TestParse_CompilerDetailFallsBackToTracePath(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}}
	]}`

	p, _ := captureParser()

	res, err := p.Parse("/build/obj/a.json", []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "/build/obj/a.json", res.Names.Name(res.Events[0].Detail))
}

func TestParse_CompilerFallbackKeepsTracePathUnsubstituted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tracePath := filepath.Join(dir, "a.json")
	objPath := filepath.Join(dir, "a.o")

	require.NoError(t, os.WriteFile(objPath, []byte{}, 0o644))

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}}
	]}`

	p, _ := captureParser()

	res, err := p.Parse(tracePath, []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	// The fallback is the last cleanup step: the sibling object file does
	// not replace the trace's own path.
	assert.Equal(t, tracePath, res.Names.Name(res.Events[0].Detail))
}

func TestParse_ExplicitJSONDetailSubstitutesObjectFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tracePath := filepath.Join(dir, "a.json")
	objPath := filepath.Join(dir, "a.o")

	require.NoError(t, os.WriteFile(objPath, []byte{}, 0o644))

	trace := fmt.Sprintf(`{"traceEvents": [
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {"detail": %q}}
	]}`, tracePath)

	p, _ := captureParser()

	res, err := p.Parse(tracePath, []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.Equal(t, objPath, res.Names.Name(res.Events[0].Detail))
}

func TestParse_SourceDetailIsNormalized(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 10, "dur": 50, "name": "Source", "args": {"detail": ".\\include\\foo.h"}},
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {"detail": "a.o"}}
	]}`

	p, _ := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "include/foo.h", res.Names.Name(res.Events[0].Detail))
}

func TestParse_InstantiationDetailPassesThroughDemangler(t *testing.T) {
	t.Parallel()

	// Already-human names come back unchanged from the demangler.
	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 10, "dur": 50, "name": "InstantiateFunction", "args": {"detail": "std::vector<int>::push_back(int&&)"}},
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {"detail": "a.o"}}
	]}`

	p, _ := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "std::vector<int>::push_back(int&&)", res.Names.Name(res.Events[0].Detail))
}

func TestParse_FirstStringArgWithoutDetailKey(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 10, "dur": 50, "name": "OptFunction", "args": {"avgTotal": 3, "name": "frob"}},
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {"detail": "a.o"}}
	]}`

	p, _ := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	require.Len(t, res.Events, 2)
	assert.Equal(t, "frob", res.Names.Name(res.Events[0].Detail))
}

func TestParse_MalformedJSONFails(t *testing.T) {
	t.Parallel()

	p, _ := captureParser()

	_, err := p.Parse("a.json", []byte("{not json"))

	require.ErrorIs(t, err, ErrMalformedJSON)
}

func TestParse_NonRootTraceFails(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "X", "ts": 0, "dur": 100, "name": "ExecuteCompiler", "args": {}},
	  {"ph": "X", "ts": 10, "dur": 50, "name": "Frontend", "args": {}}
	]}`

	p, _ := captureParser()

	_, err := p.Parse("a.json", []byte(trace))

	require.ErrorIs(t, err, events.ErrNoRoot)
}

func TestParse_ZeroAcceptedEvents(t *testing.T) {
	t.Parallel()

	trace := `{"traceEvents": [
	  {"ph": "M", "name": "process_name", "args": {"name": "clang"}}
	]}`

	p, _ := captureParser()

	res, err := p.Parse("a.json", []byte(trace))

	require.NoError(t, err)
	assert.Empty(t, res.Events)
}

func TestParseFile_ReadsFromDisk(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")

	require.NoError(t, os.WriteFile(path, []byte(simpleTrace), 0o644))

	p, _ := captureParser()

	res, err := p.ParseFile(path)

	require.NoError(t, err)
	assert.Len(t, res.Events, 3)
}
