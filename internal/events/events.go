// Package events defines the build event model shared by the trace parser,
// the ingest coordinator, the binary codec and the analysis engine: typed
// timed intervals connected into a parent/child tree by integer indices.
package events

// Kind classifies a timed compiler phase. The set is closed; trace event
// names outside it are either ignored or dropped with a warning at parse
// time.
type Kind int32

// Build event kinds.
const (
	KindUnknown Kind = iota
	KindCompiler
	KindFrontend
	KindBackend
	KindParseFile
	KindParseTemplate
	KindParseClass
	KindInstantiateClass
	KindInstantiateFunction
	KindOptModule
	KindOptFunction
)

// String returns the trace-event name for the kind.
func (k Kind) String() string {
	switch k {
	case KindCompiler:
		return "ExecuteCompiler"
	case KindFrontend:
		return "Frontend"
	case KindBackend:
		return "Backend"
	case KindParseFile:
		return "Source"
	case KindParseTemplate:
		return "ParseTemplate"
	case KindParseClass:
		return "ParseClass"
	case KindInstantiateClass:
		return "InstantiateClass"
	case KindInstantiateFunction:
		return "InstantiateFunction"
	case KindOptModule:
		return "OptModule"
	case KindOptFunction:
		return "OptFunction"
	default:
		return "Unknown"
	}
}

// EventIndex is a dense index into an event sequence. It is a distinct
// type from DetailIndex so the two cannot be mixed up silently.
type EventIndex int32

// NoParent marks an event without a parent (a translation unit root).
const NoParent EventIndex = -1

// DetailIndex is a dense index into a name table. Index 0 is always the
// empty name, which keeps "detail absent" checks cheap.
type DetailIndex int32

// EmptyDetail is the reserved index of the empty name.
const EmptyDetail DetailIndex = 0

// Event is one timed interval from a compiler trace. Parent and Children
// reference other events in the same sequence by index; Detail references
// a name table.
type Event struct {
	Kind     Kind
	Start    int64 // microseconds
	Dur      int64 // microseconds
	Detail   DetailIndex
	Parent   EventIndex
	Children []EventIndex
}

// End returns the exclusive end time of the event in microseconds.
func (e *Event) End() int64 {
	return e.Start + e.Dur
}

// Contains reports whether the interval of e contains the interval of
// other.
func (e *Event) Contains(other *Event) bool {
	return other.Start >= e.Start && other.End() <= e.End()
}
