package events

import (
	"errors"
	"sort"
)

// ErrNoRoot reports a trace whose final event is not a translation unit
// root. Clang writes the enclosing ExecuteCompiler event last; anything
// else means the trace is malformed or truncated.
var ErrNoRoot = errors.New("last trace event is not a root")

// BuildHierarchy populates Parent and Children of evs in place from the
// interval containment of the events. The input order is arbitrary.
//
// Events are visited in a sorted permutation: by start time ascending,
// ties broken by longer duration first (a parent starts no later and lasts
// at least as long as any child), further ties by original index
// descending. A stack walk over that permutation attaches each event to
// the deepest enclosing interval seen so far, then the permutation-local
// links are fixed up back to indices into evs.
func BuildHierarchy(evs []Event) error {
	if len(evs) == 0 {
		return nil
	}

	perm := make([]int, len(evs))
	for i := range perm {
		perm[i] = i
	}

	sort.Slice(perm, func(x, y int) bool {
		ea, eb := &evs[perm[x]], &evs[perm[y]]
		if ea.Start != eb.Start {
			return ea.Start < eb.Start
		}

		if ea.Dur != eb.Dur {
			return ea.Dur > eb.Dur
		}

		return perm[x] > perm[y]
	})

	// Parent/child links are permutation positions until the fixup below.
	root := 0
	evRoot := &evs[perm[root]]
	evRoot.Parent = NoParent

	for i := 1; i < len(evs); i++ {
		ev := &evs[perm[i]]

		for root != -1 {
			if evRoot.Contains(ev) {
				ev.Parent = EventIndex(root)
				evRoot.Children = append(evRoot.Children, EventIndex(i))

				break
			}

			root = int(evRoot.Parent)
			if root != -1 {
				evRoot = &evs[perm[root]]
			}
		}

		if root == -1 {
			ev.Parent = NoParent
		}

		root = i
		evRoot = &evs[perm[i]]
	}

	for i := range evs {
		ev := &evs[i]
		for c, child := range ev.Children {
			ev.Children[c] = EventIndex(perm[child])
		}

		if ev.Parent != NoParent {
			ev.Parent = EventIndex(perm[ev.Parent])
		}
	}

	// Clang emits the enclosing compiler event last; if that event ended
	// up below another one the trace does not have the expected shape.
	if evs[len(evs)-1].Parent != NoParent {
		return ErrNoRoot
	}

	return nil
}
