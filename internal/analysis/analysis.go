// Package analysis runs a single pass over a merged event graph and ranks
// what the build spent its time on: slowest files to parse and codegen,
// slowest templates to instantiate, slowest functions to optimize, and the
// most expensive headers together with the include chains that pulled them
// in. Aggregators live for one run and are discarded once the report is
// rendered.
package analysis

import (
	"sort"

	"github.com/Sumatoshi-tech/tracefang/internal/config"
	"github.com/Sumatoshi-tech/tracefang/internal/events"
	"github.com/Sumatoshi-tech/tracefang/internal/intern"
	"github.com/Sumatoshi-tech/tracefang/internal/pathutil"
)

// microsPerMs converts event durations to display milliseconds.
const microsPerMs = 1000

// Totals accumulates whole-build times.
type Totals struct {
	ParseUs    int64
	CodegenUs  int64
	ParseCount int
}

// FileEntry is one ranked file with its duration.
type FileEntry struct {
	Detail events.DetailIndex
	DurUs  int64
}

// TemplateEntry is one concrete template with instantiation stats.
type TemplateEntry struct {
	Detail events.DetailIndex
	Count  int
	DurUs  int64
}

// FunctionEntry is one function keyed by name and owning object file.
type FunctionEntry struct {
	Name   events.DetailIndex
	Object events.DetailIndex
	DurUs  int64
}

// CollapsedEntry is one template or function set, grouped by collapsed
// name.
type CollapsedEntry struct {
	Name  string
	Count int
	DurUs int64
}

// IncludeChain is the sequence of files (leaf to root) through which a
// header was reached, and the duration of the leaf parse. The duration is
// the innermost parse time, not an exclusive per-ancestor cost.
type IncludeChain struct {
	Files []events.DetailIndex
	DurUs int64
}

// HeaderResult is one expensive header with its ranked include chains.
type HeaderResult struct {
	Name            string
	DurUs           int64
	Count           int
	Root            bool
	Chains          []IncludeChain
	ChainsTruncated bool
}

// Results is everything the report renders.
type Results struct {
	Totals             Totals
	ParseFiles         []FileEntry
	CodegenFiles       []FileEntry
	Templates          []TemplateEntry
	CollapsedTemplates []CollapsedEntry
	Functions          []FunctionEntry
	CollapsedFunctions []CollapsedEntry
	Headers            []HeaderResult
}

// functionKey keys the function aggregator.
type functionKey struct {
	name   events.DetailIndex
	object events.DetailIndex
}

// instantiationInfo accumulates per-originating-event stats.
type instantiationInfo struct {
	count int
	durUs int64
}

// headerEntry accumulates per-header stats during the pass.
type headerEntry struct {
	durUs  int64
	count  int
	root   bool
	chains []IncludeChain
}

type analyzer struct {
	cfg   *config.Config
	evs   []events.Event
	names *intern.Global

	totals         Totals
	parseFiles     []FileEntry
	codegenFiles   []FileEntry
	functions      map[functionKey]int64
	instantiations map[events.EventIndex]instantiationInfo
	headers        map[string]*headerEntry
	headerOrder    []string
}

// Run analyzes the event graph under cfg and returns the ranked results.
func Run(evs []events.Event, names *intern.Global, cfg *config.Config) *Results {
	a := &analyzer{
		cfg:            cfg,
		evs:            evs,
		names:          names,
		functions:      make(map[functionKey]int64),
		instantiations: make(map[events.EventIndex]instantiationInfo),
		headers:        make(map[string]*headerEntry),
	}

	for i := range evs {
		a.processEvent(events.EventIndex(i))
	}

	return a.finish()
}

// processEvent classifies one event into its aggregator.
func (a *analyzer) processEvent(idx events.EventIndex) {
	ev := &a.evs[idx]

	switch ev.Kind {
	case events.KindOptFunction:
		key := functionKey{name: ev.Detail, object: a.findOwner(idx)}
		a.functions[key] += ev.Dur

	case events.KindInstantiateClass, events.KindInstantiateFunction:
		info := a.instantiations[idx]
		info.count++
		info.durUs += ev.Dur
		a.instantiations[idx] = info

	case events.KindFrontend:
		a.totals.ParseUs += ev.Dur
		a.totals.ParseCount++

		if ev.Dur/microsPerMs >= int64(a.cfg.MinTimes.File) {
			a.parseFiles = append(a.parseFiles, FileEntry{Detail: a.findOwner(idx), DurUs: ev.Dur})
		}

	case events.KindBackend:
		a.totals.CodegenUs += ev.Dur

		if ev.Dur/microsPerMs >= int64(a.cfg.MinTimes.File) {
			a.codegenFiles = append(a.codegenFiles, FileEntry{Detail: a.findOwner(idx), DurUs: ev.Dur})
		}

	case events.KindParseFile:
		a.processParseFile(idx)
	}
}

// findOwner walks from idx itself up through its ancestors until an event
// that names the owning source or object file: a Compiler, Frontend,
// Backend or OptModule event with a non-empty detail.
func (a *analyzer) findOwner(idx events.EventIndex) events.DetailIndex {
	for cur := idx; cur != events.NoParent; cur = a.evs[cur].Parent {
		ev := &a.evs[cur]
		switch ev.Kind {
		case events.KindCompiler, events.KindFrontend, events.KindBackend, events.KindOptModule:
			if ev.Detail != events.EmptyDetail {
				return ev.Detail
			}
		}
	}

	return events.EmptyDetail
}

// processParseFile updates the header aggregator for one Source event and
// records the include chain by which the header was reached.
func (a *analyzer) processParseFile(idx events.EventIndex) {
	ev := &a.evs[idx]
	path := a.names.NameString(ev.Detail)

	if !pathutil.IsHeader(path) {
		return
	}

	entry := a.headers[path]
	if entry == nil {
		entry = &headerEntry{}
		a.headers[path] = entry
		a.headerOrder = append(a.headerOrder, path)
	}

	entry.durUs += ev.Dur
	entry.count++

	chain := IncludeChain{
		Files: []events.DetailIndex{ev.Detail},
		DurUs: ev.Dur,
	}

	hadNonHeaderAncestor := false
	cur := ev.Parent

	for cur != events.NoParent && a.evs[cur].Kind == events.KindParseFile {
		ancestor := &a.evs[cur]

		chain.Files = append(chain.Files, ancestor.Detail)

		if !pathutil.IsHeader(a.names.NameString(ancestor.Detail)) {
			hadNonHeaderAncestor = true
		}

		cur = ancestor.Parent
	}

	// A header only ever reached through other headers still needs the
	// compiled file at the root of its displayed chain.
	if !hadNonHeaderAncestor {
		if owner := a.findOwner(cur); owner != events.EmptyDetail {
			chain.Files = append(chain.Files, owner)
		}
	}

	entry.root = true
	entry.chains = append(entry.chains, chain)
}

// finish ranks every aggregator with deterministic tie-breaking and
// truncates each list to its configured count.
func (a *analyzer) finish() *Results {
	res := &Results{Totals: a.totals}

	res.ParseFiles = rankFiles(a.parseFiles, a.cfg.Counts.FileParse)
	res.CodegenFiles = rankFiles(a.codegenFiles, a.cfg.Counts.FileCodegen)
	res.Templates = a.rankTemplates()
	res.CollapsedTemplates = a.rankCollapsedTemplates()
	res.Functions = a.rankFunctions()
	res.CollapsedFunctions = a.rankCollapsedFunctions()
	res.Headers = a.rankHeaders()

	return res
}

func rankFiles(entries []FileEntry, limit int) []FileEntry {
	sort.Slice(entries, func(x, y int) bool {
		if entries[x].DurUs != entries[y].DurUs {
			return entries[x].DurUs > entries[y].DurUs
		}

		return entries[x].Detail < entries[y].Detail
	})

	return truncate(entries, limit)
}

// rankTemplates groups instantiation events by detail name for the
// concrete view.
func (a *analyzer) rankTemplates() []TemplateEntry {
	byDetail := make(map[events.DetailIndex]*TemplateEntry)

	var order []events.DetailIndex

	for idx, info := range a.instantiations {
		detail := a.evs[idx].Detail

		entry := byDetail[detail]
		if entry == nil {
			entry = &TemplateEntry{Detail: detail}
			byDetail[detail] = entry
			order = append(order, detail)
		}

		entry.Count += info.count
		entry.DurUs += info.durUs
	}

	entries := make([]TemplateEntry, 0, len(order))
	for _, detail := range order {
		entries = append(entries, *byDetail[detail])
	}

	sort.Slice(entries, func(x, y int) bool {
		if entries[x].DurUs != entries[y].DurUs {
			return entries[x].DurUs > entries[y].DurUs
		}

		if entries[x].Count != entries[y].Count {
			return entries[x].Count > entries[y].Count
		}

		return entries[x].Detail < entries[y].Detail
	})

	return truncate(entries, a.cfg.Counts.Template)
}

// rankCollapsedTemplates rolls instantiations up by collapsed name. An
// instantiation whose ancestor collapses to the same name is skipped, so a
// recursive instantiation chain is counted once at its outermost event.
func (a *analyzer) rankCollapsedTemplates() []CollapsedEntry {
	acc := make(map[string]*CollapsedEntry)

	var order []string

	indices := make([]events.EventIndex, 0, len(a.instantiations))
	for idx := range a.instantiations {
		indices = append(indices, idx)
	}

	sort.Slice(indices, func(x, y int) bool { return indices[x] < indices[y] })

	for _, idx := range indices {
		info := a.instantiations[idx]
		name := Collapse(a.names.NameString(a.evs[idx].Detail))

		if a.hasAncestorCollapsingTo(idx, name) {
			continue
		}

		entry := acc[name]
		if entry == nil {
			entry = &CollapsedEntry{Name: name}
			acc[name] = entry
			order = append(order, name)
		}

		entry.Count += info.count
		entry.DurUs += info.durUs
	}

	return rankCollapsed(acc, order, a.cfg.Counts.Template)
}

func (a *analyzer) hasAncestorCollapsingTo(idx events.EventIndex, name string) bool {
	for cur := a.evs[idx].Parent; cur != events.NoParent; cur = a.evs[cur].Parent {
		if Collapse(a.names.NameString(a.evs[cur].Detail)) == name {
			return true
		}
	}

	return false
}

func (a *analyzer) rankFunctions() []FunctionEntry {
	entries := make([]FunctionEntry, 0, len(a.functions))
	for key, durUs := range a.functions {
		entries = append(entries, FunctionEntry{Name: key.name, Object: key.object, DurUs: durUs})
	}

	sort.Slice(entries, func(x, y int) bool {
		if entries[x].DurUs != entries[y].DurUs {
			return entries[x].DurUs > entries[y].DurUs
		}

		if entries[x].Name != entries[y].Name {
			return entries[x].Name < entries[y].Name
		}

		return entries[x].Object < entries[y].Object
	})

	return truncate(entries, a.cfg.Counts.Function)
}

// rankCollapsedFunctions rolls the function aggregator up by collapsed
// name; every entry contributes.
func (a *analyzer) rankCollapsedFunctions() []CollapsedEntry {
	entries := a.rankAllFunctions()
	acc := make(map[string]*CollapsedEntry)

	var order []string

	for _, fn := range entries {
		name := Collapse(a.names.NameString(fn.Name))

		entry := acc[name]
		if entry == nil {
			entry = &CollapsedEntry{Name: name}
			acc[name] = entry
			order = append(order, name)
		}

		entry.Count++
		entry.DurUs += fn.DurUs
	}

	return rankCollapsed(acc, order, a.cfg.Counts.Function)
}

// rankAllFunctions returns every function entry in deterministic order,
// without truncation.
func (a *analyzer) rankAllFunctions() []FunctionEntry {
	entries := make([]FunctionEntry, 0, len(a.functions))
	for key, durUs := range a.functions {
		entries = append(entries, FunctionEntry{Name: key.name, Object: key.object, DurUs: durUs})
	}

	sort.Slice(entries, func(x, y int) bool {
		if entries[x].Name != entries[y].Name {
			return entries[x].Name < entries[y].Name
		}

		return entries[x].Object < entries[y].Object
	})

	return entries
}

func rankCollapsed(acc map[string]*CollapsedEntry, order []string, limit int) []CollapsedEntry {
	entries := make([]CollapsedEntry, 0, len(order))
	for _, name := range order {
		entries = append(entries, *acc[name])
	}

	sort.Slice(entries, func(x, y int) bool {
		if entries[x].DurUs != entries[y].DurUs {
			return entries[x].DurUs > entries[y].DurUs
		}

		if entries[x].Count != entries[y].Count {
			return entries[x].Count > entries[y].Count
		}

		return entries[x].Name < entries[y].Name
	})

	return truncate(entries, limit)
}

// rankHeaders filters, sorts and truncates the header aggregator, and
// ranks each surviving header's include chains.
func (a *analyzer) rankHeaders() []HeaderResult {
	results := make([]HeaderResult, 0, len(a.headerOrder))

	for _, name := range a.headerOrder {
		entry := a.headers[name]

		if a.cfg.Misc.OnlyRootHeaders && !entry.root {
			continue
		}

		results = append(results, HeaderResult{
			Name:   name,
			DurUs:  entry.durUs,
			Count:  entry.count,
			Root:   entry.root,
			Chains: entry.chains,
		})
	}

	sort.Slice(results, func(x, y int) bool {
		if results[x].DurUs != results[y].DurUs {
			return results[x].DurUs > results[y].DurUs
		}

		return results[x].Name < results[y].Name
	})

	results = truncate(results, a.cfg.Counts.Header)

	for i := range results {
		a.rankChains(&results[i])
	}

	return results
}

// rankChains sorts one header's chains by duration, breaking ties by the
// file sequence, and truncates to the configured chain count.
func (a *analyzer) rankChains(h *HeaderResult) {
	sort.Slice(h.Chains, func(x, y int) bool {
		if h.Chains[x].DurUs != h.Chains[y].DurUs {
			return h.Chains[x].DurUs > h.Chains[y].DurUs
		}

		return a.chainLess(h.Chains[x].Files, h.Chains[y].Files)
	})

	if len(h.Chains) > a.cfg.Counts.HeaderChain {
		h.Chains = h.Chains[:a.cfg.Counts.HeaderChain]
		h.ChainsTruncated = true
	}
}

// chainLess compares two file sequences lexicographically by name.
func (a *analyzer) chainLess(x, y []events.DetailIndex) bool {
	for i := 0; i < len(x) && i < len(y); i++ {
		nx := a.names.NameString(x[i])
		ny := a.names.NameString(y[i])

		if nx != ny {
			return nx < ny
		}
	}

	return len(x) < len(y)
}

func truncate[T any](entries []T, limit int) []T {
	if len(entries) > limit {
		return entries[:limit]
	}

	return entries
}
