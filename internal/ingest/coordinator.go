// Package ingest turns a set of trace artifacts into one merged event
// graph. Files are parsed concurrently, each job producing a private event
// buffer and name table; the merge appends each buffer to the global
// sequence, shifts its intra-job indices, and remaps its detail indices
// through the global interner.
package ingest

import (
	"errors"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/tracefang/internal/events"
	"github.com/Sumatoshi-tech/tracefang/internal/intern"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
	"github.com/Sumatoshi-tech/tracefang/internal/traceparse"
)

// ErrNoFiles reports an ingest run with no trace artifacts to read.
var ErrNoFiles = errors.New("no clang -ftime-trace .json files found")

// Coordinator runs the parallel ingest. The zero value warns to the
// terminal and logs nowhere.
type Coordinator struct {
	Log   *slog.Logger
	Warnf func(format string, args ...any)

	warnMu sync.Mutex
}

// Run parses every path concurrently and merges the results. The path
// list is sorted lexicographically and jobs are merged in that order, so
// the merged graph is byte-identical across runs regardless of directory
// iteration order or job completion order. Files that fail to parse are
// warned about and skipped; Run fails only when there is nothing to parse
// at all.
func (c *Coordinator) Run(paths []string) ([]events.Event, *intern.Global, error) {
	if len(paths) == 0 {
		return nil, nil, ErrNoFiles
	}

	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	workers := min(runtime.GOMAXPROCS(0), len(sorted))
	c.log().Debug("ingest starting", "files", len(sorted), "workers", workers)

	results := make([]*traceparse.Result, len(sorted))

	var group errgroup.Group

	group.SetLimit(workers)

	for i, path := range sorted {
		group.Go(func() error {
			started := time.Now()

			parser := traceparse.Parser{Warnf: c.warnf}

			res, err := parser.ParseFile(path)
			if err != nil {
				c.warnf("%v", err)

				return nil
			}

			results[i] = res

			c.log().Debug("parsed trace", "path", path, "events", len(res.Events), "took", time.Since(started))

			return nil
		})
	}

	// Parse failures are reported as warnings, never as group errors.
	_ = group.Wait()

	var merged []events.Event

	names := intern.NewGlobal()

	for _, res := range results {
		if res != nil {
			mergeJob(&merged, names, res)
		}
	}

	return merged, names, nil
}

// mergeJob appends one job's events to the global sequence. Parent and
// child links are job-local, so a fixed offset shift keeps them valid;
// detail indices go through the local-to-global remap table.
func mergeJob(merged *[]events.Event, names *intern.Global, res *traceparse.Result) {
	offset := events.EventIndex(len(*merged))
	remap := names.MergeLocal(res.Names)

	for _, ev := range res.Events {
		if ev.Parent != events.NoParent {
			ev.Parent += offset
		}

		for i := range ev.Children {
			ev.Children[i] += offset
		}

		ev.Detail = remap[ev.Detail]

		*merged = append(*merged, ev)
	}
}

// warnf serializes warnings from parallel jobs so lines do not interleave.
func (c *Coordinator) warnf(format string, args ...any) {
	c.warnMu.Lock()
	defer c.warnMu.Unlock()

	if c.Warnf != nil {
		c.Warnf(format, args...)

		return
	}

	term.Warnf(format, args...)
}

func (c *Coordinator) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}

	return slog.New(slog.DiscardHandler)
}
