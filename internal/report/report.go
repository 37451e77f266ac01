// Package report renders ranked analysis results as the text report. The
// section wording and layout follow the established build-analyzer output
// so existing tooling that scrapes the report keeps working.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/tracefang/internal/analysis"
	"github.com/Sumatoshi-tech/tracefang/internal/config"
	"github.com/Sumatoshi-tech/tracefang/internal/events"
	"github.com/Sumatoshi-tech/tracefang/internal/intern"
	"github.com/Sumatoshi-tech/tracefang/internal/pathutil"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
)

// unknownFile is displayed when no ancestor names an owning file.
const unknownFile = "<unknown>"

const (
	microsPerMs = 1000
	msPerSecond = 1000.0
)

// Renderer writes the report for one analysis run.
type Renderer struct {
	cfg   *config.Config
	names *intern.Global
}

// NewRenderer returns a Renderer for the given configuration and name
// table.
func NewRenderer(cfg *config.Config, names *intern.Global) *Renderer {
	return &Renderer{cfg: cfg, names: names}
}

// Render writes every non-empty report section to w.
func (r *Renderer) Render(w io.Writer, res *analysis.Results) {
	r.renderSummary(w, &res.Totals)
	r.renderFiles(w, "**** Files that took longest to parse (compiler frontend):", res.ParseFiles)
	r.renderFiles(w, "**** Files that took longest to codegen (compiler backend):", res.CodegenFiles)
	r.renderTemplates(w, res.Templates)
	r.renderCollapsed(w, "**** Template sets that took longest to instantiate:", res.CollapsedTemplates)
	r.renderFunctions(w, res.Functions)
	r.renderCollapsed(w, "**** Function sets that took longest to compile / optimize:", res.CollapsedFunctions)
	r.renderHeaders(w, res.Headers)
}

func (r *Renderer) renderSummary(w io.Writer, totals *analysis.Totals) {
	if totals.ParseUs == 0 && totals.CodegenUs == 0 {
		return
	}

	fmt.Fprintf(w, "%s\n", term.Headerf("**** Time summary:"))
	fmt.Fprintf(w, "Compilation (%d times):\n", totals.ParseCount)
	fmt.Fprintf(w, "  Parsing (frontend):        %s s\n", term.Boldf("%7.1f", seconds(totals.ParseUs)))
	fmt.Fprintf(w, "  Codegen & opts (backend):  %s s\n", term.Boldf("%7.1f", seconds(totals.CodegenUs)))
	fmt.Fprintln(w)
}

func (r *Renderer) renderFiles(w io.Writer, header string, entries []analysis.FileEntry) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(w, "%s\n", term.Headerf("%s", header))

	for _, e := range entries {
		fmt.Fprintf(w, "%s ms: %s\n", term.Boldf("%6d", millis(e.DurUs)), r.fileName(e.Detail))
	}

	fmt.Fprintln(w)
}

func (r *Renderer) renderTemplates(w io.Writer, entries []analysis.TemplateEntry) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(w, "%s\n", term.Headerf("**** Templates that took longest to instantiate:"))

	for _, e := range entries {
		ms := millis(e.DurUs)
		fmt.Fprintf(w, "%s ms: %s (%d times, avg %d ms)\n",
			term.Boldf("%6d", ms), r.snip(r.names.NameString(e.Detail)), e.Count, avg(ms, e.Count))
	}

	fmt.Fprintln(w)
}

func (r *Renderer) renderCollapsed(w io.Writer, header string, entries []analysis.CollapsedEntry) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(w, "%s\n", term.Headerf("%s", header))

	for _, e := range entries {
		ms := millis(e.DurUs)
		fmt.Fprintf(w, "%s ms: %s (%d times, avg %d ms)\n",
			term.Boldf("%6d", ms), r.snip(e.Name), e.Count, avg(ms, e.Count))
	}

	fmt.Fprintln(w)
}

func (r *Renderer) renderFunctions(w io.Writer, entries []analysis.FunctionEntry) {
	if len(entries) == 0 {
		return
	}

	fmt.Fprintf(w, "%s\n", term.Headerf("**** Functions that took longest to compile:"))

	for _, e := range entries {
		fmt.Fprintf(w, "%s ms: %s (%s)\n",
			term.Boldf("%6d", millis(e.DurUs)), r.snip(r.names.NameString(e.Name)), r.fileName(e.Object))
	}

	fmt.Fprintln(w)
}

func (r *Renderer) renderHeaders(w io.Writer, headers []analysis.HeaderResult) {
	if len(headers) == 0 {
		return
	}

	fmt.Fprintf(w, "%s\n", term.Headerf("**** Expensive headers:"))

	for _, h := range headers {
		ms := millis(h.DurUs)
		fmt.Fprintf(w, "%s ms: %s (included %d times, avg %d ms), included via:\n",
			term.Boldf("%6d", ms), term.Boldf("%s", h.Name), h.Count, avg(ms, h.Count))

		for _, chain := range h.Chains {
			fmt.Fprint(w, " ")

			for _, file := range chain.Files {
				fmt.Fprintf(w, " %s", pathutil.Filename(r.names.NameString(file)))
			}

			fmt.Fprintf(w, "  (%d ms)\n", millis(chain.DurUs))
		}

		if h.ChainsTruncated {
			fmt.Fprintln(w, "  ...")
		}

		fmt.Fprintln(w)
	}
}

// fileName renders an owning file detail for display.
func (r *Renderer) fileName(idx events.DetailIndex) string {
	if idx == events.EmptyDetail {
		return unknownFile
	}

	return pathutil.Nice(r.names.NameString(idx))
}

func (r *Renderer) snip(name string) string {
	return text.Snip(name, r.cfg.Misc.MaxNameLength, "...")
}

func millis(us int64) int64 {
	return us / microsPerMs
}

func seconds(us int64) float64 {
	return float64(us/microsPerMs) / msPerSecond
}

func avg(ms int64, count int) int64 {
	if count == 0 {
		return 0
	}

	return ms / int64(count)
}
