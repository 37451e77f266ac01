package commands

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tracefang/internal/analysis"
	"github.com/Sumatoshi-tech/tracefang/internal/blob"
	"github.com/Sumatoshi-tech/tracefang/internal/config"
	"github.com/Sumatoshi-tech/tracefang/internal/ingest"
	"github.com/Sumatoshi-tech/tracefang/internal/report"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
	"github.com/Sumatoshi-tech/tracefang/pkg/textutil"
)

// expectedFileName holds the golden report inside each test case
// directory.
const expectedFileName = "_AnalysisOutputExpected.txt"

// ErrTestMismatch reports at least one failed self-test case.
var ErrTestMismatch = errors.New("self-test output mismatch")

// NewTestCommand creates the test command: every first-level sub-directory
// of the folder is one ingest-and-analyze case checked against its golden
// report.
func NewTestCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "test <folder>",
		Short: "Run the golden self-tests in a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSelfTest(args[0])
		},
	}
}

func runSelfTest(folder string) error {
	entries, readErr := os.ReadDir(folder)
	if readErr != nil {
		return fmt.Errorf("read test folder: %w", readErr)
	}

	term.DisableColor()

	failures := 0
	cases := 0

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		cases++

		caseDir := filepath.Join(folder, entry.Name())

		caseErr := runSelfTestCase(caseDir)
		if caseErr != nil {
			failures++

			term.Errorf("test '%s' failed: %v", entry.Name(), caseErr)

			continue
		}

		term.Notef("test '%s' passed", entry.Name())
	}

	if failures > 0 {
		return fmt.Errorf("%w: %d of %d cases failed", ErrTestMismatch, failures, cases)
	}

	return nil
}

// runSelfTestCase ingests every artifact in dir, round-trips the graph
// through a temporary blob and compares the rendered report with the
// golden file, ignoring line-ending differences.
func runSelfTestCase(dir string) error {
	expected, expErr := os.ReadFile(filepath.Join(dir, expectedFileName))
	if expErr != nil {
		return fmt.Errorf("read golden report: %w", expErr)
	}

	paths, scanErr := ingest.ScanArtifacts(dir, time.Time{}, time.Time{})
	if scanErr != nil {
		return scanErr
	}

	coordinator := ingest.Coordinator{Log: logger()}

	evs, names, runErr := coordinator.Run(paths)
	if runErr != nil {
		return runErr
	}

	tmp, tmpErr := os.CreateTemp("", "tracefang-selftest-*.bin")
	if tmpErr != nil {
		return fmt.Errorf("create temp blob: %w", tmpErr)
	}

	tmpPath := tmp.Name()

	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := blob.Save(tmpPath, evs, names); err != nil {
		return err
	}

	evs, names, loadErr := blob.Load(tmpPath)
	if loadErr != nil {
		return loadErr
	}

	cfg, cfgErr := config.Load(dir)
	if cfgErr != nil {
		return cfgErr
	}

	var out bytes.Buffer

	results := analysis.Run(evs, names, cfg)
	report.NewRenderer(cfg, names).Render(&out, results)

	got := textutil.NormalizeNewlines(out.Bytes())
	want := textutil.NormalizeNewlines(expected)

	if !bytes.Equal(got, want) {
		return fmt.Errorf("%w in %s", ErrTestMismatch, dir)
	}

	return nil
}
