package commands

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tracefang/internal/blob"
	"github.com/Sumatoshi-tech/tracefang/internal/ingest"
	"github.com/Sumatoshi-tech/tracefang/internal/session"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
)

// NewStopCommand creates the stop command: ingest the artifacts written
// during the current session and save the merged graph.
func NewStopCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <artifactsDir> <outFile>",
		Short: "Stop the tracing session and save the merged trace",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			start, err := session.Read(args[0])
			if err != nil {
				return err
			}

			return runIngest(args[0], args[1], start, time.Now())
		},
	}
}

// NewAllCommand creates the all command: like stop, but ingest every
// artifact under the directory regardless of session times.
func NewAllCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "all <artifactsDir> <outFile>",
		Short: "Ingest all trace artifacts under a directory and save the merged trace",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runIngest(args[0], args[1], time.Time{}, time.Time{})
		},
	}
}

// runIngest scans artifactsDir, parses everything in parallel and writes
// the binary blob to outFile.
func runIngest(artifactsDir, outFile string, start, end time.Time) error {
	began := time.Now()

	term.Notef("Stopping build tracing and saving to '%s'...", outFile)

	paths, scanErr := ingest.ScanArtifacts(artifactsDir, start, end)
	if scanErr != nil {
		return scanErr
	}

	if len(paths) == 0 {
		return fmt.Errorf("%w under '%s'", ingest.ErrNoFiles, artifactsDir)
	}

	coordinator := ingest.Coordinator{Log: logger()}

	evs, names, runErr := coordinator.Run(paths)
	if runErr != nil {
		return runErr
	}

	saveErr := blob.Save(outFile, evs, names)
	if saveErr != nil {
		return saveErr
	}

	term.Notef("  done in %.1fs. Processed %s from %s. Run 'tracefang --analyze %s' to analyze it.",
		time.Since(began).Seconds(),
		humanize.Comma(int64(len(evs)))+" events",
		humanize.Comma(int64(len(paths)))+" files",
		outFile)

	return nil
}
