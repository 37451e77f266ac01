package commands

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tracefang/internal/analysis"
	"github.com/Sumatoshi-tech/tracefang/internal/blob"
	"github.com/Sumatoshi-tech/tracefang/internal/config"
	"github.com/Sumatoshi-tech/tracefang/internal/report"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
)

// NewAnalyzeCommand creates the analyze command: load a saved trace blob
// and print the report.
func NewAnalyzeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <inFile>",
		Short: "Analyze a saved build trace and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			began := time.Now()

			term.Notef("Analyzing build trace from '%s'...", args[0])

			cfg, cfgErr := config.Load(".")
			if cfgErr != nil {
				return cfgErr
			}

			evs, names, loadErr := blob.Load(args[0])
			if loadErr != nil {
				return loadErr
			}

			results := analysis.Run(evs, names, cfg)
			report.NewRenderer(cfg, names).Render(os.Stdout, results)

			term.Notef("  done in %.1fs.", time.Since(began).Seconds())

			return nil
		},
	}
}
