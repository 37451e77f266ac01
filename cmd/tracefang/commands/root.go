// Package commands provides the CLI command implementations for
// tracefang.
package commands

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tracefang/internal/term"
	"github.com/Sumatoshi-tech/tracefang/pkg/version"
)

// LegacyCommands maps the double-dash command spelling used by the
// original analyzer tooling onto the cobra sub-command names, so existing
// build scripts keep working unchanged.
var LegacyCommands = map[string]string{
	"--start":   "start",
	"--stop":    "stop",
	"--all":     "all",
	"--analyze": "analyze",
	"--test":    "test",
}

var (
	verbose bool
	noColor bool
)

// NewRootCommand builds the root command with every sub-command attached.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "tracefang",
		Short:   "Analyze Clang -ftime-trace build traces",
		Long:    "tracefang ingests Clang -ftime-trace JSON artifacts and reports what the build spent its time on.",
		Version: version.String(),

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if noColor {
				term.DisableColor()
			}
		},
	}

	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		NewStartCommand(),
		NewStopCommand(),
		NewAllCommand(),
		NewAnalyzeCommand(),
		NewTestCommand(),
	)

	return rootCmd
}

// logger returns the diagnostic logger for the current invocation: debug
// level to stderr under --verbose, discard otherwise.
func logger() *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
