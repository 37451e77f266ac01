package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/tracefang/internal/session"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
)

// NewStartCommand creates the start command.
func NewStartCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "start <artifactsDir>",
		Short: "Start a build tracing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			artifactsDir := args[0]

			err := session.Start(artifactsDir, time.Now())
			if err != nil {
				return err
			}

			term.Notef("Build tracing started. Do some Clang builds with '-ftime-trace', "+
				"then run 'tracefang --stop %s <filename>' to stop tracing and save the trace to a file.", artifactsDir)

			return nil
		},
	}
}
