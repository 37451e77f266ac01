// Package main provides the entry point for the tracefang CLI tool.
package main

import (
	"os"

	"github.com/Sumatoshi-tech/tracefang/cmd/tracefang/commands"
	"github.com/Sumatoshi-tech/tracefang/internal/term"
)

func main() {
	// Established build scripts invoke the analyzer with double-dash
	// commands (--stop, --analyze, ...); map those onto the sub-commands.
	if len(os.Args) > 1 {
		if name, ok := commands.LegacyCommands[os.Args[1]]; ok {
			os.Args[1] = name
		}
	}

	rootCmd := commands.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		term.Errorf("%v", err)
		os.Exit(1)
	}
}
