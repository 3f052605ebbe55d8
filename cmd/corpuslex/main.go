package main

import (
	"context"
	"fmt"
	"os"

	"github.com/corpuslex/corpuslex/internal/app"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "corpuslex"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, ProgramName, args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		exit(app.ExitCode(err))
	}
}

// Execute is the entry point for the CLI, extracted for testing.
func Execute(version, programName string, args []string) error {
	rootCmd := app.NewRootCommand(version, programName, app.DefaultRunParams())
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}
