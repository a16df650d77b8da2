package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
)

// Exit codes returned by the CLI.
const (
	ExitSuccess     = 0
	ExitError       = 1
	ExitConfigError = 2
	ExitPartial     = 3
)

func main() {
	// Set up panic recovery to handle unexpected errors gracefully
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", r)
			if verbose {
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			} else {
				fmt.Fprintln(os.Stderr, "Run with --verbose for stack trace")
			}
			os.Exit(ExitError)
		}
	}()

	ctx := context.Background()

	if err := Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCodeFor(err))
	}

	os.Exit(ExitSuccess)
}

// exitCodeFor maps an error to a process exit code.
func exitCodeFor(err error) int {
	var coded *codedError
	if ok := asCodedError(err, &coded); ok {
		return coded.code
	}
	return ExitError
}
