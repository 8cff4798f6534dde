// Package main is the entry point for the release notes generator.
package main

import (
	"fmt"
	"os"

	"github.com/delivops/release-notes-generator/cmd"
	"github.com/delivops/release-notes-generator/internal/logging"
)

// main executes the root command and handles any errors that occur.
func main() {
	if err := cmd.Execute(); err != nil {
		logging.Error("run failed", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
