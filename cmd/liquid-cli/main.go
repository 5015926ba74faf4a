// Package main provides the entry point for liquid-cli.
//
// liquid-cli is the command-line management tool for LiquidStore.
// It talks to a liquid-stored server when one is configured and
// operates on a local data directory otherwise.
package main

import (
	"fmt"
	"os"

	"github.com/celerix-dev/liquidstore/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
