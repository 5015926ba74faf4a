// Package command provides CLI command definitions for liquid-cli.
//
// It uses urfave/cli/v2 for command parsing. Commands talk to a
// liquid-stored server when one is configured, and fall back to an
// embedded store otherwise.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/celerix-dev/liquidstore/internal/core/store"
	"github.com/celerix-dev/liquidstore/pkg/sdk"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "liquid-cli",
		Usage:   "LiquidStore command-line management tool",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			GetCommand(),
			SetCommand(),
			DeleteCommand(),
			MoveCommand(),
			PersonasCommand(),
			AppsCommand(),
			DumpCommand(),
			GetGlobalCommand(),
			PingCommand(),
			VaultCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "liquid-stored address (e.g., localhost:7501)",
			EnvVars: []string{sdk.EnvRemoteAddr},
		},
		&cli.StringFlag{
			Name:    "data-dir",
			Aliases: []string{"d"},
			Usage:   "Data directory for embedded mode",
			EnvVars: []string{"LIQUIDSTORE_DATA_DIR"},
			Value:   defaultDataDir(),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json",
			Value:   "table",
		},
	}
}

// openStore opens either a remote client or an embedded store,
// depending on the --server flag.
func openStore(c *cli.Context) (store.Store, error) {
	if addr := c.String("server"); addr != "" {
		return sdk.Dial(addr), nil
	}
	return sdk.Embedded(c.String("data-dir"))
}

// closeStore releases the store opened by openStore.
func closeStore(s store.Store) {
	if err := sdk.Close(s); err != nil {
		PrintError("close store: %v", err)
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.liquidstore/data"
	}
	return ".liquidstore/data"
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
