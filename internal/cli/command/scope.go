// Package command provides CLI command definitions for liquid-cli.
package command

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/celerix-dev/liquidstore/internal/cli/output"
	"github.com/celerix-dev/liquidstore/internal/core/domain"
)

// PersonasCommand returns the personas command.
func PersonasCommand() *cli.Command {
	return &cli.Command{
		Name:   "personas",
		Usage:  "List all personas",
		Action: scopePersonas,
	}
}

// AppsCommand returns the apps command.
func AppsCommand() *cli.Command {
	return &cli.Command{
		Name:      "apps",
		Usage:     "List apps under a persona",
		ArgsUsage: "PERSONA",
		Action:    scopeApps,
	}
}

// DumpCommand returns the dump command.
func DumpCommand() *cli.Command {
	return &cli.Command{
		Name:      "dump",
		Usage:     "Dump all keys of an app",
		ArgsUsage: "APP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "persona",
				Aliases: []string{"p"},
				Usage:   "Restrict the dump to one persona",
			},
		},
		Action: scopeDump,
	}
}

// GetGlobalCommand returns the get-global command.
func GetGlobalCommand() *cli.Command {
	return &cli.Command{
		Name:      "get-global",
		Usage:     "Find a key in any persona",
		ArgsUsage: "APP KEY",
		Action:    scopeGetGlobal,
	}
}

func scopePersonas(c *cli.Context) error {
	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore(s)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	personas, err := s.ListPersonas(ctx)
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(output.Format(c.String("output")))
	if _, ok := formatter.(*output.JSONFormatter); ok {
		return formatter.Format(os.Stdout, personas)
	}

	table := &output.Table{Headers: []string{"PERSONA"}}
	for _, p := range personas {
		table.Rows = append(table.Rows, []string{p})
	}
	return table.Render(os.Stdout)
}

func scopeApps(c *cli.Context) error {
	args, err := requireArgs(c, "PERSONA")
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore(s)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	apps, err := s.ListApps(ctx, args[0])
	if err != nil {
		return err
	}

	formatter := output.NewFormatter(output.Format(c.String("output")))
	if _, ok := formatter.(*output.JSONFormatter); ok {
		return formatter.Format(os.Stdout, apps)
	}

	table := &output.Table{Headers: []string{"APP"}}
	for _, a := range apps {
		table.Rows = append(table.Rows, []string{a})
	}
	return table.Render(os.Stdout)
}

func scopeDump(c *cli.Context) error {
	args, err := requireArgs(c, "APP")
	if err != nil {
		return err
	}
	app := args[0]

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore(s)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	formatter := output.NewFormatter(output.Format(c.String("output")))

	if persona := c.String("persona"); persona != "" {
		data, err := s.DumpApp(ctx, persona, app)
		if err != nil {
			return err
		}
		if _, ok := formatter.(*output.JSONFormatter); ok {
			return formatter.Format(os.Stdout, data)
		}
		return renderAppTable(data)
	}

	global, err := s.DumpAppGlobal(ctx, app)
	if err != nil {
		return err
	}
	if _, ok := formatter.(*output.JSONFormatter); ok {
		return formatter.Format(os.Stdout, global)
	}
	return renderGlobalTable(global)
}

func scopeGetGlobal(c *cli.Context) error {
	args, err := requireArgs(c, "APP", "KEY")
	if err != nil {
		return err
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore(s)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	value, persona, err := s.GetGlobal(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("%s\t%s\n", persona, string(value))
	return nil
}

func renderAppTable(data domain.AppData) error {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	table := &output.Table{Headers: []string{"KEY", "VALUE"}}
	for _, k := range keys {
		table.Rows = append(table.Rows, []string{k, string(data[k])})
	}
	return table.Render(os.Stdout)
}

func renderGlobalTable(global map[string]domain.AppData) error {
	personas := make([]string, 0, len(global))
	for p := range global {
		personas = append(personas, p)
	}
	sort.Strings(personas)

	table := &output.Table{Headers: []string{"PERSONA", "KEY", "VALUE"}}
	for _, p := range personas {
		keys := make([]string, 0, len(global[p]))
		for k := range global[p] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			table.Rows = append(table.Rows, []string{p, k, string(global[p][k])})
		}
	}
	return table.Render(os.Stdout)
}
