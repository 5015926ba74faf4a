// Package command provides CLI command definitions for liquid-cli.
package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/celerix-dev/liquidstore/pkg/sdk"
)

// PingCommand returns the ping command.
func PingCommand() *cli.Command {
	return &cli.Command{
		Name:   "ping",
		Usage:  "Check server reachability",
		Action: systemPing,
	}
}

func systemPing(c *cli.Context) error {
	addr := c.String("server")
	if addr == "" {
		return fmt.Errorf("ping requires a server address (--server or %s)", sdk.EnvRemoteAddr)
	}

	client := sdk.Dial(addr)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		return err
	}

	fmt.Println("PONG")
	return nil
}
