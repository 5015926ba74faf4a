// Package command provides CLI command definitions for liquid-cli.
package command

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/celerix-dev/liquidstore/internal/core/domain"
)

const commandTimeout = 30 * time.Second

// GetCommand returns the get command.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Read a value",
		ArgsUsage: "PERSONA APP KEY",
		Action:    kvGet,
	}
}

// SetCommand returns the set command.
func SetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Write a value (JSON)",
		ArgsUsage: "PERSONA APP KEY VALUE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "string",
				Aliases: []string{"S"},
				Usage:   "Treat VALUE as a plain string, not JSON",
			},
		},
		Action: kvSet,
	}
}

// DeleteCommand returns the del command.
func DeleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "del",
		Aliases:   []string{"delete", "rm"},
		Usage:     "Delete a key",
		ArgsUsage: "PERSONA APP KEY",
		Action:    kvDelete,
	}
}

// MoveCommand returns the move command.
func MoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "move",
		Aliases:   []string{"mv"},
		Usage:     "Move a key between personas",
		ArgsUsage: "SRC_PERSONA DST_PERSONA APP KEY",
		Action:    kvMove,
	}
}

func requireArgs(c *cli.Context, names ...string) ([]string, error) {
	if c.Args().Len() != len(names) {
		return nil, fmt.Errorf("expected arguments: %v", names)
	}
	args := make([]string, len(names))
	for i := range names {
		args[i] = c.Args().Get(i)
		if args[i] == "" {
			return nil, fmt.Errorf("%s must not be empty", names[i])
		}
	}
	return args, nil
}

func kvGet(c *cli.Context) error {
	args, err := requireArgs(c, "PERSONA", "APP", "KEY")
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

	value, err := s.Get(ctx, args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Println(string(value))
	return nil
}

func kvSet(c *cli.Context) error {
	args, err := requireArgs(c, "PERSONA", "APP", "KEY", "VALUE")
	if err != nil {
		return err
	}

	raw := args[3]
	var value domain.Value
	if c.Bool("string") {
		encoded, err := json.Marshal(raw)
		if err != nil {
			return err
		}
		value = domain.Value(encoded)
	} else {
		value = domain.Value(raw)
		if !domain.ValidValue(value) {
			return fmt.Errorf("VALUE is not valid JSON (use --string for plain text)")
		}
	}

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore(s)

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := s.Set(ctx, args[0], args[1], args[2], value); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "OK")
	return nil
}

func kvDelete(c *cli.Context) error {
	args, err := requireArgs(c, "PERSONA", "APP", "KEY")
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

	if err := s.Delete(ctx, args[0], args[1], args[2]); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "OK")
	return nil
}

func kvMove(c *cli.Context) error {
	args, err := requireArgs(c, "SRC_PERSONA", "DST_PERSONA", "APP", "KEY")
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

	if err := s.MoveKey(ctx, args[0], args[1], args[2], args[3]); err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, "OK")
	return nil
}
