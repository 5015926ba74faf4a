// Package command provides CLI command definitions for liquid-cli.
package command

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/celerix-dev/liquidstore/internal/core/store"
	"github.com/celerix-dev/liquidstore/pkg/vault"
)

// VaultCommand returns the vault subcommand group.
func VaultCommand() *cli.Command {
	return &cli.Command{
		Name:  "vault",
		Usage: "Work with encrypted values",
		Subcommands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "Generate a random master key",
				Action: vaultKeygen,
			},
			{
				Name:      "seal",
				Usage:     "Encrypt a plaintext",
				ArgsUsage: "PLAINTEXT",
				Flags:     keyFlags(),
				Action:    vaultSeal,
			},
			{
				Name:      "open",
				Usage:     "Decrypt a sealed value",
				ArgsUsage: "SEALED",
				Flags:     keyFlags(),
				Action:    vaultOpen,
			},
			{
				Name:      "set",
				Usage:     "Store an encrypted value",
				ArgsUsage: "PERSONA APP KEY PLAINTEXT",
				Flags:     keyFlags(),
				Action:    vaultSet,
			},
			{
				Name:      "get",
				Usage:     "Read and decrypt a value",
				ArgsUsage: "PERSONA APP KEY",
				Flags:     keyFlags(),
				Action:    vaultGet,
			},
		},
	}
}

func keyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "key-hex",
			Aliases: []string{"k"},
			Usage:   "Master key as 64 hex characters",
			EnvVars: []string{"LIQUIDSTORE_MASTER_KEY"},
		},
		&cli.StringFlag{
			Name:    "passphrase",
			Aliases: []string{"p"},
			Usage:   "Derive the master key from a passphrase",
			EnvVars: []string{"LIQUIDSTORE_PASSPHRASE"},
		},
		&cli.StringFlag{
			Name:  "salt-hex",
			Usage: "Salt for passphrase derivation (generated if omitted)",
		},
	}
}

// resolveKey turns the key flags into a master key. With a passphrase
// and no salt, a fresh salt is generated and reported on stderr so the
// caller can reuse it.
func resolveKey(c *cli.Context) ([]byte, error) {
	if keyHex := c.String("key-hex"); keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil {
			return nil, fmt.Errorf("invalid --key-hex: %w", err)
		}
		if len(key) != vault.KeySize {
			return nil, vault.ErrInvalidKeySize
		}
		return key, nil
	}

	passphrase := c.String("passphrase")
	if passphrase == "" {
		return nil, fmt.Errorf("either --key-hex or --passphrase is required")
	}

	var salt []byte
	if saltHex := c.String("salt-hex"); saltHex != "" {
		var err error
		salt, err = hex.DecodeString(saltHex)
		if err != nil {
			return nil, fmt.Errorf("invalid --salt-hex: %w", err)
		}
	}

	key, usedSalt, err := vault.DeriveKey([]byte(passphrase), salt)
	if err != nil {
		return nil, err
	}
	if salt == nil {
		PrintError("generated salt: %s (pass --salt-hex to decrypt later)", hex.EncodeToString(usedSalt))
	}
	return key, nil
}

func vaultKeygen(c *cli.Context) error {
	key, err := vault.GenerateKey()
	if err != nil {
		return err
	}
	defer vault.ZeroKey(key)

	fmt.Println(hex.EncodeToString(key))
	return nil
}

func vaultSeal(c *cli.Context) error {
	args, err := requireArgs(c, "PLAINTEXT")
	if err != nil {
		return err
	}

	key, err := resolveKey(c)
	if err != nil {
		return err
	}
	defer vault.ZeroKey(key)

	sealed, err := vault.Seal(args[0], key)
	if err != nil {
		return err
	}

	fmt.Println(sealed)
	return nil
}

func vaultOpen(c *cli.Context) error {
	args, err := requireArgs(c, "SEALED")
	if err != nil {
		return err
	}

	key, err := resolveKey(c)
	if err != nil {
		return err
	}
	defer vault.ZeroKey(key)

	plaintext, err := vault.Open(args[0], key)
	if err != nil {
		return err
	}

	fmt.Println(plaintext)
	return nil
}

func vaultSet(c *cli.Context) error {
	args, err := requireArgs(c, "PERSONA", "APP", "KEY", "PLAINTEXT")
	if err != nil {
		return err
	}

	key, err := resolveKey(c)
	if err != nil {
		return err
	}
	defer vault.ZeroKey(key)

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore(s)

	view, err := store.App(s, args[0], args[1]).Vault(key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := view.Set(ctx, args[2], args[3]); err != nil {
		return err
	}

	fmt.Println("OK")
	return nil
}

func vaultGet(c *cli.Context) error {
	args, err := requireArgs(c, "PERSONA", "APP", "KEY")
	if err != nil {
		return err
	}

	key, err := resolveKey(c)
	if err != nil {
		return err
	}
	defer vault.ZeroKey(key)

	s, err := openStore(c)
	if err != nil {
		return err
	}
	defer closeStore(s)

	view, err := store.App(s, args[0], args[1]).Vault(key)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	plaintext, err := view.Get(ctx, args[2])
	if err != nil {
		return err
	}

	fmt.Println(plaintext)
	return nil
}
