package main

import (
	"crypto/rand"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danbev/in-toto-rs/keys"
)

func newKeyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage signing keys in the local key store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newKeyInitCommand())
	cmd.AddCommand(newKeyDeriveCommand())
	cmd.AddCommand(newKeyListCommand())
	cmd.AddCommand(newKeyExportCommand())
	return cmd
}

func newKeyInitCommand() *cobra.Command {
	var (
		name      string
		scheme    string
		seedHex   string
		overwrite bool
		keyDir    string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a root key (random seed unless --seed-hex is given)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("missing --name")
			}
			if err := keys.CheckKeyName(name); err != nil {
				return fmt.Errorf("invalid --name: %v", err)
			}
			var seed []byte
			var err error
			if seedHex != "" {
				seed, err = keys.ParseSeedHex(seedHex)
				if err != nil {
					return fmt.Errorf("invalid --seed-hex: %v", err)
				}
			} else {
				seed, err = keys.GenerateSeed(rand.Reader)
				if err != nil {
					return err
				}
			}
			ks, err := keys.CreateKeyStore(keyDir)
			if err != nil {
				return fmt.Errorf("keys: %w", err)
			}
			pub, path, err := ks.InitializeRootKey(name, scheme, seed, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created root key: %s\n", pub)
			fmt.Fprintf(cmd.OutOrStdout(), "Stored at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key name")
	cmd.Flags().StringVar(&scheme, "scheme", keys.SchemeEd25519, "Signature scheme: ed25519 or dilithium3")
	cmd.Flags().StringVar(&seedHex, "seed-hex", "", "Deterministic seed instead of a random one")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing key file")
	cmd.Flags().StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.in-toto/keys)")
	return cmd
}

func newKeyDeriveCommand() *cobra.Command {
	var (
		from      string
		role      string
		scheme    string
		overwrite bool
		keyDir    string
	)

	cmd := &cobra.Command{
		Use:   "derive",
		Short: "Derive a role key from a root key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" {
				return fmt.Errorf("missing --from")
			}
			if role == "" {
				return fmt.Errorf("missing --role")
			}
			if err := keys.CheckKeyName(from); err != nil {
				return fmt.Errorf("invalid --from: %v", err)
			}
			if err := keys.CheckRole(role); err != nil {
				return fmt.Errorf("invalid --role: %v", err)
			}
			ks, err := keys.CreateKeyStore(keyDir)
			if err != nil {
				return fmt.Errorf("keys: %w", err)
			}
			pub, path, err := ks.DeriveKeyFromRole(from, role, scheme, overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created role key: %s\n", pub)
			fmt.Fprintf(cmd.OutOrStdout(), "Stored at: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Root key to derive from")
	cmd.Flags().StringVar(&role, "role", "", "Role name for the derived key")
	cmd.Flags().StringVar(&scheme, "scheme", keys.SchemeEd25519, "Signature scheme: ed25519 or dilithium3")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing key file")
	cmd.Flags().StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.in-toto/keys)")
	return cmd
}

func newKeyListCommand() *cobra.Command {
	var keyDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List keys and their derived roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := keys.CreateKeyStore(keyDir)
			if err != nil {
				return fmt.Errorf("keys: %w", err)
			}
			entries, err := ks.ListKeys()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n", e.Name)
				for _, r := range e.Roles {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", r)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.in-toto/keys)")
	return cmd
}

func newKeyExportCommand() *cobra.Command {
	var (
		name   string
		role   string
		scheme string
		keyDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print a key's public half",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				return fmt.Errorf("missing --name")
			}
			if err := keys.CheckKeyName(name); err != nil {
				return fmt.Errorf("invalid --name: %v", err)
			}
			if role != "" {
				if err := keys.CheckRole(role); err != nil {
					return fmt.Errorf("invalid --role: %v", err)
				}
			}
			ks, err := keys.CreateKeyStore(keyDir)
			if err != nil {
				return fmt.Errorf("keys: %w", err)
			}
			pub, err := ks.ExportKey(name, role, scheme)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), pub)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Key name")
	cmd.Flags().StringVar(&role, "role", "", "Role of a derived key (omit for the root key)")
	cmd.Flags().StringVar(&scheme, "scheme", keys.SchemeEd25519, "Signature scheme: ed25519 or dilithium3")
	cmd.Flags().StringVar(&keyDir, "key-dir", "", "Key store directory (default ~/.in-toto/keys)")
	return cmd
}
