package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danbev/in-toto-rs/envelope"
	"github.com/danbev/in-toto-rs/keys"
	"github.com/danbev/in-toto-rs/models"
	"github.com/danbev/in-toto-rs/predicate"
	"github.com/danbev/in-toto-rs/runlib"
	"github.com/danbev/in-toto-rs/statement"
)

// attestFlags is everything run and record share once link metadata exists:
// statement encoding, optional signing, and where the bytes go.
type attestFlags struct {
	statementTag string
	predicateURI string
	out          string

	signerName string
	signerRole string
	seedHex    string
	keyFile    string
	scheme     string
	keyDir     string

	store storeFlags
}

func (f *attestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.statementTag, "statement", "link", "Statement encoding: link or v0.1")
	cmd.Flags().StringVar(&f.predicateURI, "predicate", "", "Predicate type for v0.1 statements (default link/v0.2)")
	cmd.Flags().StringVar(&f.out, "out", "", "Write the attestation to a file instead of stdout")

	cmd.Flags().StringVar(&f.signerName, "signer", "", "Sign with a named key from the key store")
	cmd.Flags().StringVar(&f.signerRole, "signer-role", "", "Role of the named key (requires --signer)")
	cmd.Flags().StringVar(&f.seedHex, "seed-hex", "", "Sign with a raw hex seed")
	cmd.Flags().StringVar(&f.keyFile, "key-file", "", "Sign with a seed file")
	cmd.Flags().StringVar(&f.scheme, "scheme", keys.SchemeEd25519, "Signature scheme: ed25519 or dilithium3")
	cmd.Flags().StringVar(&f.keyDir, "key-dir", "", "Key store directory (default ~/.in-toto/keys)")

	f.store.register(cmd)
}

func (f *attestFlags) signRequested() bool {
	return f.signerName != "" || f.seedHex != "" || f.keyFile != ""
}

func (f *attestFlags) signer() (keys.Signer, error) {
	sources := 0
	if f.signerName != "" {
		sources++
	}
	if f.seedHex != "" {
		sources++
	}
	if f.keyFile != "" {
		sources++
	}
	if sources > 1 {
		return nil, fmt.Errorf("conflicting signer flags: use exactly one of --signer, --seed-hex, --key-file")
	}
	if f.signerRole != "" && f.signerName == "" {
		return nil, fmt.Errorf("--signer-role requires --signer")
	}
	ks, err := keys.CreateKeyStore(f.keyDir)
	if err != nil {
		return nil, fmt.Errorf("keys: %w", err)
	}
	seed, err := ks.LoadSeed(f.seedHex, f.signerName, f.signerRole, f.keyFile)
	if err != nil {
		return nil, err
	}
	return keys.SignerFromSeed(f.scheme, seed)
}

// emit encodes meta as the selected statement, optionally signs it into a
// DSSE envelope, writes the result, and stores it when a store is selected.
func (f *attestFlags) emit(cmd *cobra.Command, meta models.LinkMetadata) error {
	stVersion, err := parseStatementTag(f.statementTag)
	if err != nil {
		return err
	}
	predVersion, err := parsePredicateURI(f.predicateURI)
	if err != nil {
		return err
	}
	final, err := encodeStatement(meta, stVersion, predVersion)
	if err != nil {
		return err
	}

	if f.signRequested() {
		sgn, err := f.signer()
		if err != nil {
			return err
		}
		env, err := envelope.Sign(final, sgn)
		if err != nil {
			return err
		}
		final, err = env.ToBytes()
		if err != nil {
			return err
		}
	}

	if err := writeOutput(cmd, f.out, final); err != nil {
		return err
	}

	if f.store.selected() {
		st, closeFn, err := f.store.open()
		if err != nil {
			return err
		}
		defer closeStore(closeFn)
		id, err := st.Put(final)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Attestation-CID: %s\n", id)
	}
	return nil
}

func parseStatementTag(tag string) (statement.Version, error) {
	switch tag {
	case "", "link":
		return statement.VersionNaiveV1, nil
	case "v0.1", statement.TypeStatementV01:
		return statement.VersionV01, nil
	}
	return 0, fmt.Errorf("unknown statement encoding %q (use link or v0.1)", tag)
}

func parsePredicateURI(s string) (predicate.Version, error) {
	switch s {
	case "", "link/v0.2":
		return predicate.VersionLinkV02, nil
	case "slsa-provenance/v0.1":
		return predicate.VersionSLSAProvenanceV01, nil
	case "slsa-provenance/v0.2":
		return predicate.VersionSLSAProvenanceV02, nil
	}
	return predicate.ParseVersion(s)
}

func encodeStatement(meta models.LinkMetadata, v statement.Version, predVersion predicate.Version) ([]byte, error) {
	switch v {
	case statement.VersionNaiveV1:
		return statement.NaiveFromMetadata(meta).ToBytes()
	case statement.VersionV01:
		st, err := statement.V01FromMetadata(meta, predVersion)
		if err != nil {
			return nil, err
		}
		return st.ToBytes()
	}
	return nil, fmt.Errorf("unknown statement version %d", int(v))
}

func parseEnvVars(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	env := make(map[string]string, len(raw))
	for _, s := range raw {
		k, v, ok := strings.Cut(s, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --env-var %q: want KEY=VALUE", s)
		}
		env[k] = v
	}
	return env, nil
}

func newRunCommand() *cobra.Command {
	var (
		name       string
		stepFile   string
		dir        string
		materials  []string
		products   []string
		algorithms []string
		envVars    []string
		attest     attestFlags
	)

	cmd := &cobra.Command{
		Use:   "run [flags] -- <command> [args...]",
		Short: "Run a step command and record it as a link attestation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var meta models.LinkMetadata
			var err error
			if stepFile != "" {
				if name != "" || len(materials) > 0 || len(products) > 0 ||
					len(algorithms) > 0 || len(envVars) > 0 || len(args) > 0 {
					return fmt.Errorf("--step-file conflicts with step flags and a command line")
				}
				def, derr := runlib.LoadStepDef(stepFile)
				if derr != nil {
					return derr
				}
				meta, err = def.Execute(ctx, dir)
			} else {
				if name == "" {
					return fmt.Errorf("missing --name")
				}
				env, perr := parseEnvVars(envVars)
				if perr != nil {
					return perr
				}
				meta, err = runlib.InTotoRun(ctx, name, dir, materials, products,
					models.CommandFromArgs(args), env, algorithms)
			}
			if err != nil {
				return err
			}
			return attest.emit(cmd, meta)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Step name recorded in the link")
	cmd.Flags().StringVar(&stepFile, "step-file", "", "YAML step definition instead of flags")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory to run the command in")
	cmd.Flags().StringArrayVar(&materials, "materials", nil, "Material path to record before the run (repeatable)")
	cmd.Flags().StringArrayVar(&products, "products", nil, "Product path to record after the run (repeatable)")
	cmd.Flags().StringArrayVar(&algorithms, "algorithms", nil, "Digest algorithm for artifact hashing (repeatable, default sha256)")
	cmd.Flags().StringArrayVar(&envVars, "env-var", nil, "Environment variable KEY=VALUE for the command, recorded in the link (repeatable)")
	attest.register(cmd)
	return cmd
}

func newRecordCommand() *cobra.Command {
	var (
		name       string
		dir        string
		materials  []string
		products   []string
		algorithms []string
		attest     attestFlags
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record artifact hashes as a link attestation without running anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if name == "" {
				return fmt.Errorf("missing --name")
			}
			meta, err := runlib.InTotoRun(ctx, name, dir, materials, products, nil, nil, algorithms)
			if err != nil {
				return err
			}
			return attest.emit(cmd, meta)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Step name recorded in the link")
	cmd.Flags().StringVar(&dir, "dir", ".", "Directory the recorded paths are relative to")
	cmd.Flags().StringArrayVar(&materials, "materials", nil, "Material path to record (repeatable)")
	cmd.Flags().StringArrayVar(&products, "products", nil, "Product path to record (repeatable)")
	cmd.Flags().StringArrayVar(&algorithms, "algorithms", nil, "Digest algorithm for artifact hashing (repeatable, default sha256)")
	attest.register(cmd)
	return cmd
}
