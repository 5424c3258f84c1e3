package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/danbev/in-toto-rs/envelope"
	"github.com/danbev/in-toto-rs/layout"
	"github.com/danbev/in-toto-rs/predicate"
	"github.com/danbev/in-toto-rs/statement"
	"github.com/danbev/in-toto-rs/store"
)

func newCIDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "cid [file]",
		Short: "Print the canonical CID of attestation bytes",
		Long: `Print the CIDv1 (raw codec, sha2-256) of the input bytes, exactly as an
attestation store would address them. Reads stdin when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			id, err := store.CIDFor(data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}
}

func newFmtCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Re-emit an envelope, statement, or layout in canonical form",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			canonical, err := recanonicalize(data)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, canonical)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "Write the canonical bytes to a file instead of stdout")
	return cmd
}

// recanonicalize decodes data as whichever document kind it is and re-emits
// the canonical encoding. Envelopes keep their signatures; the payload is
// not touched, only the envelope container is re-encoded.
func recanonicalize(data []byte) ([]byte, error) {
	if env, err := envelope.Decode(data); err == nil {
		return env.ToBytes()
	}
	w, stErr := statement.Decode(data)
	if stErr == nil {
		return w.ToBytes()
	}
	if l, err := layout.Decode(data); err == nil {
		return l.ToBytes()
	}
	return nil, fmt.Errorf("input is not an envelope, statement, or layout: %w", stErr)
}

func newConvertCommand() *cobra.Command {
	var (
		to      string
		from    string
		predURI string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "convert --to <encoding> [file]",
		Short: "Re-encode a statement as another statement version",
		Long: `Decode a bare statement and re-encode its metadata as the target version.
Link and v0.1 statements carry the same underlying step metadata, so
conversion is lossless in both directions for link predicates.

Signed envelopes are refused: converting the payload would invalidate the
signatures. Verify first, then convert the payload.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			if _, err := envelope.Decode(data); err == nil {
				return fmt.Errorf("input is a signed envelope; convert operates on bare statements")
			}

			var w statement.Wrapper
			if from != "" {
				fromVersion, ferr := parseStatementTag(from)
				if ferr != nil {
					return ferr
				}
				w, err = statement.DecodeAs(data, fromVersion)
			} else {
				w, err = statement.Decode(data)
			}
			if err != nil {
				return err
			}

			toVersion, err := parseStatementTag(to)
			if err != nil {
				return err
			}
			predVersion, err := convertPredicateVersion(w, predURI)
			if err != nil {
				return err
			}
			converted, err := encodeStatement(w.Metadata(), toVersion, predVersion)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, converted)
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Target statement encoding: link or v0.1")
	cmd.Flags().StringVar(&from, "from", "", "Source statement encoding (default auto-detect)")
	cmd.Flags().StringVar(&predURI, "predicate", "", "Predicate type for v0.1 output (default: keep the source's, else link/v0.2)")
	cmd.Flags().StringVar(&out, "out", "", "Write the converted statement to a file instead of stdout")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// convertPredicateVersion picks the predicate version for v0.1 output: an
// explicit --predicate wins, then the source statement's own predicate
// type, then link/v0.2.
func convertPredicateVersion(w statement.Wrapper, predURI string) (predicate.Version, error) {
	if predURI != "" {
		return parsePredicateURI(predURI)
	}
	if src, ok := w.V01(); ok {
		return parsePredicateURI(src.PredicateType)
	}
	return parsePredicateURI("")
}
