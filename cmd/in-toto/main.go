// Command in-toto records supply chain steps as link attestations, converts
// between statement encodings, and verifies evidence against layouts.
//
// Attestation bytes always go to stdout (or --out); diagnostics and the
// stored CID go to stderr, so output can be piped directly into a store or
// another tool.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "in-toto",
		Short:         "Record, convert, store, and verify in-toto link attestations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newRecordCommand())
	cmd.AddCommand(newCIDCommand())
	cmd.AddCommand(newFmtCommand())
	cmd.AddCommand(newConvertCommand())
	cmd.AddCommand(newVerifyCommand())
	cmd.AddCommand(newKeyCommand())
	cmd.AddCommand(newStoreCommand())
	return cmd
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// inputArg returns the single optional positional input path.
func inputArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return ""
}
