package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/danbev/in-toto-rs/envelope"
	"github.com/danbev/in-toto-rs/keys"
	"github.com/danbev/in-toto-rs/layout"
	"github.com/danbev/in-toto-rs/models"
	"github.com/danbev/in-toto-rs/runlib"
	"github.com/danbev/in-toto-rs/statement"
)

func newVerifyCommand() *cobra.Command {
	var (
		keyStrs   []string
		threshold int

		layoutPath      string
		layoutKeys      []string
		layoutThreshold int
		linkPaths       []string
		inspectDir      string
		strict          bool
		at              string
	)

	cmd := &cobra.Command{
		Use:   "verify [file]",
		Short: "Verify an envelope's signatures, or link evidence against a layout",
		Long: `Without --layout, verify the DSSE envelope given as the input file: check
its signatures against the --key public keys and require --threshold of
them to be valid.

With --layout, run full supply chain verification: check the layout's own
signatures (--layout-key), collect the signed link envelopes given with
--link, execute the layout's inspections in --inspection-dir, and evaluate
every step and inspection. The exit status is non-zero unless the verdict
is a pass.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			if layoutPath == "" {
				if len(args) == 0 {
					return fmt.Errorf("missing input: give an envelope file or --layout")
				}
				return verifyEnvelope(cmd, args[0], keyStrs, threshold)
			}
			now := time.Now()
			if at != "" {
				parsed, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at: %v", err)
				}
				now = parsed
			}
			return verifyLayout(ctx, cmd, layoutOpts{
				layoutPath:      layoutPath,
				layoutKeys:      layoutKeys,
				layoutThreshold: layoutThreshold,
				linkPaths:       linkPaths,
				inspectDir:      inspectDir,
				strict:          strict,
				now:             now,
			})
		},
	}

	cmd.Flags().StringArrayVar(&keyStrs, "key", nil, "Public key a signature may verify against (repeatable)")
	cmd.Flags().IntVar(&threshold, "threshold", 1, "Signatures from distinct keys required")

	cmd.Flags().StringVar(&layoutPath, "layout", "", "Layout file (bare or signed) for supply chain verification")
	cmd.Flags().StringArrayVar(&layoutKeys, "layout-key", nil, "Public key authorized to sign the layout (repeatable)")
	cmd.Flags().IntVar(&layoutThreshold, "layout-threshold", 1, "Layout signatures required")
	cmd.Flags().StringArrayVar(&linkPaths, "link", nil, "Signed link envelope collected for a step (repeatable)")
	cmd.Flags().StringVar(&inspectDir, "inspection-dir", ".", "Directory inspections run in")
	cmd.Flags().BoolVar(&strict, "strict", false, "Fail on any excluded link evidence, not only on failed checks")
	cmd.Flags().StringVar(&at, "at", "", "Verify as of an RFC 3339 instant instead of now")
	return cmd
}

func verifyEnvelope(cmd *cobra.Command, path string, keyStrs []string, threshold int) error {
	if len(keyStrs) == 0 {
		return fmt.Errorf("missing --key")
	}
	data, err := readInput(cmd, path)
	if err != nil {
		return err
	}
	env, err := envelope.Decode(data)
	if err != nil {
		return err
	}
	pubs, err := parsePublicKeys(keyStrs)
	if err != nil {
		return err
	}
	accepted, err := env.Verify(pubs, threshold)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Verified with %d signature(s)\n", len(accepted))
	for _, kid := range accepted {
		fmt.Fprintf(cmd.OutOrStdout(), "  keyid %s\n", kid)
	}
	return nil
}

type layoutOpts struct {
	layoutPath      string
	layoutKeys      []string
	layoutThreshold int
	linkPaths       []string
	inspectDir      string
	strict          bool
	now             time.Time
}

func verifyLayout(ctx context.Context, cmd *cobra.Command, opts layoutOpts) error {
	l, err := loadLayout(opts.layoutPath, opts.layoutKeys, opts.layoutThreshold)
	if err != nil {
		return err
	}
	stepLinks, err := loadStepLinks(opts.linkPaths)
	if err != nil {
		return err
	}
	inspectionLinks, err := runInspections(ctx, l, opts.inspectDir)
	if err != nil {
		return err
	}

	verify := layout.Verify
	if opts.strict {
		verify = layout.VerifyStrict
	}
	verdict, err := verify(l, stepLinks, inspectionLinks, opts.now)
	if verdict != nil {
		printVerdict(cmd.OutOrStdout(), verdict)
	}
	if err != nil {
		return err
	}
	if verdict.State != layout.StatePassed {
		return fmt.Errorf("layout verification failed")
	}
	return nil
}

// loadLayout reads the layout and, when layout keys are given, requires it
// to be a signed envelope and verifies it before decoding the payload. A
// signed layout without --layout-key is refused rather than trusted.
func loadLayout(path string, keyStrs []string, threshold int) (*layout.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(keyStrs) > 0 {
		env, err := envelope.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("layout %s is not a signed envelope: %v", filepath.Base(path), err)
		}
		pubs, err := parsePublicKeys(keyStrs)
		if err != nil {
			return nil, err
		}
		if _, err := env.Verify(pubs, threshold); err != nil {
			return nil, fmt.Errorf("layout signature: %w", err)
		}
		payload, err := env.PayloadBytes()
		if err != nil {
			return nil, err
		}
		return layout.Decode(payload)
	}
	if _, err := envelope.Decode(data); err == nil {
		return nil, fmt.Errorf("layout %s is signed: provide --layout-key", filepath.Base(path))
	}
	return layout.Decode(data)
}

// loadStepLinks decodes each link envelope and buckets it under the step
// name its payload statement carries. Signature checking stays with the
// verifier; here a file only has to parse.
func loadStepLinks(paths []string) (map[string][]envelope.Envelope, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	links := make(map[string][]envelope.Envelope)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		env, err := envelope.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("link %s: %v", filepath.Base(path), err)
		}
		payload, err := env.PayloadBytes()
		if err != nil {
			return nil, fmt.Errorf("link %s: %v", filepath.Base(path), err)
		}
		w, err := statement.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("link %s: %v", filepath.Base(path), err)
		}
		name := w.Metadata().Name
		links[name] = append(links[name], env)
	}
	return links, nil
}

// runInspections executes every inspection command in dir, recording the
// directory contents before and after, the way functionary steps record
// materials and products. A non-zero exit fails verification outright.
func runInspections(ctx context.Context, l *layout.Layout, dir string) (map[string]models.LinkMetadata, error) {
	if len(l.Inspect) == 0 {
		return nil, nil
	}
	out := make(map[string]models.LinkMetadata, len(l.Inspect))
	for _, insp := range l.Inspect {
		meta, err := runlib.InTotoRun(ctx, insp.Name, dir, []string{"."}, []string{"."},
			models.CommandFromString(insp.Run), nil, nil)
		if err != nil {
			return nil, fmt.Errorf("inspection %s: %w", insp.Name, err)
		}
		if meta.ByProducts.ReturnValue != 0 {
			return nil, fmt.Errorf("inspection %s: command exited with status %d",
				insp.Name, meta.ByProducts.ReturnValue)
		}
		out[insp.Name] = meta
	}
	return out, nil
}

func parsePublicKeys(raw []string) (map[string]keys.PublicKey, error) {
	pubs := make(map[string]keys.PublicKey, len(raw))
	for _, s := range raw {
		pk, err := keys.ParsePublicKey(s)
		if err != nil {
			return nil, err
		}
		kid, err := pk.KeyID()
		if err != nil {
			return nil, err
		}
		pubs[kid] = pk
	}
	return pubs, nil
}

func printVerdict(out io.Writer, v *layout.Verdict) {
	fmt.Fprintf(out, "Layout verification: %s\n", v.State)
	for _, r := range v.Reasons {
		fmt.Fprintf(out, "  %s\n", r)
	}
	for _, sv := range v.Steps {
		fmt.Fprintf(out, "Step %s: %s (%d of %d signatures)\n",
			sv.Name, satisfiedLabel(sv.Satisfied), sv.Observed, sv.Threshold)
		for _, kid := range sv.AcceptedKeyIDs {
			fmt.Fprintf(out, "  keyid %s\n", kid)
		}
		for _, r := range sv.Reasons {
			fmt.Fprintf(out, "  %s\n", r)
		}
	}
	for _, iv := range v.Inspections {
		fmt.Fprintf(out, "Inspection %s: %s\n", iv.Name, satisfiedLabel(iv.Satisfied))
		for _, r := range iv.Reasons {
			fmt.Fprintf(out, "  %s\n", r)
		}
	}
	for _, ex := range v.Exclusions {
		fmt.Fprintf(out, "Excluded link for step %s: %s\n", ex.Step, ex.Reason)
	}
}

func satisfiedLabel(ok bool) string {
	if ok {
		return "satisfied"
	}
	return "not satisfied"
}
