package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/spf13/cobra"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/bundle"
	"github.com/danbev/in-toto-rs/store/registry"

	// Selectable store backends.
	_ "github.com/danbev/in-toto-rs/store/grpcstore"
	_ "github.com/danbev/in-toto-rs/store/ipfs"
	_ "github.com/danbev/in-toto-rs/store/localfs"
)

// storeFlags selects an attestation store backend. Backend-specific options
// are contributed by the registry, so every registered backend's flags show
// up on commands that can write to or read from a store.
type storeFlags struct {
	backend    string
	configPath string
}

func (f *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.backend, "store", "", "Store backend (see 'in-toto store backends')")
	cmd.Flags().StringVar(&f.configPath, "store-config", "", "Multi-store JSON config file")

	gofs := flag.NewFlagSet("store", flag.ContinueOnError)
	registry.RegisterFlags(gofs, registry.UsageTool)
	cmd.Flags().AddGoFlagSet(gofs)
}

func (f *storeFlags) selected() bool {
	return f.backend != "" || f.configPath != ""
}

// open resolves the selection. With --store-config the config decides the
// backends and --store only marks the preferred read source.
func (f *storeFlags) open() (store.Store, func() error, error) {
	if f.configPath != "" {
		cfg, err := registry.LoadFile(f.configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(registry.UsageTool, f.backend)
	}
	return registry.Open(f.backend, registry.UsageTool)
}

func newStoreCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Attestation store operations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newStoreBackendsCommand())
	cmd.AddCommand(newStorePutCommand())
	cmd.AddCommand(newStoreGetCommand())
	cmd.AddCommand(newStoreExportCommand())
	cmd.AddCommand(newStoreImportCommand())
	return cmd
}

func newStoreBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the store backends linked into this binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, b := range registry.List(registry.UsageTool) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", b.Name, b.Description)
			}
			return nil
		},
	}
}

func newStorePutCommand() *cobra.Command {
	var flags storeFlags

	cmd := &cobra.Command{
		Use:   "put [file]",
		Short: "Store attestation bytes and print their CID",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.selected() {
				return fmt.Errorf("missing --store")
			}
			data, err := readInput(cmd, inputArg(args))
			if err != nil {
				return err
			}
			st, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer closeStore(closeFn)
			id, err := st.Put(data)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newStoreGetCommand() *cobra.Command {
	var (
		flags storeFlags
		out   string
	)

	cmd := &cobra.Command{
		Use:   "get <cid>",
		Short: "Fetch attestation bytes by CID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.selected() {
				return fmt.Errorf("missing --store")
			}
			id, err := cid.Decode(args[0])
			if err != nil {
				return fmt.Errorf("invalid cid %q: %v", args[0], err)
			}
			st, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer closeStore(closeFn)
			data, err := st.Get(id)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, data)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write bytes to a file instead of stdout")
	return cmd
}

func newStoreExportCommand() *cobra.Command {
	var (
		flags  storeFlags
		output string
		labels []string
		index  bool
	)

	cmd := &cobra.Command{
		Use:   "export <cid>...",
		Short: "Export blocks from a store into a deterministic TAR bundle",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.selected() {
				return fmt.Errorf("missing --store")
			}
			ids := make([]cid.Cid, 0, len(args))
			for _, s := range args {
				id, err := cid.Decode(s)
				if err != nil {
					return fmt.Errorf("invalid cid %q: %v", s, err)
				}
				ids = append(ids, id)
			}
			labelMap, err := parseLabels(labels)
			if err != nil {
				return err
			}
			st, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer closeStore(closeFn)

			f, err := os.Create(output)
			if err != nil {
				return err
			}
			exportErr := bundle.Export(f, st, ids, bundle.ExportOptions{
				Labels:       labelMap,
				IncludeIndex: index,
			})
			if closeErr := f.Close(); exportErr == nil {
				exportErr = closeErr
			}
			return exportErr
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&output, "output", "", "Destination bundle file")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "Label a block as name=cid (repeatable)")
	cmd.Flags().BoolVar(&index, "index", true, "Include an index.json entry in the bundle")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func newStoreImportCommand() *cobra.Command {
	var (
		flags         storeFlags
		ignoreUnknown bool
	)

	cmd := &cobra.Command{
		Use:   "import <bundle>",
		Short: "Import a TAR bundle's blocks into a store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !flags.selected() {
				return fmt.Errorf("missing --store")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			st, closeFn, err := flags.open()
			if err != nil {
				return err
			}
			defer closeStore(closeFn)
			return bundle.ImportWithOptions(f, st, bundle.ImportOptions{
				IgnoreUnknown: ignoreUnknown,
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&ignoreUnknown, "ignore-unknown", false, "Skip unknown bundle entries instead of failing")
	return cmd
}

func parseLabels(raw []string) (map[string]cid.Cid, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]cid.Cid, len(raw))
	for _, s := range raw {
		name, val, ok := strings.Cut(s, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --label %q: want name=cid", s)
		}
		id, err := cid.Decode(val)
		if err != nil {
			return nil, fmt.Errorf("invalid --label %q: %v", s, err)
		}
		out[name] = id
	}
	return out, nil
}

func closeStore(closeFn func() error) {
	if closeFn != nil {
		_ = closeFn()
	}
}
