package ipfs

import (
	"flag"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/registry"
)

var flagBin string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "ipfs",
		Description: "Kubo CLI block store (shells out to the local ipfs binary)",
		Usage:       registry.UsageTool | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagBin, "ipfs-bin", "", "Path to the ipfs binary; empty means \"ipfs\" on PATH (for --backend=ipfs)")
		},
		Open: func() (store.Store, func() error, error) {
			return New(Options{Bin: flagBin}), nil, nil
		},
	})
}
