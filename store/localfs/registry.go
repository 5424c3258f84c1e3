package localfs

import (
	"flag"
	"fmt"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/registry"
)

var flagDir string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem store (directory)",
		Usage:       registry.UsageTool | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagDir, "localfs-dir", "", "store directory (for -backend=localfs)")
		},
		Open: func() (store.Store, func() error, error) {
			if flagDir == "" {
				return nil, nil, fmt.Errorf("missing -localfs-dir")
			}
			s, err := New(flagDir)
			return s, nil, err
		},
	})
}
