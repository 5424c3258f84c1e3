// Command in-toto-stored serves the attestation store gRPC service over a
// registry-selected backend, so tools on other hosts can put and get
// attestation blocks through a single daemon.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"google.golang.org/grpc"

	"github.com/danbev/in-toto-rs/store"
	"github.com/danbev/in-toto-rs/store/grpcstore"
	"github.com/danbev/in-toto-rs/store/registry"

	_ "github.com/danbev/in-toto-rs/store/ipfs"
	_ "github.com/danbev/in-toto-rs/store/localfs"
)

func main() {
	fs := flag.NewFlagSet("in-toto-stored", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7777", "listen address")
	backend := fs.String("backend", "localfs", "store backend name")
	configPath := fs.String("config", "", "multi-store JSON config file (overrides -backend)")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	registry.RegisterFlags(fs, registry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}

	var st store.Store
	var closeFn func() error
	var err error
	source := *backend
	if *configPath != "" {
		source = "config:" + *configPath
		var cfg registry.Config
		cfg, err = registry.LoadFile(*configPath)
		if err == nil {
			st, closeFn, err = cfg.Open(registry.UsageDaemon, "")
		}
	} else {
		st, closeFn, err = registry.Open(*backend, registry.UsageDaemon)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if closeFn != nil {
		defer closeFn()
	}

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcstore.RegisterAttestationStoreServer(s, &grpcstore.Server{Store: st})

	fmt.Fprintf(os.Stderr, "in-toto-stored listening on %s (backend=%s)\n", lis.Addr().String(), source)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
