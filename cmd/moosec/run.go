package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/exp/slices"

	"github.com/mooselang/moose/channel"
	"github.com/mooselang/moose/runtime"
	"github.com/mooselang/moose/storage"
	"github.com/mooselang/moose/types"
	"github.com/mooselang/moose/wire"
)

// runRun simulates every party named by a lowered computation's
// placements in one process, sharing a channel.Memory transport and
// giving each party its own FSStore subdirectory under -storage.
// Grounded on cmd/snellerd's "daemon" path generalized to an
// in-process multi-party run instead of a single-tenant HTTP server.
func runRun(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	in := fs.String("i", "", "lowered computation file (wire-encoded, compressed)")
	storageDir := fs.String("storage", "", "base directory for each party's local storage")
	sessionID := fs.Uint("session", 1, "session id")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *in == "" {
		fatalf("run: -i is required")
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		fatalf("run: reading %s: %s", *in, err)
	}
	decompressed, err := wire.DecompressComputation(raw)
	if err != nil {
		fatalf("run: decompressing %s: %s", *in, err)
	}
	comp, err := wire.DecodeComputation(decompressed)
	if err != nil {
		fatalf("run: decoding %s: %s", *in, err)
	}

	var hostNames []string
	seen := map[string]bool{}
	for _, p := range comp.Placements {
		for _, h := range types.Hosts(p) {
			if !seen[h] {
				seen[h] = true
				hostNames = append(hostNames, h)
			}
		}
	}
	slices.Sort(hostNames)

	mem := channel.NewMemory()
	logger := log.New(os.Stderr, "", log.Lshortfile)
	parties := make([]runtime.PartyClient, 0, len(hostNames))
	for _, name := range hostNames {
		store, err := storage.NewFSStore(filepath.Join(*storageDir, name))
		if err != nil {
			fatalf("run: setting up storage for %s: %s", name, err)
		}
		parties = append(parties, &runtime.LocalParty{
			Name:    name,
			Channel: mem,
			Storage: store,
			Logf:    logger.Printf,
		})
	}

	orch := &runtime.Orchestrator{Logf: logger.Printf}
	if err := orch.Evaluate(context.Background(), comp, uint32(*sessionID), parties); err != nil {
		fatalf("run: %s", err)
	}
}
