// Command mooseparty is a long-running per-party executor daemon: it
// accepts a lowered computation over HTTP and runs the slice of it
// bound to its own party, exchanging values with its peers over the
// same HTTP transport. Grounded on
// cmd/snellerd/run_daemon.go + run_worker.go + peercmd.go, whose
// daemon/worker split maps onto "orchestrator" (cmd/moosec run, or a
// standalone orchestrator) vs. "per-party executor" here.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"golang.org/x/sys/cpu"

	"github.com/mooselang/moose/channel"
	"github.com/mooselang/moose/runtime"
	"github.com/mooselang/moose/storage"
)

// capabilityReport logs whether this host has wide vector registers
// available. moose's Ring dialect batches arithmetic over uint64
// words; AVX2 availability is a rough proxy for how efficiently a
// future SIMD-batched kernel could pack four of them per instruction.
// No kernel in this module uses it yet, so its absence never blocks
// startup the way the teacher's AVX-512 requirement does in
// cmd/snellerd/main.go.
func capabilityReport() string {
	if cpu.X86.HasAVX2 {
		return "capability: AVX2 available, 256-bit ring-word batching is possible"
	}
	return "capability: AVX2 unavailable, ring arithmetic will run scalar"
}

func parseRendezvous(s string) (map[string]string, error) {
	out := map[string]string{}
	if s == "" {
		return out, nil
	}
	for _, pair := range strings.Split(s, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("invalid -rendezvous pair %q, want party=addr", pair)
		}
		out[kv[0]] = kv[1]
	}
	return out, nil
}

func main() {
	name := flag.String("name", "", "this party's name, matching its placement entries")
	listen := flag.String("listen", "127.0.0.1:7000", "address to listen on")
	rendezvous := flag.String("rendezvous", "", "comma-separated party=addr pairs for the channel transport")
	storageDir := flag.String("storage", "", "base directory for this party's local storage")
	flag.Parse()

	logger := log.New(os.Stderr, "", log.Lshortfile)
	logger.Println(capabilityReport())

	if *name == "" {
		logger.Fatal("mooseparty: -name is required")
	}

	store, err := storage.NewFSStore(*storageDir)
	if err != nil {
		logger.Fatalf("mooseparty: %s", err)
	}

	addrs, err := parseRendezvous(*rendezvous)
	if err != nil {
		logger.Fatalf("mooseparty: %s", err)
	}
	net := &channel.Net{Addrs: addrs}

	server := &runtime.PartyServer{
		Name:    *name,
		Channel: net,
		Storage: store,
		Logf:    logger.Printf,
	}

	mux := http.NewServeMux()
	mux.Handle("/run", server)
	mux.HandleFunc("/rendezvous", net.ServeHTTP)

	logger.Printf("mooseparty: %s listening on %s", *name, *listen)
	logger.Fatal(http.ListenAndServe(*listen, mux))
}
