package main

import (
	"flag"
	"os"

	"github.com/mooselang/moose/compiler/passes"
	"github.com/mooselang/moose/wire"
)

// runCompile reads a wire-encoded, compressed computation, runs it
// through the canonical lowering pipeline, and writes the lowered
// result in the same format (spec.md §4.2, §6).
func runCompile(args []string) {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	in := fs.String("i", "", "input computation file (wire-encoded, compressed)")
	out := fs.String("o", "", "output path for the lowered computation")
	deprecated := fs.Bool("deprecated", false, "use the deprecated 27-bit lowering pipeline instead of the canonical 16-bit one")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *in == "" || *out == "" {
		fatalf("compile: -i and -o are required")
	}

	raw, err := os.ReadFile(*in)
	if err != nil {
		fatalf("compile: reading %s: %s", *in, err)
	}
	decompressed, err := wire.DecompressComputation(raw)
	if err != nil {
		fatalf("compile: decompressing %s: %s", *in, err)
	}
	comp, err := wire.DecodeComputation(decompressed)
	if err != nil {
		fatalf("compile: decoding %s: %s", *in, err)
	}

	pipeline := passes.DefaultPipeline()
	if *deprecated {
		pipeline = passes.DeprecatedPipeline()
	}
	lowered, err := pipeline.Run(comp)
	if err != nil {
		fatalf("compile: %s", err)
	}

	encoded, err := wire.EncodeComputation(lowered)
	if err != nil {
		fatalf("compile: encoding lowered computation: %s", err)
	}
	framed := wire.CompressComputation(encoded)
	if err := os.WriteFile(*out, framed, 0644); err != nil {
		fatalf("compile: writing %s: %s", *out, err)
	}
}
