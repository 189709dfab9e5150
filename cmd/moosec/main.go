// Command moosec compiles a lowered-IR computation through the
// canonical pass pipeline and, optionally, runs a local multi-party
// simulation of the result. Grounded on cmd/snellerd/main.go's
// subcommand dispatch, generalized from "daemon"/"worker" to
// "compile"/"run".
package main

import (
	"fmt"
	"os"
)

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "moosec: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: moosec <compile|run> [flags]")
		os.Exit(1)
	}
	subCommand := args[0]
	args = args[1:]
	switch subCommand {
	case "compile":
		runCompile(args)
	case "run":
		runRun(args)
	default:
		fmt.Fprintf(os.Stderr, "moosec: invalid sub-command %q\n", subCommand)
		os.Exit(1)
	}
}
