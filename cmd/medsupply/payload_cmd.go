package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
)

// runPayload prints the exact JSON a scanner would decode from the
// corresponding code image.
func runPayload(args []string) int {
	fs := flag.NewFlagSet("payload", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var flags payloadFlags
	flags.register(fs)
	var outPath string
	fs.StringVar(&outPath, "out", "", "output JSON path (default stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	payload, err := flags.build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	serialized, err := json.Marshal(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal payload: %v\n", err)
		return 1
	}
	if err := emitPayload(outPath, serialized); err != nil {
		fmt.Fprintf(os.Stderr, "write output: %v\n", err)
		return 1
	}
	return 0
}
