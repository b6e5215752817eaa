package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "qr":
		return runQR(args[2:])
	case "payload":
		return runPayload(args[2:])
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "medsupply"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s qr --token-id <id> --drug-name <name> --medicine-id <id> --expiry <rfc3339> [--contract <addr>] [--network <name>] [--size <px>] --out <file.png> [--out-payload <file>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s payload --token-id <id> --drug-name <name> --medicine-id <id> --expiry <rfc3339> [--contract <addr>] [--network <name>] [--out <file>]\n", name)
}

// emitPayload writes the serialized payload to path, or to stdout with
// a trailing newline when no path is given.
func emitPayload(path string, payload []byte) error {
	if path != "" {
		return os.WriteFile(path, payload, 0o644)
	}
	_, err := os.Stdout.Write(append(payload, '\n'))
	return err
}
