package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"medsupply/internal/domain"
	"medsupply/internal/infra/qr"
)

type payloadFlags struct {
	tokenID    string
	drugName   string
	medicineID string
	expiry     string
	contract   string
	network    string
}

func (f *payloadFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.tokenID, "token-id", "", "token id")
	fs.StringVar(&f.drugName, "drug-name", "", "drug name")
	fs.StringVar(&f.medicineID, "medicine-id", "", "medicine id")
	fs.StringVar(&f.expiry, "expiry", "", "expiry timestamp (RFC 3339)")
	fs.StringVar(&f.contract, "contract", "", "ledger contract address")
	fs.StringVar(&f.network, "network", "local", "ledger network name")
}

func (f *payloadFlags) build() (domain.VerificationPayload, error) {
	if f.tokenID == "" || f.drugName == "" || f.medicineID == "" || f.expiry == "" {
		return domain.VerificationPayload{}, fmt.Errorf("qr requires --token-id, --drug-name, --medicine-id and --expiry")
	}
	expiry, err := time.Parse(time.RFC3339, f.expiry)
	if err != nil {
		return domain.VerificationPayload{}, fmt.Errorf("parse expiry: %w", err)
	}
	return domain.VerificationPayload{
		TokenID:         f.tokenID,
		DrugName:        f.drugName,
		MedicineID:      f.medicineID,
		ExpiryDate:      expiry.UTC().Format(time.RFC3339),
		ContractAddress: f.contract,
		Network:         f.network,
	}, nil
}

// runQR renders a verification code offline, without the daemon or
// the pinning service.
func runQR(args []string) int {
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var flags payloadFlags
	flags.register(fs)
	var size int
	var outPath string
	var outPayload string
	fs.IntVar(&size, "size", qr.DefaultSize, "image size in pixels")
	fs.StringVar(&outPath, "out", "", "output PNG path")
	fs.StringVar(&outPayload, "out-payload", "", "output payload JSON path")

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if outPath == "" {
		fmt.Fprintln(os.Stderr, "qr requires --out")
		return 1
	}
	payload, err := flags.build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	serialized, image, err := qr.New(size).Encode(payload)
	if err != nil {
		fmt.Fprintf(os.Stderr, "encode qr: %v\n", err)
		return 1
	}
	if err := os.WriteFile(outPath, image, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "write image: %v\n", err)
		return 1
	}
	if outPayload != "" {
		if err := emitPayload(outPayload, serialized); err != nil {
			fmt.Fprintf(os.Stderr, "write payload: %v\n", err)
			return 1
		}
	}
	return 0
}
