// Package qr rasterizes verification payloads into scannable PNG
// codes.
package qr

import (
	"encoding/json"
	"errors"

	"medsupply/internal/domain"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultSize = 512

// Encoder serializes a payload to its canonical JSON form and renders
// that exact byte sequence as a QR code. Serialization is
// deterministic; a scanner decodes the same JSON the verify endpoint
// can be checked against.
type Encoder struct {
	Size int
}

func New(size int) *Encoder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Encoder{Size: size}
}

func (e *Encoder) Encode(payload domain.VerificationPayload) ([]byte, []byte, error) {
	if payload.TokenID == "" || payload.MedicineID == "" {
		return nil, nil, errors.New("payload token id and medicine id required")
	}
	serialized, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	size := e.Size
	if size <= 0 {
		size = DefaultSize
	}
	image, err := qrcode.Encode(string(serialized), qrcode.Medium, size)
	if err != nil {
		return nil, nil, err
	}
	return serialized, image, nil
}
