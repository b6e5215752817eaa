package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized           = errors.New("unauthorized")
	ErrNotOwner               = errors.New("caller is not the current holder")
	ErrWrongState             = errors.New("invalid state for transition")
	ErrRoleMismatch           = errors.New("target lacks required role")
	ErrNotFound               = errors.New("not found")
	ErrExpired                = errors.New("expired")
	ErrNoMatchingPrescription = errors.New("no matching prescription")
	ErrNoInventory            = errors.New("no matching token in inventory")
	ErrAlreadyProcessed       = errors.New("claim already processed")
	ErrNotEligible            = errors.New("not eligible for claim")
	ErrInvalidInput           = errors.New("invalid input")
	ErrTokenIDMismatch        = errors.New("assigned token id differs from predicted")
)

// Pipeline step identifiers reported inside PipelineError.
const (
	PipelineStepConnectivity   = "connectivity"
	PipelineStepPredict        = "predict_token_id"
	PipelineStepEncode         = "encode_payload"
	PipelineStepUploadImage    = "upload_qr_image"
	PipelineStepUploadMetadata = "upload_metadata"
	PipelineStepMint           = "mint"
)

// PipelineError tags a mint-pipeline failure with the step that
// failed, so callers can decide between retrying the whole pipeline
// and abandoning it. It unwraps to the underlying cause, keeping the
// ledger error taxonomy visible through errors.Is.
type PipelineError struct {
	Step string
	Err  error
}

func (e *PipelineError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("mint pipeline failed at %s", e.Step)
	}
	return fmt.Sprintf("mint pipeline failed at %s: %v", e.Step, e.Err)
}

func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func IsPipelineError(err error) (*PipelineError, bool) {
	var perr *PipelineError
	if errors.As(err, &perr) {
		return perr, true
	}
	return nil, false
}
