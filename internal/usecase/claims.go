package usecase

import (
	"context"
	"errors"
	"time"

	"medsupply/internal/domain"
)

// ClaimLedger owns insurance claims. A claim references a consumed
// prescription by id only; at most one claim exists per prescription
// and a processed claim is immutable.
type ClaimLedger struct {
	Claims        ClaimRepository
	Prescriptions PrescriptionRepository
	Authz         Authorizer
	Audit         *AuditEmitter
	Clock         Clock
}

// Create raises a claim for one of the caller's consumed
// prescriptions.
func (c *ClaimLedger) Create(ctx context.Context, caller string, prescriptionID int64) (int64, error) {
	if err := c.Authz.Require(ctx, caller, OpClaimCreate); err != nil {
		return 0, err
	}
	prescription, err := c.Prescriptions.Get(ctx, prescriptionID)
	if err != nil {
		return 0, err
	}
	if prescription.PatientAddress != caller || !prescription.Consumed {
		return 0, domain.ErrNotEligible
	}
	existing, err := c.Claims.GetByPrescription(ctx, prescriptionID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return 0, err
	}
	if existing != nil {
		return 0, domain.ErrNotEligible
	}
	claimID, err := c.Claims.Create(ctx, domain.InsuranceClaim{
		PrescriptionID: prescriptionID,
		ClaimedBy:      caller,
		CreatedAt:      c.now(),
	})
	if err != nil {
		return 0, err
	}
	if c.Audit != nil {
		_ = c.Audit.EmitClaimCreated(ctx, caller, claimID, prescriptionID)
	}
	return claimID, nil
}

// ListPending returns unprocessed claims. Insurer only.
func (c *ClaimLedger) ListPending(ctx context.Context, caller string) ([]domain.InsuranceClaim, error) {
	if err := c.Authz.Require(ctx, caller, OpClaimListPending); err != nil {
		return nil, err
	}
	return c.Claims.ListPending(ctx)
}

// Process records the terminal approve/reject outcome. Processing an
// already-processed claim fails and never overwrites the first
// outcome.
func (c *ClaimLedger) Process(ctx context.Context, caller string, claimID int64, approve bool) error {
	if err := c.Authz.Require(ctx, caller, OpClaimProcess); err != nil {
		return err
	}
	claim, err := c.Claims.Get(ctx, claimID)
	if err != nil {
		return err
	}
	if claim.Processed {
		return domain.ErrAlreadyProcessed
	}
	if err := c.Claims.MarkProcessed(ctx, claimID, approve, caller, c.now()); err != nil {
		return err
	}
	if c.Audit != nil {
		_ = c.Audit.EmitClaimProcessed(ctx, caller, claimID, approve)
	}
	return nil
}

func (c *ClaimLedger) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
