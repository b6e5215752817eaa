package usecase

import (
	"context"
	"time"

	"medsupply/internal/domain"
)

// PrescriptionLedger owns prescription issuance. Consumption happens
// only through the Dispenser.
type PrescriptionLedger struct {
	Prescriptions PrescriptionRepository
	Authz         Authorizer
	Audit         *AuditEmitter
	Clock         Clock
}

type CreatePrescriptionRequest struct {
	Caller         string
	PatientAddress string
	MedicineID     string
	ValidityDays   int
}

// Create issues a prescription for the patient. Prescriptions may be
// created for any identity; the patient address is not validated
// against the registry.
func (p *PrescriptionLedger) Create(ctx context.Context, req CreatePrescriptionRequest) (int64, error) {
	if err := p.Authz.Require(ctx, req.Caller, OpPrescriptionNew); err != nil {
		return 0, err
	}
	if req.PatientAddress == "" || req.MedicineID == "" || req.ValidityDays <= 0 {
		return 0, domain.ErrInvalidInput
	}
	now := p.now()
	prescription := domain.Prescription{
		PatientAddress: req.PatientAddress,
		MedicineID:     req.MedicineID,
		ValidUntil:     now.Add(time.Duration(req.ValidityDays) * 24 * time.Hour),
		IssuedBy:       req.Caller,
		CreatedAt:      now,
	}
	id, err := p.Prescriptions.Create(ctx, prescription)
	if err != nil {
		return 0, err
	}
	if p.Audit != nil {
		_ = p.Audit.EmitPrescriptionCreated(ctx, req.Caller, id, req.PatientAddress, req.MedicineID)
	}
	return id, nil
}

// Mine returns the caller's prescriptions, most recently issued
// first.
func (p *PrescriptionLedger) Mine(ctx context.Context, caller string) ([]domain.Prescription, error) {
	if caller == "" {
		return nil, domain.ErrInvalidInput
	}
	return p.Prescriptions.ListByPatient(ctx, caller)
}

func (p *PrescriptionLedger) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now().UTC()
}
