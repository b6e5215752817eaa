package usecase

import (
	"context"
	"time"

	"medsupply/internal/domain"
)

// MatchPolicy picks one token out of the pharmacist's candidates for
// a prescription. Candidates are all unexpired. The exact tie-break
// is configuration, not load-bearing logic.
type MatchPolicy func(candidates []domain.DrugToken) domain.DrugToken

// EarliestExpiryFirst dispenses the soonest-expiring token to
// minimize wastage.
func EarliestExpiryFirst(candidates []domain.DrugToken) domain.DrugToken {
	best := candidates[0]
	for _, token := range candidates[1:] {
		if token.ExpiryTimestamp.Before(best.ExpiryTimestamp) {
			best = token
		}
	}
	return best
}

// Dispenser matches a pharmacist's inventory against a patient's most
// recent open prescription and retires both sides atomically.
type Dispenser struct {
	Tokens        TokenRepository
	Prescriptions PrescriptionRepository
	Authz         Authorizer
	Audit         *AuditEmitter
	Clock         Clock
	Match         MatchPolicy
}

type DispenseReceipt struct {
	TokenID        int64
	PrescriptionID int64
	MedicineID     string
	Patient        string
}

// Dispense selects, among WithPharmacy tokens held by the caller, the
// one matching the patient's most recent unconsumed, unexpired
// prescription, and marks token and prescription consumed in one
// transaction.
func (d *Dispenser) Dispense(ctx context.Context, caller, patientAddress string) (*DispenseReceipt, error) {
	if err := d.Authz.Require(ctx, caller, OpTokenDispense); err != nil {
		return nil, err
	}
	if patientAddress == "" {
		return nil, domain.ErrInvalidInput
	}
	now := d.now()

	open, err := d.Prescriptions.ListOpenByPatient(ctx, patientAddress, now)
	if err != nil {
		return nil, err
	}
	if len(open) == 0 {
		return nil, domain.ErrNoMatchingPrescription
	}
	prescription := open[0]

	held, err := d.Tokens.ListHeld(ctx, caller, domain.StatusWithPharmacy)
	if err != nil {
		return nil, err
	}
	var candidates []domain.DrugToken
	sawExpired := false
	for _, token := range held {
		if token.MedicineID != prescription.MedicineID {
			continue
		}
		if token.ExpiredAt(now) {
			sawExpired = true
			continue
		}
		candidates = append(candidates, token)
	}
	if len(candidates) == 0 {
		if sawExpired {
			return nil, domain.ErrExpired
		}
		return nil, domain.ErrNoInventory
	}

	match := d.Match
	if match == nil {
		match = EarliestExpiryFirst
	}
	token := match(candidates)

	if err := d.Tokens.DispenseWithPrescription(ctx, token.TokenID, prescription.ID, now); err != nil {
		return nil, err
	}
	if d.Audit != nil {
		_ = d.Audit.EmitTokenDispensed(ctx, caller, token.TokenID, prescription.ID, patientAddress)
	}
	return &DispenseReceipt{
		TokenID:        token.TokenID,
		PrescriptionID: prescription.ID,
		MedicineID:     token.MedicineID,
		Patient:        patientAddress,
	}, nil
}

func (d *Dispenser) now() time.Time {
	if d.Clock != nil {
		return d.Clock()
	}
	return time.Now().UTC()
}
