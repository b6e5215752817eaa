package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"medsupply/internal/domain"
)

// seedChain grants the standard cast used by the dispense tests.
func seedChain(t *testing.T, e *env) {
	t.Helper()
	e.grant(t, "0xmanu", domain.RoleManufacturer)
	e.grant(t, "0xmid", domain.RoleIntermediary)
	e.grant(t, "0xpharm", domain.RolePharmacist)
	e.grant(t, "0xdoc", domain.RoleDoctor)
	e.grant(t, "0xpat", domain.RolePatient)
}

func (e *env) prescribe(t *testing.T, patient, medicineID string, days int) int64 {
	t.Helper()
	id, err := e.prescriptions().Create(context.Background(), CreatePrescriptionRequest{
		Caller:         "0xdoc",
		PatientAddress: patient,
		MedicineID:     medicineID,
		ValidityDays:   days,
	})
	if err != nil {
		t.Fatalf("create prescription: %v", err)
	}
	return id
}

func TestDispenseHappyPath(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	tokenID := e.mintToken(t, "0xmanu", "MED-001", 72*time.Hour)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", tokenID)
	rxID := e.prescribe(t, "0xpat", "MED-001", 30)

	receipt, err := e.dispenser().Dispense(context.Background(), "0xpharm", "0xpat")
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if receipt.TokenID != tokenID || receipt.PrescriptionID != rxID {
		t.Errorf("receipt = %+v, want token %d rx %d", receipt, tokenID, rxID)
	}

	token, err := e.store.Tokens().Get(context.Background(), tokenID)
	if err != nil {
		t.Fatalf("get token: %v", err)
	}
	if token.Status != domain.StatusDispensed {
		t.Errorf("token status = %s, want dispensed", token.Status)
	}
	rx, err := e.store.Prescriptions().Get(context.Background(), rxID)
	if err != nil {
		t.Fatalf("get prescription: %v", err)
	}
	if !rx.Consumed || rx.ConsumedAt == nil {
		t.Error("prescription not marked consumed")
	}
	if e.lastEventType(t) != domain.AuditEventTokenDispensed {
		t.Errorf("last event = %s, want token.dispensed", e.lastEventType(t))
	}
}

func TestDispenseRequiresPharmacistRole(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	_, err := e.dispenser().Dispense(context.Background(), "0xdoc", "0xpat")
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestDispenseWithoutPrescription(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	tokenID := e.mintToken(t, "0xmanu", "MED-001", 72*time.Hour)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", tokenID)

	_, err := e.dispenser().Dispense(context.Background(), "0xpharm", "0xpat")
	if !errors.Is(err, domain.ErrNoMatchingPrescription) {
		t.Fatalf("err = %v, want ErrNoMatchingPrescription", err)
	}
}

func TestDispenseNoMatchingInventory(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	tokenID := e.mintToken(t, "0xmanu", "MED-001", 72*time.Hour)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", tokenID)
	e.prescribe(t, "0xpat", "MED-OTHER", 30)

	_, err := e.dispenser().Dispense(context.Background(), "0xpharm", "0xpat")
	if !errors.Is(err, domain.ErrNoInventory) {
		t.Fatalf("err = %v, want ErrNoInventory", err)
	}
}

func TestDispenseOnlyExpiredInventory(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	tokenID := e.mintToken(t, "0xmanu", "MED-001", time.Second)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", tokenID)
	e.prescribe(t, "0xpat", "MED-001", 30)

	later := e.dispenser()
	later.Clock = func() time.Time { return testNow.Add(time.Hour) }
	_, err := later.Dispense(context.Background(), "0xpharm", "0xpat")
	if !errors.Is(err, domain.ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestDispensePicksEarliestExpiry(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	late := e.mintToken(t, "0xmanu", "MED-001", 96*time.Hour)
	early := e.mintToken(t, "0xmanu", "MED-001", 24*time.Hour)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", late)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", early)
	e.prescribe(t, "0xpat", "MED-001", 30)

	receipt, err := e.dispenser().Dispense(context.Background(), "0xpharm", "0xpat")
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if receipt.TokenID != early {
		t.Errorf("dispensed token %d, want earliest-expiry token %d", receipt.TokenID, early)
	}
}

func TestDispenseUsesMostRecentOpenPrescription(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	first := e.mintToken(t, "0xmanu", "MED-001", 72*time.Hour)
	second := e.mintToken(t, "0xmanu", "MED-002", 72*time.Hour)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", first)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", second)

	e.prescribe(t, "0xpat", "MED-001", 30)
	newest := e.prescribe(t, "0xpat", "MED-002", 30)

	receipt, err := e.dispenser().Dispense(context.Background(), "0xpharm", "0xpat")
	if err != nil {
		t.Fatalf("dispense: %v", err)
	}
	if receipt.PrescriptionID != newest {
		t.Errorf("used prescription %d, want most recent %d", receipt.PrescriptionID, newest)
	}
	if receipt.TokenID != second {
		t.Errorf("dispensed token %d, want %d", receipt.TokenID, second)
	}
}

func TestDispenseTwiceConsumesOnlyOnce(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	tokenID := e.mintToken(t, "0xmanu", "MED-001", 72*time.Hour)
	e.moveToPharmacy(t, "0xmanu", "0xmid", "0xpharm", tokenID)
	e.prescribe(t, "0xpat", "MED-001", 30)

	if _, err := e.dispenser().Dispense(context.Background(), "0xpharm", "0xpat"); err != nil {
		t.Fatalf("first dispense: %v", err)
	}
	_, err := e.dispenser().Dispense(context.Background(), "0xpharm", "0xpat")
	if !errors.Is(err, domain.ErrNoMatchingPrescription) {
		t.Fatalf("second dispense err = %v, want ErrNoMatchingPrescription", err)
	}
}

func TestPrescriptionCreateRequiresDoctor(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	_, err := e.prescriptions().Create(context.Background(), CreatePrescriptionRequest{
		Caller:         "0xpat",
		PatientAddress: "0xpat",
		MedicineID:     "MED-001",
		ValidityDays:   30,
	})
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestPrescriptionValidityWindow(t *testing.T) {
	e := newEnv()
	seedChain(t, e)

	rxID := e.prescribe(t, "0xpat", "MED-001", 7)
	rx, err := e.store.Prescriptions().Get(context.Background(), rxID)
	if err != nil {
		t.Fatalf("get prescription: %v", err)
	}
	want := testNow.Add(7 * 24 * time.Hour)
	if !rx.ValidUntil.Equal(want) {
		t.Errorf("valid until = %v, want %v", rx.ValidUntil, want)
	}
}

func TestEarliestExpiryFirst(t *testing.T) {
	a := domain.DrugToken{TokenID: 1, ExpiryTimestamp: testNow.Add(48 * time.Hour)}
	b := domain.DrugToken{TokenID: 2, ExpiryTimestamp: testNow.Add(12 * time.Hour)}
	c := domain.DrugToken{TokenID: 3, ExpiryTimestamp: testNow.Add(24 * time.Hour)}

	got := EarliestExpiryFirst([]domain.DrugToken{a, b, c})
	if got.TokenID != 2 {
		t.Errorf("picked token %d, want 2", got.TokenID)
	}
}
