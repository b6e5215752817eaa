package domain

import (
	"testing"
	"time"
)

func TestTokenStatusTransitions(t *testing.T) {
	cases := []struct {
		from TokenStatus
		to   TokenStatus
		want bool
	}{
		{StatusMinted, StatusWithIntermediary, true},
		{StatusWithIntermediary, StatusWithPharmacy, true},
		{StatusWithPharmacy, StatusDispensed, true},
		{StatusMinted, StatusWithPharmacy, false},
		{StatusMinted, StatusDispensed, false},
		{StatusWithIntermediary, StatusMinted, false},
		{StatusWithPharmacy, StatusWithIntermediary, false},
		{StatusDispensed, StatusMinted, false},
		{StatusDispensed, StatusWithIntermediary, false},
		{StatusMinted, StatusMinted, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanAdvanceTo(tc.to); got != tc.want {
			t.Errorf("CanAdvanceTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestTokenStatusTerminal(t *testing.T) {
	for _, status := range []TokenStatus{StatusMinted, StatusWithIntermediary, StatusWithPharmacy} {
		if status.Terminal() {
			t.Errorf("%s should not be terminal", status)
		}
	}
	if !StatusDispensed.Terminal() {
		t.Error("dispensed should be terminal")
	}
}

func TestTokenStatusValid(t *testing.T) {
	if !StatusMinted.Valid() {
		t.Error("minted should be valid")
	}
	if TokenStatus("melted").Valid() {
		t.Error("unknown status should be invalid")
	}
}

func TestDrugTokenExpiredAt(t *testing.T) {
	expiry := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	token := DrugToken{ExpiryTimestamp: expiry}

	if token.ExpiredAt(expiry.Add(-time.Second)) {
		t.Error("token should not be expired before its expiry")
	}
	if token.ExpiredAt(expiry) {
		t.Error("token should not be expired exactly at its expiry")
	}
	if !token.ExpiredAt(expiry.Add(time.Second)) {
		t.Error("token should be expired after its expiry")
	}
}

func TestPrescriptionOpenAt(t *testing.T) {
	until := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	p := Prescription{ValidUntil: until}

	if !p.OpenAt(until) {
		t.Error("prescription should be open at the validity boundary")
	}
	if p.OpenAt(until.Add(time.Second)) {
		t.Error("prescription should be closed past validity")
	}
	p.Consumed = true
	if p.OpenAt(until.Add(-time.Hour)) {
		t.Error("consumed prescription should never be open")
	}
}

func TestParseRole(t *testing.T) {
	if role, ok := ParseRole(" Pharmacist "); !ok || role != RolePharmacist {
		t.Fatalf("ParseRole = %q, %v", role, ok)
	}
	if _, ok := ParseRole("warehouse"); ok {
		t.Fatal("unknown role should not parse")
	}
}
