package usecase

import (
	"context"
	"testing"
	"time"

	"medsupply/internal/domain"
	"medsupply/internal/infra/authz"
	"medsupply/internal/infra/memstore"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// env wires the usecases against the in-memory store with a fixed
// clock and the static authorizer.
type env struct {
	store *memstore.Store
	audit *AuditEmitter
	authz Authorizer
	clock Clock
}

func newEnv() *env {
	store := memstore.New()
	clock := func() time.Time { return testNow }
	return &env{
		store: store,
		audit: NewAuditEmitter(store.Audit(), clock),
		authz: authz.NewStatic(store.Roles()),
		clock: clock,
	}
}

func (e *env) grant(t *testing.T, identity string, role domain.Role) {
	t.Helper()
	err := e.store.Roles().Grant(context.Background(), domain.RoleGrant{
		Identity:  identity,
		Role:      role,
		GrantedBy: "root",
	})
	if err != nil {
		t.Fatalf("grant %s to %s: %v", role, identity, err)
	}
}

func (e *env) registry() *RoleRegistry {
	return &RoleRegistry{Roles: e.store.Roles(), Audit: e.audit}
}

func (e *env) ledger() *TokenLedger {
	return &TokenLedger{
		Tokens: e.store.Tokens(),
		Roles:  e.store.Roles(),
		Authz:  e.authz,
		Audit:  e.audit,
		Clock:  e.clock,
	}
}

func (e *env) dispenser() *Dispenser {
	return &Dispenser{
		Tokens:        e.store.Tokens(),
		Prescriptions: e.store.Prescriptions(),
		Authz:         e.authz,
		Audit:         e.audit,
		Clock:         e.clock,
	}
}

func (e *env) prescriptions() *PrescriptionLedger {
	return &PrescriptionLedger{
		Prescriptions: e.store.Prescriptions(),
		Authz:         e.authz,
		Audit:         e.audit,
		Clock:         e.clock,
	}
}

func (e *env) claims() *ClaimLedger {
	return &ClaimLedger{
		Claims:        e.store.Claims(),
		Prescriptions: e.store.Prescriptions(),
		Authz:         e.authz,
		Audit:         e.audit,
		Clock:         e.clock,
	}
}

func (e *env) mintToken(t *testing.T, caller, medicineID string, expiry time.Duration) int64 {
	t.Helper()
	tokenID, err := e.ledger().Mint(context.Background(), MintRequest{
		Caller:        caller,
		MedicineID:    medicineID,
		Name:          "Amoxicillin 500mg",
		ExpirySeconds: int64(expiry / time.Second),
		MetadataURI:   "https://gateway.example/ipfs/QmMeta",
	})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return tokenID
}

// moveToPharmacy walks a fresh token through the full custody chain.
func (e *env) moveToPharmacy(t *testing.T, manufacturer, intermediary, pharmacist string, tokenID int64) {
	t.Helper()
	ctx := context.Background()
	if err := e.ledger().TransferToIntermediary(ctx, manufacturer, tokenID, intermediary); err != nil {
		t.Fatalf("transfer to intermediary: %v", err)
	}
	if err := e.ledger().TransferToPharmacy(ctx, intermediary, tokenID, pharmacist); err != nil {
		t.Fatalf("transfer to pharmacy: %v", err)
	}
}

func (e *env) lastEventType(t *testing.T) string {
	t.Helper()
	events := e.store.Events()
	if len(events) == 0 {
		t.Fatal("no audit events recorded")
	}
	return events[len(events)-1].EventType
}
