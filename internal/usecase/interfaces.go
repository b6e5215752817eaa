package usecase

import (
	"context"
	"time"

	"medsupply/internal/domain"
)

// Clock abstracts time for deterministic tests.
type Clock func() time.Time

// TokenRepository owns DrugToken records. NextTokenID is a read-only
// prediction of the id the next Create will assign; concurrent mints
// can invalidate it, which is why the mint pipeline reconciles after
// the fact.
type TokenRepository interface {
	NextTokenID(ctx context.Context) (int64, error)
	Create(ctx context.Context, token domain.DrugToken) (int64, error)
	Get(ctx context.Context, tokenID int64) (*domain.DrugToken, error)
	ListHeld(ctx context.Context, holder string, status domain.TokenStatus) ([]domain.DrugToken, error)
	UpdateCustody(ctx context.Context, tokenID int64, from, to domain.TokenStatus, holder string) error
	// DispenseWithPrescription marks the token Dispensed and the
	// prescription consumed in one transaction: either both happen
	// or neither does.
	DispenseWithPrescription(ctx context.Context, tokenID, prescriptionID int64, at time.Time) error
}

// PrescriptionRepository owns Prescription records.
type PrescriptionRepository interface {
	Create(ctx context.Context, p domain.Prescription) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Prescription, error)
	ListByPatient(ctx context.Context, patient string) ([]domain.Prescription, error)
	// ListOpenByPatient returns unconsumed, unexpired prescriptions
	// for the patient, most recently issued first.
	ListOpenByPatient(ctx context.Context, patient string, now time.Time) ([]domain.Prescription, error)
}

// ClaimRepository owns InsuranceClaim records.
type ClaimRepository interface {
	Create(ctx context.Context, claim domain.InsuranceClaim) (int64, error)
	Get(ctx context.Context, claimID int64) (*domain.InsuranceClaim, error)
	GetByPrescription(ctx context.Context, prescriptionID int64) (*domain.InsuranceClaim, error)
	ListPending(ctx context.Context) ([]domain.InsuranceClaim, error)
	// MarkProcessed records the terminal outcome. It fails with
	// domain.ErrAlreadyProcessed if the claim was already processed,
	// without touching the first outcome.
	MarkProcessed(ctx context.Context, claimID int64, approved bool, by string, at time.Time) error
}

// RoleRepository owns role membership. Grant is idempotent.
type RoleRepository interface {
	Grant(ctx context.Context, grant domain.RoleGrant) error
	Has(ctx context.Context, identity string, role domain.Role) (bool, error)
	List(ctx context.Context, identity string) ([]domain.Role, error)
}

// AuditEventRepository appends audit records.
type AuditEventRepository interface {
	Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error)
}

// Authorizer decides whether caller may invoke operation. It must
// look role membership up fresh on every call; cached role sets are
// how time-of-check/time-of-use gaps creep in.
type Authorizer interface {
	Require(ctx context.Context, caller string, operation string) error
}

// Operation identifiers evaluated by the Authorizer.
const (
	OpRoleGrant        = "role:grant"
	OpTokenMint        = "token:mint"
	OpTokenDispense    = "token:dispense"
	OpPrescriptionNew  = "prescription:create"
	OpClaimCreate      = "claim:create"
	OpClaimListPending = "claim:list_pending"
	OpClaimProcess     = "claim:process"
)

// ArtifactStore is the content-addressed store collaborator.
type ArtifactStore interface {
	PutFile(ctx context.Context, name string, data []byte, contentType string) (domain.Artifact, error)
	PutJSON(ctx context.Context, name string, payload any) (domain.Artifact, error)
	Resolve(cid string) string
	TestConnectivity(ctx context.Context) error
}

// CodeEncoder serializes a verification payload deterministically and
// rasterizes it into a scannable image.
type CodeEncoder interface {
	Encode(payload domain.VerificationPayload) (serialized []byte, image []byte, err error)
}
