package usecase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"medsupply/internal/domain"
)

// AuditEmitter appends operation records to the audit trail. A nil
// repository makes every emit a no-op error; callers treat audit
// failures as non-fatal.
type AuditEmitter struct {
	Repo  AuditEventRepository
	Clock Clock
}

func NewAuditEmitter(repo AuditEventRepository, clock Clock) *AuditEmitter {
	return &AuditEmitter{Repo: repo, Clock: clock}
}

func (e *AuditEmitter) Emit(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if e == nil || e.Repo == nil {
		return domain.AuditEvent{}, errors.New("audit repository required")
	}
	if event.EventType == "" || event.Result == "" {
		return domain.AuditEvent{}, errors.New("audit event missing required fields")
	}
	if event.Payload == nil {
		event.Payload = map[string]any{}
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now().UTC()
	} else {
		event.CreatedAt = event.CreatedAt.UTC()
	}
	return e.Repo.Append(ctx, event)
}

func (e *AuditEmitter) EmitRoleGranted(ctx context.Context, granter, grantee string, role domain.Role) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventRoleGranted,
		Actor:     granter,
		TargetID:  grantee,
		Result:    domain.AuditResultSuccess,
		Payload:   map[string]any{"role": string(role)},
	})
	return err
}

func (e *AuditEmitter) EmitTokenMinted(ctx context.Context, actor string, tokenID int64, medicineID string) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventTokenMinted,
		Actor:     actor,
		TargetID:  strconv.FormatInt(tokenID, 10),
		Result:    domain.AuditResultSuccess,
		Payload:   map[string]any{"medicine_id": medicineID},
	})
	return err
}

func (e *AuditEmitter) EmitTokenTransferred(ctx context.Context, actor string, tokenID int64, to string, status domain.TokenStatus) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventTokenTransferred,
		Actor:     actor,
		TargetID:  strconv.FormatInt(tokenID, 10),
		Result:    domain.AuditResultSuccess,
		Payload:   map[string]any{"to": to, "status": string(status)},
	})
	return err
}

func (e *AuditEmitter) EmitTokenDispensed(ctx context.Context, actor string, tokenID, prescriptionID int64, patient string) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventTokenDispensed,
		Actor:     actor,
		TargetID:  strconv.FormatInt(tokenID, 10),
		Result:    domain.AuditResultSuccess,
		Payload: map[string]any{
			"prescription_id": prescriptionID,
			"patient":         patient,
		},
	})
	return err
}

// EmitTokenVerified records a verification. Verify mutates nothing;
// the audit row is the only trace it leaves.
func (e *AuditEmitter) EmitTokenVerified(ctx context.Context, actor string, tokenID int64, expired bool) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventTokenVerified,
		Actor:     actor,
		TargetID:  strconv.FormatInt(tokenID, 10),
		Result:    domain.AuditResultSuccess,
		Payload:   map[string]any{"expired": expired},
	})
	return err
}

func (e *AuditEmitter) EmitPrescriptionCreated(ctx context.Context, actor string, prescriptionID int64, patient, medicineID string) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventPrescriptionNew,
		Actor:     actor,
		TargetID:  strconv.FormatInt(prescriptionID, 10),
		Result:    domain.AuditResultSuccess,
		Payload: map[string]any{
			"patient":     patient,
			"medicine_id": medicineID,
		},
	})
	return err
}

func (e *AuditEmitter) EmitClaimCreated(ctx context.Context, actor string, claimID, prescriptionID int64) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventClaimCreated,
		Actor:     actor,
		TargetID:  strconv.FormatInt(claimID, 10),
		Result:    domain.AuditResultSuccess,
		Payload:   map[string]any{"prescription_id": prescriptionID},
	})
	return err
}

func (e *AuditEmitter) EmitClaimProcessed(ctx context.Context, actor string, claimID int64, approved bool) error {
	_, err := e.Emit(ctx, domain.AuditEvent{
		EventType: domain.AuditEventClaimProcessed,
		Actor:     actor,
		TargetID:  strconv.FormatInt(claimID, 10),
		Result:    domain.AuditResultSuccess,
		Payload:   map[string]any{"approved": approved},
	})
	return err
}

func (e *AuditEmitter) now() time.Time {
	if e != nil && e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}
