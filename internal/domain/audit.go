package domain

import "time"

type AuditResult string

const (
	AuditResultSuccess AuditResult = "success"
	AuditResultFailure AuditResult = "failure"
)

const (
	AuditEventRoleGranted      = "role.granted"
	AuditEventTokenMinted      = "token.minted"
	AuditEventTokenTransferred = "token.transferred"
	AuditEventTokenDispensed   = "token.dispensed"
	AuditEventTokenVerified    = "token.verified"
	AuditEventPrescriptionNew  = "prescription.created"
	AuditEventClaimCreated     = "claim.created"
	AuditEventClaimProcessed   = "claim.processed"
)

// AuditEvent is an append-only record of a ledger operation. Verify
// emits one too: a verification is a logged read, not a state change.
type AuditEvent struct {
	ID        int64
	EventType string
	Actor     string
	TargetID  string
	Result    AuditResult
	ErrorCode string
	Payload   map[string]any
	CreatedAt time.Time
}
