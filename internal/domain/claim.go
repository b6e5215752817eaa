package domain

import "time"

// InsuranceClaim is raised by a patient against one of their consumed
// prescriptions. At most one claim exists per prescription. Once
// Processed is true the outcome is immutable.
type InsuranceClaim struct {
	ClaimID        int64
	PrescriptionID int64
	IsApproved     bool
	Processed      bool
	ClaimedBy      string
	CreatedAt      time.Time
	ProcessedAt    *time.Time
	ProcessedBy    string
}
