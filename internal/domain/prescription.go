package domain

import "time"

// Prescription is issued by a doctor for a specific patient and
// medicine. It is consumed exactly once, as a side effect of a
// successful dispense, and is unusable past ValidUntil even if
// unconsumed.
type Prescription struct {
	ID             int64
	PatientAddress string
	MedicineID     string
	ValidUntil     time.Time
	Consumed       bool
	IssuedBy       string
	CreatedAt      time.Time
	ConsumedAt     *time.Time
}

// OpenAt reports whether the prescription can still back a dispense
// at now.
func (p Prescription) OpenAt(now time.Time) bool {
	return !p.Consumed && !now.After(p.ValidUntil)
}
