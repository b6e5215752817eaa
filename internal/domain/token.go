package domain

import "time"

// TokenStatus is the custody stage of a drug token. Tokens only move
// forward through the chain; Dispensed is terminal.
type TokenStatus string

const (
	StatusMinted           TokenStatus = "minted"
	StatusWithIntermediary TokenStatus = "with_intermediary"
	StatusWithPharmacy     TokenStatus = "with_pharmacy"
	StatusDispensed        TokenStatus = "dispensed"
)

// transitions is the exhaustive forward-transition table. Anything
// absent here is an illegal transition.
var transitions = map[TokenStatus]TokenStatus{
	StatusMinted:           StatusWithIntermediary,
	StatusWithIntermediary: StatusWithPharmacy,
	StatusWithPharmacy:     StatusDispensed,
}

// CanAdvanceTo reports whether next is the immediate successor of s.
func (s TokenStatus) CanAdvanceTo(next TokenStatus) bool {
	successor, ok := transitions[s]
	return ok && successor == next
}

// Terminal reports whether no further transition exists from s.
func (s TokenStatus) Terminal() bool {
	_, ok := transitions[s]
	return !ok
}

func (s TokenStatus) Valid() bool {
	switch s {
	case StatusMinted, StatusWithIntermediary, StatusWithPharmacy, StatusDispensed:
		return true
	}
	return false
}

// DrugToken is the unit-of-custody record for one physical drug item.
// TokenID is ledger-assigned at mint and never reused. MetadataURI
// points at the provenance metadata document; it is set once at mint.
type DrugToken struct {
	TokenID         int64
	MedicineID      string
	Name            string
	ExpiryTimestamp time.Time
	Status          TokenStatus
	CurrentHolder   string
	MetadataURI     string
	MintedBy        string
	CreatedAt       time.Time
}

// ExpiredAt reports whether the token is past expiry at now.
func (t DrugToken) ExpiredAt(now time.Time) bool {
	return now.After(t.ExpiryTimestamp)
}

// VerificationResult is the read-only snapshot returned by verify.
type VerificationResult struct {
	Token      DrugToken
	IsExpired  bool
	VerifiedAt time.Time
}
