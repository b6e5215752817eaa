package domain

// Artifact is a content-addressed object in the off-chain store. CID
// is the content identifier; URI is a resolvable locator for it.
type Artifact struct {
	CID    string
	URI    string
	Digest string
}

// VerificationPayload is the wire contract embedded in the scannable
// code. Field names and order are fixed: any consumer reconstructs
// this exact JSON object to cross-check against a live verify call.
type VerificationPayload struct {
	TokenID         string `json:"tokenId"`
	DrugName        string `json:"drugName"`
	MedicineID      string `json:"medicineId"`
	ExpiryDate      string `json:"expiryDate"`
	ContractAddress string `json:"contractAddress"`
	Network         string `json:"network"`
}

// TokenMetadata is the descriptive document uploaded alongside the
// code image. Image and QRCode hold resolvable locators.
type TokenMetadata struct {
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Image       string              `json:"image"`
	Attributes  []MetadataAttribute `json:"attributes"`
	ExternalURL string              `json:"external_url"`
	QRCode      string              `json:"qr_code"`
}

type MetadataAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}
