package db

import "time"

type RoleGrantModel struct {
	ID        int64     `gorm:"primaryKey"`
	Identity  string    `gorm:"index:idx_role_grants_identity_role,unique;not null"`
	Role      string    `gorm:"index:idx_role_grants_identity_role,unique;not null"`
	GrantedBy string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

func (RoleGrantModel) TableName() string {
	return "role_grants"
}

type DrugTokenModel struct {
	TokenID         int64     `gorm:"primaryKey;autoIncrement"`
	MedicineID      string    `gorm:"index;not null"`
	Name            string    `gorm:"not null"`
	ExpiryTimestamp time.Time `gorm:"not null"`
	Status          string    `gorm:"index;not null"`
	CurrentHolder   string    `gorm:"index;not null"`
	MetadataURI     string    `gorm:"not null"`
	MintedBy        string    `gorm:"not null"`
	CreatedAt       time.Time `gorm:"not null"`
}

func (DrugTokenModel) TableName() string {
	return "drug_tokens"
}

type PrescriptionModel struct {
	ID             int64     `gorm:"primaryKey;autoIncrement"`
	PatientAddress string    `gorm:"index;not null"`
	MedicineID     string    `gorm:"index;not null"`
	ValidUntil     time.Time `gorm:"not null"`
	Consumed       bool      `gorm:"not null"`
	IssuedBy       string    `gorm:"not null"`
	CreatedAt      time.Time `gorm:"not null"`
	ConsumedAt     *time.Time
}

func (PrescriptionModel) TableName() string {
	return "prescriptions"
}

type ClaimModel struct {
	ClaimID        int64  `gorm:"primaryKey;autoIncrement"`
	PrescriptionID int64  `gorm:"uniqueIndex;not null"`
	IsApproved     bool   `gorm:"not null"`
	Processed      bool   `gorm:"index;not null"`
	ClaimedBy      string `gorm:"index;not null"`
	ProcessedBy    string
	CreatedAt      time.Time `gorm:"not null"`
	ProcessedAt    *time.Time
}

func (ClaimModel) TableName() string {
	return "insurance_claims"
}

type AuditEventModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	EventType   string `gorm:"column:event_type;index;not null"`
	Actor       string `gorm:"index;not null"`
	TargetID    *string
	Result      string `gorm:"not null"`
	ErrorCode   *string
	PayloadJSON []byte    `gorm:"type:jsonb;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;not null"`
}

func (AuditEventModel) TableName() string {
	return "audit_events"
}
