package usecase

import (
	"context"
	"time"

	"medsupply/internal/domain"
)

// TokenLedger owns drug-token records and enforces the custody state
// machine. Every mutating operation re-checks authorization at
// execution time.
type TokenLedger struct {
	Tokens TokenRepository
	Roles  RoleRepository
	Authz  Authorizer
	Audit  *AuditEmitter
	Clock  Clock
}

type MintRequest struct {
	Caller        string
	MedicineID    string
	Name          string
	ExpirySeconds int64
	MetadataURI   string
}

// Mint creates a new token held by the caller. The provenance
// artifact must already exist: an empty MetadataURI is rejected
// because the locator is embedded immutably in the ledger record.
func (l *TokenLedger) Mint(ctx context.Context, req MintRequest) (int64, error) {
	if err := l.Authz.Require(ctx, req.Caller, OpTokenMint); err != nil {
		return 0, err
	}
	if req.ExpirySeconds <= 0 {
		return 0, domain.ErrInvalidInput
	}
	if req.MedicineID == "" || req.Name == "" || req.MetadataURI == "" {
		return 0, domain.ErrInvalidInput
	}
	now := l.now()
	token := domain.DrugToken{
		MedicineID:      req.MedicineID,
		Name:            req.Name,
		ExpiryTimestamp: now.Add(time.Duration(req.ExpirySeconds) * time.Second),
		Status:          domain.StatusMinted,
		CurrentHolder:   req.Caller,
		MetadataURI:     req.MetadataURI,
		MintedBy:        req.Caller,
		CreatedAt:       now,
	}
	tokenID, err := l.Tokens.Create(ctx, token)
	if err != nil {
		return 0, err
	}
	if l.Audit != nil {
		_ = l.Audit.EmitTokenMinted(ctx, req.Caller, tokenID, req.MedicineID)
	}
	return tokenID, nil
}

// TransferToIntermediary moves a Minted token to an identity holding
// the Intermediary role.
func (l *TokenLedger) TransferToIntermediary(ctx context.Context, caller string, tokenID int64, to string) error {
	return l.transfer(ctx, caller, tokenID, to, domain.StatusMinted, domain.StatusWithIntermediary, domain.RoleIntermediary)
}

// TransferToPharmacy moves a WithIntermediary token to an identity
// holding the Pharmacist role.
func (l *TokenLedger) TransferToPharmacy(ctx context.Context, caller string, tokenID int64, to string) error {
	return l.transfer(ctx, caller, tokenID, to, domain.StatusWithIntermediary, domain.StatusWithPharmacy, domain.RolePharmacist)
}

func (l *TokenLedger) transfer(ctx context.Context, caller string, tokenID int64, to string, from, next domain.TokenStatus, targetRole domain.Role) error {
	if caller == "" || to == "" {
		return domain.ErrInvalidInput
	}
	token, err := l.Tokens.Get(ctx, tokenID)
	if err != nil {
		return err
	}
	if token.CurrentHolder != caller {
		return domain.ErrNotOwner
	}
	if token.Status != from || !token.Status.CanAdvanceTo(next) {
		return domain.ErrWrongState
	}
	hasRole, err := l.Roles.Has(ctx, to, targetRole)
	if err != nil {
		return err
	}
	if !hasRole {
		return domain.ErrRoleMismatch
	}
	if err := l.Tokens.UpdateCustody(ctx, tokenID, from, next, to); err != nil {
		return err
	}
	if l.Audit != nil {
		_ = l.Audit.EmitTokenTransferred(ctx, caller, tokenID, to, next)
	}
	return nil
}

// Verify returns the token snapshot plus a computed expiry flag. It
// does not mutate state; the emitted audit event is the only trace.
func (l *TokenLedger) Verify(ctx context.Context, caller string, tokenID int64) (*domain.VerificationResult, error) {
	token, err := l.Tokens.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	now := l.now()
	result := &domain.VerificationResult{
		Token:      *token,
		IsExpired:  token.ExpiredAt(now),
		VerifiedAt: now,
	}
	if l.Audit != nil {
		_ = l.Audit.EmitTokenVerified(ctx, caller, tokenID, result.IsExpired)
	}
	return result, nil
}

func (l *TokenLedger) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now().UTC()
}
