// Package memstore is an in-memory implementation of every repository
// interface. It backs tests and the no-database development mode; all
// access is serialized through one mutex shared by the views.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"medsupply/internal/domain"
)

type Store struct {
	mu            sync.Mutex
	grants        []domain.RoleGrant
	tokens        map[int64]domain.DrugToken
	nextTokenID   int64
	prescriptions map[int64]domain.Prescription
	nextRxID      int64
	claims        map[int64]domain.InsuranceClaim
	nextClaimID   int64
	events        []domain.AuditEvent
}

func New() *Store {
	return &Store{
		tokens:        make(map[int64]domain.DrugToken),
		nextTokenID:   1,
		prescriptions: make(map[int64]domain.Prescription),
		nextRxID:      1,
		claims:        make(map[int64]domain.InsuranceClaim),
		nextClaimID:   1,
	}
}

// Views. Each satisfies one repository interface over the shared
// state, so a token move and a prescription consume see one world.

func (s *Store) Roles() *RoleView                 { return &RoleView{s: s} }
func (s *Store) Tokens() *TokenView               { return &TokenView{s: s} }
func (s *Store) Prescriptions() *PrescriptionView { return &PrescriptionView{s: s} }
func (s *Store) Claims() *ClaimView               { return &ClaimView{s: s} }
func (s *Store) Audit() *AuditView                { return &AuditView{s: s} }

type RoleView struct{ s *Store }

func (v *RoleView) Grant(ctx context.Context, grant domain.RoleGrant) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, existing := range v.s.grants {
		if existing.Identity == grant.Identity && existing.Role == grant.Role {
			return nil
		}
	}
	v.s.grants = append(v.s.grants, grant)
	return nil
}

func (v *RoleView) Has(ctx context.Context, identity string, role domain.Role) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, grant := range v.s.grants {
		if grant.Identity == identity && grant.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (v *RoleView) List(ctx context.Context, identity string) ([]domain.Role, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []domain.Role
	for _, grant := range v.s.grants {
		if grant.Identity == identity {
			out = append(out, grant.Role)
		}
	}
	return out, nil
}

type TokenView struct{ s *Store }

func (v *TokenView) NextTokenID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	return v.s.nextTokenID, nil
}

func (v *TokenView) Create(ctx context.Context, token domain.DrugToken) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	token.TokenID = v.s.nextTokenID
	v.s.nextTokenID++
	v.s.tokens[token.TokenID] = token
	return token.TokenID, nil
}

func (v *TokenView) Get(ctx context.Context, tokenID int64) (*domain.DrugToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	token, ok := v.s.tokens[tokenID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &token, nil
}

func (v *TokenView) ListHeld(ctx context.Context, holder string, status domain.TokenStatus) ([]domain.DrugToken, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []domain.DrugToken
	for _, token := range v.s.tokens {
		if token.CurrentHolder == holder && token.Status == status {
			out = append(out, token)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TokenID < out[j].TokenID })
	return out, nil
}

func (v *TokenView) UpdateCustody(ctx context.Context, tokenID int64, from, to domain.TokenStatus, holder string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	token, ok := v.s.tokens[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	if token.Status != from {
		return domain.ErrWrongState
	}
	token.Status = to
	token.CurrentHolder = holder
	v.s.tokens[tokenID] = token
	return nil
}

// DispenseWithPrescription mutates both records under one mutex hold,
// mirroring the transactional contract of the database repository.
func (v *TokenView) DispenseWithPrescription(ctx context.Context, tokenID, prescriptionID int64, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	token, ok := v.s.tokens[tokenID]
	if !ok {
		return domain.ErrNotFound
	}
	if token.Status != domain.StatusWithPharmacy {
		return domain.ErrWrongState
	}
	prescription, ok := v.s.prescriptions[prescriptionID]
	if !ok {
		return domain.ErrNotFound
	}
	if prescription.Consumed {
		return domain.ErrAlreadyProcessed
	}
	token.Status = domain.StatusDispensed
	consumedAt := at.UTC()
	prescription.Consumed = true
	prescription.ConsumedAt = &consumedAt
	v.s.tokens[tokenID] = token
	v.s.prescriptions[prescriptionID] = prescription
	return nil
}

type PrescriptionView struct{ s *Store }

func (v *PrescriptionView) Create(ctx context.Context, p domain.Prescription) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p.ID = v.s.nextRxID
	v.s.nextRxID++
	v.s.prescriptions[p.ID] = p
	return p.ID, nil
}

func (v *PrescriptionView) Get(ctx context.Context, id int64) (*domain.Prescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p, ok := v.s.prescriptions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (v *PrescriptionView) ListByPatient(ctx context.Context, patient string) ([]domain.Prescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []domain.Prescription
	for _, p := range v.s.prescriptions {
		if p.PatientAddress == patient {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (v *PrescriptionView) ListOpenByPatient(ctx context.Context, patient string, now time.Time) ([]domain.Prescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []domain.Prescription
	for _, p := range v.s.prescriptions {
		if p.PatientAddress == patient && p.OpenAt(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

type ClaimView struct{ s *Store }

func (v *ClaimView) Create(ctx context.Context, claim domain.InsuranceClaim) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	claim.ClaimID = v.s.nextClaimID
	v.s.nextClaimID++
	v.s.claims[claim.ClaimID] = claim
	return claim.ClaimID, nil
}

func (v *ClaimView) Get(ctx context.Context, claimID int64) (*domain.InsuranceClaim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	claim, ok := v.s.claims[claimID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &claim, nil
}

func (v *ClaimView) GetByPrescription(ctx context.Context, prescriptionID int64) (*domain.InsuranceClaim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	for _, claim := range v.s.claims {
		if claim.PrescriptionID == prescriptionID {
			out := claim
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (v *ClaimView) ListPending(ctx context.Context) ([]domain.InsuranceClaim, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []domain.InsuranceClaim
	for _, claim := range v.s.claims {
		if !claim.Processed {
			out = append(out, claim)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClaimID < out[j].ClaimID })
	return out, nil
}

func (v *ClaimView) MarkProcessed(ctx context.Context, claimID int64, approved bool, by string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	claim, ok := v.s.claims[claimID]
	if !ok {
		return domain.ErrNotFound
	}
	if claim.Processed {
		return domain.ErrAlreadyProcessed
	}
	processedAt := at.UTC()
	claim.Processed = true
	claim.IsApproved = approved
	claim.ProcessedBy = by
	claim.ProcessedAt = &processedAt
	v.s.claims[claimID] = claim
	return nil
}

type AuditView struct{ s *Store }

func (v *AuditView) Append(ctx context.Context, event domain.AuditEvent) (domain.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return domain.AuditEvent{}, err
	}
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	event.ID = int64(len(v.s.events) + 1)
	v.s.events = append(v.s.events, event)
	return event, nil
}

// Events returns a snapshot of the audit trail in append order.
func (s *Store) Events() []domain.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.AuditEvent, len(s.events))
	copy(out, s.events)
	return out
}
