package db

import (
	"context"
	"errors"
	"time"

	"medsupply/internal/domain"

	"gorm.io/gorm"
)

type ClaimRepository struct {
	db *gorm.DB
}

func NewClaimRepository(db *gorm.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Create(ctx context.Context, claim domain.InsuranceClaim) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	model := claimModelFromDomain(claim)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ClaimID, nil
}

func (r *ClaimRepository) Get(ctx context.Context, claimID int64) (*domain.InsuranceClaim, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model ClaimModel
	err := r.db.WithContext(ctx).First(&model, "claim_id = ?", claimID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	claim := claimFromModel(model)
	return &claim, nil
}

func (r *ClaimRepository) GetByPrescription(ctx context.Context, prescriptionID int64) (*domain.InsuranceClaim, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model ClaimModel
	err := r.db.WithContext(ctx).First(&model, "prescription_id = ?", prescriptionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	claim := claimFromModel(model)
	return &claim, nil
}

func (r *ClaimRepository) ListPending(ctx context.Context) ([]domain.InsuranceClaim, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []ClaimModel
	if err := r.db.WithContext(ctx).
		Where("processed = ?", false).
		Order("claim_id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.InsuranceClaim, 0, len(models))
	for _, model := range models {
		out = append(out, claimFromModel(model))
	}
	return out, nil
}

// MarkProcessed records the terminal outcome. The processed guard in
// the WHERE clause keeps the first outcome immutable under races.
func (r *ClaimRepository) MarkProcessed(ctx context.Context, claimID int64, approved bool, by string, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).
		Model(&ClaimModel{}).
		Where("claim_id = ? AND processed = ?", claimID, false).
		Updates(map[string]any{
			"is_approved":  approved,
			"processed":    true,
			"processed_by": by,
			"processed_at": at.UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAlreadyProcessed
	}
	return nil
}

func claimModelFromDomain(claim domain.InsuranceClaim) ClaimModel {
	return ClaimModel{
		ClaimID:        claim.ClaimID,
		PrescriptionID: claim.PrescriptionID,
		IsApproved:     claim.IsApproved,
		Processed:      claim.Processed,
		ClaimedBy:      claim.ClaimedBy,
		ProcessedBy:    claim.ProcessedBy,
		CreatedAt:      claim.CreatedAt.UTC(),
		ProcessedAt:    claim.ProcessedAt,
	}
}

func claimFromModel(model ClaimModel) domain.InsuranceClaim {
	return domain.InsuranceClaim{
		ClaimID:        model.ClaimID,
		PrescriptionID: model.PrescriptionID,
		IsApproved:     model.IsApproved,
		Processed:      model.Processed,
		ClaimedBy:      model.ClaimedBy,
		ProcessedBy:    model.ProcessedBy,
		CreatedAt:      model.CreatedAt.UTC(),
		ProcessedAt:    model.ProcessedAt,
	}
}
