package db

import (
	"context"
	"errors"
	"time"

	"medsupply/internal/domain"

	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// NextTokenID predicts the id the next insert will take. The value is
// advisory; a concurrent mint can claim it first.
func (r *TokenRepository) NextTokenID(ctx context.Context) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	var maxID int64
	err := r.db.WithContext(ctx).
		Model(&DrugTokenModel{}).
		Select("COALESCE(MAX(token_id), 0)").
		Scan(&maxID).Error
	if err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

func (r *TokenRepository) Create(ctx context.Context, token domain.DrugToken) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	model := drugTokenModelFromDomain(token)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	return model.TokenID, nil
}

func (r *TokenRepository) Get(ctx context.Context, tokenID int64) (*domain.DrugToken, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model DrugTokenModel
	err := r.db.WithContext(ctx).First(&model, "token_id = ?", tokenID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	token := drugTokenFromModel(model)
	return &token, nil
}

func (r *TokenRepository) ListHeld(ctx context.Context, holder string, status domain.TokenStatus) ([]domain.DrugToken, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []DrugTokenModel
	if err := r.db.WithContext(ctx).
		Where("current_holder = ? AND status = ?", holder, string(status)).
		Order("token_id ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.DrugToken, 0, len(models))
	for _, model := range models {
		out = append(out, drugTokenFromModel(model))
	}
	return out, nil
}

// UpdateCustody advances the token only if it is still in the expected
// state; a zero row count means someone else moved it first.
func (r *TokenRepository) UpdateCustody(ctx context.Context, tokenID int64, from, to domain.TokenStatus, holder string) error {
	if r.db == nil {
		return errDBUnavailable
	}
	result := r.db.WithContext(ctx).
		Model(&DrugTokenModel{}).
		Where("token_id = ? AND status = ?", tokenID, string(from)).
		Updates(map[string]any{
			"status":         string(to),
			"current_holder": holder,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrWrongState
	}
	return nil
}

// DispenseWithPrescription retires the token and consumes the
// prescription in one transaction. Either side already being retired
// rolls the whole thing back.
func (r *TokenRepository) DispenseWithPrescription(ctx context.Context, tokenID, prescriptionID int64, at time.Time) error {
	if r.db == nil {
		return errDBUnavailable
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tokenUpdate := tx.Model(&DrugTokenModel{}).
			Where("token_id = ? AND status = ?", tokenID, string(domain.StatusWithPharmacy)).
			Update("status", string(domain.StatusDispensed))
		if tokenUpdate.Error != nil {
			return tokenUpdate.Error
		}
		if tokenUpdate.RowsAffected == 0 {
			return domain.ErrWrongState
		}
		prescriptionUpdate := tx.Model(&PrescriptionModel{}).
			Where("id = ? AND consumed = ?", prescriptionID, false).
			Updates(map[string]any{
				"consumed":    true,
				"consumed_at": at.UTC(),
			})
		if prescriptionUpdate.Error != nil {
			return prescriptionUpdate.Error
		}
		if prescriptionUpdate.RowsAffected == 0 {
			return domain.ErrAlreadyProcessed
		}
		return nil
	})
}

func drugTokenModelFromDomain(token domain.DrugToken) DrugTokenModel {
	return DrugTokenModel{
		TokenID:         token.TokenID,
		MedicineID:      token.MedicineID,
		Name:            token.Name,
		ExpiryTimestamp: token.ExpiryTimestamp.UTC(),
		Status:          string(token.Status),
		CurrentHolder:   token.CurrentHolder,
		MetadataURI:     token.MetadataURI,
		MintedBy:        token.MintedBy,
		CreatedAt:       token.CreatedAt.UTC(),
	}
}

func drugTokenFromModel(model DrugTokenModel) domain.DrugToken {
	return domain.DrugToken{
		TokenID:         model.TokenID,
		MedicineID:      model.MedicineID,
		Name:            model.Name,
		ExpiryTimestamp: model.ExpiryTimestamp.UTC(),
		Status:          domain.TokenStatus(model.Status),
		CurrentHolder:   model.CurrentHolder,
		MetadataURI:     model.MetadataURI,
		MintedBy:        model.MintedBy,
		CreatedAt:       model.CreatedAt.UTC(),
	}
}
