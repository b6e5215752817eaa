package db

import (
	"context"
	"errors"
	"time"

	"medsupply/internal/domain"

	"gorm.io/gorm"
)

type PrescriptionRepository struct {
	db *gorm.DB
}

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p domain.Prescription) (int64, error) {
	if r.db == nil {
		return 0, errDBUnavailable
	}
	model := prescriptionModelFromDomain(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return 0, err
	}
	return model.ID, nil
}

func (r *PrescriptionRepository) Get(ctx context.Context, id int64) (*domain.Prescription, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var model PrescriptionModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	p := prescriptionFromModel(model)
	return &p, nil
}

func (r *PrescriptionRepository) ListByPatient(ctx context.Context, patient string) ([]domain.Prescription, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []PrescriptionModel
	if err := r.db.WithContext(ctx).
		Where("patient_address = ?", patient).
		Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return prescriptionsFromModels(models), nil
}

func (r *PrescriptionRepository) ListOpenByPatient(ctx context.Context, patient string, now time.Time) ([]domain.Prescription, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []PrescriptionModel
	if err := r.db.WithContext(ctx).
		Where("patient_address = ? AND consumed = ? AND valid_until >= ?", patient, false, now.UTC()).
		Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return prescriptionsFromModels(models), nil
}

func prescriptionsFromModels(models []PrescriptionModel) []domain.Prescription {
	out := make([]domain.Prescription, 0, len(models))
	for _, model := range models {
		out = append(out, prescriptionFromModel(model))
	}
	return out
}

func prescriptionModelFromDomain(p domain.Prescription) PrescriptionModel {
	return PrescriptionModel{
		ID:             p.ID,
		PatientAddress: p.PatientAddress,
		MedicineID:     p.MedicineID,
		ValidUntil:     p.ValidUntil.UTC(),
		Consumed:       p.Consumed,
		IssuedBy:       p.IssuedBy,
		CreatedAt:      p.CreatedAt.UTC(),
		ConsumedAt:     p.ConsumedAt,
	}
}

func prescriptionFromModel(model PrescriptionModel) domain.Prescription {
	return domain.Prescription{
		ID:             model.ID,
		PatientAddress: model.PatientAddress,
		MedicineID:     model.MedicineID,
		ValidUntil:     model.ValidUntil.UTC(),
		Consumed:       model.Consumed,
		IssuedBy:       model.IssuedBy,
		CreatedAt:      model.CreatedAt.UTC(),
		ConsumedAt:     model.ConsumedAt,
	}
}
