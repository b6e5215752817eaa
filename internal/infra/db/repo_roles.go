package db

import (
	"context"
	"time"

	"medsupply/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

// Grant inserts the membership row; a duplicate (identity, role) pair
// is a no-op so repeated grants stay idempotent.
func (r *RoleRepository) Grant(ctx context.Context, grant domain.RoleGrant) error {
	if r.db == nil {
		return errDBUnavailable
	}
	model := RoleGrantModel{
		Identity:  grant.Identity,
		Role:      string(grant.Role),
		GrantedBy: grant.GrantedBy,
		CreatedAt: time.Now().UTC(),
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "identity"}, {Name: "role"}},
			DoNothing: true,
		}).
		Create(&model).Error
}

func (r *RoleRepository) Has(ctx context.Context, identity string, role domain.Role) (bool, error) {
	if r.db == nil {
		return false, errDBUnavailable
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RoleGrantModel{}).
		Where("identity = ? AND role = ?", identity, string(role)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *RoleRepository) List(ctx context.Context, identity string) ([]domain.Role, error) {
	if r.db == nil {
		return nil, errDBUnavailable
	}
	var models []RoleGrantModel
	if err := r.db.WithContext(ctx).
		Where("identity = ?", identity).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Role, 0, len(models))
	for _, model := range models {
		out = append(out, domain.Role(model.Role))
	}
	return out, nil
}
