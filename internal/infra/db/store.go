package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn required")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{DB: gdb}, nil
}

// Migrate creates or updates every table the repositories use.
func (s *Store) Migrate() error {
	return s.DB.AutoMigrate(
		&RoleGrantModel{},
		&DrugTokenModel{},
		&PrescriptionModel{},
		&ClaimModel{},
		&AuditEventModel{},
	)
}
