package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository entry point for every repository
type Repository struct {
	Registration RegistrationRepository
	db           *gorm.DB
}

// NewRepository creates the Repository aggregate
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		Registration: NewRegistrationRepo(db),
		db:           db,
	}
}

// Ping checks the database connection
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
