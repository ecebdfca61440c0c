package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"hogis-registration/internal/model"
	pkgerrors "hogis-registration/pkg/errors"
)

// RegistrationRepository registration data access.
// A container is the set of rows whose status maps to it.
type RegistrationRepository interface {
	ListByContainer(ctx context.Context, container model.Container) ([]model.Registration, error)
	GetByID(ctx context.Context, id string) (*model.Registration, error)
	Insert(ctx context.Context, reg *model.Registration) error
	DeleteByID(ctx context.Context, container model.Container, id string) error
	Transition(ctx context.Context, id string, from, to model.Status, review model.Review) error
	CountByStatus(ctx context.Context) (map[model.Status]int, error)
}

type registrationRepo struct {
	db *gorm.DB
}

// NewRegistrationRepo creates a RegistrationRepository
func NewRegistrationRepo(db *gorm.DB) RegistrationRepository {
	return &registrationRepo{db: db}
}

// ListByContainer rows of one container, newest first. The inline photo
// payload is not loaded.
func (r *registrationRepo) ListByContainer(ctx context.Context, container model.Container) ([]model.Registration, error) {
	var regs []model.Registration
	err := r.db.WithContext(ctx).
		Omit("photo_data").
		Where("status = ?", container.Status()).
		Order("submission_date DESC").
		Find(&regs).Error
	return regs, err
}

// GetByID full record with its overflow photo chunks in index order
func (r *registrationRepo) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	var reg model.Registration
	err := r.db.WithContext(ctx).
		Preload("Chunks", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		}).
		Where("id = ?", id).
		First(&reg).Error
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Insert writes the record and its overflow chunks in one transaction.
// Chunks are inserted one per statement; each can be close to a megabyte.
func (r *registrationRepo) Insert(ctx context.Context, reg *model.Registration) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Chunks").Create(reg).Error; err != nil {
			return err
		}
		if len(reg.Chunks) == 0 {
			return nil
		}
		for i := range reg.Chunks {
			reg.Chunks[i].RegistrationID = reg.ID
		}
		return tx.CreateInBatches(&reg.Chunks, 1).Error
	})
}

// DeleteByID removes a record from container. Deleting from the wrong
// container reports gorm.ErrRecordNotFound.
func (r *registrationRepo) DeleteByID(ctx context.Context, container model.Container, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND status = ?", id, container.Status()).
			Delete(&model.Registration{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("registration_id = ?", id).Delete(&model.PhotoChunk{}).Error
	})
}

// Transition moves a record from one status to another in a single
// conditional update. A row that is no longer in from yields ErrStaleWrite;
// a missing row yields gorm.ErrRecordNotFound.
func (r *registrationRepo) Transition(ctx context.Context, id string, from, to model.Status, review model.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":           to,
			"admin_notes":      review.Notes,
			"reviewed_at":      review.ReviewedAt,
			"reviewed_by":      review.ReviewedBy,
			"rejection_reason": nil,
			"updated_at":       time.Now(),
		}
		if review.Reason != "" {
			updates["rejection_reason"] = review.Reason
		}

		result := tx.Model(&model.Registration{}).
			Where("id = ? AND status = ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 1 {
			return nil
		}

		var n int64
		if err := tx.Model(&model.Registration{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return pkgerrors.ErrStaleWrite
	})
}

// CountByStatus rows per status
func (r *registrationRepo) CountByStatus(ctx context.Context) (map[model.Status]int, error) {
	var rows []struct {
		Status model.Status
		N      int
	}
	err := r.db.WithContext(ctx).
		Model(&model.Registration{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.N
	}
	return counts, nil
}
