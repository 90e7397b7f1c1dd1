package persistence

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/orderprofit/backend/internal/domain/profit"
	"github.com/orderprofit/backend/internal/infrastructure/persistence/models"
)

// GormFeeOverrideRepository implements profit.FeeOverrideRepository using GORM
type GormFeeOverrideRepository struct {
	db *gorm.DB
}

var _ profit.FeeOverrideRepository = (*GormFeeOverrideRepository)(nil)

// NewGormFeeOverrideRepository creates a new GormFeeOverrideRepository
func NewGormFeeOverrideRepository(db *gorm.DB) *GormFeeOverrideRepository {
	return &GormFeeOverrideRepository{db: db}
}

// List returns every override ordered by source
func (r *GormFeeOverrideRepository) List(ctx context.Context) ([]profit.FeeOverride, error) {
	var rows []models.FeeOverrideModel
	if err := r.db.WithContext(ctx).Order("source ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]profit.FeeOverride, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Get returns the override for a normalized source
func (r *GormFeeOverrideRepository) Get(ctx context.Context, source string) (*profit.FeeOverride, error) {
	var row models.FeeOverrideModel
	err := r.db.WithContext(ctx).Where("source = ?", source).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, profit.ErrFeeOverrideNotFound
		}
		return nil, err
	}
	o := row.ToDomain()
	return &o, nil
}

// Upsert inserts the override or replaces the percentage of an existing one
func (r *GormFeeOverrideRepository) Upsert(ctx context.Context, override *profit.FeeOverride) error {
	model := models.FeeOverrideModelFromDomain(override)
	model.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}},
			DoUpdates: clause.AssignmentColumns([]string{"percent", "updated_at"}),
		}).
		Create(model).Error
}

// Delete removes the override for a normalized source
func (r *GormFeeOverrideRepository) Delete(ctx context.Context, source string) error {
	result := r.db.WithContext(ctx).Where("source = ?", source).Delete(&models.FeeOverrideModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return profit.ErrFeeOverrideNotFound
	}
	return nil
}
