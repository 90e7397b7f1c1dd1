package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderprofit/backend/internal/domain/profit"
)

// FeeOverrideModel is the persistence model for a fee override.
type FeeOverrideModel struct {
	BaseModel
	Source  string          `gorm:"type:varchar(100);not null;uniqueIndex"`
	Percent decimal.Decimal `gorm:"type:decimal(7,4);not null"`
}

// TableName returns the table name for GORM
func (FeeOverrideModel) TableName() string {
	return "fee_overrides"
}

// ToDomain converts the model to a domain FeeOverride
func (m *FeeOverrideModel) ToDomain() profit.FeeOverride {
	return profit.FeeOverride{
		Source:    m.Source,
		Percent:   m.Percent,
		UpdatedAt: m.UpdatedAt,
	}
}

// FeeOverrideModelFromDomain converts a domain FeeOverride to a model
func FeeOverrideModelFromDomain(o *profit.FeeOverride) *FeeOverrideModel {
	updated := o.UpdatedAt
	if updated.IsZero() {
		updated = time.Now().UTC()
	}
	return &FeeOverrideModel{
		BaseModel: BaseModel{CreatedAt: updated, UpdatedAt: updated},
		Source:    o.Source,
		Percent:   o.Percent,
	}
}
