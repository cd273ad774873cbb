package models

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SavingsProduct is the policy configuration the savings engine consults on
// every deposit/withdrawal decision.
type SavingsProduct struct {
	ID                int             `gorm:"primary_key" json:"id"`
	Code              string          `gorm:"size:20;uniqueIndex;not null" json:"code" binding:"required"`
	Name              string          `gorm:"size:255;not null" json:"name" binding:"required"`
	MinOpeningBalance decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"min_opening_balance"`
	MinBalance        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"min_balance"`
	InterestRate      decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"interest_rate"`
	// Withdrawals strictly above this amount require branch manager approval.
	WithdrawalRequiresApprovalAbove decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"withdrawal_requires_approval_above"`
	WithdrawalFee                   decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"withdrawal_fee"`
	IsActive                        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt                       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func savingsProductCacheKey(id int) string {
	return fmt.Sprintf("savingsProduct:%d", id)
}

// GetSavingsProductById reads through a redis cache; policy rows change rarely
// and are consulted on every withdrawal.
func GetSavingsProductById(ctx context.Context, tx *gorm.DB, id int) (*SavingsProduct, error) {
	var product SavingsProduct
	exists, err := config.GetRedisObject(savingsProductCacheKey(id), &product)
	if err == nil && exists {
		return &product, nil
	}

	if err := tx.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	_ = config.SetRedisObject(savingsProductCacheKey(id), &product, time.Hour)
	return &product, nil
}

// InvalidateSavingsProductCache drops the cached policy row after an update.
func InvalidateSavingsProductCache(id int) {
	_ = config.RemoveRedisKey(savingsProductCacheKey(id))
}
