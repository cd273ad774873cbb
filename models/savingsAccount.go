package models

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type SavingsAccountStatus string

const (
	SavingsAccountStatusActive SavingsAccountStatus = "ACTIVE"
	SavingsAccountStatusFrozen SavingsAccountStatus = "FROZEN"
	SavingsAccountStatusClosed SavingsAccountStatus = "CLOSED"
)

// SavingsAccount carries no stored balance: the balance is always derived from
// POSTED transactions (see BalanceFromTransactions).
type SavingsAccount struct {
	ID            int                  `gorm:"primary_key" json:"id"`
	ClientId      int                  `gorm:"index;not null;index:idx_sa_client_status,priority:1" json:"client_id"`
	ProductId     int                  `gorm:"index;not null" json:"product_id"`
	BranchId      int                  `gorm:"index;not null;index:idx_sa_branch_status,priority:1" json:"branch_id"`
	AccountNumber string               `gorm:"size:32;uniqueIndex;not null" json:"account_number"`
	Status        SavingsAccountStatus `gorm:"type:enum('ACTIVE','FROZEN','CLOSED');not null;default:'ACTIVE';index:idx_sa_client_status,priority:2;index:idx_sa_branch_status,priority:2" json:"status"`

	CreatedById int       `gorm:"index" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetSavingsAccountById(ctx context.Context, tx *gorm.DB, id int) (*SavingsAccount, error) {
	var account SavingsAccount
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// NextAccountNumber builds the candidate account number for a client:
// SAV-<branch code>-<client id>-<n>. Uniqueness is enforced by the unique
// index; callers retry with the next n on a duplicate-key error.
func NextAccountNumber(branchCode string, clientId int, seq int) string {
	return fmt.Sprintf("SAV-%s-%d-%d", branchCode, clientId, seq)
}
