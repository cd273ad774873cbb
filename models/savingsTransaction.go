package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SavingsTxType string

const (
	SavingsTxDeposit     SavingsTxType = "DEPOSIT"
	SavingsTxWithdrawal  SavingsTxType = "WITHDRAWAL"
	SavingsTxTransferIn  SavingsTxType = "TRANSFER_IN"
	SavingsTxTransferOut SavingsTxType = "TRANSFER_OUT"
	SavingsTxInterest    SavingsTxType = "INTEREST"
	SavingsTxFee         SavingsTxType = "FEE"
	SavingsTxAdjustment  SavingsTxType = "ADJUSTMENT"
)

type SavingsTxStatus string

const (
	SavingsTxStatusPending  SavingsTxStatus = "PENDING"
	SavingsTxStatusPosted   SavingsTxStatus = "POSTED"
	SavingsTxStatusRejected SavingsTxStatus = "REJECTED"
	SavingsTxStatusReversed SavingsTxStatus = "REVERSED"
)

type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCheck        PaymentMethod = "CHECK"
)

type SavingsTransaction struct {
	ID        int             `gorm:"primary_key" json:"id"`
	AccountId int             `gorm:"not null;index:idx_stx_account_status,priority:1;index:idx_stx_account_created,priority:1" json:"account_id"`
	TxType    SavingsTxType   `gorm:"type:enum('DEPOSIT','WITHDRAWAL','TRANSFER_IN','TRANSFER_OUT','INTEREST','FEE','ADJUSTMENT');not null" json:"tx_type"`
	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Status    SavingsTxStatus `gorm:"type:enum('PENDING','POSTED','REJECTED','REVERSED');not null;default:'PENDING';index:idx_stx_account_status,priority:2" json:"status"`

	// For ADJUSTMENT rows only: true credits the account, false debits it.
	IsCreditAdjustment *bool `gorm:"not null;default:true" json:"is_credit_adjustment"`

	PostedById    int           `gorm:"index" json:"posted_by_id"`
	ApprovedById  *int          `gorm:"index" json:"approved_by_id"`
	ApprovedAt    *time.Time    `json:"approved_at"`
	Reference     string        `gorm:"size:64" json:"reference"`
	PaymentMethod PaymentMethod `gorm:"size:32" json:"payment_method"`
	Narration     string        `gorm:"size:255" json:"narration"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_stx_account_created,priority:2" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Savings transactions never change amount/type/account once created; the only
// legal mutation is the PENDING approval decision.
var savingsTxAllowedUpdates = map[string]bool{
	"Status":       true,
	"ApprovedById": true,
	"ApprovedAt":   true,
	"UpdatedAt":    true,
}

func (t *SavingsTransaction) BeforeUpdate(tx *gorm.DB) error {
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !savingsTxAllowedUpdates[f.Name] {
			return errors.New("immutable ledger: only approval fields may be updated on savings_transactions")
		}
	}
	return nil
}

func (t *SavingsTransaction) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: savings_transactions cannot be deleted")
}

// CreditDelta maps a transaction to its signed balance contribution.
// CREDIT: DEPOSIT, TRANSFER_IN, INTEREST. DEBIT: WITHDRAWAL, TRANSFER_OUT, FEE.
// ADJUSTMENT sign comes from is_credit_adjustment.
func (t *SavingsTransaction) CreditDelta() decimal.Decimal {
	switch t.TxType {
	case SavingsTxDeposit, SavingsTxTransferIn, SavingsTxInterest:
		return t.Amount
	case SavingsTxWithdrawal, SavingsTxTransferOut, SavingsTxFee:
		return t.Amount.Neg()
	case SavingsTxAdjustment:
		if t.IsCreditAdjustment != nil && !*t.IsCreditAdjustment {
			return t.Amount.Neg()
		}
		return t.Amount
	}
	return decimal.Zero
}

// BalanceFromTransactions folds POSTED rows into the derived account balance.
// The fold is associative: result is independent of row order.
func BalanceFromTransactions(txs []SavingsTransaction) decimal.Decimal {
	deltas := make([]decimal.Decimal, 0, len(txs))
	for _, t := range txs {
		if t.Status != SavingsTxStatusPosted {
			continue
		}
		deltas = append(deltas, t.CreditDelta())
	}
	return SumAmounts(deltas)
}

// GetAccountBalance recomputes the balance from POSTED rows. Never cached.
func GetAccountBalance(ctx context.Context, tx *gorm.DB, accountId int) (decimal.Decimal, error) {
	var txs []SavingsTransaction
	if err := tx.WithContext(ctx).
		Where("account_id = ? AND status = ?", accountId, SavingsTxStatusPosted).
		Find(&txs).Error; err != nil {
		return decimal.Zero, err
	}
	return BalanceFromTransactions(txs), nil
}
