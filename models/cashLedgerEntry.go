package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashDirection string

const (
	CashDirectionInflow  CashDirection = "INFLOW"
	CashDirectionOutflow CashDirection = "OUTFLOW"
)

func (d CashDirection) Opposite() CashDirection {
	if d == CashDirectionInflow {
		return CashDirectionOutflow
	}
	return CashDirectionInflow
}

type CashEventType string

const (
	CashEventVaultToDrawer         CashEventType = "VAULT_TO_DRAWER"
	CashEventDrawerToVault         CashEventType = "DRAWER_TO_VAULT"
	CashEventSavingsDepositCash    CashEventType = "SAVINGS_DEPOSIT_CASH"
	CashEventSavingsWithdrawalCash CashEventType = "SAVINGS_WITHDRAWAL_CASH"
	CashEventLoanDisbursementCash  CashEventType = "LOAN_DISBURSEMENT_CASH"
	CashEventLoanRepaymentCash     CashEventType = "LOAN_REPAYMENT_CASH"
	CashEventReversal              CashEventType = "REVERSAL"
)

// CashLedgerEntry is one append-only row per physical cash movement.
// Ledger immutability guardrails:
// - cash_ledger_entries are append-only (no updates/deletes).
// - Corrections are new REVERSAL rows with opposite direction referencing the
//   original via reverses_entry_id; an entry may acquire at most one reversal.
type CashLedgerEntry struct {
	ID        int  `gorm:"primary_key" json:"id"`
	BranchId  int  `gorm:"index;not null;index:idx_cle_branch_created,priority:1" json:"branch_id"`
	SessionId *int `gorm:"index;index:idx_cle_session_created,priority:1" json:"session_id"`

	EventType CashEventType `gorm:"type:enum('VAULT_TO_DRAWER','DRAWER_TO_VAULT','SAVINGS_DEPOSIT_CASH','SAVINGS_WITHDRAWAL_CASH','LOAN_DISBURSEMENT_CASH','LOAN_REPAYMENT_CASH','REVERSAL');not null" json:"event_type"`
	Direction CashDirection `gorm:"type:enum('INFLOW','OUTFLOW');not null" json:"direction"`

	Amount    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount"`
	Narration string          `gorm:"size:255;not null;default:''" json:"narration"`

	// Generic link to the originating business transaction
	// (savings transaction, repayment, loan, teller session).
	ReferenceType string `gorm:"size:64;not null;default:'';index:idx_cle_reference,priority:1" json:"reference_type"`
	ReferenceId   string `gorm:"size:64;not null;default:'';index:idx_cle_reference,priority:2" json:"reference_id"`

	CreatedById int       `gorm:"index" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index:idx_cle_branch_created,priority:2;index:idx_cle_session_created,priority:2" json:"created_at"`

	ReversesEntryId *int `gorm:"index" json:"reverses_entry_id"`
}

func (e *CashLedgerEntry) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: cash_ledger_entries cannot be updated")
}

func (e *CashLedgerEntry) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: cash_ledger_entries cannot be deleted")
}

func (e *CashLedgerEntry) IsReversal() bool {
	return e.EventType == CashEventReversal
}

// SignedAmount is +amount for INFLOW rows and -amount for OUTFLOW rows.
func (e *CashLedgerEntry) SignedAmount() decimal.Decimal {
	if e.Direction == CashDirectionInflow {
		return e.Amount
	}
	return e.Amount.Neg()
}

// DrawerBalanceFromEntries derives the expected drawer balance for a session:
// confirmed opening + inflows - outflows, excluding REVERSAL rows.
func DrawerBalanceFromEntries(confirmedOpening decimal.Decimal, entries []CashLedgerEntry) decimal.Decimal {
	balance := confirmedOpening
	for _, e := range entries {
		if e.IsReversal() {
			continue
		}
		balance = balance.Add(e.SignedAmount())
	}
	return Quantize2(balance)
}
