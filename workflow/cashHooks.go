package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Hooks called by the savings and loan engines, inside THEIR transactions, to
// mirror a cash-settled business transaction into the drawer ledger. Each hook
// resolves the acting cashier's ACTIVE session; a cash operation without an
// open drawer fails with ErrNoActiveSession before anything is written.

func RecordCashSavingsDeposit(ctx context.Context, tx *gorm.DB, actor Actor, branchId int, savingsTxId int, amount decimal.Decimal) (*models.CashLedgerEntry, error) {
	session, err := GetActiveSessionForCashier(ctx, tx, actor.ID)
	if err != nil {
		return nil, err
	}
	return postCashEntryTx(ctx, tx, actor, PostCashEntryInput{
		BranchId:      branchId,
		SessionId:     &session.ID,
		EventType:     models.CashEventSavingsDepositCash,
		Direction:     models.CashDirectionInflow,
		Amount:        amount,
		ReferenceType: "savings_transaction",
		ReferenceId:   fmt.Sprintf("%d", savingsTxId),
		Narration:     "cash savings deposit",
	})
}

func RecordCashSavingsWithdrawal(ctx context.Context, tx *gorm.DB, actor Actor, branchId int, savingsTxId int, amount decimal.Decimal) (*models.CashLedgerEntry, error) {
	session, err := GetActiveSessionForCashier(ctx, tx, actor.ID)
	if err != nil {
		return nil, err
	}
	return postCashEntryTx(ctx, tx, actor, PostCashEntryInput{
		BranchId:      branchId,
		SessionId:     &session.ID,
		EventType:     models.CashEventSavingsWithdrawalCash,
		Direction:     models.CashDirectionOutflow,
		Amount:        amount,
		ReferenceType: "savings_transaction",
		ReferenceId:   fmt.Sprintf("%d", savingsTxId),
		Narration:     "cash savings withdrawal",
	})
}

func RecordCashLoanRepayment(ctx context.Context, tx *gorm.DB, actor Actor, branchId int, repaymentId int, amount decimal.Decimal) (*models.CashLedgerEntry, error) {
	session, err := GetActiveSessionForCashier(ctx, tx, actor.ID)
	if err != nil {
		return nil, err
	}
	return postCashEntryTx(ctx, tx, actor, PostCashEntryInput{
		BranchId:      branchId,
		SessionId:     &session.ID,
		EventType:     models.CashEventLoanRepaymentCash,
		Direction:     models.CashDirectionInflow,
		Amount:        amount,
		ReferenceType: "repayment",
		ReferenceId:   fmt.Sprintf("%d", repaymentId),
		Narration:     "cash loan repayment",
	})
}

func RecordCashLoanDisbursement(ctx context.Context, tx *gorm.DB, actor Actor, branchId int, loanId int, amount decimal.Decimal) (*models.CashLedgerEntry, error) {
	session, err := GetActiveSessionForCashier(ctx, tx, actor.ID)
	if err != nil {
		return nil, err
	}
	return postCashEntryTx(ctx, tx, actor, PostCashEntryInput{
		BranchId:      branchId,
		SessionId:     &session.ID,
		EventType:     models.CashEventLoanDisbursementCash,
		Direction:     models.CashDirectionOutflow,
		Amount:        amount,
		ReferenceType: "loan",
		ReferenceId:   fmt.Sprintf("%d", loanId),
		Narration:     "cash loan disbursement",
	})
}
