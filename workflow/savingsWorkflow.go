package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const accountNumberRetries = 5

func isDuplicateKeyError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

type CreateAccountInput struct {
	ClientId       int                  `json:"client_id" binding:"required"`
	ProductId      int                  `json:"product_id" binding:"required"`
	BranchId       int                  `json:"branch_id" binding:"required"`
	OpeningDeposit decimal.Decimal      `json:"opening_deposit"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	Reference      string               `json:"reference"`
}

// CreateAccount opens a savings account for a KYC-approved client. The account
// number SAV-<branch>-<client>-<n> is generated optimistically; a duplicate-key
// collision bumps n and retries inside the same transaction. The opening
// deposit, when present, posts immediately.
func CreateAccount(ctx context.Context, input CreateAccountInput) (*models.SavingsAccount, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapOpenSavingsAccount); err != nil {
		return nil, err
	}
	if err := RequireBranch(actor, input.BranchId); err != nil {
		return nil, err
	}
	if input.OpeningDeposit.IsNegative() {
		return nil, ErrInvalidAmount
	}

	var account models.SavingsAccount
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		client, err := models.GetClientById(ctx, tx, input.ClientId)
		if err != nil {
			return err
		}
		if client.Status != models.ClientStatusActive {
			return ErrClientNotActive
		}
		approved, err := models.ClientHasApprovedKYC(ctx, tx, input.ClientId)
		if err != nil {
			return err
		}
		if !approved {
			return ErrKYCNotApproved
		}

		product, err := models.GetSavingsProductById(ctx, tx, input.ProductId)
		if err != nil {
			return err
		}
		if product.IsActive != nil && !*product.IsActive {
			return ErrProductInactive
		}
		if input.OpeningDeposit.LessThan(product.MinOpeningBalance) {
			return ErrBelowMinimumOpening
		}

		var branch models.Branch
		if err := tx.WithContext(ctx).Where("id = ?", input.BranchId).First(&branch).Error; err != nil {
			return err
		}

		var existing int64
		if err := tx.WithContext(ctx).Model(&models.SavingsAccount{}).
			Where("client_id = ?", input.ClientId).Count(&existing).Error; err != nil {
			return err
		}

		seq := int(existing) + 1
		for attempt := 0; ; attempt++ {
			account = models.SavingsAccount{
				ClientId:      input.ClientId,
				ProductId:     product.ID,
				BranchId:      input.BranchId,
				AccountNumber: models.NextAccountNumber(branch.Code, input.ClientId, seq),
				Status:        models.SavingsAccountStatusActive,
				CreatedById:   actor.ID,
			}
			err := tx.WithContext(ctx).Create(&account).Error
			if err == nil {
				break
			}
			if isDuplicateKeyError(err) && attempt < accountNumberRetries {
				seq++
				continue
			}
			return err
		}

		if input.OpeningDeposit.IsPositive() {
			deposit := models.SavingsTransaction{
				AccountId:     account.ID,
				TxType:        models.SavingsTxDeposit,
				Amount:        models.Quantize2(input.OpeningDeposit),
				Status:        models.SavingsTxStatusPosted,
				PostedById:    actor.ID,
				Reference:     input.Reference,
				PaymentMethod: input.PaymentMethod,
				Narration:     "opening deposit",
			}
			if err := tx.WithContext(ctx).Create(&deposit).Error; err != nil {
				return err
			}
			if input.PaymentMethod == models.PaymentMethodCash {
				if _, err := RecordCashSavingsDeposit(ctx, tx, actor, input.BranchId, deposit.ID, deposit.Amount); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "savings.account.open",
		TargetType: "savings_account",
		TargetId:   fmt.Sprintf("%d", account.ID),
		Summary:    fmt.Sprintf("opened %s for client %d", account.AccountNumber, account.ClientId),
	})
	return &account, nil
}

type SavingsMovementInput struct {
	AccountId     int                  `json:"account_id"`
	Amount        decimal.Decimal      `json:"amount" binding:"required"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
	Reference     string               `json:"reference"`
	Narration     string               `json:"narration"`
}

// Deposit posts a credit immediately; deposits never need approval.
func Deposit(ctx context.Context, input SavingsMovementInput) (*models.SavingsTransaction, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapDeposit); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var stx models.SavingsTransaction
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := AcquireAccountPostingLock(tx, input.AccountId); err != nil {
			return err
		}
		defer ReleaseAccountPostingLock(tx, input.AccountId)
		account, err := models.GetSavingsAccountById(ctx, tx, input.AccountId)
		if err != nil {
			return err
		}
		if err := RequireBranch(actor, account.BranchId); err != nil {
			return err
		}
		if account.Status != models.SavingsAccountStatusActive {
			return ErrAccountNotActive
		}

		stx = models.SavingsTransaction{
			AccountId:     account.ID,
			TxType:        models.SavingsTxDeposit,
			Amount:        models.Quantize2(input.Amount),
			Status:        models.SavingsTxStatusPosted,
			PostedById:    actor.ID,
			Reference:     input.Reference,
			PaymentMethod: input.PaymentMethod,
			Narration:     input.Narration,
		}
		if err := tx.WithContext(ctx).Create(&stx).Error; err != nil {
			return err
		}
		if input.PaymentMethod == models.PaymentMethodCash {
			if _, err := RecordCashSavingsDeposit(ctx, tx, actor, account.BranchId, stx.ID, stx.Amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "savings.deposit",
		TargetType: "savings_transaction",
		TargetId:   fmt.Sprintf("%d", stx.ID),
		Summary:    fmt.Sprintf("deposit %s to account %d", stx.Amount.StringFixed(2), stx.AccountId),
	})
	return &stx, nil
}

// withdrawalLeavesMinBalance checks that paying out amount plus the product fee
// keeps the account at or above the product's minimum balance.
func withdrawalLeavesMinBalance(balance, amount decimal.Decimal, product *models.SavingsProduct) bool {
	after := balance.Sub(amount).Sub(product.WithdrawalFee)
	return !after.LessThan(product.MinBalance)
}

// withdrawalNeedsApproval routes amounts strictly above the product threshold
// to the PENDING approval queue. A zero threshold means no routing.
func withdrawalNeedsApproval(amount decimal.Decimal, product *models.SavingsProduct) bool {
	return product.WithdrawalRequiresApprovalAbove.IsPositive() &&
		amount.GreaterThan(product.WithdrawalRequiresApprovalAbove)
}

// Withdraw debits the account. Amounts strictly above the product's approval
// threshold are parked PENDING for a manager; everything else posts at once.
// The initiating actor is recorded as poster either way.
func Withdraw(ctx context.Context, input SavingsMovementInput) (*models.SavingsTransaction, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapWithdraw); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var stx models.SavingsTransaction
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := AcquireAccountPostingLock(tx, input.AccountId); err != nil {
			return err
		}
		defer ReleaseAccountPostingLock(tx, input.AccountId)
		account, err := models.GetSavingsAccountById(ctx, tx, input.AccountId)
		if err != nil {
			return err
		}
		if err := RequireBranch(actor, account.BranchId); err != nil {
			return err
		}
		if account.Status != models.SavingsAccountStatusActive {
			return ErrAccountNotActive
		}
		product, err := models.GetSavingsProductById(ctx, tx, account.ProductId)
		if err != nil {
			return err
		}
		balance, err := models.GetAccountBalance(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		amount := models.Quantize2(input.Amount)
		if !withdrawalLeavesMinBalance(balance, amount, product) {
			return ErrBelowMinimumBalance
		}

		status := models.SavingsTxStatusPosted
		if withdrawalNeedsApproval(amount, product) {
			status = models.SavingsTxStatusPending
		}

		stx = models.SavingsTransaction{
			AccountId:     account.ID,
			TxType:        models.SavingsTxWithdrawal,
			Amount:        amount,
			Status:        status,
			PostedById:    actor.ID,
			Reference:     input.Reference,
			PaymentMethod: input.PaymentMethod,
			Narration:     input.Narration,
		}
		if err := tx.WithContext(ctx).Create(&stx).Error; err != nil {
			return err
		}
		if status != models.SavingsTxStatusPosted {
			return nil
		}
		return settlePostedWithdrawal(ctx, tx, actor, account, product, &stx, true)
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "savings.withdraw",
		TargetType: "savings_transaction",
		TargetId:   fmt.Sprintf("%d", stx.ID),
		Summary:    fmt.Sprintf("withdrawal %s from account %d (%s)", stx.Amount.StringFixed(2), stx.AccountId, stx.Status),
	})
	return &stx, nil
}

// settlePostedWithdrawal applies the side effects of a withdrawal reaching
// POSTED: the product fee row and, for cash, the drawer (or vault) outflow.
// Approved withdrawals are paid out at vault level because the approving
// manager holds no drawer.
func settlePostedWithdrawal(ctx context.Context, tx *gorm.DB, actor Actor, account *models.SavingsAccount, product *models.SavingsProduct, stx *models.SavingsTransaction, viaDrawer bool) error {
	if product.WithdrawalFee.IsPositive() {
		fee := models.SavingsTransaction{
			AccountId:     account.ID,
			TxType:        models.SavingsTxFee,
			Amount:        product.WithdrawalFee,
			Status:        models.SavingsTxStatusPosted,
			PostedById:    actor.ID,
			Reference:     fmt.Sprintf("%d", stx.ID),
			PaymentMethod: stx.PaymentMethod,
			Narration:     "withdrawal fee",
		}
		if err := tx.WithContext(ctx).Create(&fee).Error; err != nil {
			return err
		}
	}
	if stx.PaymentMethod != models.PaymentMethodCash {
		return nil
	}
	if viaDrawer {
		_, err := RecordCashSavingsWithdrawal(ctx, tx, actor, account.BranchId, stx.ID, stx.Amount)
		return err
	}
	_, err := postCashEntryTx(ctx, tx, actor, PostCashEntryInput{
		BranchId:      account.BranchId,
		EventType:     models.CashEventSavingsWithdrawalCash,
		Direction:     models.CashDirectionOutflow,
		Amount:        stx.Amount,
		ReferenceType: "savings_transaction",
		ReferenceId:   fmt.Sprintf("%d", stx.ID),
		Narration:     "approved cash savings withdrawal",
	})
	return err
}

// ApproveWithdrawal posts a PENDING withdrawal after re-validating the minimum
// balance against the current POSTED rows; deposits or other withdrawals may
// have landed since the request was parked.
func ApproveWithdrawal(ctx context.Context, transactionId int) (*models.SavingsTransaction, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapApproveWithdrawal); err != nil {
		return nil, err
	}

	var stx models.SavingsTransaction
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("id = ?", transactionId).First(&stx).Error; err != nil {
			return err
		}
		if err := AcquireAccountPostingLock(tx, stx.AccountId); err != nil {
			return err
		}
		defer ReleaseAccountPostingLock(tx, stx.AccountId)
		if stx.TxType != models.SavingsTxWithdrawal || stx.Status != models.SavingsTxStatusPending {
			return ErrWithdrawalNotPending
		}
		account, err := models.GetSavingsAccountById(ctx, tx, stx.AccountId)
		if err != nil {
			return err
		}
		if err := RequireBranch(actor, account.BranchId); err != nil {
			return err
		}
		if account.Status != models.SavingsAccountStatusActive {
			return ErrAccountNotActive
		}
		product, err := models.GetSavingsProductById(ctx, tx, account.ProductId)
		if err != nil {
			return err
		}
		balance, err := models.GetAccountBalance(ctx, tx, account.ID)
		if err != nil {
			return err
		}
		if !withdrawalLeavesMinBalance(balance, stx.Amount, product) {
			return ErrBelowMinimumBalance
		}

		now := time.Now()
		stx.Status = models.SavingsTxStatusPosted
		stx.ApprovedById = &actor.ID
		stx.ApprovedAt = &now
		if err := tx.WithContext(ctx).Model(&stx).Updates(map[string]interface{}{
			"status":         models.SavingsTxStatusPosted,
			"approved_by_id": actor.ID,
			"approved_at":    now,
		}).Error; err != nil {
			return err
		}
		return settlePostedWithdrawal(ctx, tx, actor, account, product, &stx, false)
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "savings.withdrawal.approve",
		TargetType: "savings_transaction",
		TargetId:   fmt.Sprintf("%d", stx.ID),
		Summary:    fmt.Sprintf("approved withdrawal %s", stx.Amount.StringFixed(2)),
	})
	return &stx, nil
}

// RejectWithdrawal closes out a PENDING withdrawal without touching balances;
// rejected rows never contribute to the fold.
func RejectWithdrawal(ctx context.Context, transactionId int) (*models.SavingsTransaction, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapApproveWithdrawal); err != nil {
		return nil, err
	}

	var stx models.SavingsTransaction
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("id = ?", transactionId).First(&stx).Error; err != nil {
			return err
		}
		if stx.TxType != models.SavingsTxWithdrawal || stx.Status != models.SavingsTxStatusPending {
			return ErrWithdrawalNotPending
		}
		account, err := models.GetSavingsAccountById(ctx, tx, stx.AccountId)
		if err != nil {
			return err
		}
		if err := RequireBranch(actor, account.BranchId); err != nil {
			return err
		}
		now := time.Now()
		stx.Status = models.SavingsTxStatusRejected
		stx.ApprovedById = &actor.ID
		stx.ApprovedAt = &now
		return tx.WithContext(ctx).Model(&stx).Updates(map[string]interface{}{
			"status":         models.SavingsTxStatusRejected,
			"approved_by_id": actor.ID,
			"approved_at":    now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "savings.withdrawal.reject",
		TargetType: "savings_transaction",
		TargetId:   fmt.Sprintf("%d", stx.ID),
		Summary:    fmt.Sprintf("rejected withdrawal %s", stx.Amount.StringFixed(2)),
	})
	return &stx, nil
}

// setAccountStatus is the shared freeze/unfreeze/close transition. Transitions
// into the status an account already holds are no-ops, not errors.
func setAccountStatus(ctx context.Context, accountId int, target models.SavingsAccountStatus, action string) (*models.SavingsAccount, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapManageAccounts); err != nil {
		return nil, err
	}

	var account *models.SavingsAccount
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := AcquireAccountPostingLock(tx, accountId); err != nil {
			return err
		}
		defer ReleaseAccountPostingLock(tx, accountId)
		var err error
		account, err = models.GetSavingsAccountById(ctx, tx, accountId)
		if err != nil {
			return err
		}
		if err := RequireBranch(actor, account.BranchId); err != nil {
			return err
		}
		if account.Status == target {
			return nil
		}
		if account.Status == models.SavingsAccountStatusClosed {
			// Closed is terminal.
			return ErrAccountNotActive
		}
		if target == models.SavingsAccountStatusClosed {
			balance, err := models.GetAccountBalance(ctx, tx, account.ID)
			if err != nil {
				return err
			}
			if !balance.IsZero() {
				return ErrNonZeroBalance
			}
		}
		account.Status = target
		return tx.WithContext(ctx).Model(account).Update("status", target).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     action,
		TargetType: "savings_account",
		TargetId:   fmt.Sprintf("%d", accountId),
		Summary:    fmt.Sprintf("account %s now %s", account.AccountNumber, account.Status),
	})
	return account, nil
}

func FreezeAccount(ctx context.Context, accountId int) (*models.SavingsAccount, error) {
	return setAccountStatus(ctx, accountId, models.SavingsAccountStatusFrozen, "savings.account.freeze")
}

func UnfreezeAccount(ctx context.Context, accountId int) (*models.SavingsAccount, error) {
	return setAccountStatus(ctx, accountId, models.SavingsAccountStatusActive, "savings.account.unfreeze")
}

func CloseAccount(ctx context.Context, accountId int) (*models.SavingsAccount, error) {
	return setAccountStatus(ctx, accountId, models.SavingsAccountStatusClosed, "savings.account.close")
}

// PendingWithdrawals lists the approval queue for a branch.
func PendingWithdrawals(ctx context.Context, branchId int) ([]models.SavingsTransaction, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapApproveWithdrawal); err != nil {
		return nil, err
	}
	if err := RequireBranch(actor, branchId); err != nil {
		return nil, err
	}

	var rows []models.SavingsTransaction
	err := config.GetDB().WithContext(ctx).
		Joins("JOIN savings_accounts ON savings_accounts.id = savings_transactions.account_id").
		Where("savings_accounts.branch_id = ?", branchId).
		Where("savings_transactions.tx_type = ? AND savings_transactions.status = ?",
			models.SavingsTxWithdrawal, models.SavingsTxStatusPending).
		Order("savings_transactions.created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
