package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Cash ledger engine. Every operation here runs as one transaction; the
// drawer-affecting ones serialize on the session's advisory lock so the
// check-then-insert against a derived balance cannot race.

type PostCashEntryInput struct {
	BranchId      int                  `json:"branch_id" binding:"required"`
	SessionId     *int                 `json:"session_id"`
	EventType     models.CashEventType `json:"event_type" binding:"required"`
	Direction     models.CashDirection `json:"direction" binding:"required"`
	Amount        decimal.Decimal      `json:"amount" binding:"required"`
	ReferenceType string               `json:"reference_type"`
	ReferenceId   string               `json:"reference_id"`
	Narration     string               `json:"narration"`
}

// computeExpectedDrawerBalance folds the session's ledger rows. The confirmed
// opening is already materialized as the session's VAULT_TO_DRAWER opening row,
// so the fold starts at zero; adding confirmed_opening_amount on top would
// double count it.
func computeExpectedDrawerBalance(ctx context.Context, tx *gorm.DB, sessionId int) (decimal.Decimal, error) {
	var entries []models.CashLedgerEntry
	if err := tx.WithContext(ctx).
		Where("session_id = ?", sessionId).
		Find(&entries).Error; err != nil {
		return decimal.Zero, err
	}
	return models.DrawerBalanceFromEntries(decimal.Zero, entries), nil
}

// postCashEntryTx appends one ledger row inside the caller's transaction.
// For session-scoped OUTFLOW rows it takes the drawer lock, recomputes the
// expected balance and rejects the posting if the drawer would go negative.
func postCashEntryTx(ctx context.Context, tx *gorm.DB, actor Actor, input PostCashEntryInput) (*models.CashLedgerEntry, error) {
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if input.SessionId != nil {
		if err := AcquireDrawerPostingLock(tx, *input.SessionId); err != nil {
			return nil, err
		}
		defer ReleaseDrawerPostingLock(tx, *input.SessionId)
		var session models.TellerSession
		if err := tx.WithContext(ctx).Where("id = ?", *input.SessionId).First(&session).Error; err != nil {
			return nil, err
		}
		if session.Status != models.TellerSessionStatusActive {
			return nil, ErrSessionNotActive
		}
		if session.BranchId != input.BranchId {
			return nil, ErrBranchMismatch
		}
		if input.Direction == models.CashDirectionOutflow {
			expected, err := computeExpectedDrawerBalance(ctx, tx, session.ID)
			if err != nil {
				return nil, err
			}
			if expected.Sub(input.Amount).IsNegative() {
				return nil, ErrInsufficientDrawerCash
			}
		}
	}

	entry := models.CashLedgerEntry{
		BranchId:      input.BranchId,
		SessionId:     input.SessionId,
		EventType:     input.EventType,
		Direction:     input.Direction,
		Amount:        models.Quantize2(input.Amount),
		Narration:     input.Narration,
		ReferenceType: input.ReferenceType,
		ReferenceId:   input.ReferenceId,
		CreatedById:   actor.ID,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// PostCashEntry appends one immutable ledger row. Session may be nil only for
// vault-level movements outside drawer custody.
func PostCashEntry(ctx context.Context, input PostCashEntryInput) (*models.CashLedgerEntry, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapOperateDrawer); err != nil {
		return nil, err
	}
	if err := RequireBranch(actor, input.BranchId); err != nil {
		return nil, err
	}

	var entry *models.CashLedgerEntry
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = postCashEntryTx(ctx, tx, actor, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "cash.entry.post",
		TargetType: "cash_ledger_entry",
		TargetId:   fmt.Sprintf("%d", entry.ID),
		Summary:    fmt.Sprintf("%s %s %s", entry.EventType, entry.Direction, entry.Amount.StringFixed(2)),
	})
	return entry, nil
}

type AllocateSessionInput struct {
	BranchId      int             `json:"branch_id" binding:"required"`
	CashierId     int             `json:"cashier_id" binding:"required"`
	OpeningAmount decimal.Decimal `json:"opening_amount" binding:"required"`
}

// AllocateSession is the manager side of drawer handover: it earmarks an
// opening float for a cashier of the branch. The session stays ALLOCATED
// until the cashier counts and confirms.
func AllocateSession(ctx context.Context, input AllocateSessionInput) (*models.TellerSession, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapAllocateSession); err != nil {
		return nil, err
	}
	if err := RequireBranch(actor, input.BranchId); err != nil {
		return nil, err
	}
	if !input.OpeningAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var session models.TellerSession
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		cashier, err := models.GetUserById(ctx, tx, input.CashierId)
		if err != nil {
			return err
		}
		if cashier.BranchId != input.BranchId {
			return ErrBranchMismatch
		}
		if !RoleCan(cashier.Role, CapOperateDrawer) {
			return ErrNotPermitted
		}

		var open int64
		if err := tx.WithContext(ctx).Model(&models.TellerSession{}).
			Where("cashier_id = ? AND status <> ?", input.CashierId, models.TellerSessionStatusClosed).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return ErrSessionAlreadyOpen
		}

		// One vault row per branch, created lazily on first allocation.
		vault := models.BranchVault{BranchId: input.BranchId}
		if err := tx.WithContext(ctx).
			Where(models.BranchVault{BranchId: input.BranchId}).
			FirstOrCreate(&vault).Error; err != nil {
			return err
		}

		session = models.TellerSession{
			BranchId:      input.BranchId,
			CashierId:     input.CashierId,
			Status:        models.TellerSessionStatusAllocated,
			OpeningAmount: models.Quantize2(input.OpeningAmount),
			AllocatedById: actor.ID,
		}
		return tx.WithContext(ctx).Create(&session).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "cash.session.allocate",
		TargetType: "teller_session",
		TargetId:   fmt.Sprintf("%d", session.ID),
		Summary:    fmt.Sprintf("allocated %s to cashier %d", session.OpeningAmount.StringFixed(2), session.CashierId),
	})
	return &session, nil
}

// ConfirmSessionOpening moves ALLOCATED -> ACTIVE with the cashier's counted
// opening amount and posts the matching VAULT_TO_DRAWER row, atomically.
func ConfirmSessionOpening(ctx context.Context, sessionId int, countedAmount decimal.Decimal) (*models.TellerSession, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapOperateDrawer); err != nil {
		return nil, err
	}
	if !countedAmount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var session models.TellerSession
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", sessionId).First(&session).Error; err != nil {
			return err
		}
		if session.Status != models.TellerSessionStatusAllocated {
			return ErrSessionNotAllocated
		}
		if session.CashierId != actor.ID {
			return ErrNotOwner
		}

		now := time.Now()
		counted := models.Quantize2(countedAmount)
		session.ConfirmedOpeningAmount = &counted
		session.ConfirmedAt = &now
		session.ConfirmedById = &actor.ID
		session.OpenedAt = &now
		session.Status = models.TellerSessionStatusActive
		if err := tx.WithContext(ctx).Model(&session).Updates(map[string]interface{}{
			"confirmed_opening_amount": counted,
			"confirmed_at":             now,
			"confirmed_by_id":          actor.ID,
			"opened_at":                now,
			"status":                   models.TellerSessionStatusActive,
		}).Error; err != nil {
			return err
		}

		_, err := postCashEntryTx(ctx, tx, actor, PostCashEntryInput{
			BranchId:      session.BranchId,
			SessionId:     &session.ID,
			EventType:     models.CashEventVaultToDrawer,
			Direction:     models.CashDirectionInflow,
			Amount:        counted,
			ReferenceType: "teller_session",
			ReferenceId:   fmt.Sprintf("%d", session.ID),
			Narration:     "session opening float",
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "cash.session.confirm",
		TargetType: "teller_session",
		TargetId:   fmt.Sprintf("%d", session.ID),
		Summary:    fmt.Sprintf("confirmed opening %s", countedAmount.StringFixed(2)),
	})
	return &session, nil
}

type CloseSessionInput struct {
	SessionId            int             `json:"session_id" binding:"required"`
	CountedClosingAmount decimal.Decimal `json:"counted_closing_amount"`
	VarianceNote         string          `json:"variance_note"`
}

// CloseSession counts the drawer down: expected is recomputed under the drawer
// lock, variance = counted - expected is persisted, status goes CLOSED. The
// drawer is NOT auto-returned to the vault; that is a separate DRAWER_TO_VAULT
// posting if the branch wants it.
func CloseSession(ctx context.Context, input CloseSessionInput) (*models.TellerSession, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapOperateDrawer); err != nil {
		return nil, err
	}
	if input.CountedClosingAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	var session models.TellerSession
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := AcquireDrawerPostingLock(tx, input.SessionId); err != nil {
			return err
		}
		defer ReleaseDrawerPostingLock(tx, input.SessionId)
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.SessionId).First(&session).Error; err != nil {
			return err
		}
		if session.Status != models.TellerSessionStatusActive {
			return ErrSessionNotActive
		}
		if session.CashierId != actor.ID {
			return ErrNotOwner
		}

		expected, err := computeExpectedDrawerBalance(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		counted := models.Quantize2(input.CountedClosingAmount)
		variance := models.Quantize2(counted.Sub(expected))
		now := time.Now()

		session.CountedClosingAmount = &counted
		session.ExpectedClosingAmount = &expected
		session.VarianceAmount = &variance
		session.VarianceNote = input.VarianceNote
		session.ClosedAt = &now
		session.ClosedById = &actor.ID
		session.Status = models.TellerSessionStatusClosed
		return tx.WithContext(ctx).Model(&session).Updates(map[string]interface{}{
			"counted_closing_amount":  counted,
			"expected_closing_amount": expected,
			"variance_amount":         variance,
			"variance_note":           input.VarianceNote,
			"closed_at":               now,
			"closed_by_id":            actor.ID,
			"status":                  models.TellerSessionStatusClosed,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "cash.session.close",
		TargetType: "teller_session",
		TargetId:   fmt.Sprintf("%d", session.ID),
		Summary:    fmt.Sprintf("closed with variance %s", session.VarianceAmount.StringFixed(2)),
	})
	return &session, nil
}

// ReverseCashEntry appends the correcting row for a mis-posted entry: opposite
// direction, same amount, reference fields copied. An entry acquires at most
// one reversal and a reversal can never itself be reversed.
func ReverseCashEntry(ctx context.Context, entryId int, reason string) (*models.CashLedgerEntry, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapReverseCashEntry); err != nil {
		return nil, err
	}

	var reversal *models.CashLedgerEntry
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent reversal attempts on the same entry.
		lockName := fmt.Sprintf("cashentry:%d", entryId)
		if err := acquirePostingLock(tx, lockName); err != nil {
			return err
		}
		defer releasePostingLock(tx, lockName)
		var entry models.CashLedgerEntry
		if err := tx.WithContext(ctx).Where("id = ?", entryId).First(&entry).Error; err != nil {
			return err
		}
		if err := RequireBranch(actor, entry.BranchId); err != nil {
			return err
		}
		if entry.IsReversal() || entry.ReversesEntryId != nil {
			return ErrAlreadyReversed
		}
		var children int64
		if err := tx.WithContext(ctx).Model(&models.CashLedgerEntry{}).
			Where("reverses_entry_id = ?", entry.ID).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return ErrAlreadyReversed
		}

		row := models.CashLedgerEntry{
			BranchId:        entry.BranchId,
			SessionId:       entry.SessionId,
			EventType:       models.CashEventReversal,
			Direction:       entry.Direction.Opposite(),
			Amount:          entry.Amount,
			Narration:       reason,
			ReferenceType:   entry.ReferenceType,
			ReferenceId:     entry.ReferenceId,
			CreatedById:     actor.ID,
			ReversesEntryId: &entry.ID,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
		reversal = &row
		return nil
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "cash.entry.reverse",
		TargetType: "cash_ledger_entry",
		TargetId:   fmt.Sprintf("%d", entryId),
		Summary:    fmt.Sprintf("reversed by entry %d: %s", reversal.ID, reason),
	})
	return reversal, nil
}

// ReviewSession records the manager's sign-off on a CLOSED session. Review
// metadata is the only mutation a closed session accepts.
func ReviewSession(ctx context.Context, sessionId int, note string) (*models.TellerSession, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapReviewSession); err != nil {
		return nil, err
	}

	var session models.TellerSession
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).Where("id = ?", sessionId).First(&session).Error; err != nil {
			return err
		}
		if err := RequireBranch(actor, session.BranchId); err != nil {
			return err
		}
		if session.Status != models.TellerSessionStatusClosed {
			return ErrSessionNotClosed
		}
		now := time.Now()
		session.ReviewedAt = &now
		session.ReviewedById = &actor.ID
		session.ReviewNote = note
		return tx.WithContext(ctx).Model(&session).Updates(map[string]interface{}{
			"reviewed_at":    now,
			"reviewed_by_id": actor.ID,
			"review_note":    note,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "cash.session.review",
		TargetType: "teller_session",
		TargetId:   fmt.Sprintf("%d", sessionId),
		Summary:    "session reviewed",
	})
	return &session, nil
}

// GetActiveSessionForCashier resolves the cashier's single ACTIVE session.
func GetActiveSessionForCashier(ctx context.Context, tx *gorm.DB, cashierId int) (*models.TellerSession, error) {
	var session models.TellerSession
	err := tx.WithContext(ctx).
		Where("cashier_id = ? AND status = ?", cashierId, models.TellerSessionStatusActive).
		First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoActiveSession
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}
