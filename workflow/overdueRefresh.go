package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/bsm/redislock"
	"gorm.io/gorm"
)

// OverdueRefreshSummary reports one sweep of the active loan book.
type OverdueRefreshSummary struct {
	LoansScanned int            `json:"loans_scanned"`
	ByRiskLabel  map[string]int `json:"by_risk_label"`
}

// RefreshAllOverdueLoans sweeps every ACTIVE loan and recomputes its
// installment statuses for today. A best-effort redis lock keeps overlapping
// scheduler runs from double-scanning; when the lock is held elsewhere the
// sweep is skipped, not queued.
func RefreshAllOverdueLoans(ctx context.Context, today time.Time) (*OverdueRefreshSummary, error) {
	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "overdue-refresh", 10*time.Minute, nil)
		if err == redislock.ErrNotObtained {
			config.GetLogger().Info("overdue refresh already running elsewhere; skipping")
			return &OverdueRefreshSummary{ByRiskLabel: map[string]int{}}, nil
		}
		if err == nil {
			defer lock.Release(ctx)
		}
	}

	var loanIds []int
	if err := config.GetDB().WithContext(ctx).Model(&models.Loan{}).
		Where("status = ?", models.LoanStatusActive).
		Pluck("id", &loanIds).Error; err != nil {
		return nil, err
	}

	summary := &OverdueRefreshSummary{ByRiskLabel: map[string]int{}}
	for _, loanId := range loanIds {
		var label string
		err := config.GetDB().Transaction(func(tx *gorm.DB) error {
			if err := AcquireLoanPostingLock(tx, loanId); err != nil {
				return err
			}
			defer ReleaseLoanPostingLock(tx, loanId)
			var err error
			label, err = RefreshOverdueFlagsForLoan(ctx, tx, loanId, today)
			return err
		})
		if err != nil {
			config.LogError(config.GetLogger(), "overdueRefresh.go", "RefreshAllOverdueLoans", "loan", loanId, err)
			continue
		}
		summary.LoansScanned++
		summary.ByRiskLabel[label]++
	}
	return summary, nil
}
