package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// Advisory locks serialize read-modify-insert sequences over derived balances.
// Two concurrent OUTFLOW postings must not both pass the insufficient-funds
// check against a stale expected balance.
// NOTE: GET_LOCK is connection-scoped, so these must be called on the same
// *gorm.DB transaction that will do the posting. Named locks survive COMMIT,
// so every successful acquire must be paired with a deferred release on the
// same transaction or the pooled connection keeps the lock forever.

func acquirePostingLock(tx *gorm.DB, lockName string) error {
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire posting lock %s", lockName)
	}
	return nil
}

func releasePostingLock(tx *gorm.DB, lockName string) {
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}

// AcquireDrawerPostingLock serializes posting per teller session.
func AcquireDrawerPostingLock(tx *gorm.DB, sessionId int) error {
	return acquirePostingLock(tx, fmt.Sprintf("drawer:%d", sessionId))
}

func ReleaseDrawerPostingLock(tx *gorm.DB, sessionId int) {
	releasePostingLock(tx, fmt.Sprintf("drawer:%d", sessionId))
}

// AcquireLoanPostingLock serializes repayment allocation per loan.
func AcquireLoanPostingLock(tx *gorm.DB, loanId int) error {
	return acquirePostingLock(tx, fmt.Sprintf("loan:%d", loanId))
}

func ReleaseLoanPostingLock(tx *gorm.DB, loanId int) {
	releasePostingLock(tx, fmt.Sprintf("loan:%d", loanId))
}

// AcquireAccountPostingLock serializes balance-sensitive savings operations
// per account.
func AcquireAccountPostingLock(tx *gorm.DB, accountId int) error {
	return acquirePostingLock(tx, fmt.Sprintf("savings:%d", accountId))
}

func ReleaseAccountPostingLock(tx *gorm.DB, accountId int) {
	releasePostingLock(tx, fmt.Sprintf("savings:%d", accountId))
}
