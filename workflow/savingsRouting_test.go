package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
)

func policy(minBalance, threshold, fee string) *models.SavingsProduct {
	return &models.SavingsProduct{
		MinBalance:                      amt(minBalance),
		WithdrawalRequiresApprovalAbove: amt(threshold),
		WithdrawalFee:                   amt(fee),
	}
}

func TestWithdrawalNeedsApproval_ThresholdRouting(t *testing.T) {
	p := policy("0.00", "100000.00", "0.00")

	cases := []struct {
		amount string
		want   bool
	}{
		{"99999.99", false},
		{"100000.00", false}, // strictly above routes to approval
		{"100000.01", true},
		{"500000.00", true},
	}
	for _, c := range cases {
		if got := withdrawalNeedsApproval(amt(c.amount), p); got != c.want {
			t.Errorf("withdrawalNeedsApproval(%s) = %v, want %v", c.amount, got, c.want)
		}
	}
}

func TestWithdrawalNeedsApproval_ZeroThresholdNeverRoutes(t *testing.T) {
	p := policy("0.00", "0.00", "0.00")
	if withdrawalNeedsApproval(amt("1000000.00"), p) {
		t.Fatal("zero threshold should disable approval routing")
	}
}

func TestWithdrawalLeavesMinBalance(t *testing.T) {
	p := policy("500.00", "0.00", "0.00")
	balance := amt("1000.00")

	if !withdrawalLeavesMinBalance(balance, amt("500.00"), p) {
		t.Fatal("withdrawal to exactly min balance should pass")
	}
	if withdrawalLeavesMinBalance(balance, amt("500.01"), p) {
		t.Fatal("withdrawal breaching min balance should fail")
	}
}

func TestWithdrawalLeavesMinBalance_FeeCounts(t *testing.T) {
	p := policy("500.00", "0.00", "25.00")
	balance := amt("1000.00")

	if !withdrawalLeavesMinBalance(balance, amt("475.00"), p) {
		t.Fatal("475 + 25 fee lands exactly on min balance; should pass")
	}
	if withdrawalLeavesMinBalance(balance, amt("475.01"), p) {
		t.Fatal("fee pushes the account below min balance; should fail")
	}
}

func TestScenarioC_PendingRowDoesNotDebit(t *testing.T) {
	// balance 100000, threshold 50000: a 60000 withdrawal parks PENDING and the
	// derived balance is unchanged until a manager approves it.
	p := policy("0.00", "50000.00", "0.00")
	withdrawal := amt("60000.00")
	if !withdrawalNeedsApproval(withdrawal, p) {
		t.Fatal("60000 over a 50000 threshold should need approval")
	}

	txs := []models.SavingsTransaction{
		{TxType: models.SavingsTxDeposit, Amount: amt("100000.00"), Status: models.SavingsTxStatusPosted},
		{TxType: models.SavingsTxWithdrawal, Amount: withdrawal, Status: models.SavingsTxStatusPending},
	}
	if got := models.BalanceFromTransactions(txs); !got.Equal(amt("100000.00")) {
		t.Fatalf("pending withdrawal changed balance: %s", got)
	}

	// After approval the row posts and the balance drops.
	txs[1].Status = models.SavingsTxStatusPosted
	if got := models.BalanceFromTransactions(txs); !got.Equal(amt("40000.00")) {
		t.Fatalf("posted withdrawal balance = %s, want 40000.00", got)
	}
}
