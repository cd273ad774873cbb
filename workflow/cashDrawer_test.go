package workflow

import (
	"testing"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/shopspring/decimal"
)

// Drawer semantics with in-memory entry slices; the DB-backed path runs the
// same fold over rows loaded for the session.

func TestDrawerExpectedBalance_ScenarioOpeningThenOutflow(t *testing.T) {
	// Session confirmed with 50000: the opening VAULT_TO_DRAWER row IS the
	// confirmed opening, so the fold starts at zero.
	entries := []models.CashLedgerEntry{
		{EventType: models.CashEventVaultToDrawer, Direction: models.CashDirectionInflow, Amount: amt("50000.00")},
	}
	expected := models.DrawerBalanceFromEntries(decimal.Zero, entries)
	if !expected.Equal(amt("50000.00")) {
		t.Fatalf("expected balance = %s, want 50000.00", expected)
	}

	// An OUTFLOW of 60000 would take the drawer negative and must be refused.
	outflow := amt("60000.00")
	if !expected.Sub(outflow).IsNegative() {
		t.Fatal("outflow of 60000 should exceed the drawer balance")
	}

	// 40000 fits.
	if expected.Sub(amt("40000.00")).IsNegative() {
		t.Fatal("outflow of 40000 should be within the drawer balance")
	}
}

func TestDrawerExpectedBalance_ReversalPairCancels(t *testing.T) {
	original := models.CashLedgerEntry{
		ID:        10,
		EventType: models.CashEventSavingsDepositCash,
		Direction: models.CashDirectionInflow,
		Amount:    amt("2000.00"),
	}
	reversal := models.CashLedgerEntry{
		EventType:       models.CashEventReversal,
		Direction:       original.Direction.Opposite(),
		Amount:          original.Amount,
		ReversesEntryId: &original.ID,
	}

	// Reversal law: signed amounts of the pair sum to zero.
	if !original.SignedAmount().Add(reversal.SignedAmount()).IsZero() {
		t.Fatal("entry + reversal signed amounts should cancel")
	}
	if !reversal.IsReversal() {
		t.Fatal("reversal row should report IsReversal")
	}
	if original.IsReversal() {
		t.Fatal("original row should not report IsReversal")
	}
}

func TestDrawerVariance(t *testing.T) {
	entries := []models.CashLedgerEntry{
		{EventType: models.CashEventVaultToDrawer, Direction: models.CashDirectionInflow, Amount: amt("50000.00")},
		{EventType: models.CashEventSavingsDepositCash, Direction: models.CashDirectionInflow, Amount: amt("12000.00")},
		{EventType: models.CashEventSavingsWithdrawalCash, Direction: models.CashDirectionOutflow, Amount: amt("7000.00")},
	}
	expected := models.DrawerBalanceFromEntries(decimal.Zero, entries)
	if !expected.Equal(amt("55000.00")) {
		t.Fatalf("expected = %s, want 55000.00", expected)
	}

	counted := amt("54950.00")
	variance := counted.Sub(expected)
	if !variance.Equal(amt("-50.00")) {
		t.Fatalf("variance = %s, want -50.00", variance)
	}
}
