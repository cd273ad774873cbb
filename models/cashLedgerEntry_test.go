package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCashDirection_Opposite(t *testing.T) {
	if CashDirectionInflow.Opposite() != CashDirectionOutflow {
		t.Fatal("INFLOW opposite should be OUTFLOW")
	}
	if CashDirectionOutflow.Opposite() != CashDirectionInflow {
		t.Fatal("OUTFLOW opposite should be INFLOW")
	}
}

func TestSignedAmount(t *testing.T) {
	in := CashLedgerEntry{Direction: CashDirectionInflow, Amount: amt("100.00")}
	out := CashLedgerEntry{Direction: CashDirectionOutflow, Amount: amt("40.00")}
	if !in.SignedAmount().Equal(amt("100.00")) {
		t.Fatalf("inflow signed = %s", in.SignedAmount())
	}
	if !out.SignedAmount().Equal(amt("-40.00")) {
		t.Fatalf("outflow signed = %s", out.SignedAmount())
	}
}

func TestDrawerBalanceFromEntries_ExcludesReversals(t *testing.T) {
	entries := []CashLedgerEntry{
		{EventType: CashEventVaultToDrawer, Direction: CashDirectionInflow, Amount: amt("50000.00")},
		{EventType: CashEventSavingsDepositCash, Direction: CashDirectionInflow, Amount: amt("2000.00")},
		{EventType: CashEventSavingsWithdrawalCash, Direction: CashDirectionOutflow, Amount: amt("500.00")},
		{EventType: CashEventReversal, Direction: CashDirectionOutflow, Amount: amt("2000.00")},
	}
	want := amt("51500.00")
	if got := DrawerBalanceFromEntries(decimal.Zero, entries); !got.Equal(want) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}

func TestDrawerBalanceFromEntries_StartsFromOpening(t *testing.T) {
	entries := []CashLedgerEntry{
		{EventType: CashEventLoanRepaymentCash, Direction: CashDirectionInflow, Amount: amt("750.25")},
	}
	want := amt("10750.25")
	if got := DrawerBalanceFromEntries(amt("10000.00"), entries); !got.Equal(want) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}
