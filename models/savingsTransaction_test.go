package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func posted(txType SavingsTxType, amount string) SavingsTransaction {
	return SavingsTransaction{TxType: txType, Amount: amt(amount), Status: SavingsTxStatusPosted}
}

func TestBalanceFromTransactions_CreditDebitSigns(t *testing.T) {
	txs := []SavingsTransaction{
		posted(SavingsTxDeposit, "1000.00"),
		posted(SavingsTxTransferIn, "200.00"),
		posted(SavingsTxInterest, "10.00"),
		posted(SavingsTxWithdrawal, "300.00"),
		posted(SavingsTxTransferOut, "100.00"),
		posted(SavingsTxFee, "5.00"),
	}
	want := amt("805.00")
	if got := BalanceFromTransactions(txs); !got.Equal(want) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}

func TestBalanceFromTransactions_IgnoresNonPosted(t *testing.T) {
	txs := []SavingsTransaction{
		posted(SavingsTxDeposit, "1000.00"),
		{TxType: SavingsTxWithdrawal, Amount: amt("400.00"), Status: SavingsTxStatusPending},
		{TxType: SavingsTxWithdrawal, Amount: amt("400.00"), Status: SavingsTxStatusRejected},
		{TxType: SavingsTxDeposit, Amount: amt("400.00"), Status: SavingsTxStatusReversed},
	}
	want := amt("1000.00")
	if got := BalanceFromTransactions(txs); !got.Equal(want) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}

func TestBalanceFromTransactions_AdjustmentSign(t *testing.T) {
	credit := true
	debit := false
	txs := []SavingsTransaction{
		{TxType: SavingsTxAdjustment, Amount: amt("50.00"), Status: SavingsTxStatusPosted, IsCreditAdjustment: &credit},
		{TxType: SavingsTxAdjustment, Amount: amt("20.00"), Status: SavingsTxStatusPosted, IsCreditAdjustment: &debit},
	}
	want := amt("30.00")
	if got := BalanceFromTransactions(txs); !got.Equal(want) {
		t.Fatalf("balance = %s, want %s", got, want)
	}
}

func TestBalanceFromTransactions_OrderIndependent(t *testing.T) {
	txs := []SavingsTransaction{
		posted(SavingsTxDeposit, "123.45"),
		posted(SavingsTxWithdrawal, "23.45"),
		posted(SavingsTxDeposit, "0.55"),
		posted(SavingsTxFee, "0.55"),
	}
	forward := BalanceFromTransactions(txs)

	reversed := make([]SavingsTransaction, len(txs))
	for i, tx := range txs {
		reversed[len(txs)-1-i] = tx
	}
	backward := BalanceFromTransactions(reversed)

	if !forward.Equal(backward) {
		t.Fatalf("fold is order dependent: %s vs %s", forward, backward)
	}
	if want := amt("100.00"); !forward.Equal(want) {
		t.Fatalf("balance = %s, want %s", forward, want)
	}
}
