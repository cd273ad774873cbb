package workflow

import (
	"errors"
	"testing"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/shopspring/decimal"
)

func threeInstallments() []models.LoanInstallment {
	return []models.LoanInstallment{
		{ID: 1, InstallmentNumber: 1, AmountDue: amt("100.00")},
		{ID: 2, InstallmentNumber: 2, AmountDue: amt("100.00")},
		{ID: 3, InstallmentNumber: 3, AmountDue: amt("100.00")},
	}
}

func TestAllocate_CascadesOldestFirst(t *testing.T) {
	allocations, err := allocateAcrossInstallments(threeInstallments(), amt("150.00"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocations))
	}
	if allocations[0].InstallmentId != 1 || !allocations[0].Amount.Equal(amt("100.00")) {
		t.Fatalf("first allocation = %+v", allocations[0])
	}
	if allocations[1].InstallmentId != 2 || !allocations[1].Amount.Equal(amt("50.00")) {
		t.Fatalf("second allocation = %+v", allocations[1])
	}
}

func TestAllocate_SkipsPaidInstallments(t *testing.T) {
	installments := threeInstallments()
	installments[0].AmountPaid = amt("100.00")

	allocations, err := allocateAcrossInstallments(installments, amt("100.00"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocations) != 1 || allocations[0].InstallmentId != 2 {
		t.Fatalf("allocations = %+v, want single fill of installment 2", allocations)
	}
}

func TestAllocate_StartAtInstallment(t *testing.T) {
	allocations, err := allocateAcrossInstallments(threeInstallments(), amt("150.00"), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(allocations) != 2 {
		t.Fatalf("got %d allocations, want 2", len(allocations))
	}
	if allocations[0].InstallmentId != 2 || allocations[1].InstallmentId != 3 {
		t.Fatalf("allocations = %+v, want installments 2 then 3", allocations)
	}
}

func TestAllocate_UnknownStartInstallment(t *testing.T) {
	_, err := allocateAcrossInstallments(threeInstallments(), amt("50.00"), 99)
	if err == nil {
		t.Fatal("expected error for unknown start installment")
	}
}

func TestAllocate_OverpaymentRejectedWhole(t *testing.T) {
	installments := threeInstallments()
	installments[0].AmountPaid = amt("60.00")

	// outstanding = 40 + 100 + 100 = 240
	_, err := allocateAcrossInstallments(installments, amt("240.01"), 0)
	if !errors.Is(err, ErrOverpaymentRejected) {
		t.Fatalf("err = %v, want ErrOverpaymentRejected", err)
	}

	// installments untouched: the allocator never mutates its input
	if !installments[0].AmountPaid.Equal(amt("60.00")) {
		t.Fatalf("installment mutated: %s", installments[0].AmountPaid)
	}
}

func TestAllocate_ExactPayoffConsumesEverything(t *testing.T) {
	allocations, err := allocateAcrossInstallments(threeInstallments(), amt("300.00"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Amount)
	}
	if !total.Equal(amt("300.00")) {
		t.Fatalf("allocated %s, want 300.00", total)
	}
	if len(allocations) != 3 {
		t.Fatalf("got %d allocations, want 3", len(allocations))
	}
}

func TestLoanOutstanding_NeverNegative(t *testing.T) {
	inst := models.LoanInstallment{AmountDue: amt("100.00"), AmountPaid: amt("100.00")}
	if !inst.OutstandingAmount().IsZero() {
		t.Fatalf("outstanding = %s, want 0", inst.OutstandingAmount())
	}
	if !inst.FullyPaid() {
		t.Fatal("installment should be fully paid")
	}
}
