package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/shopspring/decimal"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func scheduleSum(installments []models.LoanInstallment) decimal.Decimal {
	sum := decimal.Zero
	for _, inst := range installments {
		sum = sum.Add(inst.AmountDue)
	}
	return sum
}

func TestGenerateInstallmentSchedule_EvenSplit(t *testing.T) {
	// principal 1000 at 10% flat -> total due 1100, 4 weekly installments
	loan := models.Loan{
		PrincipalAmount:      amt("1000.00"),
		InterestRate:         amt("10.00"),
		NumberOfInstallments: 4,
	}
	totalDue := loan.TotalAmountDue()
	if !totalDue.Equal(amt("1100.00")) {
		t.Fatalf("total due = %s, want 1100.00", totalDue)
	}

	first := date(2026, time.March, 2)
	installments := GenerateInstallmentSchedule(totalDue, 4, first, models.RepaymentFrequencyWeekly)
	if len(installments) != 4 {
		t.Fatalf("got %d installments, want 4", len(installments))
	}
	for i, inst := range installments {
		if !inst.AmountDue.Equal(amt("275.00")) {
			t.Errorf("installment %d due = %s, want 275.00", i+1, inst.AmountDue)
		}
		wantDue := first.AddDate(0, 0, 7*i)
		if !inst.DueDate.Equal(wantDue) {
			t.Errorf("installment %d due date = %s, want %s", i+1, inst.DueDate, wantDue)
		}
		if inst.InstallmentNumber != i+1 {
			t.Errorf("installment number = %d, want %d", inst.InstallmentNumber, i+1)
		}
	}
	if !scheduleSum(installments).Equal(totalDue) {
		t.Fatalf("schedule sum = %s, want %s", scheduleSum(installments), totalDue)
	}
}

func TestGenerateInstallmentSchedule_LastAbsorbsDrift(t *testing.T) {
	// 100 over 3: 33.33 + 33.33 + 33.34 = 100.00 exactly
	installments := GenerateInstallmentSchedule(amt("100.00"), 3, date(2026, time.January, 15), models.RepaymentFrequencyMonthly)
	if len(installments) != 3 {
		t.Fatalf("got %d installments, want 3", len(installments))
	}
	if !installments[0].AmountDue.Equal(amt("33.33")) || !installments[1].AmountDue.Equal(amt("33.33")) {
		t.Fatalf("leading installments = %s, %s, want 33.33 each", installments[0].AmountDue, installments[1].AmountDue)
	}
	if !installments[2].AmountDue.Equal(amt("33.34")) {
		t.Fatalf("last installment = %s, want 33.34", installments[2].AmountDue)
	}
	if !scheduleSum(installments).Equal(amt("100.00")) {
		t.Fatalf("schedule sum = %s, want 100.00", scheduleSum(installments))
	}
}

func TestGenerateInstallmentSchedule_MonthlyDates(t *testing.T) {
	installments := GenerateInstallmentSchedule(amt("300.00"), 3, date(2026, time.February, 15), models.RepaymentFrequencyMonthly)
	wantDates := []time.Time{
		date(2026, time.February, 15),
		date(2026, time.March, 15),
		date(2026, time.April, 15),
	}
	for i, inst := range installments {
		if !inst.DueDate.Equal(wantDates[i]) {
			t.Errorf("installment %d due date = %s, want %s", i+1, inst.DueDate, wantDates[i])
		}
	}
}

func TestAddMonths_ClampsToMonthEnd(t *testing.T) {
	cases := []struct {
		start  time.Time
		months int
		want   time.Time
	}{
		{date(2026, time.January, 31), 1, date(2026, time.February, 28)},
		{date(2024, time.January, 31), 1, date(2024, time.February, 29)},
		{date(2026, time.January, 31), 2, date(2026, time.March, 31)},
		{date(2026, time.March, 31), 1, date(2026, time.April, 30)},
		{date(2026, time.November, 30), 2, date(2027, time.January, 30)},
		{date(2026, time.July, 15), 6, date(2027, time.January, 15)},
	}
	for _, c := range cases {
		if got := addMonths(c.start, c.months); !got.Equal(c.want) {
			t.Errorf("addMonths(%s, %d) = %s, want %s", c.start.Format("2006-01-02"), c.months, got.Format("2006-01-02"), c.want.Format("2006-01-02"))
		}
	}
}

func TestRiskLabelForInstallments(t *testing.T) {
	today := date(2026, time.June, 20)
	cases := []struct {
		name         string
		installments []models.LoanInstallment
		want         string
	}{
		{
			name: "nothing overdue",
			installments: []models.LoanInstallment{
				{DueDate: date(2026, time.June, 20), AmountDue: amt("100.00")},
				{DueDate: date(2026, time.July, 20), AmountDue: amt("100.00")},
			},
			want: RiskLabelOK,
		},
		{
			name: "paid installments never count",
			installments: []models.LoanInstallment{
				{DueDate: date(2026, time.May, 1), AmountDue: amt("100.00"), AmountPaid: amt("100.00")},
			},
			want: RiskLabelOK,
		},
		{
			name: "one day late",
			installments: []models.LoanInstallment{
				{DueDate: date(2026, time.June, 19), AmountDue: amt("100.00")},
			},
			want: RiskLabelAtRisk,
		},
		{
			name: "fourteen days late",
			installments: []models.LoanInstallment{
				{DueDate: date(2026, time.June, 6), AmountDue: amt("100.00")},
			},
			want: RiskLabelAtRisk,
		},
		{
			name: "fifteen days late",
			installments: []models.LoanInstallment{
				{DueDate: date(2026, time.June, 5), AmountDue: amt("100.00")},
			},
			want: RiskLabelDelinquent,
		},
	}
	for _, c := range cases {
		if got := RiskLabelForInstallments(c.installments, today); got != c.want {
			t.Errorf("%s: label = %s, want %s", c.name, got, c.want)
		}
	}
}

func TestExpectedInstallmentStatus_Idempotent(t *testing.T) {
	today := date(2026, time.June, 20)
	installments := []models.LoanInstallment{
		{DueDate: date(2026, time.May, 1), AmountDue: amt("100.00")},
		{DueDate: date(2026, time.July, 1), AmountDue: amt("100.00")},
		{DueDate: date(2026, time.May, 1), AmountDue: amt("100.00"), AmountPaid: amt("100.00")},
	}
	want := []models.LoanInstallmentStatus{
		models.LoanInstallmentStatusOverdue,
		models.LoanInstallmentStatusPending,
		models.LoanInstallmentStatusPaid,
	}
	for i := range installments {
		first := expectedInstallmentStatus(installments[i], today)
		if first != want[i] {
			t.Errorf("installment %d status = %s, want %s", i, first, want[i])
		}
		installments[i].Status = first
		if second := expectedInstallmentStatus(installments[i], today); second != first {
			t.Errorf("installment %d not stable: %s then %s", i, first, second)
		}
	}
}
