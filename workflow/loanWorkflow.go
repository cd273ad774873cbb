package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"bitbucket.org/mmdatafocus/mfi_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Risk labels derived from the worst overdue installment.
const (
	RiskLabelOK         = "OK"
	RiskLabelAtRisk     = "AT_RISK"
	RiskLabelDelinquent = "DELINQUENT"
)

// addMonths advances by calendar months, clamping to the last day of the
// target month (Jan 31 + 1 month = Feb 28/29, not Mar 2/3).
func addMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1
	lastDay := time.Date(year, time.Month(m)+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, time.Month(m), day, 0, 0, 0, 0, t.Location())
}

// GenerateInstallmentSchedule splits totalDue into n equal 2dp installments;
// the last row absorbs the rounding drift so the schedule sums to totalDue
// exactly. Pure: the caller assigns LoanId and persists.
func GenerateInstallmentSchedule(totalDue decimal.Decimal, n int, firstDueDate time.Time, frequency models.RepaymentFrequency) []models.LoanInstallment {
	if n <= 0 {
		return nil
	}
	per := models.Quantize2(totalDue.Div(decimal.NewFromInt(int64(n))))
	last := models.Quantize2(totalDue.Sub(per.Mul(decimal.NewFromInt(int64(n - 1)))))

	installments := make([]models.LoanInstallment, 0, n)
	for i := 0; i < n; i++ {
		amount := per
		if i == n-1 {
			amount = last
		}
		var due time.Time
		switch frequency {
		case models.RepaymentFrequencyWeekly:
			due = firstDueDate.AddDate(0, 0, 7*i)
		default:
			due = addMonths(firstDueDate, i)
		}
		installments = append(installments, models.LoanInstallment{
			InstallmentNumber: i + 1,
			DueDate:           due,
			AmountDue:         amount,
			AmountPaid:        decimal.Zero.Round(2),
			Status:            models.LoanInstallmentStatusPending,
		})
	}
	return installments
}

type installmentAllocation struct {
	InstallmentId int
	Amount        decimal.Decimal
}

// allocateAcrossInstallments walks the schedule oldest-first (optionally
// starting at a given installment) and fills outstanding amounts until the
// payment is consumed. A payment larger than the remaining outstanding is
// rejected whole: no partial allocation is ever returned with an error.
func allocateAcrossInstallments(installments []models.LoanInstallment, amount decimal.Decimal, startInstallmentId int) ([]installmentAllocation, error) {
	start := 0
	if startInstallmentId > 0 {
		start = -1
		for i, inst := range installments {
			if inst.ID == startInstallmentId {
				start = i
				break
			}
		}
		if start < 0 {
			return nil, utils.ErrorRecordNotFound
		}
	}

	remaining := amount
	var allocations []installmentAllocation
	for i := start; i < len(installments) && remaining.IsPositive(); i++ {
		outstanding := installments[i].OutstandingAmount()
		if !outstanding.IsPositive() {
			continue
		}
		take := outstanding
		if remaining.LessThan(outstanding) {
			take = remaining
		}
		allocations = append(allocations, installmentAllocation{
			InstallmentId: installments[i].ID,
			Amount:        take,
		})
		remaining = remaining.Sub(take)
	}
	if remaining.IsPositive() {
		return nil, ErrOverpaymentRejected
	}
	return allocations, nil
}

// daysOverdue counts whole days between due date and today; 0 when not due.
func daysOverdue(dueDate, today time.Time) int {
	due := time.Date(dueDate.Year(), dueDate.Month(), dueDate.Day(), 0, 0, 0, 0, time.UTC)
	now := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	days := int(now.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// RiskLabelForInstallments derives OK / AT_RISK (1-14 days) / DELINQUENT
// (15+ days) from the worst unpaid installment.
func RiskLabelForInstallments(installments []models.LoanInstallment, today time.Time) string {
	maxDays := 0
	for _, inst := range installments {
		if inst.FullyPaid() {
			continue
		}
		if d := daysOverdue(inst.DueDate, today); d > maxDays {
			maxDays = d
		}
	}
	switch {
	case maxDays >= 15:
		return RiskLabelDelinquent
	case maxDays >= 1:
		return RiskLabelAtRisk
	}
	return RiskLabelOK
}

// expectedInstallmentStatus recomputes the status an installment should carry.
func expectedInstallmentStatus(inst models.LoanInstallment, today time.Time) models.LoanInstallmentStatus {
	if inst.FullyPaid() {
		return models.LoanInstallmentStatusPaid
	}
	if daysOverdue(inst.DueDate, today) >= 1 {
		return models.LoanInstallmentStatusOverdue
	}
	return models.LoanInstallmentStatusPending
}

// RefreshOverdueFlagsForLoan recomputes every installment status from the
// amounts and today's date, writing only rows whose status actually changed.
// Running it twice with the same today is a no-op the second time. Returns the
// loan's risk label.
func RefreshOverdueFlagsForLoan(ctx context.Context, tx *gorm.DB, loanId int, today time.Time) (string, error) {
	var installments []models.LoanInstallment
	if err := tx.WithContext(ctx).
		Where("loan_id = ?", loanId).
		Order("installment_number ASC").
		Find(&installments).Error; err != nil {
		return "", err
	}
	for i := range installments {
		want := expectedInstallmentStatus(installments[i], today)
		if installments[i].Status == want {
			continue
		}
		if err := tx.WithContext(ctx).Model(&installments[i]).
			Update("status", want).Error; err != nil {
			return "", err
		}
		installments[i].Status = want
	}
	return RiskLabelForInstallments(installments, today), nil
}

type CreateLoanInput struct {
	ClientId             int                       `json:"client_id" binding:"required"`
	BranchId             int                       `json:"branch_id" binding:"required"`
	PrincipalAmount      decimal.Decimal           `json:"principal_amount" binding:"required"`
	InterestRate         decimal.Decimal           `json:"interest_rate"`
	NumberOfInstallments int                       `json:"number_of_installments" binding:"required"`
	RepaymentFrequency   models.RepaymentFrequency `json:"repayment_frequency" binding:"required"`
	FirstDueDate         time.Time                 `json:"first_due_date" binding:"required"`
	Purpose              string                    `json:"purpose"`
}

// CreateLoan is the direct flavor: the loan is born ACTIVE with its schedule,
// no product binding and no approval pipeline. Used for walk-in group lending
// where the officer disburses on the spot.
func CreateLoan(ctx context.Context, input CreateLoanInput) (*models.Loan, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapCreateLoan); err != nil {
		return nil, err
	}
	if err := RequireBranch(actor, input.BranchId); err != nil {
		return nil, err
	}
	if !input.PrincipalAmount.IsPositive() || input.NumberOfInstallments <= 0 {
		return nil, ErrInvalidAmount
	}

	var loan models.Loan
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := checkClientEligibleForLoan(ctx, tx, input.ClientId, 0); err != nil {
			return err
		}

		now := time.Now()
		loan = models.Loan{
			ClientId:             input.ClientId,
			BranchId:             input.BranchId,
			PrincipalAmount:      models.Quantize2(input.PrincipalAmount),
			InterestRate:         input.InterestRate,
			NumberOfInstallments: input.NumberOfInstallments,
			RepaymentFrequency:   input.RepaymentFrequency,
			DisbursementDate:     &now,
			FirstDueDate:         &input.FirstDueDate,
			Purpose:              input.Purpose,
			Status:               models.LoanStatusActive,
			DisbursedAt:          &now,
			CreatedById:          actor.ID,
		}
		if err := tx.WithContext(ctx).Create(&loan).Error; err != nil {
			return err
		}
		return createScheduleForLoan(ctx, tx, &loan, input.FirstDueDate)
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "loan.create",
		TargetType: "loan",
		TargetId:   fmt.Sprintf("%d", loan.ID),
		Summary:    fmt.Sprintf("active loan of %s for client %d", loan.PrincipalAmount.StringFixed(2), loan.ClientId),
	})
	return &loan, nil
}

// checkClientEligibleForLoan enforces the shared lending preconditions:
// client ACTIVE, KYC APPROVED, and at most one loan in the pipeline.
func checkClientEligibleForLoan(ctx context.Context, tx *gorm.DB, clientId int, excludeLoanId int) error {
	client, err := models.GetClientById(ctx, tx, clientId)
	if err != nil {
		return err
	}
	if client.Status != models.ClientStatusActive {
		return ErrClientNotActive
	}
	approved, err := models.ClientHasApprovedKYC(ctx, tx, clientId)
	if err != nil {
		return err
	}
	if !approved {
		return ErrKYCNotApproved
	}
	inPipeline, err := models.ClientHasLoanInPipeline(ctx, tx, clientId, excludeLoanId)
	if err != nil {
		return err
	}
	if inPipeline {
		return ErrActiveLoanExists
	}
	return nil
}

func createScheduleForLoan(ctx context.Context, tx *gorm.DB, loan *models.Loan, firstDueDate time.Time) error {
	installments := GenerateInstallmentSchedule(
		loan.TotalAmountDue(), loan.NumberOfInstallments, firstDueDate, loan.RepaymentFrequency)
	for i := range installments {
		installments[i].LoanId = loan.ID
	}
	return tx.WithContext(ctx).Create(&installments).Error
}

type RepaymentInput struct {
	LoanId             int             `json:"loan_id"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate        time.Time       `json:"payment_date"`
	PaymentMethod      string          `json:"payment_method"`
	StartInstallmentId int             `json:"start_installment_id"`
	Note               string          `json:"note"`
}

// AllocateRepaymentToSchedule records one repayment against an ACTIVE loan:
// oldest-first cascade under the loan's advisory lock, overpayment rejected
// whole, overdue flags refreshed, loan closed when the last installment fills.
// Cash repayments also hit the recording cashier's drawer.
func AllocateRepaymentToSchedule(ctx context.Context, input RepaymentInput) (*models.Repayment, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapRecordRepayment); err != nil {
		return nil, err
	}
	if !input.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if input.PaymentDate.IsZero() {
		input.PaymentDate = time.Now()
	}

	var repayment models.Repayment
	var closed bool
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := AcquireLoanPostingLock(tx, input.LoanId); err != nil {
			return err
		}
		defer ReleaseLoanPostingLock(tx, input.LoanId)
		var loan models.Loan
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.LoanId).First(&loan).Error; err != nil {
			return err
		}
		if err := RequireBranch(actor, loan.BranchId); err != nil {
			return err
		}
		if loan.Status != models.LoanStatusActive {
			return ErrLoanNotActive
		}

		var installments []models.LoanInstallment
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("loan_id = ?", loan.ID).
			Order("installment_number ASC").
			Find(&installments).Error; err != nil {
			return err
		}

		amount := models.Quantize2(input.Amount)
		allocations, err := allocateAcrossInstallments(installments, amount, input.StartInstallmentId)
		if err != nil {
			return err
		}

		byId := make(map[int]*models.LoanInstallment, len(installments))
		for i := range installments {
			byId[installments[i].ID] = &installments[i]
		}
		for _, alloc := range allocations {
			inst := byId[alloc.InstallmentId]
			inst.AmountPaid = models.Quantize2(inst.AmountPaid.Add(alloc.Amount))
			updates := map[string]interface{}{"amount_paid": inst.AmountPaid}
			if inst.FullyPaid() {
				inst.Status = models.LoanInstallmentStatusPaid
				updates["status"] = models.LoanInstallmentStatusPaid
			}
			if err := tx.WithContext(ctx).Model(inst).Updates(updates).Error; err != nil {
				return err
			}
		}

		repayment = models.Repayment{
			LoanId:        loan.ID,
			AmountPaid:    amount,
			PaymentDate:   input.PaymentDate,
			PaymentMethod: input.PaymentMethod,
			RecordedById:  actor.ID,
			Note:          input.Note,
		}
		if len(allocations) > 0 {
			repayment.InstallmentId = &allocations[0].InstallmentId
		}
		if err := tx.WithContext(ctx).Create(&repayment).Error; err != nil {
			return err
		}

		if _, err := RefreshOverdueFlagsForLoan(ctx, tx, loan.ID, input.PaymentDate); err != nil {
			return err
		}

		allPaid := true
		for _, inst := range installments {
			if !inst.FullyPaid() {
				allPaid = false
				break
			}
		}
		if allPaid {
			if err := tx.WithContext(ctx).Model(&loan).
				Update("status", models.LoanStatusClosed).Error; err != nil {
				return err
			}
			closed = true
		}

		if models.PaymentMethod(input.PaymentMethod) == models.PaymentMethodCash {
			if _, err := RecordCashLoanRepayment(ctx, tx, actor, loan.BranchId, repayment.ID, amount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary := fmt.Sprintf("repaid %s on loan %d", repayment.AmountPaid.StringFixed(2), repayment.LoanId)
	if closed {
		summary += " (loan closed)"
	}
	emitAudit(ctx, AuditEvent{
		Action:     "loan.repayment.record",
		TargetType: "repayment",
		TargetId:   fmt.Sprintf("%d", repayment.ID),
		Summary:    summary,
	})
	return &repayment, nil
}

// LoanScheduleView is the read model for a loan with its derived figures.
type LoanScheduleView struct {
	Loan        *models.Loan    `json:"loan"`
	TotalDue    decimal.Decimal `json:"total_due"`
	TotalPaid   decimal.Decimal `json:"total_paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
	RiskLabel   string          `json:"risk_label"`
}

func GetLoanSchedule(ctx context.Context, loanId int) (*LoanScheduleView, error) {
	actor := ActorFromContext(ctx)
	loan, err := models.GetLoanWithInstallments(ctx, config.GetDB(), loanId)
	if err != nil {
		return nil, err
	}
	if err := RequireBranch(actor, loan.BranchId); err != nil {
		return nil, err
	}
	return &LoanScheduleView{
		Loan:        loan,
		TotalDue:    loan.TotalAmountDue(),
		TotalPaid:   loan.TotalPaid(),
		Outstanding: loan.OutstandingAmount(),
		RiskLabel:   RiskLabelForInstallments(loan.Installments, time.Now()),
	}, nil
}
