package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoanStatus string

const (
	LoanStatusDraft            LoanStatus = "DRAFT"
	LoanStatusSubmitted        LoanStatus = "SUBMITTED"
	LoanStatusChangesRequested LoanStatus = "CHANGES_REQUESTED"
	LoanStatusApproved         LoanStatus = "APPROVED"
	LoanStatusRejected         LoanStatus = "REJECTED"
	LoanStatusActive           LoanStatus = "ACTIVE"
	LoanStatusClosed           LoanStatus = "CLOSED"
	// DEFAULTED is a reporting label; no code path sets it. The computed risk
	// label (OK/AT_RISK/DELINQUENT) is primary.
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
)

// Statuses that count against the one-loan-per-client rule: anything that is
// not terminal still occupies the client's pipeline.
func LoanPipelineStatuses() []LoanStatus {
	return []LoanStatus{
		LoanStatusDraft, LoanStatusSubmitted, LoanStatusChangesRequested,
		LoanStatusApproved, LoanStatusActive,
	}
}

type RepaymentFrequency string

const (
	RepaymentFrequencyWeekly  RepaymentFrequency = "WEEKLY"
	RepaymentFrequencyMonthly RepaymentFrequency = "MONTHLY"
)

type Loan struct {
	ID       int  `gorm:"primary_key" json:"id"`
	ClientId int  `gorm:"index;not null;index:idx_loan_client_status,priority:1" json:"client_id"`
	BranchId int  `gorm:"index;not null" json:"branch_id"`
	ProductId *int `gorm:"index" json:"product_id"`

	PrincipalAmount      decimal.Decimal    `gorm:"type:decimal(14,2);not null" json:"principal_amount"`
	InterestRate         decimal.Decimal    `gorm:"type:decimal(6,2);not null" json:"interest_rate"`
	NumberOfInstallments int                `gorm:"not null" json:"number_of_installments"`
	RepaymentFrequency   RepaymentFrequency `gorm:"type:enum('WEEKLY','MONTHLY');not null" json:"repayment_frequency"`

	DisbursementDate *time.Time `gorm:"type:date" json:"disbursement_date"`
	FirstDueDate     *time.Time `gorm:"type:date" json:"first_due_date"`
	Purpose          string     `gorm:"size:255" json:"purpose"`

	Status LoanStatus `gorm:"type:enum('DRAFT','SUBMITTED','CHANGES_REQUESTED','APPROVED','REJECTED','ACTIVE','CLOSED','DEFAULTED');not null;default:'ACTIVE';index:idx_loan_client_status,priority:2" json:"status"`

	LoanOfficerId   *int       `gorm:"index" json:"loan_officer_id"`
	BranchManagerId *int       `json:"branch_manager_id"`
	SubmittedAt     *time.Time `json:"submitted_at"`
	ApprovedAt      *time.Time `json:"approved_at"`
	DisbursedAt     *time.Time `json:"disbursed_at"`
	DisbursementMethod    string `gorm:"size:32" json:"disbursement_method"`
	DisbursementReference string `gorm:"size:64" json:"disbursement_reference"`
	ReviewNote      string     `gorm:"type:text" json:"review_note"`

	CreatedById int       `gorm:"index" json:"created_by_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Installments []LoanInstallment `gorm:"foreignKey:LoanId" json:"installments,omitempty"`
}

// TotalInterestAmount is flat interest: principal * rate / 100, quantized.
func (l *Loan) TotalInterestAmount() decimal.Decimal {
	return Quantize2(l.PrincipalAmount.Mul(l.InterestRate).Div(decimal.NewFromInt(100)))
}

func (l *Loan) TotalAmountDue() decimal.Decimal {
	return Quantize2(l.PrincipalAmount.Add(l.TotalInterestAmount()))
}

func (l *Loan) TotalPaid() decimal.Decimal {
	amounts := make([]decimal.Decimal, len(l.Installments))
	for i, inst := range l.Installments {
		amounts[i] = inst.AmountPaid
	}
	return SumAmounts(amounts)
}

func (l *Loan) OutstandingAmount() decimal.Decimal {
	out := l.TotalAmountDue().Sub(l.TotalPaid())
	if out.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return Quantize2(out)
}

type LoanInstallmentStatus string

const (
	LoanInstallmentStatusPending LoanInstallmentStatus = "PENDING"
	LoanInstallmentStatusPaid    LoanInstallmentStatus = "PAID"
	LoanInstallmentStatusOverdue LoanInstallmentStatus = "OVERDUE"
)

type LoanInstallment struct {
	ID                int       `gorm:"primary_key" json:"id"`
	LoanId            int       `gorm:"not null;uniqueIndex:uq_loan_installment,priority:1;index:idx_li_loan_due,priority:1;index:idx_li_loan_status,priority:1" json:"loan_id"`
	InstallmentNumber int       `gorm:"not null;uniqueIndex:uq_loan_installment,priority:2" json:"installment_number"`
	DueDate           time.Time `gorm:"type:date;not null;index:idx_li_loan_due,priority:2" json:"due_date"`

	AmountDue  decimal.Decimal       `gorm:"type:decimal(14,2);not null" json:"amount_due"`
	AmountPaid decimal.Decimal       `gorm:"type:decimal(14,2);not null;default:0" json:"amount_paid"`
	Status     LoanInstallmentStatus `gorm:"type:enum('PENDING','PAID','OVERDUE');not null;default:'PENDING';index:idx_li_loan_status,priority:2" json:"status"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OutstandingAmount never reports negative; amount_paid may not exceed
// amount_due by construction (excess is rejected at allocation).
func (i *LoanInstallment) OutstandingAmount() decimal.Decimal {
	out := i.AmountDue.Sub(i.AmountPaid)
	if out.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return Quantize2(out)
}

func (i *LoanInstallment) FullyPaid() bool {
	return i.AmountPaid.GreaterThanOrEqual(i.AmountDue)
}

// Repayment is one cash-in event against a loan. Immutable once created.
type Repayment struct {
	ID            int             `gorm:"primary_key" json:"id"`
	LoanId        int             `gorm:"not null;index:idx_rp_loan_date,priority:1" json:"loan_id"`
	InstallmentId *int            `gorm:"index" json:"installment_id"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount_paid"`
	PaymentDate   time.Time       `gorm:"type:date;not null;index:idx_rp_loan_date,priority:2" json:"payment_date"`
	PaymentMethod string          `gorm:"size:32" json:"payment_method"`
	RecordedById  int             `gorm:"index" json:"recorded_by_id"`
	Note          string          `gorm:"size:255" json:"note"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (r *Repayment) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("immutable ledger: repayments cannot be updated")
}

func (r *Repayment) BeforeDelete(tx *gorm.DB) error {
	return errors.New("immutable ledger: repayments cannot be deleted")
}

func GetLoanById(ctx context.Context, tx *gorm.DB, id int) (*Loan, error) {
	var loan Loan
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&loan).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func GetLoanWithInstallments(ctx context.Context, tx *gorm.DB, id int) (*Loan, error) {
	var loan Loan
	if err := tx.WithContext(ctx).
		Preload("Installments", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number ASC")
		}).
		Where("id = ?", id).First(&loan).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

// ClientHasLoanInPipeline reports whether the client already holds a loan in a
// non-terminal status. A client may hold at most one such loan.
func ClientHasLoanInPipeline(ctx context.Context, tx *gorm.DB, clientId int, excludeLoanId int) (bool, error) {
	var count int64
	q := tx.WithContext(ctx).Model(&Loan{}).
		Where("client_id = ? AND status IN ?", clientId, LoanPipelineStatuses())
	if excludeLoanId > 0 {
		q = q.Where("id <> ?", excludeLoanId)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
