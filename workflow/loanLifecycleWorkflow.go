package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Product-bound loan pipeline: DRAFT -> SUBMITTED -> {APPROVED, REJECTED,
// CHANGES_REQUESTED} -> ACTIVE at disbursement. There is no transient
// DISBURSED status: disbursement activates the loan in one step.

type CreateDraftLoanInput struct {
	ClientId             int                       `json:"client_id" binding:"required"`
	BranchId             int                       `json:"branch_id" binding:"required"`
	ProductId            int                       `json:"product_id" binding:"required"`
	PrincipalAmount      decimal.Decimal           `json:"principal_amount" binding:"required"`
	NumberOfInstallments int                       `json:"number_of_installments" binding:"required"`
	RepaymentFrequency   models.RepaymentFrequency `json:"repayment_frequency" binding:"required"`
	Purpose              string                    `json:"purpose"`
}

func CreateDraftLoan(ctx context.Context, input CreateDraftLoanInput) (*models.Loan, error) {
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
		product, err := models.GetLoanProductById(ctx, tx, input.ProductId)
		if err != nil {
			return err
		}
		if product.IsActive != nil && !*product.IsActive {
			return ErrProductInactive
		}
		if input.PrincipalAmount.LessThan(product.MinAmount) ||
			input.PrincipalAmount.GreaterThan(product.MaxAmount) {
			return ErrAmountOutsideProductRange
		}

		loan = models.Loan{
			ClientId:             input.ClientId,
			BranchId:             input.BranchId,
			ProductId:            &product.ID,
			PrincipalAmount:      models.Quantize2(input.PrincipalAmount),
			InterestRate:         product.InterestRate,
			NumberOfInstallments: input.NumberOfInstallments,
			RepaymentFrequency:   input.RepaymentFrequency,
			Purpose:              input.Purpose,
			Status:               models.LoanStatusDraft,
			LoanOfficerId:        &actor.ID,
			CreatedById:          actor.ID,
		}
		return tx.WithContext(ctx).Create(&loan).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "loan.draft.create",
		TargetType: "loan",
		TargetId:   fmt.Sprintf("%d", loan.ID),
		Summary:    fmt.Sprintf("draft loan of %s for client %d", loan.PrincipalAmount.StringFixed(2), loan.ClientId),
	})
	return &loan, nil
}

// SubmitLoan moves a DRAFT or CHANGES_REQUESTED loan into the review queue,
// gated on every mandatory product document having an upload.
func SubmitLoan(ctx context.Context, loanId int) (*models.Loan, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapCreateLoan); err != nil {
		return nil, err
	}

	var loan models.Loan
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", loanId).First(&loan).Error; err != nil {
			return err
		}
		if err := RequireBranch(actor, loan.BranchId); err != nil {
			return err
		}
		if loan.Status != models.LoanStatusDraft && loan.Status != models.LoanStatusChangesRequested {
			return ErrLoanNotDraft
		}
		if loan.ProductId != nil {
			missing, err := models.CountMissingMandatoryDocuments(ctx, tx, loan.ID, *loan.ProductId)
			if err != nil {
				return err
			}
			if missing > 0 {
				return ErrMissingDocuments
			}
		}
		now := time.Now()
		loan.Status = models.LoanStatusSubmitted
		loan.SubmittedAt = &now
		return tx.WithContext(ctx).Model(&loan).Updates(map[string]interface{}{
			"status":       models.LoanStatusSubmitted,
			"submitted_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "loan.submit",
		TargetType: "loan",
		TargetId:   fmt.Sprintf("%d", loan.ID),
		Summary:    "loan submitted for review",
	})
	return &loan, nil
}

type AttachLoanDocumentInput struct {
	LoanId             int    `json:"loan_id"`
	RequiredDocumentId int    `json:"required_document_id"`
	Label              string `json:"label"`
	FileRef            string `json:"file_ref" binding:"required"`
}

// AttachLoanDocument records an uploaded document reference against an
// editable loan. The file itself lives in external storage; only the opaque
// reference lands here, feeding the submit-time completeness check.
func AttachLoanDocument(ctx context.Context, input AttachLoanDocumentInput) (*models.LoanDocument, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapCreateLoan); err != nil {
		return nil, err
	}

	var doc models.LoanDocument
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		loan, err := models.GetLoanById(ctx, tx, input.LoanId)
		if err != nil {
			return err
		}
		if err := RequireBranch(actor, loan.BranchId); err != nil {
			return err
		}
		if loan.Status != models.LoanStatusDraft && loan.Status != models.LoanStatusChangesRequested {
			return ErrLoanNotDraft
		}
		doc = models.LoanDocument{
			LoanId:             loan.ID,
			RequiredDocumentId: input.RequiredDocumentId,
			Label:              input.Label,
			FileRef:            input.FileRef,
			UploadedById:       actor.ID,
		}
		return tx.WithContext(ctx).Create(&doc).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

type ReviewDecision string

const (
	ReviewDecisionApprove        ReviewDecision = "APPROVE"
	ReviewDecisionReject         ReviewDecision = "REJECT"
	ReviewDecisionRequestChanges ReviewDecision = "REQUEST_CHANGES"
)

type ReviewLoanInput struct {
	LoanId   int            `json:"loan_id"`
	Decision ReviewDecision `json:"decision" binding:"required"`
	Note     string         `json:"note"`
}

// ReviewLoan is the branch manager's decision on a SUBMITTED loan.
func ReviewLoan(ctx context.Context, input ReviewLoanInput) (*models.Loan, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapReviewLoan); err != nil {
		return nil, err
	}

	var next models.LoanStatus
	switch input.Decision {
	case ReviewDecisionApprove:
		next = models.LoanStatusApproved
	case ReviewDecisionReject:
		next = models.LoanStatusRejected
	case ReviewDecisionRequestChanges:
		next = models.LoanStatusChangesRequested
	default:
		return nil, ErrInvalidReviewDecision
	}

	var loan models.Loan
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.LoanId).First(&loan).Error; err != nil {
			return err
		}
		if err := RequireBranch(actor, loan.BranchId); err != nil {
			return err
		}
		if loan.Status != models.LoanStatusSubmitted {
			return ErrLoanNotSubmitted
		}

		updates := map[string]interface{}{
			"status":            next,
			"branch_manager_id": actor.ID,
			"review_note":       input.Note,
		}
		if next == models.LoanStatusApproved {
			now := time.Now()
			loan.ApprovedAt = &now
			updates["approved_at"] = now
		}
		loan.Status = next
		loan.BranchManagerId = &actor.ID
		loan.ReviewNote = input.Note
		return tx.WithContext(ctx).Model(&loan).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "loan.review",
		TargetType: "loan",
		TargetId:   fmt.Sprintf("%d", loan.ID),
		Summary:    fmt.Sprintf("review decision %s", input.Decision),
	})
	return &loan, nil
}

type DisburseLoanInput struct {
	LoanId                int       `json:"loan_id"`
	DisbursementMethod    string    `json:"disbursement_method" binding:"required"`
	DisbursementReference string    `json:"disbursement_reference"`
	FirstDueDate          time.Time `json:"first_due_date"`
}

// DisburseLoan pays an APPROVED loan out and activates it in one step: the
// schedule is generated from the first due date, and cash disbursements draw
// down the disbursing cashier's drawer.
func DisburseLoan(ctx context.Context, input DisburseLoanInput) (*models.Loan, error) {
	actor := ActorFromContext(ctx)
	if err := RequireCapability(actor, CapDisburseLoan); err != nil {
		return nil, err
	}

	var loan models.Loan
	err := config.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", input.LoanId).First(&loan).Error; err != nil {
			return err
		}
		if err := RequireBranch(actor, loan.BranchId); err != nil {
			return err
		}
		if loan.Status != models.LoanStatusApproved {
			return ErrLoanNotApproved
		}

		now := time.Now()
		firstDue := input.FirstDueDate
		if firstDue.IsZero() {
			if loan.RepaymentFrequency == models.RepaymentFrequencyWeekly {
				firstDue = now.AddDate(0, 0, 7)
			} else {
				firstDue = addMonths(now, 1)
			}
		}

		loan.Status = models.LoanStatusActive
		loan.DisbursedAt = &now
		loan.DisbursementDate = &now
		loan.FirstDueDate = &firstDue
		loan.DisbursementMethod = input.DisbursementMethod
		loan.DisbursementReference = input.DisbursementReference
		if err := tx.WithContext(ctx).Model(&loan).Updates(map[string]interface{}{
			"status":                 models.LoanStatusActive,
			"disbursed_at":           now,
			"disbursement_date":      now,
			"first_due_date":         firstDue,
			"disbursement_method":    input.DisbursementMethod,
			"disbursement_reference": input.DisbursementReference,
		}).Error; err != nil {
			return err
		}

		if err := createScheduleForLoan(ctx, tx, &loan, firstDue); err != nil {
			return err
		}

		if models.PaymentMethod(input.DisbursementMethod) == models.PaymentMethodCash {
			if _, err := RecordCashLoanDisbursement(ctx, tx, actor, loan.BranchId, loan.ID, loan.PrincipalAmount); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	emitAudit(ctx, AuditEvent{
		Action:     "loan.disburse",
		TargetType: "loan",
		TargetId:   fmt.Sprintf("%d", loan.ID),
		Summary:    fmt.Sprintf("disbursed %s via %s", loan.PrincipalAmount.StringFixed(2), loan.DisbursementMethod),
	})
	return &loan, nil
}
