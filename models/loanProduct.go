package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type LoanProduct struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Code         string          `gorm:"size:20;uniqueIndex;not null" json:"code" binding:"required"`
	Name         string          `gorm:"size:255;not null" json:"name" binding:"required"`
	MinAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"min_amount"`
	MaxAmount    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"max_amount"`
	InterestRate decimal.Decimal `gorm:"type:decimal(6,2);not null;default:0" json:"interest_rate"`
	TermMonths   int             `gorm:"not null;default:0" json:"term_months"`
	IsActive     *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// LoanProductRequiredDocument lists the paperwork a product demands before a
// draft loan may be submitted for approval.
type LoanProductRequiredDocument struct {
	ID          int       `gorm:"primary_key" json:"id"`
	ProductId   int       `gorm:"index;not null" json:"product_id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	IsMandatory *bool     `gorm:"not null;default:true" json:"is_mandatory"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// LoanDocument records an uploaded document against a draft loan. The file
// itself lives in external storage; only the opaque reference is kept here.
type LoanDocument struct {
	ID           int       `gorm:"primary_key" json:"id"`
	LoanId       int       `gorm:"index;not null" json:"loan_id"`
	RequiredDocumentId int `gorm:"index" json:"required_document_id"`
	Label        string    `gorm:"size:255" json:"label"`
	FileRef      string    `gorm:"size:255;not null" json:"file_ref"`
	UploadedById int       `gorm:"index" json:"uploaded_by_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func GetLoanProductById(ctx context.Context, tx *gorm.DB, id int) (*LoanProduct, error) {
	var product LoanProduct
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// CountMissingMandatoryDocuments returns how many mandatory product documents
// have no upload against the loan yet.
func CountMissingMandatoryDocuments(ctx context.Context, tx *gorm.DB, loanId int, productId int) (int64, error) {
	var required []LoanProductRequiredDocument
	if err := tx.WithContext(ctx).
		Where("product_id = ? AND is_mandatory = true", productId).
		Find(&required).Error; err != nil {
		return 0, err
	}
	if len(required) == 0 {
		return 0, nil
	}

	var uploaded []LoanDocument
	if err := tx.WithContext(ctx).Where("loan_id = ?", loanId).Find(&uploaded).Error; err != nil {
		return 0, err
	}
	uploadedBy := make(map[int]bool, len(uploaded))
	for _, d := range uploaded {
		uploadedBy[d.RequiredDocumentId] = true
	}

	var missing int64
	for _, r := range required {
		if !uploadedBy[r.ID] {
			missing++
		}
	}
	return missing, nil
}
