package main

import (
	"log"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"bitbucket.org/mmdatafocus/mfi_backend/models"
	"github.com/shopspring/decimal"
)

// Seeds the standard loan and savings products. Idempotent: products are
// matched by code and only created when missing.
func main() {
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if err := models.AutoMigrateAll(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	loanProducts := []models.LoanProduct{
		{
			Code:         "GRP-STD",
			Name:         "Group Lending Standard",
			MinAmount:    decimal.NewFromInt(50000),
			MaxAmount:    decimal.NewFromInt(1000000),
			InterestRate: decimal.NewFromFloat(12.5),
			TermMonths:   12,
		},
		{
			Code:         "SME-BIZ",
			Name:         "Small Business Loan",
			MinAmount:    decimal.NewFromInt(500000),
			MaxAmount:    decimal.NewFromInt(10000000),
			InterestRate: decimal.NewFromFloat(15.0),
			TermMonths:   24,
		},
	}
	for _, p := range loanProducts {
		product := p
		if err := db.Where(models.LoanProduct{Code: product.Code}).
			FirstOrCreate(&product).Error; err != nil {
			log.Fatalf("loan product %s: %v", p.Code, err)
		}
		log.Printf("loan product %s (id=%d)", product.Code, product.ID)
	}

	savingsProducts := []models.SavingsProduct{
		{
			Code:                            "SAV-BASIC",
			Name:                            "Basic Savings",
			MinOpeningBalance:               decimal.NewFromInt(1000),
			MinBalance:                      decimal.NewFromInt(500),
			InterestRate:                    decimal.NewFromFloat(5.0),
			WithdrawalRequiresApprovalAbove: decimal.NewFromInt(500000),
			WithdrawalFee:                   decimal.Zero,
		},
		{
			Code:                            "SAV-PREM",
			Name:                            "Premium Savings",
			MinOpeningBalance:               decimal.NewFromInt(50000),
			MinBalance:                      decimal.NewFromInt(25000),
			InterestRate:                    decimal.NewFromFloat(7.5),
			WithdrawalRequiresApprovalAbove: decimal.NewFromInt(2000000),
			WithdrawalFee:                   decimal.NewFromInt(100),
		},
	}
	for _, p := range savingsProducts {
		product := p
		if err := db.Where(models.SavingsProduct{Code: product.Code}).
			FirstOrCreate(&product).Error; err != nil {
			log.Fatalf("savings product %s: %v", p.Code, err)
		}
		models.InvalidateSavingsProductCache(product.ID)
		log.Printf("savings product %s (id=%d)", product.Code, product.ID)
	}
}
