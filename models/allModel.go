package models

import "gorm.io/gorm"

// AutoMigrateAll registers every table owned by this service.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&Branch{},
		&BranchVault{},
		&User{},
		&Client{},
		&KYCRecord{},
		&TellerSession{},
		&CashLedgerEntry{},
		&LoanProduct{},
		&LoanProductRequiredDocument{},
		&LoanDocument{},
		&Loan{},
		&LoanInstallment{},
		&Repayment{},
		&SavingsProduct{},
		&SavingsAccount{},
		&SavingsTransaction{},
	)
}
