package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TellerSessionStatus string

const (
	TellerSessionStatusAllocated TellerSessionStatus = "ALLOCATED"
	TellerSessionStatusActive    TellerSessionStatus = "ACTIVE"
	TellerSessionStatusClosed    TellerSessionStatus = "CLOSED"
)

// TellerSession is one cashier's drawer-custody period for a branch.
// Lifecycle: manager allocates (ALLOCATED) -> cashier confirms the counted
// opening (ACTIVE) -> cashier closes with a final count (CLOSED). A CLOSED
// session is immutable except for manager review metadata.
type TellerSession struct {
	ID       int                 `gorm:"primary_key" json:"id"`
	BranchId int                 `gorm:"index;not null;index:idx_ts_branch_status,priority:1" json:"branch_id"`
	CashierId int                `gorm:"index;not null;index:idx_ts_cashier_status,priority:1" json:"cashier_id"`
	Status   TellerSessionStatus `gorm:"type:enum('ALLOCATED','ACTIVE','CLOSED');not null;default:'ALLOCATED';index:idx_ts_branch_status,priority:2;index:idx_ts_cashier_status,priority:2" json:"status"`

	OpeningAmount decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0" json:"opening_amount"`
	AllocatedById int             `gorm:"index" json:"allocated_by_id"`
	AllocatedAt   time.Time       `gorm:"autoCreateTime" json:"allocated_at"`

	ConfirmedOpeningAmount *decimal.Decimal `gorm:"type:decimal(14,2)" json:"confirmed_opening_amount"`
	ConfirmedAt            *time.Time       `json:"confirmed_at"`
	ConfirmedById          *int             `json:"confirmed_by_id"`
	OpenedAt               *time.Time       `json:"opened_at"`

	CountedClosingAmount  *decimal.Decimal `gorm:"type:decimal(14,2)" json:"counted_closing_amount"`
	ExpectedClosingAmount *decimal.Decimal `gorm:"type:decimal(14,2)" json:"expected_closing_amount"`
	VarianceAmount        *decimal.Decimal `gorm:"type:decimal(14,2)" json:"variance_amount"`
	VarianceNote          string           `gorm:"type:text" json:"variance_note"`
	ClosedAt              *time.Time       `json:"closed_at"`
	ClosedById            *int             `json:"closed_by_id"`

	ReviewedAt   *time.Time `json:"reviewed_at"`
	ReviewedById *int       `json:"reviewed_by_id"`
	ReviewNote   string     `gorm:"type:text" json:"review_note"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (s *TellerSession) IsImmutable() bool {
	return s.Status == TellerSessionStatusClosed
}

// Closed sessions accept review metadata only.
var closedSessionAllowedUpdates = map[string]bool{
	"ReviewedAt":   true,
	"ReviewedById": true,
	"ReviewNote":   true,
	"UpdatedAt":    true,
}

func (s *TellerSession) BeforeUpdate(tx *gorm.DB) error {
	if tx == nil || tx.Statement == nil || tx.Statement.Schema == nil {
		return nil
	}
	var current TellerSession
	if err := tx.Session(&gorm.Session{NewDB: true}).
		Select("status").Where("id = ?", s.ID).First(&current).Error; err != nil {
		return nil
	}
	if current.Status != TellerSessionStatusClosed {
		return nil
	}
	for _, f := range tx.Statement.Schema.Fields {
		if tx.Statement.Changed(f.Name) && !closedSessionAllowedUpdates[f.Name] {
			return errors.New("closed teller session is immutable; only review fields may be updated")
		}
	}
	return nil
}

func (s *TellerSession) BeforeDelete(tx *gorm.DB) error {
	return errors.New("teller sessions cannot be deleted")
}
