package models

import "time"

type Branch struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Code      string    `gorm:"size:20;uniqueIndex;not null" json:"code" binding:"required"`
	Name      string    `gorm:"size:100;not null" json:"name" binding:"required"`
	Address   string    `gorm:"type:text" json:"address"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BranchVault is one row per branch for reporting. Its balance is derived from
// vault-level ledger entries, never stored.
type BranchVault struct {
	ID        int       `gorm:"primary_key" json:"id"`
	BranchId  int       `gorm:"uniqueIndex;not null" json:"branch_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
