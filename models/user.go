package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/mfi_backend/config"
	"gorm.io/gorm"
)

// UserRole is a closed enumeration. Authorization decisions pattern-match on it
// (see workflow/authz.go); no string comparison against free-form values.
type UserRole string

const (
	UserRoleSuperAdmin      UserRole = "SUPER_ADMIN"
	UserRoleBranchManager   UserRole = "BRANCH_MANAGER"
	UserRoleLoanOfficer     UserRole = "LOAN_OFFICER"
	UserRoleCashier         UserRole = "CASHIER"
	UserRoleAuditor         UserRole = "AUDITOR"
	UserRoleRecoveryOfficer UserRole = "RECOVERY_OFFICER"
)

func (r UserRole) Valid() bool {
	switch r {
	case UserRoleSuperAdmin, UserRoleBranchManager, UserRoleLoanOfficer,
		UserRoleCashier, UserRoleAuditor, UserRoleRecoveryOfficer:
		return true
	}
	return false
}

type User struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Username  string    `gorm:"size:64;uniqueIndex;not null" json:"username" binding:"required"`
	Name      string    `gorm:"size:100" json:"name"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('SUPER_ADMIN','BRANCH_MANAGER','LOAN_OFFICER','CASHIER','AUDITOR','RECOVERY_OFFICER');not null;index" json:"role"`
	BranchId  int       `gorm:"index" json:"branch_id"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetUserById(ctx context.Context, tx *gorm.DB, id int) (*User, error) {
	var user User
	if err := tx.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	db := config.GetDB()
	var user User
	if err := db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
